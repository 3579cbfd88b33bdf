// Package speech wraps the configured speech recognition engine behind a
// uniform adapter that owns device selection, model lifecycle, and the
// transcription pipeline.
package speech

import (
	"time"
)

// Task values accepted by the engines. Unknown values are passed through
// untouched; the engine is the source of truth for legality.
const (
	TaskTranscribe = "transcribe"
	TaskTranslate  = "translate"
)

// SampleRate is the sample rate all engines decode at, in Hz.
const SampleRate = 16000

// Options holds the fully resolved parameters for a single transcription
// request. All fields must be populated (or explicitly zero) before the
// options reach the adapter.
type Options struct {
	Language       string  // ISO-639-1 code, empty for auto-detect
	Task           string  // "transcribe" or "translate"
	Temperature    float64 // sampling temperature, 0.0 for deterministic decoding
	WordTimestamps bool    // request per-token timestamps from the engine
	Prompt         string  // optional initial prompt to bias decoding
}

// DefaultOptions returns the documented request defaults: transcribe task,
// temperature 0.0, no word timestamps, auto-detected language.
func DefaultOptions() Options {
	return Options{Task: TaskTranscribe}
}

// Segment is one decoded portion of audio as emitted by an engine.
type Segment struct {
	Text  string
	Start time.Duration
	End   time.Duration
}

// Output is the raw engine emission before response shaping.
type Output struct {
	Segments   []Segment
	Language   string  // detected language code, empty if the engine cannot detect
	Confidence float64 // language/decode confidence in [0,1], 0.0 if unsupported
}

// Engine is the capability interface implemented by the recognition engine
// variants. Samples are 16 kHz mono float32 in [-1, 1].
type Engine interface {
	Transcribe(samples []float32, opts Options) (*Output, error)
	Name() string
	Close() error
}

// Result is the stable response contract for one transcription. Text and
// Error are never both populated.
type Result struct {
	Success        bool    `json:"success"`
	Text           string  `json:"text,omitempty"`
	Language       string  `json:"language,omitempty"`
	LanguageName   string  `json:"language_name,omitempty"`
	Confidence     float64 `json:"confidence"`
	Task           string  `json:"task,omitempty"`
	ProcessingTime float64 `json:"processing_time"`
	Error          string  `json:"error,omitempty"`
}

// State is the adapter lifecycle state. Unavailable is terminal for the
// process lifetime; there is no automatic reload.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateUnavailable
)

// String returns the state name for logging and health reporting
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}
