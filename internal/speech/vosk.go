package speech

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sync"

	vosk "github.com/alphacep/vosk-api/go"

	"github.com/quenby/voicegate/pkg/logger"
)

// voskEngine is the faster, lower-fidelity engine variant. Vosk does not
// detect languages or score its output, so results carry the configured
// language and a confidence of 0.0. This is a documented limitation of the
// variant, not an error. Task, temperature, and prompt options are ignored.
type voskEngine struct {
	mu         sync.Mutex
	model      *vosk.VoskModel
	recognizer *vosk.VoskRecognizer
	logger     *logger.Logger
}

// voskResult parses the JSON emitted by the recognizer
type voskResult struct {
	Text string `json:"text"`
}

// newVoskEngine loads a Vosk model directory from disk
func newVoskEngine(modelDir string, log *logger.Logger) (*voskEngine, error) {
	if _, err := os.Stat(modelDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("vosk model not found: %s", modelDir)
	}

	model, err := vosk.NewModel(modelDir)
	if err != nil {
		return nil, fmt.Errorf("load vosk model: %w", err)
	}

	recognizer, err := vosk.NewRecognizer(model, float64(SampleRate))
	if err != nil {
		model.Free()
		return nil, fmt.Errorf("create vosk recognizer: %w", err)
	}

	log.Info("Vosk model loaded", logger.String("path", modelDir))

	return &voskEngine{
		model:      model,
		recognizer: recognizer,
		logger:     log,
	}, nil
}

// Name returns the engine name
func (e *voskEngine) Name() string {
	return "vosk"
}

// Transcribe feeds the samples through the shared recognizer. Vosk consumes
// PCM16, so samples are converted from float32 first. The recognizer is
// stateful and reset after each call, hence the mutex.
func (e *voskEngine) Transcribe(samples []float32, opts Options) (*Output, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pcm16 := make([]byte, len(samples)*2)
	for i, sample := range samples {
		if sample > 1.0 {
			sample = 1.0
		} else if sample < -1.0 {
			sample = -1.0
		}
		binary.LittleEndian.PutUint16(pcm16[i*2:], uint16(int16(sample*math.MaxInt16)))
	}

	e.recognizer.AcceptWaveform(pcm16)
	resultJSON := e.recognizer.FinalResult()
	e.recognizer.Reset()

	var result voskResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("parse vosk result: %w", err)
	}

	return &Output{
		Segments:   []Segment{{Text: result.Text}},
		Language:   opts.Language,
		Confidence: 0.0,
	}, nil
}

// Close releases the recognizer and model
func (e *voskEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.recognizer != nil {
		e.recognizer.Free()
		e.recognizer = nil
	}
	if e.model != nil {
		e.model.Free()
		e.model = nil
	}
	return nil
}
