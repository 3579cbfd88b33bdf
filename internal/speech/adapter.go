package speech

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/quenby/voicegate/internal/config"
	"github.com/quenby/voicegate/pkg/logger"
)

// Adapter presents recognition capability uniformly regardless of which
// engine variant is configured. It owns device selection, the model
// lifecycle, and the shaping of engine output into Results.
//
// Lifecycle: Uninitialized -> Loading -> Ready or Unavailable. Unavailable is
// terminal; the model is never reloaded during the process lifetime and all
// call sites can check Ready before invoking transcription.
type Adapter struct {
	cfg     config.SpeechConfig
	device  Device
	compute string
	dec     *decoder
	logger  *logger.Logger

	mu     sync.RWMutex
	state  State
	engine Engine
}

// NewAdapter probes the compute device and returns an adapter in the
// Uninitialized state. Load must be called before transcription.
func NewAdapter(cfg config.SpeechConfig, log *logger.Logger) *Adapter {
	device := detectDevice()
	adapterLog := log.Named("speech-adapter")

	adapterLog.Info("Selected compute device",
		logger.String("device", string(device)),
		logger.String("compute_format", computeFormat(device)))

	return &Adapter{
		cfg:     cfg,
		device:  device,
		compute: computeFormat(device),
		dec:     newDecoder(cfg.FFmpegPath, adapterLog),
		logger:  adapterLog,
		state:   StateUninitialized,
	}
}

// Load materializes the configured engine. On failure the adapter enters the
// Unavailable state rather than returning an error; the service keeps running
// in a degraded, health-reporting mode.
func (a *Adapter) Load() {
	a.setState(StateLoading)

	a.logger.Info("Loading speech model",
		logger.String("engine", a.cfg.Engine),
		logger.String("model_size", a.cfg.ModelSize),
		logger.String("model_path", a.cfg.ModelPath),
		logger.String("device", string(a.device)))

	var engine Engine
	var err error
	switch a.cfg.Engine {
	case "vosk":
		engine, err = newVoskEngine(a.cfg.ModelPath, a.logger)
	default:
		engine, err = newWhisperEngine(a.cfg.ModelPath, a.cfg.Threads, a.logger)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.logger.Error("Failed to load speech model, transcription unavailable", logger.Error(err))
		a.state = StateUnavailable
		return
	}
	a.engine = engine
	a.state = StateReady
}

// Ready reports whether the adapter can serve transcriptions
func (a *Adapter) Ready() bool {
	return a.State() == StateReady
}

// State returns the current lifecycle state
func (a *Adapter) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

func (a *Adapter) setState(s State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = s
}

// Device returns the memoized compute device
func (a *Adapter) Device() Device {
	return a.device
}

// ComputeFormat returns the numeric format selected for the device
func (a *Adapter) ComputeFormat() string {
	return a.compute
}

// ModelSize returns the configured model size tier label
func (a *Adapter) ModelSize() string {
	return a.cfg.ModelSize
}

// EngineName returns the configured engine variant name
func (a *Adapter) EngineName() string {
	return a.cfg.Engine
}

// Transcribe runs the full pipeline for one staged audio file: decode,
// silence trimming, engine invocation, and response shaping. Engine-level
// failures are converted to a structured error result, never propagated.
func (a *Adapter) Transcribe(audioPath string, opts Options) Result {
	a.mu.RLock()
	engine := a.engine
	ready := a.state == StateReady
	a.mu.RUnlock()

	if !ready {
		return Result{Success: false, Error: "model not loaded"}
	}

	start := time.Now()

	samples, err := a.dec.DecodeFile(audioPath)
	if err != nil {
		a.logger.Error("Audio decode failed", logger.String("path", audioPath), logger.Error(err))
		return Result{Success: false, Error: err.Error()}
	}

	trimmed := trimSilence(samples, SampleRate)
	if len(trimmed) < len(samples) {
		a.logger.Debug("Trimmed silence",
			logger.Int("samples_in", len(samples)),
			logger.Int("samples_out", len(trimmed)))
	}

	out, err := engine.Transcribe(trimmed, opts)
	if err != nil {
		a.logger.Error("Transcription failed", logger.Error(err))
		return Result{Success: false, Error: err.Error()}
	}

	// Join segment texts in emission order with single spaces. Empty output
	// from the engine is still a success.
	texts := make([]string, 0, len(out.Segments))
	for _, seg := range out.Segments {
		if t := strings.TrimSpace(seg.Text); t != "" {
			texts = append(texts, t)
		}
	}
	text := strings.Join(texts, " ")

	confidence := math.Max(0, math.Min(1, out.Confidence))
	elapsed := math.Round(time.Since(start).Seconds()*100) / 100

	a.logger.Info("Transcription complete",
		logger.String("engine", engine.Name()),
		logger.String("language", out.Language),
		logger.Float64("confidence", confidence),
		logger.Float64("processing_time", elapsed),
		logger.Int("chars", len(text)))

	return Result{
		Success:        true,
		Text:           text,
		Language:       out.Language,
		LanguageName:   LanguageName(out.Language),
		Confidence:     confidence,
		Task:           opts.Task,
		ProcessingTime: elapsed,
	}
}

// Close releases the engine if one was loaded
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.engine != nil {
		err := a.engine.Close()
		a.engine = nil
		return err
	}
	return nil
}
