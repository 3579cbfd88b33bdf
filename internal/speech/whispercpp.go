package speech

import (
	"fmt"
	"io"
	"strings"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/quenby/voicegate/pkg/logger"
)

// whisperEngine is the higher-fidelity engine variant, backed by a
// whisper.cpp model. It detects the spoken language and reports a confidence
// score derived from token probabilities.
type whisperEngine struct {
	mu      sync.Mutex
	model   whisper.Model
	threads int
	logger  *logger.Logger
}

// newWhisperEngine loads a ggml model file from disk
func newWhisperEngine(modelPath string, threads int, log *logger.Logger) (*whisperEngine, error) {
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load whisper model: %w", err)
	}

	log.Info("Whisper model loaded",
		logger.String("path", modelPath),
		logger.Bool("multilingual", model.IsMultilingual()))

	return &whisperEngine{
		model:   model,
		threads: threads,
		logger:  log,
	}, nil
}

// Name returns the engine name
func (e *whisperEngine) Name() string {
	return "whispercpp"
}

// Transcribe decodes the samples with a fresh whisper context. Access to the
// shared model handle is serialized; whisper contexts are not safe for
// concurrent inference.
func (e *whisperEngine) Transcribe(samples []float32, opts Options) (*Output, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, err := e.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("create whisper context: %w", err)
	}

	if opts.Language != "" {
		if err := ctx.SetLanguage(opts.Language); err != nil {
			e.logger.Warn("Failed to set language, falling back to auto-detect",
				logger.String("language", opts.Language), logger.Error(err))
		}
	} else if e.model.IsMultilingual() {
		if err := ctx.SetLanguage("auto"); err != nil {
			e.logger.Debug("Language auto-detection not supported for this model")
		}
	}

	ctx.SetTranslate(opts.Task == TaskTranslate)
	ctx.SetTokenTimestamps(opts.WordTimestamps)
	ctx.SetTemperature(float32(opts.Temperature))
	if opts.Prompt != "" {
		ctx.SetInitialPrompt(opts.Prompt)
	}
	if e.threads > 0 {
		ctx.SetThreads(uint(e.threads))
	}

	if err := ctx.Process(samples, nil, nil, nil); err != nil {
		return nil, fmt.Errorf("whisper process: %w", err)
	}

	// Collect segments in emission order, accumulating token probabilities
	// for the confidence score
	var segments []Segment
	var probSum float64
	var tokenCount int
	for {
		segment, err := ctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("get segment: %w", err)
		}
		segments = append(segments, Segment{
			Text:  strings.TrimSpace(segment.Text),
			Start: segment.Start,
			End:   segment.End,
		})
		for _, token := range segment.Tokens {
			probSum += float64(token.P)
			tokenCount++
		}
	}

	var confidence float64
	if tokenCount > 0 {
		confidence = probSum / float64(tokenCount)
	}

	language := ctx.DetectedLanguage()
	if language == "" {
		language = opts.Language
	}

	return &Output{
		Segments:   segments,
		Language:   language,
		Confidence: confidence,
	}, nil
}

// Close releases the model
func (e *whisperEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.model != nil {
		err := e.model.Close()
		e.model = nil
		return err
	}
	return nil
}
