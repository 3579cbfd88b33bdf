package tts

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/quenby/voicegate/internal/config"
	"github.com/quenby/voicegate/pkg/logger"
)

// Synthesizer drives an external piper-compatible text-to-speech binary.
// The engine itself (model loading, inference) is outside this process.
type Synthesizer struct {
	cmdPath   string
	voicePath string
	logger    *logger.Logger
}

// NewSynthesizer creates a synthesizer from configuration
func NewSynthesizer(cfg config.TTSConfig, log *logger.Logger) *Synthesizer {
	cmdPath := cfg.SynthesizerPath
	if cmdPath == "" {
		cmdPath = "piper"
	}
	return &Synthesizer{
		cmdPath:   cmdPath,
		voicePath: cfg.VoicePath,
		logger:    log.Named("tts"),
	}
}

// Synthesize renders text to a WAV file at outputPath
func (s *Synthesizer) Synthesize(text, outputPath string) error {
	args := []string{"--output_file", outputPath}
	if s.voicePath != "" {
		args = append(args, "--model", s.voicePath)
	}

	s.logger.Info("Generating audio",
		logger.String("output", outputPath),
		logger.Int("chars", len(text)))

	cmd := exec.Command(s.cmdPath, args...)
	cmd.Stdin = strings.NewReader(text)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("synthesizer failed: %w (%s)", err, strings.TrimSpace(string(output)))
	}

	if _, err := os.Stat(outputPath); err != nil {
		return fmt.Errorf("synthesizer produced no output file: %w", err)
	}
	return nil
}
