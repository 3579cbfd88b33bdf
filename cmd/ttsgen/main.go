// ttsgen is a one-shot text-to-speech generator for banking prompts.
//
// Usage: ttsgen [flags] <text> <output_path> [type]
//
// The optional type selects a spoken prefix (balance, transaction, security,
// payment, transfer, welcome, general).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/quenby/voicegate/internal/config"
	"github.com/quenby/voicegate/internal/tts"
	"github.com/quenby/voicegate/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (optional)")
	synthPath := flag.String("synthesizer", "", "Path to the synthesizer executable (overrides config)")
	voicePath := flag.String("voice", "", "Path to the voice model file (overrides config)")
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: ttsgen [flags] <text> <output_path> [type]")
		os.Exit(1)
	}
	text := args[0]
	outputPath := args[1]
	textType := "general"
	if len(args) > 2 {
		textType = args[2]
	}

	// Config is optional for this tool; flags win over the file
	ttsCfg := config.TTSConfig{}
	if cfg, err := config.LoadWithFallback(*configPath); err == nil {
		ttsCfg = cfg.TTS
	}
	if *synthPath != "" {
		ttsCfg.SynthesizerPath = *synthPath
	}
	if *voicePath != "" {
		ttsCfg.VoicePath = *voicePath
	}

	log, err := logger.New(logger.Config{Level: "info", Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	formatted := tts.FormatBankingText(text, textType)
	log.Info("Generating audio",
		logger.String("type", textType),
		logger.String("text", formatted))

	synth := tts.NewSynthesizer(ttsCfg, log)
	if err := synth.Synthesize(formatted, outputPath); err != nil {
		log.Error("Audio generation failed", logger.Error(err))
		fmt.Println("FAILED")
		os.Exit(1)
	}

	log.Info("Audio generated", logger.String("output", outputPath))
	fmt.Println("SUCCESS")
}
