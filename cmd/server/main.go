package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quenby/voicegate/internal/api"
	"github.com/quenby/voicegate/internal/config"
	"github.com/quenby/voicegate/internal/history"
	"github.com/quenby/voicegate/internal/relay"
	"github.com/quenby/voicegate/internal/speech"
	"github.com/quenby/voicegate/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	// Load configuration with fallback logic
	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration and apply defaults
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting voicegate server",
		logger.String("version", Version),
		logger.String("config_path", *configPath),
	)

	// Create the recent-query log
	historyLog := history.NewLog(cfg.History.MaxEntries)

	// Create the speech adapter and load the model synchronously before
	// serving. Load failure leaves the service in a degraded but responsive
	// state: /health keeps answering, /transcribe returns "model not
	// loaded".
	adapter := speech.NewAdapter(cfg.Speech, log)
	adapter.Load()
	defer adapter.Close()

	if adapter.Ready() {
		log.Info("Speech backend ready",
			logger.String("engine", adapter.EngineName()),
			logger.String("model_size", adapter.ModelSize()),
			logger.String("device", string(adapter.Device())),
			logger.String("compute_format", adapter.ComputeFormat()))
	} else {
		log.Warn("Speech backend unavailable, serving in degraded mode")
	}

	// Create the agent relay (if enabled)
	var agentRelay api.AgentRelay
	if cfg.Agent.Enabled {
		agentRelay = relay.NewClient(cfg.Agent, log)
		log.Info("Agent relay enabled", logger.String("webhook_url", cfg.Agent.WebhookURL))
	} else {
		log.Info("Agent relay disabled in configuration")
	}

	// Create API router
	router := api.NewRouter(adapter, historyLog, agentRelay, cfg, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", logger.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error on startup", logger.String("addr", addr), logger.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", logger.Error(err))
	}

	log.Info("Server fully stopped")
}
