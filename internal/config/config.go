package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server  ServerConfig  `toml:"server"`  // HTTP server settings
	Logging LoggingConfig `toml:"logging"` // Application logging settings
	Speech  SpeechConfig  `toml:"speech"`  // Speech recognition backend settings
	Agent   AgentConfig   `toml:"agent"`   // Conversational agent relay settings
	History HistoryConfig `toml:"history"` // Recent-query log settings
	TTS     TTSConfig     `toml:"tts"`     // Text-to-speech generator settings
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port               int      `toml:"port"`                  // HTTP port for the server
	Host               string   `toml:"host"`                  // Host address to bind to (e.g., 127.0.0.1 for localhost only, 0.0.0.0 for all interfaces)
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`  // List of origins allowed for CORS requests (use ["*"] for all origins)
	ReadTimeoutSecs    int      `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request (0 = no timeout)
	WriteTimeoutSecs   int      `toml:"write_timeout_seconds"` // Maximum duration for writing the response (0 = no timeout)
	IdleTimeoutSecs    int      `toml:"idle_timeout_seconds"`  // Maximum duration to wait for the next request when keep-alives are enabled
	MaxUploadMB        int      `toml:"max_upload_mb"`         // Maximum in-memory size for multipart audio uploads in megabytes
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// SpeechConfig contains settings for the speech recognition backend
type SpeechConfig struct {
	// Engine selection
	// Allowed values:
	// - "whispercpp": whisper.cpp model with language detection and confidence scoring
	// - "vosk": Vosk model, faster but without language detection (confidence reported as 0.0)
	Engine string `toml:"engine"`

	ModelPath  string `toml:"model_path"`  // Path to the model: a ggml .bin file for whispercpp, a model directory for vosk
	ModelSize  string `toml:"model_size"`  // Model size tier label reported by /health (e.g., "base", "small")
	Threads    int    `toml:"threads"`     // Number of decode threads (0 = engine default)
	TempDir    string `toml:"temp_dir"`    // Directory for staging uploaded audio (empty = system temp dir)
	FFmpegPath string `toml:"ffmpeg_path"` // Path to the ffmpeg executable used as a decode fallback (empty = look up in PATH)
}

// AgentConfig contains settings for the conversational agent relay
type AgentConfig struct {
	Enabled        bool   `toml:"enabled"`         // Forward transcripts to the agent webhook and embed its reply
	WebhookURL     string `toml:"webhook_url"`     // Agent REST webhook URL (e.g., http://localhost:5005/webhooks/rest/webhook)
	SenderID       string `toml:"sender_id"`       // Sender id included in webhook payloads (empty = random per-process id)
	TimeoutSeconds int    `toml:"timeout_seconds"` // HTTP timeout for webhook requests in seconds
}

// HistoryConfig contains settings for the in-memory recent-query log
type HistoryConfig struct {
	MaxEntries int `toml:"max_entries"` // Maximum number of retained transcript entries (oldest evicted first)
}

// TTSConfig contains settings for the ttsgen text-to-speech CLI
type TTSConfig struct {
	SynthesizerPath string `toml:"synthesizer_path"` // Path to the external synthesizer executable (piper-compatible)
	VoicePath       string `toml:"voice_path"`       // Path to the synthesizer voice model file
}

// Load reads and parses the configuration file at the given path
func Load(path string) (*Config, error) {
	var config Config

	// Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Read the config file
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference
func LoadWithFallback(preferredPath string) (*Config, error) {
	// List of paths to check in order of preference
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // Location in configs/ folder
		"config.toml",         // Root directory
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// Validate validates the configuration and applies defaults
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.MaxUploadMB <= 0 {
		c.Server.MaxUploadMB = 32
	}

	// Validate logging config
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be 'debug', 'info', 'warn', or 'error')", c.Logging.Level)
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be 'json' or 'console')", c.Logging.Format)
	}

	// Validate speech config
	if c.Speech.Engine == "" {
		c.Speech.Engine = "whispercpp"
	}
	if c.Speech.Engine != "whispercpp" && c.Speech.Engine != "vosk" {
		return fmt.Errorf("invalid speech engine: %s (must be 'whispercpp' or 'vosk')", c.Speech.Engine)
	}
	if c.Speech.ModelPath == "" {
		return fmt.Errorf("speech model_path is required")
	}
	if c.Speech.ModelSize == "" {
		c.Speech.ModelSize = "base"
	}
	if c.Speech.Threads < 0 {
		return fmt.Errorf("invalid speech threads value: %d (must be >= 0)", c.Speech.Threads)
	}

	// Validate agent config
	if c.Agent.Enabled && c.Agent.WebhookURL == "" {
		return fmt.Errorf("agent webhook_url is required when the agent relay is enabled")
	}
	if c.Agent.TimeoutSeconds <= 0 {
		c.Agent.TimeoutSeconds = 5
	}

	// Validate history config
	if c.History.MaxEntries <= 0 {
		c.History.MaxEntries = 100
	}

	return nil
}
