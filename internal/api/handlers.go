package api

import (
	"encoding/json"
	"net/http"

	"github.com/quenby/voicegate/internal/config"
	"github.com/quenby/voicegate/internal/history"
	"github.com/quenby/voicegate/internal/relay"
	"github.com/quenby/voicegate/internal/speech"
	"github.com/quenby/voicegate/pkg/logger"
)

// Number of entries returned by /recent_queries
const recentQueriesCount = 10

// Transcriber is the adapter capability the handlers depend on
type Transcriber interface {
	Ready() bool
	State() speech.State
	Device() speech.Device
	ModelSize() string
	EngineName() string
	Transcribe(audioPath string, opts speech.Options) speech.Result
}

// AgentRelay forwards a transcript to the conversational agent
type AgentRelay interface {
	Send(text string) []relay.Message
}

// Handler contains the API handlers
type Handler struct {
	transcriber Transcriber
	history     *history.Log
	relay       AgentRelay // nil when the agent integration is disabled
	config      *config.Config
	logger      *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(transcriber Transcriber, historyLog *history.Log, agentRelay AgentRelay, cfg *config.Config, log *logger.Logger) *Handler {
	return &Handler{
		transcriber: transcriber,
		history:     historyLog,
		relay:       agentRelay,
		config:      cfg,
		logger:      log.Named("api-handler"),
	}
}

// HealthCheck reports backend readiness and capability metadata. It is a
// pure read of adapter state with no side effects.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !h.transcriber.Ready() {
		status = "unhealthy"
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"status":                    status,
		"model_loaded":              h.transcriber.Ready(),
		"model_size":                h.transcriber.ModelSize(),
		"device":                    string(h.transcriber.Device()),
		"supported_languages_count": speech.LanguageCount(),
	})
}

// GetLanguages returns the supported-language display table
func (h *Handler) GetLanguages(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"supported_languages": speech.SupportedLanguages(),
		"total_count":         speech.LanguageCount(),
	})
}

// GetRecentQueries returns the last transcripts, most recent first
func (h *Handler) GetRecentQueries(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"queries": h.history.Recent(recentQueriesCount),
	})
}

// GetLastQuery returns the single newest transcript
func (h *Handler) GetLastQuery(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.history.Latest()
	if !ok {
		WriteJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"error":   "no queries found",
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"query":   entry,
	})
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
