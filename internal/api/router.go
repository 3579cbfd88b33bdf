package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/quenby/voicegate/internal/config"
	"github.com/quenby/voicegate/internal/history"
	"github.com/quenby/voicegate/pkg/logger"
)

// Router assembles the HTTP surface
type Router struct {
	handler *Handler
	config  *config.Config
}

// NewRouter creates a new API router
func NewRouter(transcriber Transcriber, historyLog *history.Log, agentRelay AgentRelay, cfg *config.Config, log *logger.Logger) *Router {
	return &Router{
		handler: NewHandler(transcriber, historyLog, agentRelay, cfg, log),
		config:  cfg,
	}
}

// Routes returns the configured route tree
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(rt.config.Server.CORSAllowedOrigins))

	r.Get("/health", rt.handler.HealthCheck)
	r.Get("/languages", rt.handler.GetLanguages)
	r.Post("/transcribe", rt.handler.TranscribeAudio)
	r.Post("/translate", rt.handler.TranslateAudio)
	r.Get("/recent_queries", rt.handler.GetRecentQueries)
	r.Get("/last_query", rt.handler.GetLastQuery)

	return r
}

// corsMiddleware applies the configured CORS policy. An allowed-origins list
// of ["*"] opens the API to any origin; otherwise the request origin must
// match an entry exactly.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || allowed[origin]) {
				if allowAll {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Vary", "Origin")
				}
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
