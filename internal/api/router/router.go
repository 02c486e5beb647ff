package router

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cuido-app/care-assistant/internal/assistant"
	httpmiddleware "github.com/cuido-app/care-assistant/internal/http/middleware"
	"github.com/cuido-app/care-assistant/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger           *logging.Logger
	AssistantHandler *assistant.Handler
	JWTSecret        string
	MetricsHandler   http.Handler
	CORSOrigins      []string

	// RateLimit is requests/sec per caregiver on the chatbot routes.
	// Zero disables rate limiting.
	RateLimit      float64
	RateLimitBurst int

	// DB is probed by the health endpoint when set.
	DB *sql.DB
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck(cfg.DB))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	if cfg.AssistantHandler != nil {
		r.Route("/api/chatbot", func(r chi.Router) {
			r.Use(httpmiddleware.CaregiverJWT(cfg.JWTSecret))
			if cfg.RateLimit > 0 {
				burst := cfg.RateLimitBurst
				if burst <= 0 {
					burst = 5
				}
				r.Use(httpmiddleware.RateLimit(cfg.RateLimit, burst))
			}
			cfg.AssistantHandler.Register(r)
		})
	}

	return r
}

func healthCheck(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body["database"] = err.Error()
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
