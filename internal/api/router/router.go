package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/iterworks/juvo-backend/internal/chat"
	"github.com/iterworks/juvo-backend/internal/community"
	"github.com/iterworks/juvo-backend/internal/counselor"
	httpmiddleware "github.com/iterworks/juvo-backend/internal/http/middleware"
	"github.com/iterworks/juvo-backend/internal/profile"
	"github.com/iterworks/juvo-backend/internal/voice"
	"github.com/iterworks/juvo-backend/internal/wellness"
	"github.com/iterworks/juvo-backend/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger           *logging.Logger
	ChatHandler      *chat.Handler
	VoiceHandler     *voice.Handler
	CommunityHandler *community.Handler
	WellnessHandler  *wellness.Handler
	ProfileHandler   *profile.Handler
	CounselorHandler *counselor.Handler
	MetricsHandler   http.Handler

	AuthJWTSecret      string
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Student-facing endpoints, JWT required
	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.UserJWT(cfg.AuthJWTSecret))
		if cfg.ChatHandler != nil {
			private.Mount("/chat", cfg.ChatHandler.Routes())
		}
		if cfg.VoiceHandler != nil {
			private.Mount("/voice", cfg.VoiceHandler.Routes())
		}
		if cfg.CommunityHandler != nil {
			private.Mount("/community", cfg.CommunityHandler.Routes())
		}
		if cfg.WellnessHandler != nil {
			private.Mount("/wellness", cfg.WellnessHandler.Routes())
		}
		if cfg.ProfileHandler != nil {
			private.Mount("/profile", cfg.ProfileHandler.Routes())
		}
		if cfg.CounselorHandler != nil {
			private.Mount("/counselor", cfg.CounselorHandler.Routes())
		}
	})

	return r
}
