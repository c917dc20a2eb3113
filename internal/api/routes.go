package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/recon-dashboard/internal/config"
	"github.com/ignite/recon-dashboard/internal/pkg/logger"
)

// SetupRoutes configures all API routes
func SetupRoutes(cfg config.ServerConfig, h *Handlers, hc *HealthChecker) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", hc.HandleHealth)
	r.Get("/health/live", hc.HandleLiveness)
	r.Get("/health/ready", hc.HandleReadiness)

	r.Route("/api", func(r chi.Router) {
		if t := cfg.WriteTimeout(); t > 0 {
			r.Use(middleware.Timeout(t))
		}

		r.Get("/entities", h.ListEntities)

		// Benefits lookup by CPF
		r.Get("/benefits", h.GetBenefits)

		// Dispatch tracking
		r.Get("/dispatches", h.GetDispatches)
		r.Get("/dispatches/campaigns", h.GetCampaigns)

		// WhatsApp channels
		r.Get("/channels", h.GetChannels)
		r.Get("/channels/bms", h.GetBusinessManagers)

		// Consultation history
		r.Get("/history", h.GetHistory)

		// Ad hoc reconciliation of a posted payload
		r.Post("/reconcile/{entity}", h.PostReconcile)
	})

	return r
}

// requestLogger logs one line per request through the structured logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
