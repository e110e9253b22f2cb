package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/karolberezicki/ActualFoundation/internal/service"
	"github.com/karolberezicki/ActualFoundation/pkg/health"
	"github.com/karolberezicki/ActualFoundation/pkg/middleware"
)

// NewRouter creates a chi router with all checkout service routes registered.
func NewRouter(
	checkoutService *service.CheckoutService,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("checkout"))
	r.Use(middleware.Tracing("checkout"))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Checkout session endpoints
	checkoutHandler := NewCheckoutHandler(checkoutService, logger)

	r.Route("/checkout-sessions", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", checkoutHandler.CreateSession)
		r.Get("/{id}", checkoutHandler.GetSession)
		r.Put("/{id}", checkoutHandler.UpdateSession)
		r.Post("/{id}/complete", checkoutHandler.CompleteSession)
		r.Post("/{id}/cancel", checkoutHandler.CancelSession)
	})

	return r
}
