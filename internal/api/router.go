package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/KennPulvera/LNY-july20/internal/booking"
)

type RouterConfig struct {
	Service        *booking.Service
	Availability   *booking.AvailabilityService
	PgPool         *pgxpool.Pool
	Redis          *redis.Client
	AdminJWTSecret string
	Env            string
	Version        string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(MetricsMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/api/health", health.Liveness)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/bookings", func(r chi.Router) {
		// Public: self-service booking and availability reads.
		r.Post("/", createBookingHandler(cfg.Service))
		r.Get("/availability/{date}", availabilityHandler(cfg.Availability))
		r.Get("/availability/online/{date}", onlineAvailabilityHandler(cfg.Availability))

		// Admin: dashboard reads and privileged mutations.
		r.Group(func(r chi.Router) {
			r.Use(AdminJWT(cfg.AdminJWTSecret))

			r.Get("/", listBookingsHandler(cfg.Service))
			r.Get("/branch/{branch}", listBookingsByBranchHandler(cfg.Service))
			r.Get("/slots/{date}", slotViewHandler(cfg.Availability))
			r.Get("/{id}", getBookingHandler(cfg.Service))
			r.Get("/{id}/reschedule-options", rescheduleOptionsHandler(cfg.Availability))
			r.Put("/{id}", updateBookingHandler(cfg.Service))
			r.Patch("/{id}/status", updateStatusHandler(cfg.Service))
			r.Patch("/{id}/payment", updatePaymentHandler(cfg.Service))
			r.Patch("/{id}/clear-payment", clearPaymentHandler(cfg.Service))
			r.Patch("/{id}/reschedule", rescheduleBookingHandler(cfg.Service))
			r.Patch("/{id}/soft-delete", softDeleteBookingHandler(cfg.Service))
			r.Delete("/{id}", deleteBookingHandler(cfg.Service))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(AdminJWT(cfg.AdminJWTSecret))

		r.Get("/professionals", listProfessionalsHandler())
		r.Post("/walk-in-booking", walkInBookingHandler(cfg.Service))
	})

	return r
}
