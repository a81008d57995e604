package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/carepoint/hospital-scheduling/internal/booking"
)

type RouterConfig struct {
	Service   *booking.Service
	PgPool    *pgxpool.Pool // nil when running in-memory only
	Redis     *redis.Client // nil when the local locker is used
	Env       string
	Version   string
	JWTSecret string // empty disables the identity middleware
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Group(func(r chi.Router) {
		if cfg.JWTSecret != "" {
			r.Use(AuthMiddleware(cfg.JWTSecret))
		}

		r.Post("/appointments", bookAppointmentHandler(cfg.Service))
		r.Get("/appointments/{id}", getAppointmentHandler(cfg.Service))
		r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Service))
		r.Post("/appointments/{id}/complete", completeAppointmentHandler(cfg.Service))
		r.Post("/appointments/{id}/reschedule", rescheduleAppointmentHandler(cfg.Service))

		r.Post("/doctors/{id}/availability", setAvailabilityHandler(cfg.Service))
		r.Get("/doctors/{id}/availability", getAvailabilityHandler(cfg.Service))
		r.Get("/doctors/{id}/appointments", listDoctorAppointmentsHandler(cfg.Service))

		r.Get("/patients/{id}/appointments", listPatientAppointmentsHandler(cfg.Service))
		r.Get("/patients/{id}/records", listPatientRecordsHandler(cfg.Service))
	})

	return r
}
