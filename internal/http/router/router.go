// Package router wires the HTTP handlers of the push service.
package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nickname-notifier/internal/http/handlers/health"
	"nickname-notifier/internal/http/handlers/notify"
)

func New(logger *slog.Logger, notifier notify.Notifier, db health.Pinger, secret string) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Post("/notify", notify.New(logger, notifier, secret).ServeHTTP)
	r.Get("/healthz", health.New(logger, db).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
