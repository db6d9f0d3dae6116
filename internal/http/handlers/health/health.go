package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"nickname-notifier/internal/http/response"
	"nickname-notifier/internal/lib/sl"
)

// Pinger checks a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	log *slog.Logger
	db  Pinger
}

func New(log *slog.Logger, db Pinger) *Handler {
	return &Handler{
		log: log,
		db:  db,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	if err := h.db.Ping(r.Context()); err != nil {
		h.log.Error("database unavailable", slog.String("op", op), sl.Err(err))
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("database unavailable"))
		return
	}
	render.JSON(w, r, response.OK())
}
