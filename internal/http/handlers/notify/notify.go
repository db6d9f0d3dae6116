// Package notify implements the push endpoint: a caller that knows the
// shared secret sends a text to the chat bound to a nickname.
package notify

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"nickname-notifier/internal/http/response"
	"nickname-notifier/internal/lib/sl"
	"nickname-notifier/internal/metrics"
	"nickname-notifier/internal/service"
)

// Request is the push request body.
type Request struct {
	Secret   string `json:"secret"`
	Nickname string `json:"nickname"`
	// Telegram rejects messages longer than 4096 characters.
	Text string `json:"text" validate:"required,max=4096"`
}

// Notifier delivers a text to a nickname.
type Notifier interface {
	Send(ctx context.Context, nickname, text string) error
}

type Handler struct {
	log      *slog.Logger
	notifier Notifier
	secret   []byte
	validate *validator.Validate
}

func New(log *slog.Logger, notifier Notifier, secret string) *Handler {
	return &Handler{
		log:      log,
		notifier: notifier,
		secret:   []byte(secret),
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notify"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Info("failed to decode request", sl.Err(err))
		metrics.PushRequests.WithLabelValues(metrics.ResultBadRequest).Inc()
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Secret), h.secret) != 1 {
		log.Warn("invalid secret")
		metrics.PushRequests.WithLabelValues(metrics.ResultForbidden).Inc()
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("Invalid secret"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		metrics.PushRequests.WithLabelValues(metrics.ResultBadRequest).Inc()
		render.Status(r, http.StatusUnprocessableEntity)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		render.JSON(w, r, response.Error("invalid request"))
		return
	}

	log = log.With(slog.String("nickname", req.Nickname))

	err := h.notifier.Send(r.Context(), req.Nickname, req.Text)
	var delivery *service.DeliveryError
	switch {
	case err == nil:
	case errors.Is(err, service.ErrRecipientNotFound):
		log.Info("nickname not found")
		metrics.PushRequests.WithLabelValues(metrics.ResultNotFound).Inc()
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("nickname not found"))
		return
	case errors.As(err, &delivery):
		log.Error("delivery failed", sl.Err(err))
		metrics.PushRequests.WithLabelValues(metrics.ResultDeliveryFail).Inc()
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.ErrorWithDetail("delivery failed", delivery.Err.Error()))
		return
	default:
		log.Error("failed to send notification", sl.Err(err))
		metrics.PushRequests.WithLabelValues(metrics.ResultError).Inc()
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("notification sent")
	metrics.PushRequests.WithLabelValues(metrics.ResultOK).Inc()
	render.JSON(w, r, response.OK())
}
