// Package subscribe создает подписку в платежном шлюзе для текущего пользователя.
package subscribe

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/lms-server/internal/http/middlewarectx"
	"github.com/magabrotheeeer/lms-server/internal/http/response"
	"github.com/magabrotheeeer/lms-server/internal/lib/apperr"
	"github.com/magabrotheeeer/lms-server/internal/models"
	subscriptionservice "github.com/magabrotheeeer/lms-server/internal/services/subscription"
)

// Service описывает покупку подписки.
type Service interface {
	Buy(ctx context.Context, user *models.User) (*subscriptionservice.BuyResult, error)
}

// Handler обрабатывает покупку подписки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Покупка подписки
// @Description Возвращает идентификатор подписки и публичный ключ для формы оплаты
// @Tags Payments
// @Produce json
// @Success 200 {object} response.MessageResponse
// @Failure 400 {object} response.ErrorResponse "Администратор не может купить подписку"
// @Failure 409 {object} response.ErrorResponse "Подписка уже активна"
// @Failure 502 {object} response.ErrorResponse
// @Router /payments/subscribe [post]
// @Security CookieAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.subscribe"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, log, apperr.Internal("no user in request context", nil))
		return
	}

	res, err := h.service.Buy(r.Context(), user)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}

	log.Info("subscription created", slog.String("user_id", user.ID), slog.String("subscription_id", res.SubscriptionID))
	payload := map[string]any{
		"subscription_id": res.SubscriptionID,
		"key":             res.Key,
	}
	if res.CustomerID != "" {
		payload["customer_id"] = res.CustomerID
	}
	response.JSON(w, r, http.StatusOK, response.OK("Subscribed successfully", payload))
}
