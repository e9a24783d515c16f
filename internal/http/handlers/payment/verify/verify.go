// Package verify проверяет подпись платежа и активирует подписку.
package verify

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/lms-server/internal/http/middlewarectx"
	"github.com/magabrotheeeer/lms-server/internal/http/request"
	"github.com/magabrotheeeer/lms-server/internal/http/response"
	"github.com/magabrotheeeer/lms-server/internal/lib/apperr"
	"github.com/magabrotheeeer/lms-server/internal/models"
	subscriptionservice "github.com/magabrotheeeer/lms-server/internal/services/subscription"
)

// Request ответ платежной формы шлюза.
type Request struct {
	PaymentID      string `json:"razorpay_payment_id" form:"razorpay_payment_id" validate:"required"`
	SubscriptionID string `json:"razorpay_subscription_id" form:"razorpay_subscription_id" validate:"required"`
	Signature      string `json:"razorpay_signature" form:"razorpay_signature" validate:"required"`
}

// Service описывает проверку платежа.
type Service interface {
	Verify(ctx context.Context, user *models.User, in subscriptionservice.VerifyInput) error
}

// Handler обрабатывает проверку платежа.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Проверка платежа
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body Request true "Ответ формы оплаты"
// @Success 200 {object} response.MessageResponse
// @Failure 400 {object} response.ErrorResponse "Подпись не совпала"
// @Failure 409 {object} response.ErrorResponse
// @Router /payments/verify [post]
// @Security CookieAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.verify"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, log, apperr.Internal("no user in request context", nil))
		return
	}

	var req Request
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	if !response.Validate(w, r, log, h.validate, req) {
		return
	}

	err := h.service.Verify(r.Context(), user, subscriptionservice.VerifyInput{
		PaymentID:      req.PaymentID,
		SubscriptionID: req.SubscriptionID,
		Signature:      req.Signature,
	})
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	response.JSON(w, r, http.StatusOK, response.OK("Payment verified successfully", nil))
}
