// Package paymentwebhook принимает события подписок от платежного шлюза.
//
// Тело проверяется по подписи из заголовка X-Razorpay-Signature, поэтому
// читается целиком до разбора.
package paymentwebhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/lms-server/internal/http/response"
	"github.com/magabrotheeeer/lms-server/internal/lib/apperr"
)

// SignatureHeader заголовок с HMAC подписью тела.
const SignatureHeader = "X-Razorpay-Signature"

const maxBodySize = 1 << 20

// Service описывает обработку события.
type Service interface {
	HandleWebhook(ctx context.Context, body []byte, signature string) error
}

// Handler обрабатывает вебхуки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Вебхук платежного шлюза
// @Tags Payments
// @Accept json
// @Produce json
// @Param X-Razorpay-Signature header string true "HMAC-SHA256 тела"
// @Success 200 {object} response.MessageResponse
// @Failure 400 {object} response.ErrorResponse "Подпись не совпала"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.paymentwebhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		response.WriteError(w, r, log, apperr.Validation("failed to read request body"))
		return
	}

	if err := h.service.HandleWebhook(r.Context(), body, r.Header.Get(SignatureHeader)); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	response.JSON(w, r, http.StatusOK, response.OK("Webhook processed", nil))
}
