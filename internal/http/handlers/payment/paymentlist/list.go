// Package paymentlist отдает администратору страницу истории платежей.
package paymentlist

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/lms-server/internal/http/response"
	"github.com/magabrotheeeer/lms-server/internal/lib/apperr"
	"github.com/magabrotheeeer/lms-server/internal/models"
	subscriptionservice "github.com/magabrotheeeer/lms-server/internal/services/subscription"
)

// Service описывает получение платежей.
type Service interface {
	ListPayments(ctx context.Context, page models.Page) (*subscriptionservice.PaymentList, error)
}

// Handler обрабатывает запрос списка платежей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary История платежей
// @Tags Payments
// @Produce json
// @Param count query int false "Размер страницы" default(10)
// @Param skip query int false "Сколько пропустить" default(0)
// @Success 200 {object} response.MessageResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /payments [get]
// @Security CookieAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.paymentlist"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	count, err := queryInt(r, "count")
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	skip, err := queryInt(r, "skip")
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}

	list, err := h.service.ListPayments(r.Context(), models.NewPage(count, skip))
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	response.JSON(w, r, http.StatusOK, response.OK("All payments", map[string]any{
		"payments": list.Payments,
		"total":    list.Total,
		"count":    list.Count,
		"skip":     list.Skip,
	}))
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation(name + " must be an integer")
	}
	return v, nil
}
