// Package userstats отдает администратору число пользователей и подписчиков.
package userstats

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/lms-server/internal/http/response"
	"github.com/magabrotheeeer/lms-server/internal/models"
)

// Service описывает получение статистики.
type Service interface {
	Stats(ctx context.Context) (models.UserStats, error)
}

// Handler обрабатывает запрос статистики.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Статистика пользователей
// @Tags Misc
// @Produce json
// @Success 200 {object} response.MessageResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/stats/users [get]
// @Security CookieAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.misc.userstats"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	response.JSON(w, r, http.StatusOK, response.OK("All registered users count", map[string]any{
		"allUsersCount":        stats.AllUsersCount,
		"subscribedUsersCount": stats.SubscribedUsersCount,
	}))
}
