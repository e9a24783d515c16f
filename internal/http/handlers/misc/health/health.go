// Package health отвечает на /ping и проверяет доступность базы данных.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/magabrotheeeer/lms-server/internal/http/response"
	"github.com/magabrotheeeer/lms-server/internal/lib/sl"
)

// Pinger проверяет соединение с хранилищем.
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
	const op = "handlers.misc.health"
	if err := h.db.Ping(r.Context()); err != nil {
		h.log.Error("database is unavailable", slog.String("op", op), sl.Err(err))
		response.JSON(w, r, http.StatusServiceUnavailable, response.Error("database is unavailable"))
		return
	}
	response.JSON(w, r, http.StatusOK, response.OK("pong", map[string]any{
		"status": "ok",
	}))
}
