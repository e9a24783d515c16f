// Package misc обслуживает форму обратной связи и статистику для администратора.
package misc

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/lms-server/internal/lib/apperr"
	"github.com/magabrotheeeer/lms-server/internal/lib/sl"
	"github.com/magabrotheeeer/lms-server/internal/models"
)

// StatsStorage считает пользователей.
type StatsStorage interface {
	CountUsers(ctx context.Context) (models.UserStats, error)
}

// Mailer отправляет письма.
type Mailer interface {
	Send(ctx context.Context, msg models.EmailMessage) error
}

// Service реализует форму обратной связи и статистику.
type Service struct {
	stats        StatsStorage
	mailer       Mailer
	contactEmail string
	log          *slog.Logger
}

// New создает Service. Сообщения формы уходят на contactEmail.
func New(stats StatsStorage, mailer Mailer, contactEmail string, log *slog.Logger) *Service {
	return &Service{
		stats:        stats,
		mailer:       mailer,
		contactEmail: contactEmail,
		log:          log,
	}
}

// ContactInput сообщение формы обратной связи.
type ContactInput struct {
	Name    string
	Email   string
	Message string
}

// Contact пересылает сообщение на адрес поддержки.
func (s *Service) Contact(ctx context.Context, in ContactInput) error {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	message := strings.TrimSpace(in.Message)
	if name == "" || email == "" || message == "" {
		return apperr.Validation("Name, Email, Message are required")
	}
	if s.contactEmail == "" {
		return apperr.Internal("contact email is not configured", nil)
	}

	err := s.mailer.Send(ctx, models.EmailMessage{
		To:      s.contactEmail,
		Subject: "Contact Us Form",
		HTML: fmt.Sprintf("%s - %s <br /> %s",
			html.EscapeString(name), html.EscapeString(email), html.EscapeString(message)),
	})
	if err != nil {
		s.log.Error("failed to forward contact message", sl.Err(err))
		return apperr.Upstream("Failed to submit your request, please try again", err)
	}
	return nil
}

// Stats возвращает число всех пользователей и пользователей с активной подпиской.
func (s *Service) Stats(ctx context.Context) (models.UserStats, error) {
	stats, err := s.stats.CountUsers(ctx)
	if err != nil {
		return models.UserStats{}, apperr.Internal("failed to count users", err)
	}
	return stats, nil
}
