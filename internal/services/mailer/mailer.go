// Package mailer отправляет письма пользователям: напрямую через SMTP
// или через очередь RabbitMQ, которую разбирает отдельный mail-sender.
package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/lms-server/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/lms-server/internal/lib/sl"
	"github.com/magabrotheeeer/lms-server/internal/lib/smtp"
	"github.com/magabrotheeeer/lms-server/internal/models"
)

// Mailer отправляет одно HTML письмо.
type Mailer interface {
	Send(ctx context.Context, msg models.EmailMessage) error
}

// SMTPMailer отправляет письма через SMTP транспорт.
type SMTPMailer struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSMTPMailer создает SMTPMailer.
func NewSMTPMailer(transport smtp.TransportInterface, log *slog.Logger) *SMTPMailer {
	return &SMTPMailer{
		transport: transport,
		log:       log,
	}
}

// Send отправляет msg за одно SMTP соединение.
func (m *SMTPMailer) Send(ctx context.Context, msg models.EmailMessage) error {
	const op = "mailer.SMTPMailer.Send"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	client, err := m.transport.Connect()
	if err != nil {
		m.log.Error("failed to connect to SMTP server", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	defer client.Close()

	from := m.transport.Sender()
	if err = client.Mail(from); err != nil {
		return fmt.Errorf("%s: mail from: %w", op, err)
	}
	if err = client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("%s: rcpt to: %w", op, err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("%s: data: %w", op, err)
	}
	if _, err = w.Write(smtp.BuildMessage(from, msg.To, msg.Subject, msg.HTML)); err != nil {
		_ = w.Close()
		return fmt.Errorf("%s: write: %w", op, err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("%s: close data: %w", op, err)
	}
	if err = client.Quit(); err != nil {
		m.log.Warn("SMTP quit failed", sl.Err(err))
	}

	m.log.Info("email sent", slog.String("to", msg.To), slog.String("subject", msg.Subject))
	return nil
}

// HandleDelivery обрабатывает сообщение почтовой очереди.
// Нечитаемые сообщения помечаются как ErrPermanent и не возвращаются в очередь.
func (m *SMTPMailer) HandleDelivery(ctx context.Context, body []byte) error {
	var msg models.EmailMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		m.log.Error("failed to unmarshal mail message", sl.Err(err))
		return &rabbitmq.ErrPermanent{Err: fmt.Errorf("unmarshal mail message: %w", err)}
	}
	if msg.To == "" {
		return &rabbitmq.ErrPermanent{Err: fmt.Errorf("mail message without recipient")}
	}
	return m.Send(ctx, msg)
}

// Publisher публикует сообщение в очередь.
type Publisher interface {
	Publish(ctx context.Context, message any) error
}

// QueueMailer ставит письма в очередь вместо прямой отправки.
type QueueMailer struct {
	publisher Publisher
	log       *slog.Logger
}

// NewQueueMailer создает QueueMailer.
func NewQueueMailer(publisher Publisher, log *slog.Logger) *QueueMailer {
	return &QueueMailer{
		publisher: publisher,
		log:       log,
	}
}

// Send публикует msg в почтовую очередь.
func (m *QueueMailer) Send(ctx context.Context, msg models.EmailMessage) error {
	const op = "mailer.QueueMailer.Send"
	if err := m.publisher.Publish(ctx, msg); err != nil {
		m.log.Error("failed to queue email", slog.String("to", msg.To), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	m.log.Debug("email queued", slog.String("to", msg.To))
	return nil
}
