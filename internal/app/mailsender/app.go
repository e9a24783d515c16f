// Package mailsender запускает воркер, который читает письма из очереди
// RabbitMQ и отправляет их по SMTP.
package mailsender

import (
	"context"
	"errors"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/lms-server/internal/config"
	"github.com/magabrotheeeer/lms-server/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/lms-server/internal/lib/sl"
	"github.com/magabrotheeeer/lms-server/internal/lib/smtp"
	"github.com/magabrotheeeer/lms-server/internal/services/mailer"
)

type App struct {
	conn      *amqp.Connection
	ch        *amqp.Channel
	mailer    *mailer.SMTPMailer
	queueName string
	logger    *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if !cfg.QueueMail() {
		return nil, errors.New("mailsender.New: rabbitmq url is not configured")
	}
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.Retries, cfg.RetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, rabbitmq.MailQueues(cfg.MailQueue))
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &App{
		conn:      conn,
		ch:        ch,
		mailer:    mailer.NewSMTPMailer(smtp.NewTransport(cfg.SMTP, logger), logger),
		queueName: cfg.MailQueue,
		logger:    logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, a.queueName, a.mailer.HandleDelivery)
	if err != nil {
		a.logger.Error("failed to start mail consumer", slog.String("queue", a.queueName), sl.Err(err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("mail sender shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	return nil
}
