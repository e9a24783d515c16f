package lms

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/lms-server/internal/cache"
	"github.com/magabrotheeeer/lms-server/internal/config"
	"github.com/magabrotheeeer/lms-server/internal/lib/jwt"
	"github.com/magabrotheeeer/lms-server/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/lms-server/internal/lib/sl"
	"github.com/magabrotheeeer/lms-server/internal/lib/smtp"
	"github.com/magabrotheeeer/lms-server/internal/lib/upload"
	"github.com/magabrotheeeer/lms-server/internal/mediastore"
	"github.com/magabrotheeeer/lms-server/internal/migrations"
	"github.com/magabrotheeeer/lms-server/internal/paymentprovider"
	authservice "github.com/magabrotheeeer/lms-server/internal/services/auth"
	courseservice "github.com/magabrotheeeer/lms-server/internal/services/course"
	"github.com/magabrotheeeer/lms-server/internal/services/mailer"
	miscservice "github.com/magabrotheeeer/lms-server/internal/services/misc"
	subscriptionservice "github.com/magabrotheeeer/lms-server/internal/services/subscription"
	"github.com/magabrotheeeer/lms-server/internal/storage"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	media, err := mediastore.New(cfg.Cloudinary, logger)
	if err != nil {
		_ = db.Close()
		_ = cacheRedis.Close()
		return nil, err
	}

	app := &App{
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}

	mail, err := app.newMailer(cfg)
	if err != nil {
		app.close()
		return nil, err
	}

	tokens := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservice.New(db, tokens, media, mail, cfg.PasswordReset, logger)
	subscriptionService := subscriptionservice.New(db, paymentprovider.NewClient(cfg.Razorpay), cfg.Razorpay, logger)
	courseService := courseservice.New(db, cacheRedis, media, logger)
	miscService := miscservice.New(db, mail, cfg.ContactEmail, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Auth:          authService,
		Subscriptions: subscriptionService,
		Courses:       courseService,
		Misc:          miscService,
		Tokens:        tokens,
		TokenTTL:      cfg.TokenTTL,
		DB:            db,
		Saver:         upload.New(cfg.Uploads.Dir, cfg.MaxFileSize),
		CORSOrigins:   cfg.AllowedOrigins,
		SecureCookies: cfg.SecureCookies(),
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// newMailer выбирает доставку писем: через очередь, если задан RabbitMQ,
// иначе напрямую по SMTP из процесса API.
func (a *App) newMailer(cfg *config.Config) (mailer.Mailer, error) {
	if !cfg.QueueMail() {
		a.logger.Warn("rabbitmq is not configured, sending mail synchronously")
		return mailer.NewSMTPMailer(smtp.NewTransport(cfg.SMTP, a.logger), a.logger), nil
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
	a.conn = conn
	return mailer.NewQueueMailer(rabbitmq.NewPublisher(ch, cfg.Exchange, cfg.MailQueue), a.logger), nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq connection", sl.Err(err))
		}
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
