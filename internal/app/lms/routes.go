// Package lms собирает HTTP API платформы: маршруты, middleware и зависимости.
package lms

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	_ "github.com/magabrotheeeer/lms-server/internal/docs"
	"github.com/magabrotheeeer/lms-server/internal/http/handlers/course/courseget"
	"github.com/magabrotheeeer/lms-server/internal/http/handlers/course/coursecreate"
	"github.com/magabrotheeeer/lms-server/internal/http/handlers/course/courselist"
	"github.com/magabrotheeeer/lms-server/internal/http/handlers/course/courseremove"
	"github.com/magabrotheeeer/lms-server/internal/http/handlers/course/courseupdate"
	"github.com/magabrotheeeer/lms-server/internal/http/handlers/course/lectureadd"
	"github.com/magabrotheeeer/lms-server/internal/http/handlers/course/lectureremove"
	"github.com/magabrotheeeer/lms-server/internal/http/handlers/misc/contact"
	"github.com/magabrotheeeer/lms-server/internal/http/handlers/misc/health"
	"github.com/magabrotheeeer/lms-server/internal/http/handlers/misc/userstats"
	"github.com/magabrotheeeer/lms-server/internal/http/handlers/payment/paymentkey"
	"github.com/magabrotheeeer/lms-server/internal/http/handlers/payment/paymentlist"
	"github.com/magabrotheeeer/lms-server/internal/http/handlers/payment/paymentwebhook"
	"github.com/magabrotheeeer/lms-server/internal/http/handlers/payment/subscribe"
	"github.com/magabrotheeeer/lms-server/internal/http/handlers/payment/unsubscribe"
	"github.com/magabrotheeeer/lms-server/internal/http/handlers/payment/verify"
	"github.com/magabrotheeeer/lms-server/internal/http/handlers/user/changepassword"
	"github.com/magabrotheeeer/lms-server/internal/http/handlers/user/forgotpassword"
	"github.com/magabrotheeeer/lms-server/internal/http/handlers/user/login"
	"github.com/magabrotheeeer/lms-server/internal/http/handlers/user/logout"
	"github.com/magabrotheeeer/lms-server/internal/http/handlers/user/me"
	"github.com/magabrotheeeer/lms-server/internal/http/handlers/user/register"
	"github.com/magabrotheeeer/lms-server/internal/http/handlers/user/resetpassword"
	"github.com/magabrotheeeer/lms-server/internal/http/handlers/user/updateuser"
	"github.com/magabrotheeeer/lms-server/internal/http/middlewarectx"
	"github.com/magabrotheeeer/lms-server/internal/http/response"
	"github.com/magabrotheeeer/lms-server/internal/lib/jwt"
	"github.com/magabrotheeeer/lms-server/internal/lib/upload"
	"github.com/magabrotheeeer/lms-server/internal/metrics"
	"github.com/magabrotheeeer/lms-server/internal/models"
	authservice "github.com/magabrotheeeer/lms-server/internal/services/auth"
	courseservice "github.com/magabrotheeeer/lms-server/internal/services/course"
	miscservice "github.com/magabrotheeeer/lms-server/internal/services/misc"
	subscriptionservice "github.com/magabrotheeeer/lms-server/internal/services/subscription"
)

// Лимит для открытых маршрутов учетных записей, на один IP.
const (
	authRateLimit = rate.Limit(1)
	authRateBurst = 10
)

// Deps зависимости обработчиков.
type Deps struct {
	Auth          *authservice.Service
	Subscriptions *subscriptionservice.Service
	Courses       *courseservice.Service
	Misc          *miscservice.Service
	Tokens        jwt.Maker
	TokenTTL      time.Duration
	DB            health.Pinger
	Saver         *upload.Saver
	CORSOrigins   []string
	SecureCookies bool
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middlewarectx.Recoverer(logger),
		metrics.Middleware,
		cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusNotFound, response.Error("OOPS!! 404 page not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusMethodNotAllowed, response.Error("method not allowed"))
	})

	tokenTTL := d.TokenTTL
	loggedIn := middlewarectx.Chain(logger, middlewarectx.Identity(d.Tokens, d.Auth))
	admin := middlewarectx.Chain(logger,
		middlewarectx.Identity(d.Tokens, d.Auth),
		middlewarectx.AuthorizeRoles(models.RoleAdmin),
	)
	subscriber := middlewarectx.Chain(logger,
		middlewarectx.Identity(d.Tokens, d.Auth),
		middlewarectx.AuthorizeSubscribers(),
	)
	limiter := middlewarectx.NewRateLimiter(authRateLimit, authRateBurst)

	r.Get("/ping", health.New(logger, d.DB).ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			// Открытые конечные точки
			r.Group(func(r chi.Router) {
				r.Use(limiter.Middleware(logger))
				r.Post("/register", register.New(logger, d.Auth, d.Saver, tokenTTL, d.SecureCookies).ServeHTTP)
				r.Post("/login", login.New(logger, d.Auth, tokenTTL, d.SecureCookies).ServeHTTP)
				r.Post("/reset", forgotpassword.New(logger, d.Auth).ServeHTTP)
				r.Post("/reset-password/{resetToken}", resetpassword.New(logger, d.Auth).ServeHTTP)
			})
			r.Post("/logout", logout.New(d.SecureCookies).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(loggedIn)
				r.Get("/me", me.New(logger).ServeHTTP)
				r.Post("/changePassword", changepassword.New(logger, d.Auth).ServeHTTP)
				r.Put("/update/{id}", updateuser.New(logger, d.Auth, d.Saver).ServeHTTP)
			})
		})

		r.Route("/courses", func(r chi.Router) {
			r.Get("/", courselist.New(logger, d.Courses).ServeHTTP)
			r.With(admin).Post("/", coursecreate.New(logger, d.Courses, d.Saver).ServeHTTP)
			r.With(admin).Delete("/lecture", lectureremove.New(logger, d.Courses).ServeHTTP)
			r.With(subscriber).Get("/{id}", courseget.New(logger, d.Courses).ServeHTTP)
			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Post("/{id}", lectureadd.New(logger, d.Courses, d.Saver).ServeHTTP)
				r.Put("/{id}", courseupdate.New(logger, d.Courses).ServeHTTP)
				r.Delete("/{id}", courseremove.New(logger, d.Courses).ServeHTTP)
			})
		})

		r.Route("/payments", func(r chi.Router) {
			r.With(admin).Get("/", paymentlist.New(logger, d.Subscriptions).ServeHTTP)
			r.With(loggedIn).Get("/razorpay-key", paymentkey.New(d.Subscriptions).ServeHTTP)
			r.With(loggedIn).Post("/subscribe", subscribe.New(logger, d.Subscriptions).ServeHTTP)
			r.With(loggedIn).Post("/verify", verify.New(logger, d.Subscriptions).ServeHTTP)
			r.With(subscriber).Post("/unsubscribe", unsubscribe.New(logger, d.Subscriptions).ServeHTTP)
			// Подпись тела проверяется сервисом, cookie не нужна
			r.Post("/webhook", paymentwebhook.New(logger, d.Subscriptions).ServeHTTP)
		})

		r.Post("/contact", contact.New(logger, d.Misc).ServeHTTP)
		r.With(admin).Get("/admin/stats/users", userstats.New(logger, d.Misc).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
