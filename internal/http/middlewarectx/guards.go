// Package middlewarectx содержит цепочку проверок доступа к защищенным маршрутам.
//
// Проверка представлена функцией Guard, которая получает контекст запроса и
// возвращает новый контекст или ошибку. Chain выполняет проверки по порядку
// и останавливается на первой ошибке:
//
//	Identity -> AuthorizeRoles(ADMIN)
//	Identity -> AuthorizeSubscribers
//
// Identity кладет пользователя в контекст, остальные проверки читают его оттуда.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/lms-server/internal/http/response"
	"github.com/magabrotheeeer/lms-server/internal/lib/apperr"
	"github.com/magabrotheeeer/lms-server/internal/lib/jwt"
	"github.com/magabrotheeeer/lms-server/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// UserKey ключ пользователя в контексте запроса.
const UserKey Key = "user"

// TokenCookie имя cookie с сессионным токеном.
const TokenCookie = "token"

// Guard одна проверка цепочки доступа.
type Guard func(ctx context.Context, r *http.Request) (context.Context, error)

// Chain возвращает middleware, выполняющий guards по порядку.
func Chain(log *slog.Logger, guards ...Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Chain"
			ctx := r.Context()
			for _, guard := range guards {
				var err error
				ctx, err = guard(ctx, r)
				if err != nil {
					response.WriteError(w, r, log.With(
						slog.String("op", op),
						slog.String("request_id", middleware.GetReqID(r.Context())),
					), err)
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserProvider загружает пользователя вместе с подпиской.
type UserProvider interface {
	Profile(ctx context.Context, userID string) (*models.User, error)
}

// Identity читает сессионный токен из cookie и загружает пользователя.
func Identity(tokens jwt.Maker, users UserProvider) Guard {
	return func(ctx context.Context, r *http.Request) (context.Context, error) {
		cookie, err := r.Cookie(TokenCookie)
		if err != nil || cookie.Value == "" {
			return ctx, apperr.Unauthenticated("Unauthenticated, please login again")
		}
		claims, err := tokens.ParseToken(cookie.Value)
		if err != nil {
			return ctx, apperr.Wrap(apperr.KindUnauthenticated, "Invalid token, please login again", err)
		}
		user, err := users.Profile(ctx, claims.UserID())
		if err != nil {
			return ctx, err
		}
		return context.WithValue(ctx, UserKey, user), nil
	}
}

// AuthorizeRoles пропускает только пользователей с одной из ролей roles.
func AuthorizeRoles(roles ...models.Role) Guard {
	return func(ctx context.Context, _ *http.Request) (context.Context, error) {
		user, ok := UserFromContext(ctx)
		if !ok {
			return ctx, apperr.Internal("role check without user in context", nil)
		}
		for _, role := range roles {
			if user.Role == role {
				return ctx, nil
			}
		}
		return ctx, apperr.Forbidden("You do not have permission to access this route")
	}
}

// AuthorizeSubscribers пропускает пользователей с активной подпиской и администраторов.
func AuthorizeSubscribers() Guard {
	return func(ctx context.Context, _ *http.Request) (context.Context, error) {
		user, ok := UserFromContext(ctx)
		if !ok {
			return ctx, apperr.Internal("subscription check without user in context", nil)
		}
		if user.IsAdmin() || user.HasActiveSubscription() {
			return ctx, nil
		}
		return ctx, apperr.Forbidden("Please subscribe to access this route.")
	}
}

// UserFromContext возвращает пользователя, положенного Identity.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserKey).(*models.User)
	return user, ok && user != nil
}
