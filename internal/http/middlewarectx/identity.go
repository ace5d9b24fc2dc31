// Package middlewarectx содержит HTTP middleware: определение пользователя по
// токену сессии, обязательную аутентификацию, ограничение частоты запросов и метрики.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/content-paywall/internal/http/response"
	"github.com/magabrotheeeer/content-paywall/internal/models"
	"github.com/magabrotheeeer/content-paywall/internal/services/access"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// IdentityKey ключ пользователя в контексте.
const IdentityKey Key = "identity"

// Authenticator проверяет токен сессии. nil означает анонимный запрос.
type Authenticator interface {
	Authenticate(token string) *models.Identity
}

// Identify читает токен из cookie cookieName или заголовка Authorization: Bearer
// и кладёт пользователя в контекст. Запрос без токена или с недействительным
// токеном проходит дальше как анонимный.
func Identify(auth Authenticator, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := auth.Authenticate(tokenFrom(r, cookieName))
			if identity == nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func tokenFrom(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// WithIdentity возвращает контекст с пользователем.
func WithIdentity(ctx context.Context, identity *models.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// IdentityFrom возвращает пользователя запроса или nil для анонимного.
func IdentityFrom(ctx context.Context) *models.Identity {
	identity, _ := ctx.Value(IdentityKey).(*models.Identity)
	return identity
}

// RequireAuth отвечает 401 на анонимные запросы.
func RequireAuth(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IdentityFrom(r.Context()) == nil {
				log.Debug("anonymous request rejected",
					slog.String("op", "middlewarectx.RequireAuth"),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("path", r.URL.Path),
				)
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error(access.MsgLoginRequired))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole пропускает только пользователей с ролью role. Проверка выполняется
// до разбора тела запроса.
func RequireRole(log *slog.Logger, role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := access.RequireRole(IdentityFrom(r.Context()), role); err != nil {
				log.Debug("role check failed",
					slog.String("op", "middlewarectx.RequireRole"),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("path", r.URL.Path),
				)
				response.FromError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
