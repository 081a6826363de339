package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
	"github.com/go-chi/render"
)

type contextKey string

const (
	principalKey contextKey = "principal"
	tokenKey     contextKey = "token"
)

// WithPrincipal добавляет покупателя и его токен в контекст
func WithPrincipal(ctx context.Context, p *interfaces.Principal, token string) context.Context {
	ctx = context.WithValue(ctx, principalKey, p)
	ctx = context.WithValue(ctx, tokenKey, token)
	return context.WithValue(ctx, interfaces.UserIDKey, p.UserID)
}

// PrincipalFrom возвращает покупателя из контекста или nil для гостя
func PrincipalFrom(ctx context.Context) *interfaces.Principal {
	p, _ := ctx.Value(principalKey).(*interfaces.Principal)
	return p
}

// TokenFrom возвращает токен покупателя из контекста
func TokenFrom(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}

type authError struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

func deny(w http.ResponseWriter, r *http.Request, code int, message string) {
	render.Status(r, code)
	render.JSON(w, r, authError{Error: strings.ToLower(strings.ReplaceAll(http.StatusText(code), " ", "_")), Code: code, Message: message})
}

// Authenticate промежуточное ПО для проверки токенов. Запрос без заголовка Authorization
// проходит как гостевой; неверный токен отклоняется с 401. Пустой port отключает проверку.
func Authenticate(port interfaces.AuthPort, logger interfaces.LoggerPort) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || port == nil {
				next.ServeHTTP(w, r)
				return
			}

			// Проверяем формат токена
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				deny(w, r, http.StatusUnauthorized, "Invalid authorization format")
				return
			}

			principal, err := port.Authenticate(r.Context(), parts[1])
			if err != nil {
				logger.WarnWithContext(r.Context(), "Недействительный токен",
					interfaces.LogField{Key: "error", Value: err.Error()})
				deny(w, r, http.StatusUnauthorized, "Invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal, parts[1])))
		})
	}
}

// RequireRole проверяет наличие определенной роли
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFrom(r.Context())
			if principal == nil {
				deny(w, r, http.StatusUnauthorized, "Unauthorized")
				return
			}

			if !principal.HasRole(role) {
				deny(w, r, http.StatusForbidden, "Forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
