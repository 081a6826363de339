package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
	"github.com/google/uuid"
)

// DefaultSessionCookie имя cookie сессии покупателя
const DefaultSessionCookie = "sf_session"

// Session находит или выдает идентификатор сессии покупателя и кладет его в контекст.
// Cookie с неверным значением заменяется новым.
func Session(cookieName string, ttl time.Duration, secure bool) func(http.Handler) http.Handler {
	if cookieName == "" {
		cookieName = DefaultSessionCookie
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sessionID string
			if c, err := r.Cookie(cookieName); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					sessionID = c.Value
				}
			}
			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			// продлеваем cookie на каждом запросе
			http.SetCookie(w, &http.Cookie{
				Name:     cookieName,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   int(ttl / time.Second),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := context.WithValue(r.Context(), interfaces.SessionIDKey, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionID возвращает идентификатор сессии из контекста
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(interfaces.SessionIDKey).(string)
	return id
}
