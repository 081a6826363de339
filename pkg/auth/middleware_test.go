package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/athebyme/gomarket-storefront/internal/adapters/logger"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
	"github.com/stretchr/testify/assert"
)

type stubPort struct{}

func (stubPort) Authenticate(_ context.Context, token string) (*interfaces.Principal, error) {
	switch token {
	case "good":
		return &interfaces.Principal{UserID: "u1"}, nil
	case "admin":
		return &interfaces.Principal{UserID: "u2", Roles: []string{"storefront-admin"}}, nil
	}
	return nil, errors.New("bad token")
}

func TestAuthenticate(t *testing.T) {
	var seen *interfaces.Principal
	var token string
	h := Authenticate(stubPort{}, logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = PrincipalFrom(r.Context())
		token = TokenFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
		user   string
	}{
		{"guest", "", http.StatusNoContent, ""},
		{"valid", "Bearer good", http.StatusNoContent, "u1"},
		{"bad format", "Token good", http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen, token = nil, ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.user == "" {
				assert.Nil(t, seen)
				return
			}
			if assert.NotNil(t, seen) {
				assert.Equal(t, tt.user, seen.UserID)
				assert.Equal(t, "good", token)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	h := Authenticate(stubPort{}, logger.NewNop())(RequireRole("storefront-admin")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	for header, status := range map[string]int{
		"":             http.StatusUnauthorized,
		"Bearer good":  http.StatusForbidden,
		"Bearer admin": http.StatusNoContent,
	} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, status, rec.Code, header)
	}
}

func TestKeycloakClaimsPrincipal(t *testing.T) {
	c := &KeycloakClaims{UserID: "u1", Username: "ann"}
	c.RealmAccess.Roles = []string{"shopper"}
	c.ResourceAccess = map[string]struct {
		Roles []string `json:"roles"`
	}{"storefront": {Roles: []string{"storefront-admin"}}, "other": {Roles: []string{"x"}}}

	p := c.Principal("storefront")
	assert.Equal(t, "u1", p.UserID)
	assert.ElementsMatch(t, []string{"shopper", "storefront-admin"}, p.Roles)
}
