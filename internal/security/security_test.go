package security

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	m, err := NewJWTManager("secret", time.Hour, "storefront")
	require.NoError(t, err)

	token, err := m.Generate("u1", "ann", "ann@example.com", []string{"shopper"})
	require.NoError(t, err)

	p, err := m.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.True(t, p.HasRole("shopper"))
	assert.False(t, p.HasRole("storefront-admin"))
}

func TestJWTRejects(t *testing.T) {
	m, err := NewJWTManager("secret", time.Hour, "storefront")
	require.NoError(t, err)
	other, err := NewJWTManager("other", time.Hour, "storefront")
	require.NoError(t, err)
	expired, err := NewJWTManager("secret", -time.Minute, "storefront")
	require.NoError(t, err)

	foreign, err := other.Generate("u1", "", "", nil)
	require.NoError(t, err)
	_, err = m.Validate(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	old, err := expired.Generate("u1", "", "", nil)
	require.NoError(t, err)
	_, err = m.Validate(old)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = m.Validate("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewJWTManager("", time.Hour, "storefront")
	assert.ErrorIs(t, err, ErrEmptySecret)
}

type stubAuth struct {
	principal *interfaces.Principal
	err       error
}

func (s stubAuth) Authenticate(context.Context, string) (*interfaces.Principal, error) {
	return s.principal, s.err
}

func TestAuthServiceChain(t *testing.T) {
	ctx := context.Background()

	empty := NewAuthService(nil)
	assert.False(t, empty.Enabled())
	_, err := empty.Authenticate(ctx, "t")
	assert.ErrorIs(t, err, ErrNoAuthenticators)

	svc := NewAuthService(stubAuth{err: errors.New("bad")}, stubAuth{principal: &interfaces.Principal{UserID: "u2"}})
	assert.True(t, svc.Enabled())
	p, err := svc.Authenticate(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, "u2", p.UserID)

	failing := NewAuthService(stubAuth{err: errors.New("bad")})
	_, err = failing.Authenticate(ctx, "t")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
