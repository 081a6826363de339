package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/athebyme/gomarket-storefront/config"
	"github.com/athebyme/gomarket-storefront/internal/adapters/cache"
	"github.com/athebyme/gomarket-storefront/internal/adapters/logger"
	"github.com/athebyme/gomarket-storefront/internal/adapters/messaging"
	"github.com/athebyme/gomarket-storefront/internal/domain/cart"
	"github.com/athebyme/gomarket-storefront/internal/domain/services"
	"github.com/athebyme/gomarket-storefront/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inMemoryConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	cfg.Postgres.Enabled = false
	cfg.Redis.Enabled = false
	cfg.Kafka.Enabled = false
	return cfg
}

func TestInMemoryInfrastructure(t *testing.T) {
	ctx := context.Background()
	cfg := inMemoryConfig(t)
	log := logger.NewNop()

	infra, err := NewInfrastructure(ctx, cfg, log)
	require.NoError(t, err)
	defer infra.Close(log)

	assert.Nil(t, infra.Storage)
	assert.Nil(t, infra.Repository())
	assert.Nil(t, infra.TxManager)
	assert.IsType(t, &cache.MemoryCache{}, infra.Cache)
	assert.IsType(t, &messaging.MemoryMessaging{}, infra.Messaging)
	require.NotNil(t, infra.Catalog)

	svc := NewServices(cfg, infra, log)
	_, err = svc.Carts.CreateBulkInquiry(ctx, cart.Identity{SessionID: "s1"}, services.BulkInquiryRequest{})
	assert.ErrorIs(t, err, services.ErrInquiryUnavailable)

	catalog := svc.Storefront.FilterCatalog(ctx)
	assert.Equal(t, cfg.Shop.PriceCeiling, catalog.PriceCeiling)
}

func TestAuthenticator(t *testing.T) {
	cfg := inMemoryConfig(t)

	port, err := Authenticator(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, port)

	jwtManager, err := security.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.JWTExpiration, cfg.Security.JWTIssuer)
	require.NoError(t, err)
	token, err := jwtManager.Generate("u1", "shopper", "", []string{"storefront-admin"})
	require.NoError(t, err)

	principal, err := port.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", principal.UserID)

	cfg.Security.JWTSecret = ""
	port, err = Authenticator(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, port)

	kc, err := KeycloakClient(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, kc)
}
