package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"
)

// KeycloakConfig конфигурация для Keycloak
type KeycloakConfig struct {
	ServerURL    string
	Realm        string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// KeycloakClaims представляет собой структуру claims из токена Keycloak
type KeycloakClaims struct {
	UserID      string `json:"sub"`
	Username    string `json:"preferred_username"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	RealmAccess struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
	ResourceAccess map[string]struct {
		Roles []string `json:"roles"`
	} `json:"resource_access"`
}

// KeycloakClient клиент для работы с Keycloak
type KeycloakClient struct {
	provider     *oidc.Provider
	verifier     *oidc.IDTokenVerifier
	oauth2Config *oauth2.Config
	tokenCache   *cache.Cache
	clientID     string
}

// NewKeycloakClient создает новый клиент Keycloak
func NewKeycloakClient(ctx context.Context, cfg KeycloakConfig) (*KeycloakClient, error) {
	providerURL := fmt.Sprintf("%s/realms/%s", cfg.ServerURL, cfg.Realm)

	provider, err := oidc.NewProvider(ctx, providerURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания OIDC провайдера: %w", err)
	}

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID:        cfg.ClientID,
		SkipIssuerCheck: true,
	})

	return &KeycloakClient{
		provider:     provider,
		verifier:     verifier,
		oauth2Config: oauth2Config,
		tokenCache:   cache.New(5*time.Minute, 10*time.Minute),
		clientID:     cfg.ClientID,
	}, nil
}

// ValidateToken проверяет JWT токен и возвращает claims
func (k *KeycloakClient) ValidateToken(ctx context.Context, tokenString string) (*KeycloakClaims, error) {
	if cachedClaims, found := k.tokenCache.Get(tokenString); found {
		return cachedClaims.(*KeycloakClaims), nil
	}

	idToken, err := k.verifier.Verify(ctx, tokenString)
	if err != nil {
		return nil, fmt.Errorf("ошибка верификации токена: %w", err)
	}

	var claims KeycloakClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("ошибка извлечения claims: %w", err)
	}

	expiresIn := time.Until(idToken.Expiry)
	if expiresIn > 0 {
		k.tokenCache.Set(tokenString, &claims, expiresIn)
	}

	return &claims, nil
}

// Authenticate реализует interfaces.AuthPort. Роли realm и клиента объединяются.
func (k *KeycloakClient) Authenticate(ctx context.Context, token string) (*interfaces.Principal, error) {
	claims, err := k.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return claims.Principal(k.clientID), nil
}

// Principal переводит claims в покупателя
func (c *KeycloakClaims) Principal(clientID string) *interfaces.Principal {
	roles := append([]string(nil), c.RealmAccess.Roles...)
	if clientRoles, ok := c.ResourceAccess[clientID]; ok {
		roles = append(roles, clientRoles.Roles...)
	}
	return &interfaces.Principal{
		UserID:   c.UserID,
		Username: c.Username,
		Email:    c.Email,
		Roles:    roles,
	}
}

// GetAuthURL возвращает URL для аутентификации пользователя
func (k *KeycloakClient) GetAuthURL(state string) string {
	return k.oauth2Config.AuthCodeURL(state)
}

// ExchangeCode обменивает код авторизации на токены
func (k *KeycloakClient) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	return k.oauth2Config.Exchange(ctx, code)
}
