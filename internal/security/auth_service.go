package security

import (
	"context"
	"errors"

	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
)

var ErrNoAuthenticators = errors.New("no authenticators configured")

// AuthService проверяет токен по очереди каждым источником: собственные токены
// витрины и, если включен, Keycloak. Первый успешный ответ выигрывает.
type AuthService struct {
	authenticators []interfaces.AuthPort
}

func NewAuthService(authenticators ...interfaces.AuthPort) *AuthService {
	var list []interfaces.AuthPort
	for _, a := range authenticators {
		if a != nil {
			list = append(list, a)
		}
	}
	return &AuthService{authenticators: list}
}

// Enabled сообщает, настроен ли хотя бы один источник
func (s *AuthService) Enabled() bool {
	return len(s.authenticators) > 0
}

// Authenticate реализует interfaces.AuthPort
func (s *AuthService) Authenticate(ctx context.Context, token string) (*interfaces.Principal, error) {
	if len(s.authenticators) == 0 {
		return nil, ErrNoAuthenticators
	}
	var errs []error
	for _, a := range s.authenticators {
		p, err := a.Authenticate(ctx, token)
		if err == nil {
			return p, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(append([]error{ErrInvalidToken}, errs...)...)
}
