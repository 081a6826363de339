package interfaces

import (
	"context"
)

// Principal покупатель, подтвержденный токеном
type Principal struct {
	UserID   string
	Username string
	Email    string
	Roles    []string
}

// HasRole проверяет наличие роли у покупателя
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AuthPort определяет интерфейс для работы с аутентификацией
type AuthPort interface {
	// Authenticate проверяет токен и возвращает покупателя
	Authenticate(ctx context.Context, token string) (*Principal, error)
}
