package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const stateCookie = "sf_oauth_state"

// OIDCProvider вход через внешний провайдер (Keycloak)
type OIDCProvider interface {
	GetAuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)
}

// AuthHandler вход покупателя через OIDC
type AuthHandler struct {
	provider OIDCProvider
	secure   bool
	logger   interfaces.LoggerPort
}

// NewAuthHandler создает обработчик входа
func NewAuthHandler(provider OIDCProvider, secure bool, logger interfaces.LoggerPort) *AuthHandler {
	return &AuthHandler{provider: provider, secure: secure, logger: logger}
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	IDToken     string    `json:"id_token,omitempty"`
	Expiry      time.Time `json:"expiry"`
}

// Login перенаправляет на страницу входа провайдера
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute) / time.Second),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.provider.GetAuthURL(state), http.StatusFound)
}

// Callback обменивает код авторизации на токены. Для запросов к API используется id_token.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || c.Value != r.URL.Query().Get("state") {
		writeBadRequest(w, r, "Неверный state")
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		writeBadRequest(w, r, "Код авторизации не указан")
		return
	}

	token, err := h.provider.ExchangeCode(r.Context(), code)
	if err != nil {
		h.logger.WarnWithContext(r.Context(), "Ошибка обмена кода авторизации",
			interfaces.LogField{Key: "error", Value: err.Error()})
		writeBadRequest(w, r, "Не удалось выполнить вход")
		return
	}

	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})
	resp := tokenResponse{AccessToken: token.AccessToken, Expiry: token.Expiry}
	if idToken, ok := token.Extra("id_token").(string); ok {
		resp.IDToken = idToken
	}
	writeData(w, r, http.StatusOK, resp, nil)
}
