package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/athebyme/gomarket-storefront/internal/adapters/catalogapi"
	"github.com/athebyme/gomarket-storefront/internal/api/middleware"
	"github.com/athebyme/gomarket-storefront/internal/domain/cart"
	"github.com/athebyme/gomarket-storefront/internal/domain/listing"
	"github.com/athebyme/gomarket-storefront/internal/domain/services"
	"github.com/athebyme/gomarket-storefront/internal/domain/shop"
	"github.com/athebyme/gomarket-storefront/internal/domain/variant"
	"github.com/athebyme/gomarket-storefront/pkg/auth"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
	"github.com/go-chi/render"
)

// Ссылки, которые ответ с ошибкой предлагает покупателю
const (
	backToShop       = "/shop"
	bulkInquiriesURL = "/bulk-inquiries"
)

// errorResponse представляет структуру ответа с ошибкой
type errorResponse struct {
	Error    string `json:"error"`
	Code     int    `json:"code"`
	Message  string `json:"message,omitempty"`
	Retry    bool   `json:"retry,omitempty"`
	Back     string `json:"back,omitempty"`
	Redirect string `json:"redirect,omitempty"`
	// Data последний успешный результат, который остается на экране рядом с ошибкой
	Data interface{} `json:"data,omitempty"`
}

// response представляет структуру успешного ответа
type response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type userMessenger interface {
	UserMessage() string
}

func writeData(w http.ResponseWriter, r *http.Request, status int, data, meta interface{}) {
	render.Status(r, status)
	render.JSON(w, r, response{Success: true, Data: data, Meta: meta})
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, errorResponse{
		Error:   "bad_request",
		Code:    http.StatusBadRequest,
		Message: message,
	})
}

// classify сопоставляет ошибку сценария с ответом API
func classify(err error) errorResponse {
	var validation *cart.ValidationError
	switch {
	case errors.As(err, &validation):
		return errorResponse{Error: "validation_failed", Code: http.StatusUnprocessableEntity, Message: validation.UserMessage()}
	case errors.Is(err, services.ErrBulkOrderOnly):
		return errorResponse{Error: "bulk_order_only", Code: http.StatusConflict,
			Message: "This product is sold by bulk inquiry only.", Redirect: bulkInquiriesURL}
	case errors.Is(err, catalogapi.ErrNotFound):
		return errorResponse{Error: "not_found", Code: http.StatusNotFound, Message: "Product not found.", Back: backToShop}
	case errors.Is(err, shop.ErrUnknownContext), errors.Is(err, services.ErrInquiryNotFound):
		return errorResponse{Error: "not_found", Code: http.StatusNotFound, Message: err.Error()}
	case errors.Is(err, catalogapi.ErrUnauthorized):
		return errorResponse{Error: "unauthorized", Code: http.StatusUnauthorized, Message: "Please sign in again."}
	case errors.Is(err, shop.ErrUnknownGroup), errors.Is(err, shop.ErrInvalidPriceRange), errors.Is(err, shop.ErrInvalidPage),
		errors.Is(err, variant.ErrUnknownColor), errors.Is(err, variant.ErrUnknownSize), errors.Is(err, variant.ErrNoProduct),
		errors.Is(err, services.ErrInvalidInquiry), errors.Is(err, services.ErrNoSelection), errors.Is(err, cart.ErrNoSession):
		return errorResponse{Error: "bad_request", Code: http.StatusBadRequest, Message: err.Error()}
	case errors.Is(err, listing.ErrNoPreviousQuery):
		return errorResponse{Error: "conflict", Code: http.StatusConflict, Message: "Nothing to retry."}
	case errors.Is(err, services.ErrInquiryUnavailable):
		return errorResponse{Error: "unavailable", Code: http.StatusServiceUnavailable, Message: "Bulk inquiries are temporarily unavailable."}
	case errors.Is(err, catalogapi.ErrUpstream), errors.Is(err, context.DeadlineExceeded):
		resp := errorResponse{Error: "upstream_error", Code: http.StatusBadGateway, Retry: true}
		var um userMessenger
		if errors.As(err, &um) {
			resp.Message = um.UserMessage()
		}
		return resp
	default:
		return errorResponse{Error: "internal_error", Code: http.StatusInternalServerError, Message: "Something went wrong. Please try again."}
	}
}

// writeError логирует ошибку и отвечает в формате errorResponse
func writeError(w http.ResponseWriter, r *http.Request, logger interfaces.LoggerPort, msg string, err error) {
	resp := classify(err)
	if resp.Code >= http.StatusInternalServerError {
		logger.ErrorWithContext(r.Context(), msg, interfaces.LogField{Key: "error", Value: err.Error()})
	} else {
		logger.DebugWithContext(r.Context(), msg, interfaces.LogField{Key: "error", Value: err.Error()})
	}
	render.Status(r, resp.Code)
	render.JSON(w, r, resp)
}

// identity собирает покупателя запроса: сессия из cookie, пользователь из токена
func identity(r *http.Request) cart.Identity {
	id := cart.Identity{SessionID: middleware.SessionID(r.Context())}
	if p := auth.PrincipalFrom(r.Context()); p != nil {
		id.UserID = p.UserID
		id.Token = auth.TokenFrom(r.Context())
	}
	return id
}
