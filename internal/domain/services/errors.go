package services

import "errors"

var (
	ErrBulkOrderOnly      = errors.New("product is sold by bulk inquiry only")
	ErrInvalidInquiry     = errors.New("invalid bulk inquiry")
	ErrInquiryUnavailable = errors.New("bulk inquiries are unavailable")
	ErrInquiryNotFound    = errors.New("bulk inquiry not found")
	ErrNoSelection        = errors.New("no product selected")
)
