package shop

import "errors"

var (
	ErrUnknownGroup      = errors.New("unknown filter group")
	ErrInvalidPriceRange = errors.New("invalid price range")
	ErrInvalidPage       = errors.New("invalid page")
	ErrUnknownContext    = errors.New("unknown listing context")
)
