package entity

import "errors"

var (
	// Request errors
	ErrInvalidURL = errors.New("invalid url")

	// Page errors
	ErrPageFetch = errors.New("page fetch failed")

	// Image errors
	ErrUnresolvable      = errors.New("image url cannot be resolved")
	ErrEmptyImage        = errors.New("image is empty")
	ErrImageTooLarge     = errors.New("image exceeds size limit")
	ErrUnsupportedFormat = errors.New("unsupported image format")
)
