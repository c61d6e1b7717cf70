package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrBookNotFound     = errors.New("book not found")
	ErrInvalidTokenBlob = errors.New("invalid token blob")
	ErrStorageFailure   = errors.New("storage failure")
	ErrMetadataFailure  = errors.New("metadata failure")
	ErrInvalidConfig    = errors.New("invalid configuration")
)
