package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrAuthRejected          = errors.New("authentication rejected")
	ErrCacheCorrupt          = errors.New("snapshot cache corrupt")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
