package moderation

import "errors"

var (
	// ErrValidation covers bad input rejected before any side effect.
	ErrValidation = errors.New("validation failed")
	// ErrPermission means the platform denied the enforcement call.
	ErrPermission = errors.New("permission denied by platform")
	// ErrNotFound means the target no longer exists on the platform.
	ErrNotFound = errors.New("target not found")
)
