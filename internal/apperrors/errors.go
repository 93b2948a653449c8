package apperrors

import (
	"errors"
	"fmt"
)

// Error classes. Every specific error below wraps exactly one of them,
// so callers may match either the class or the concrete reason.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

var (
	ErrUserAlreadyExists  = fmt.Errorf("%w: user already exists", ErrConflict)
	ErrUsernameTaken      = fmt.Errorf("username already taken: %w", ErrUserAlreadyExists)
	ErrEmailTaken         = fmt.Errorf("email already registered: %w", ErrUserAlreadyExists)
	ErrUserNotFound       = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	ErrMissingFields      = fmt.Errorf("%w: required fields are missing", ErrInvalidInput)
	ErrPasswordTooShort   = fmt.Errorf("%w: password is too short", ErrInvalidInput)

	ErrPostNotFound    = fmt.Errorf("%w: post not found", ErrNotFound)
	ErrAuthorRequired  = fmt.Errorf("%w: post author is required", ErrInvalidInput)
	ErrPostEmpty       = fmt.Errorf("%w: post must have text or image", ErrInvalidInput)
	ErrPostTextTooLong = fmt.Errorf("%w: post text is too long", ErrInvalidInput)
	ErrCommentEmpty    = fmt.Errorf("%w: comment text is required", ErrInvalidInput)
	ErrCommentTooLong  = fmt.Errorf("%w: comment text is too long", ErrInvalidInput)
)
