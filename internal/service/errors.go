package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("email is already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotFound           = errors.New("not found")

	// ErrMalformedInput is a refresh request missing one of its tokens.
	ErrMalformedInput = errors.New("invalid client request")

	// ErrInvalidToken is what every other refresh rejection looks like from the outside.
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidAccessToken = fmt.Errorf("%w: access token cannot be trusted", ErrInvalidToken)
	ErrIdentityNotFound   = fmt.Errorf("%w: identity not found", ErrInvalidToken)
	ErrRefreshMismatch    = fmt.Errorf("%w: refresh token mismatch", ErrInvalidToken)
)
