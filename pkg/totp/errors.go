package totp

import "errors"

var (
	ErrFailedToGenerateSecret = errors.New("failed to generate TOTP secret")
	ErrInvalidSecret          = errors.New("invalid TOTP secret")
	ErrMissingAccountName     = errors.New("missing account name")
)
