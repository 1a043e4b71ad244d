package credentials

import "errors"

var (
	ErrEmptyPassword              = errors.New("password must not be empty")
	ErrFailedToHashPassword       = errors.New("failed to hash password")
	ErrFailedToGenerateParaphrase = errors.New("failed to generate paraphrase")
	ErrFailedToGenerateSalt       = errors.New("failed to generate salt")
	ErrFailedToGenerateKeypair    = errors.New("failed to generate keypair")
)
