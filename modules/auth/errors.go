package auth

import "errors"

var (
	// ErrAccountNotFound is returned when no account matches the lookup key.
	ErrAccountNotFound = errors.New("no matching account")

	// ErrEmailTaken is returned when registering with an email that already
	// belongs to an account.
	ErrEmailTaken = errors.New("email in use")

	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password; the two are indistinguishable to prevent account
	// enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUntrustedDevice is returned when the presented fingerprint is not
	// on the account's device trust list.
	ErrUntrustedDevice = errors.New("untrusted device")

	// ErrInvalidCode is returned when the submitted TOTP code does not
	// match any step in the drift window.
	ErrInvalidCode = errors.New("invalid code")

	// ErrChallengeRejected is returned when the challenge acknowledgment
	// does not verify.
	ErrChallengeRejected = errors.New("challenge rejected")

	// ErrParaphraseIncorrect is returned by the bind-device flow when the
	// recovery paraphrase does not match.
	ErrParaphraseIncorrect = errors.New("paraphrase incorrect")

	// ErrDeviceAlreadyBound is returned when a binding produces a
	// fingerprint already present on the trust list.
	ErrDeviceAlreadyBound = errors.New("device already bound")
)
