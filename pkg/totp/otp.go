package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	// Digits is the number of digits in generated codes.
	Digits = 6
	// Period is the code validity window in seconds (RFC 6238 standard).
	Period = 30
	// Skew is the number of adjacent time steps accepted on either side of
	// the current one, tolerating client clock drift.
	Skew = 2

	// Issuer is the service name shown in authenticator apps.
	Issuer = "Romusha"
)

var (
	// secretKeyRegex ensures Base32 format: uppercase A-Z, digits 2-7, optional padding.
	secretKeyRegex = regexp.MustCompile("^[A-Z2-7]+=*$")
	codeRegex      = regexp.MustCompile(fmt.Sprintf(`^\d{%d}$`, Digits))

	b32 = base32.StdEncoding.WithPadding(base32.NoPadding)
)

// Secret is the one-time setup material produced when an account enrolls:
// the shared secret and the otpauth:// URI that encodes it for scanning.
type Secret struct {
	Key             string
	ProvisioningURI string
}

// GenerateSecret produces a new 160-bit Base32 shared secret together with
// a provisioning URI labeled with the given account identity (the email).
func GenerateSecret(accountName string) (Secret, error) {
	if accountName == "" {
		return Secret{}, ErrMissingAccountName
	}

	raw := make([]byte, 20) // 160-bit secret per RFC 4226 recommendation
	if _, err := rand.Read(raw); err != nil {
		return Secret{}, errors.Join(ErrFailedToGenerateSecret, err)
	}
	key := b32.EncodeToString(raw)

	uri, err := ProvisioningURI(key, accountName)
	if err != nil {
		return Secret{}, err
	}

	return Secret{Key: key, ProvisioningURI: uri}, nil
}

// ProvisioningURI builds a Key Uri Format string for authenticator apps:
// https://github.com/google/google-authenticator/wiki/Key-Uri-Format
func ProvisioningURI(secret, accountName string) (string, error) {
	secret = strings.TrimSpace(strings.ToUpper(secret))
	if !secretKeyRegex.MatchString(secret) {
		return "", ErrInvalidSecret
	}
	if accountName == "" {
		return "", ErrMissingAccountName
	}

	label := fmt.Sprintf("%s:%s", url.PathEscape(Issuer), url.PathEscape(accountName))

	query := url.Values{}
	query.Set("secret", secret)
	query.Set("issuer", Issuer)
	query.Set("algorithm", "SHA1")
	query.Set("digits", fmt.Sprintf("%d", Digits))
	query.Set("period", fmt.Sprintf("%d", Period))

	return fmt.Sprintf("otpauth://totp/%s?%s", label, query.Encode()), nil
}

// Validate reports whether the submitted code matches the expected code for
// the current time step or any step within the drift window. Malformed
// codes and undecodable secrets validate to false; Validate never panics
// and has no single-use semantics, so re-validating a still-fresh code
// succeeds again.
func Validate(secret, code string) bool {
	return ValidateAt(secret, code, time.Now())
}

// ValidateAt is Validate evaluated against an explicit reference time.
func ValidateAt(secret, code string, t time.Time) bool {
	key, err := decodeSecret(secret)
	if err != nil {
		return false
	}

	code = strings.TrimSpace(code)
	if !codeRegex.MatchString(code) {
		return false
	}

	counter := t.Unix() / Period
	for i := -Skew; i <= Skew; i++ {
		expected := fmt.Sprintf("%0*d", Digits, hotp(key, counter+int64(i)))
		if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1 {
			return true
		}
	}
	return false
}

// GenerateCode computes the code for the current time step.
func GenerateCode(secret string) (string, error) {
	return GenerateCodeAt(secret, time.Now())
}

// GenerateCodeAt computes the code for the time step containing t. Used by
// enrollment verification and by tests exercising the drift window.
func GenerateCodeAt(secret string, t time.Time) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", Digits, hotp(key, t.Unix()/Period)), nil
}

func decodeSecret(secret string) ([]byte, error) {
	secret = strings.TrimSpace(strings.ToUpper(secret))
	if !secretKeyRegex.MatchString(secret) {
		return nil, ErrInvalidSecret
	}
	key, err := b32.DecodeString(strings.TrimRight(secret, "="))
	if err != nil {
		return nil, errors.Join(ErrInvalidSecret, err)
	}
	return key, nil
}

// hotp implements the RFC 4226 HMAC-based one-time password algorithm,
// reducing an HMAC-SHA1 of the counter to a Digits-digit code via dynamic
// truncation.
func hotp(key []byte, counter int64) int {
	counterBytes := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		counterBytes[i] = byte(counter & 0xff)
		counter >>= 8
	}

	mac := hmac.New(sha1.New, key)
	mac.Write(counterBytes)
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	code := (int(sum[offset]&0x7f) << 24) |
		(int(sum[offset+1]) << 16) |
		(int(sum[offset+2]) << 8) |
		int(sum[offset+3])

	return code % int(math.Pow10(Digits))
}
