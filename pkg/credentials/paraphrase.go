package credentials

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"math/big"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// ParaphraseLength is the length of a recovery paraphrase. Intentionally
	// short: the paraphrase is a human-memorable recovery secret, and the
	// usability trade-off is deliberate.
	ParaphraseLength = 5

	// paraphraseAlphabet is the character set paraphrases are drawn from.
	paraphraseAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// PBKDF2 parameters for paraphrase storage. The iteration count hardens
	// the short secret against offline guessing of a leaked record.
	pbkdf2Iterations = 100_000
	pbkdf2KeyLen     = 32
)

// GenerateParaphrase draws a 5-character recovery paraphrase uniformly from
// the alphanumeric alphabet. Paraphrases are independent per call and not
// guaranteed unique across accounts.
func GenerateParaphrase() (string, error) {
	out := make([]byte, ParaphraseLength)
	max := big.NewInt(int64(len(paraphraseAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", errors.Join(ErrFailedToGenerateParaphrase, err)
		}
		out[i] = paraphraseAlphabet[n.Int64()]
	}
	return string(out), nil
}

// HashWithSalt derives a hex-encoded PBKDF2-SHA256 digest of value using the
// given salt. Used for paraphrase storage so the plaintext paraphrase is only
// ever disclosed once, at registration.
func HashWithSalt(value, salt string) string {
	key := pbkdf2.Key([]byte(value), []byte(salt), pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	return hex.EncodeToString(key)
}

// VerifyWithSalt recomputes the salted digest of value and compares it to the
// stored digest in constant time.
func VerifyWithSalt(value, salt, storedHash string) bool {
	computed := HashWithSalt(value, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}

// GenerateSalt returns 16 cryptographically random bytes, hex-encoded for
// storage. A fresh salt is drawn per device-binding event and per paraphrase.
func GenerateSalt() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrFailedToGenerateSalt, err)
	}
	return hex.EncodeToString(b), nil
}
