package auth

import (
	"context"
	"crypto/subtle"

	"github.com/google/uuid"
)

// DefaultChallengeResponse is the single acknowledgment literal the web
// client sends today. The stored public key from registration leaves room
// for a signature-based challenge later; until then the static verifier
// below is the whole protocol.
const DefaultChallengeResponse = "romusha-device-ack"

// ChallengeVerifier decides whether a login's challenge acknowledgment is
// acceptable. It is the extension point for replacing the static literal
// with a real challenge-response scheme without changing the login flow.
type ChallengeVerifier interface {
	Verify(ctx context.Context, accountID uuid.UUID, response string) bool
}

// StaticChallenge accepts exactly one literal response value.
type StaticChallenge struct {
	Accepted string
}

// NewStaticChallenge returns a verifier accepting the default literal.
func NewStaticChallenge() StaticChallenge {
	return StaticChallenge{Accepted: DefaultChallengeResponse}
}

func (c StaticChallenge) Verify(_ context.Context, _ uuid.UUID, response string) bool {
	return subtle.ConstantTimeCompare([]byte(c.Accepted), []byte(response)) == 1
}
