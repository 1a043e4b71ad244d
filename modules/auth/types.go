package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/romusha/forumauth/pkg/fingerprint"
)

// TrustedDevice represents one browser/device authorized to authenticate an
// account. The fingerprint is only meaningful together with the salt it was
// derived with; UserAgent and Screen are kept for audit purposes and are not
// re-validated after binding.
type TrustedDevice struct {
	Fingerprint string    `json:"fingerprint" bson:"fingerprint"`
	Salt        string    `json:"salt" bson:"salt"`
	UserAgent   string    `json:"userAgent" bson:"user_agent"`
	Screen      string    `json:"screen" bson:"screen"`
	BoundAt     time.Time `json:"boundAt" bson:"bound_at"`
}

// Account is one registered forum user. Secrets (password hash, TOTP
// secret, paraphrase digest) never leave the account record; external
// callers only ever see the PublicAccount projection.
type Account struct {
	ID             uuid.UUID       `json:"id" bson:"_id"`
	Username       string          `json:"username" bson:"username"`
	Email          string          `json:"email" bson:"email"`
	PasswordHash   string          `json:"passwordHash" bson:"password_hash"`
	TOTPSecret     string          `json:"totpSecret" bson:"totp_secret"`
	ParaphraseHash string          `json:"paraphraseHash" bson:"paraphrase_hash"`
	ParaphraseSalt string          `json:"paraphraseSalt" bson:"paraphrase_salt"`
	PublicKey      string          `json:"publicKey" bson:"public_key"`
	TrustedDevices []TrustedDevice `json:"trustedDevices" bson:"trusted_devices"`
	Bookmarks      []string        `json:"bookmarks" bson:"bookmarks"`
	Balance        int64           `json:"balance" bson:"balance"`
	CreatedAt      time.Time       `json:"createdAt" bson:"created_at"`
}

// IsTrusted reports whether the fingerprint matches a device in the
// account's trust list.
func (a *Account) IsTrusted(fp string) bool {
	for _, d := range a.TrustedDevices {
		if fingerprint.Match(d.Fingerprint, fp) {
			return true
		}
	}
	return false
}

// addDevice appends a trust record. Binding registers a new device, not
// reasserts an old one, so a fingerprint already on the list is rejected.
func (a *Account) addDevice(d TrustedDevice) error {
	if a.IsTrusted(d.Fingerprint) {
		return ErrDeviceAlreadyBound
	}
	a.TrustedDevices = append(a.TrustedDevices, d)
	return nil
}

// PublicAccount is the account view safe to return to clients: everything
// except the password hash, TOTP secret, paraphrase material, and the
// device trust list.
type PublicAccount struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	PublicKey string    `json:"publicKey"`
	Bookmarks []string  `json:"bookmarks"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public returns the client-safe projection of the account.
func (a *Account) Public() PublicAccount {
	return PublicAccount{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		PublicKey: a.PublicKey,
		Bookmarks: a.Bookmarks,
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
	}
}

// Repository is the persistence boundary for account records. Lookup
// misses return ErrAccountNotFound; Create returns ErrEmailTaken when the
// email is already registered.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	Create(ctx context.Context, account *Account) error
	Update(ctx context.Context, account *Account) error
	List(ctx context.Context) ([]Account, error)
}
