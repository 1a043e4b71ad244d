package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/romusha/forumauth/pkg/credentials"
	"github.com/romusha/forumauth/pkg/fingerprint"
	"github.com/romusha/forumauth/pkg/logger"
	"github.com/romusha/forumauth/pkg/qrcode"
	"github.com/romusha/forumauth/pkg/sanitizer"
	"github.com/romusha/forumauth/pkg/totp"
	"github.com/romusha/forumauth/pkg/validator"
)

const provisioningImageSize = 256

// Service implements the device-binding authentication flows: registration,
// login, and binding additional trusted devices. It is stateless between
// requests; every call re-reads the persisted account record.
type Service struct {
	repo      Repository
	challenge ChallengeVerifier
	logger    *slog.Logger
	domains   []string
	now       func() time.Time

	// locks serializes mutating flows per account email so two concurrent
	// bindings cannot lose each other's appended device.
	locks keyedMutex
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithChallengeVerifier replaces the static challenge literal check.
func WithChallengeVerifier(v ChallengeVerifier) Option {
	return func(s *Service) {
		if v != nil {
			s.challenge = v
		}
	}
}

// WithAllowedEmailDomains overrides the email domains accepted at
// registration.
func WithAllowedEmailDomains(domains ...string) Option {
	return func(s *Service) {
		if len(domains) > 0 {
			s.domains = domains
		}
	}
}

// WithClock injects a time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates the authentication service. Only gmail.com emails are
// accepted by default, matching the forum's registration policy.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		challenge: NewStaticChallenge(),
		logger:    slog.New(slog.DiscardHandler),
		domains:   []string{"gmail.com"},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterResult is the one-time setup payload returned from registration.
// The plaintext paraphrase and TOTP secret are disclosed here and never
// again; the stored paraphrase digest cannot be reversed.
type RegisterResult struct {
	AccountID   uuid.UUID `json:"accountId"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	TOTPSecret  string    `json:"totpSecret"`
	TOTPQR      string    `json:"totpQR"`
	Fingerprint string    `json:"fingerprint"`
	Salt        string    `json:"salt"`
	Paraphrase  string    `json:"paraphrase"`
}

// Register creates a new account with one trusted device and returns the
// one-time setup material. Validation order: required fields, allowed email
// domain, email uniqueness.
func (s *Service) Register(ctx context.Context, username, email, password, userAgent, screen string) (*RegisterResult, error) {
	email = sanitizer.NormalizeEmail(email)

	if err := validator.Apply(
		validator.Required("username", username),
		validator.Required("email", email),
		validator.Required("password", password),
		validator.Required("userAgent", userAgent),
		validator.Required("screen", screen),
	); err != nil {
		return nil, err
	}
	if err := validator.Apply(
		validator.ValidEmail("email", email),
		validator.AllowedEmailDomain("email", email, s.domains...),
	); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(email)
	defer unlock()

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrAccountNotFound) {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}

	paraphrase, err := credentials.GenerateParaphrase()
	if err != nil {
		return nil, err
	}
	paraphraseSalt, err := credentials.GenerateSalt()
	if err != nil {
		return nil, err
	}

	deviceSalt, err := credentials.GenerateSalt()
	if err != nil {
		return nil, err
	}
	fp := fingerprint.Generate(userAgent, screen, deviceSalt)

	secret, err := totp.GenerateSecret(email)
	if err != nil {
		return nil, err
	}
	qr, err := qrcode.GenerateDataURI(secret.ProvisioningURI, provisioningImageSize)
	if err != nil {
		return nil, err
	}

	// The private half is generated and discarded; only the public key is
	// persisted, reserved for a future signing-based challenge.
	keypair, err := credentials.GenerateKeypair()
	if err != nil {
		return nil, err
	}

	passwordHash, err := credentials.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	account := &Account{
		ID:             uuid.New(),
		Username:       username,
		Email:          email,
		PasswordHash:   passwordHash,
		TOTPSecret:     secret.Key,
		ParaphraseHash: credentials.HashWithSalt(paraphrase, paraphraseSalt),
		ParaphraseSalt: paraphraseSalt,
		PublicKey:      keypair.PublicKey,
		TrustedDevices: []TrustedDevice{{
			Fingerprint: fp,
			Salt:        deviceSalt,
			UserAgent:   userAgent,
			Screen:      screen,
			BoundAt:     now,
		}},
		Bookmarks: []string{},
		CreatedAt: now,
	}

	if err := s.repo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to persist account: %w", err)
	}

	s.logger.InfoContext(ctx, "account registered",
		logger.AccountID(account.ID.String()),
		logger.Email(account.Email),
		logger.Component("auth"),
	)

	return &RegisterResult{
		AccountID:   account.ID,
		Username:    account.Username,
		Email:       account.Email,
		TOTPSecret:  secret.Key,
		TOTPQR:      qr,
		Fingerprint: fp,
		Salt:        deviceSalt,
		Paraphrase:  paraphrase,
	}, nil
}

// BindDeviceResult carries the new fingerprint and the full trust list
// after binding.
type BindDeviceResult struct {
	Fingerprint    string          `json:"fingerprint"`
	TrustedDevices []TrustedDevice `json:"trustedDevices"`
}

// BindDevice authorizes an additional device for an existing account, gated
// by possession of the recovery paraphrase. A fresh salt is drawn, so
// binding the same (userAgent, screen) pair again produces a new
// fingerprint rather than a conflict.
func (s *Service) BindDevice(ctx context.Context, email, paraphrase, userAgent, screen string) (*BindDeviceResult, error) {
	email = sanitizer.NormalizeEmail(email)

	if err := validator.Apply(
		validator.Required("email", email),
		validator.Required("paraphrase", paraphrase),
		validator.Required("userAgent", userAgent),
		validator.Required("screen", screen),
	); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(email)
	defer unlock()

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if !credentials.VerifyWithSalt(paraphrase, account.ParaphraseSalt, account.ParaphraseHash) {
		return nil, ErrParaphraseIncorrect
	}

	salt, err := credentials.GenerateSalt()
	if err != nil {
		return nil, err
	}
	fp := fingerprint.Generate(userAgent, screen, salt)

	if err := account.addDevice(TrustedDevice{
		Fingerprint: fp,
		Salt:        salt,
		UserAgent:   userAgent,
		Screen:      screen,
		BoundAt:     s.now(),
	}); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to persist device binding: %w", err)
	}

	s.logger.InfoContext(ctx, "device bound",
		logger.AccountID(account.ID.String()),
		logger.Fingerprint(fp),
		logger.Component("auth"),
	)

	return &BindDeviceResult{
		Fingerprint:    fp,
		TrustedDevices: account.TrustedDevices,
	}, nil
}

// Login runs the four authentication gates strictly in order: credentials,
// device trust, TOTP code, challenge acknowledgment. Each failure is
// terminal for the request; nothing is retried or locked out here.
func (s *Service) Login(ctx context.Context, email, password, fp, totpCode, challengeResponse string) (*PublicAccount, error) {
	email = sanitizer.NormalizeEmail(email)

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		// Same error whether the email is unknown or the password is
		// wrong.
		return nil, ErrInvalidCredentials
	}
	if !credentials.VerifyPassword(account.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	if !account.IsTrusted(fp) {
		return nil, ErrUntrustedDevice
	}

	if !totp.Validate(account.TOTPSecret, totpCode) {
		return nil, ErrInvalidCode
	}

	if !s.challenge.Verify(ctx, account.ID, challengeResponse) {
		return nil, ErrChallengeRejected
	}

	s.logger.InfoContext(ctx, "login succeeded",
		logger.AccountID(account.ID.String()),
		logger.Component("auth"),
	)

	view := account.Public()
	return &view, nil
}

// GetAccount returns the public view of one account.
func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (*PublicAccount, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := account.Public()
	return &view, nil
}

// ListAccounts returns the public views of all accounts.
func (s *Service) ListAccounts(ctx context.Context) ([]PublicAccount, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]PublicAccount, 0, len(accounts))
	for i := range accounts {
		views = append(views, accounts[i].Public())
	}
	return views, nil
}

// keyedMutex hands out one mutex per key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
