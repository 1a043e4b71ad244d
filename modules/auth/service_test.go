package auth_test

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/romusha/forumauth/modules/auth"
	"github.com/romusha/forumauth/modules/auth/storage"
	"github.com/romusha/forumauth/pkg/fingerprint"
	"github.com/romusha/forumauth/pkg/totp"
	"github.com/romusha/forumauth/pkg/validator"
)

const (
	testUserAgent = "Mozilla/5.0 (X11; Linux x86_64)"
	testScreen    = "1920x1080"
	testPassword  = "hunter2hunter2"
)

func newService(t *testing.T, opts ...auth.Option) (*auth.Service, *storage.Memory) {
	t.Helper()
	repo := storage.NewMemory()
	return auth.NewService(repo, opts...), repo
}

func register(t *testing.T, svc *auth.Service, email string) *auth.RegisterResult {
	t.Helper()
	result, err := svc.Register(context.Background(), "tester", email, testPassword, testUserAgent, testScreen)
	require.NoError(t, err)
	return result
}

func currentCode(t *testing.T, secret string) string {
	t.Helper()
	code, err := totp.GenerateCode(secret)
	require.NoError(t, err)
	return code
}

func TestService_Register(t *testing.T) {
	t.Parallel()

	svc, repo := newService(t)
	result := register(t, svc, "newuser@gmail.com")

	require.NotEqual(t, uuid.Nil, result.AccountID)
	require.Equal(t, "newuser@gmail.com", result.Email)
	require.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9]{5}$`), result.Paraphrase)
	require.True(t, strings.HasPrefix(result.TOTPQR, "data:image/png;base64,"))
	require.Len(t, result.Fingerprint, 64)
	require.Equal(t, result.Fingerprint, fingerprint.Generate(testUserAgent, testScreen, result.Salt))

	stored, err := repo.FindByEmail(context.Background(), "newuser@gmail.com")
	require.NoError(t, err)
	require.NotEqual(t, testPassword, stored.PasswordHash)
	require.NotContains(t, stored.ParaphraseHash, result.Paraphrase)
	require.Contains(t, stored.PublicKey, "BEGIN PUBLIC KEY")
	require.Len(t, stored.TrustedDevices, 1)
	require.Equal(t, result.Fingerprint, stored.TrustedDevices[0].Fingerprint)
}

func TestService_RegisterValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)

	tests := []struct {
		name     string
		username string
		email    string
		password string
		field    string
	}{
		{"missing username", "", "a@gmail.com", testPassword, "username"},
		{"missing email", "tester", "", testPassword, "email"},
		{"missing password", "tester", "a@gmail.com", "", "password"},
		{"malformed email", "tester", "not-an-email", testPassword, "email"},
		{"wrong domain", "tester", "tester@yahoo.com", testPassword, "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.Register(context.Background(), tt.username, tt.email, tt.password, testUserAgent, testScreen)
			require.Error(t, err)
			ve := validator.ExtractValidationErrors(err)
			require.NotNil(t, ve)
			require.True(t, ve.Has(tt.field))
		})
	}
}

func TestService_RegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	register(t, svc, "taken@gmail.com")

	_, err := svc.Register(context.Background(), "other", "Taken@gmail.com", testPassword, testUserAgent, testScreen)
	require.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestService_RegisterCustomDomain(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, auth.WithAllowedEmailDomains("example.org"))
	result, err := svc.Register(context.Background(), "tester", "me@example.org", testPassword, testUserAgent, testScreen)
	require.NoError(t, err)
	require.Equal(t, "me@example.org", result.Email)
}

func TestService_LoginRoundTrip(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	result := register(t, svc, "roundtrip@gmail.com")

	account, err := svc.Login(context.Background(),
		"roundtrip@gmail.com", testPassword, result.Fingerprint,
		currentCode(t, result.TOTPSecret), auth.DefaultChallengeResponse)
	require.NoError(t, err)
	require.Equal(t, result.AccountID, account.ID)
	require.Equal(t, "tester", account.Username)
}

func TestService_LoginGates(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	result := register(t, svc, "gates@gmail.com")
	ctx := context.Background()

	tests := []struct {
		name      string
		email     string
		password  string
		fp        string
		code      func() string
		challenge string
		wantErr   error
	}{
		{
			// Wrong password fails before any later gate is evaluated.
			name: "unknown email", email: "stranger@gmail.com", password: testPassword,
			fp: result.Fingerprint, code: func() string { return currentCode(t, result.TOTPSecret) },
			challenge: auth.DefaultChallengeResponse, wantErr: auth.ErrInvalidCredentials,
		},
		{
			name: "wrong password", email: "gates@gmail.com", password: "wrongwrong",
			fp: result.Fingerprint, code: func() string { return currentCode(t, result.TOTPSecret) },
			challenge: auth.DefaultChallengeResponse, wantErr: auth.ErrInvalidCredentials,
		},
		{
			name: "untrusted device", email: "gates@gmail.com", password: testPassword,
			fp: fingerprint.Generate("Other Browser", testScreen, "other-salt"),
			code:      func() string { return currentCode(t, result.TOTPSecret) },
			challenge: auth.DefaultChallengeResponse, wantErr: auth.ErrUntrustedDevice,
		},
		{
			name: "wrong code", email: "gates@gmail.com", password: testPassword,
			fp: result.Fingerprint, code: func() string { return "000000" },
			challenge: auth.DefaultChallengeResponse, wantErr: auth.ErrInvalidCode,
		},
		{
			name: "malformed code", email: "gates@gmail.com", password: testPassword,
			fp: result.Fingerprint, code: func() string { return "abc" },
			challenge: auth.DefaultChallengeResponse, wantErr: auth.ErrInvalidCode,
		},
		{
			name: "rejected challenge", email: "gates@gmail.com", password: testPassword,
			fp: result.Fingerprint, code: func() string { return currentCode(t, result.TOTPSecret) },
			challenge: "nope", wantErr: auth.ErrChallengeRejected,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tt.email, tt.password, tt.fp, tt.code(), tt.challenge)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_LoginAcceptsDriftedCode(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	result := register(t, svc, "drift@gmail.com")

	// Codes up to two periods behind stay valid.
	code, err := totp.GenerateCodeAt(result.TOTPSecret, time.Now().Add(-2*totp.Period*time.Second))
	require.NoError(t, err)

	_, err = svc.Login(context.Background(),
		"drift@gmail.com", testPassword, result.Fingerprint, code, auth.DefaultChallengeResponse)
	require.NoError(t, err)
}

func TestService_LoginCustomChallengeVerifier(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, auth.WithChallengeVerifier(auth.StaticChallenge{Accepted: "custom-ack"}))
	result := register(t, svc, "challenge@gmail.com")

	_, err := svc.Login(context.Background(),
		"challenge@gmail.com", testPassword, result.Fingerprint,
		currentCode(t, result.TOTPSecret), auth.DefaultChallengeResponse)
	require.ErrorIs(t, err, auth.ErrChallengeRejected)

	_, err = svc.Login(context.Background(),
		"challenge@gmail.com", testPassword, result.Fingerprint,
		currentCode(t, result.TOTPSecret), "custom-ack")
	require.NoError(t, err)
}

func TestService_BindDevice(t *testing.T) {
	t.Parallel()

	svc, repo := newService(t)
	result := register(t, svc, "bind@gmail.com")
	ctx := context.Background()

	bound, err := svc.BindDevice(ctx, "bind@gmail.com", result.Paraphrase, "Second Browser", "2560x1440")
	require.NoError(t, err)
	require.Len(t, bound.TrustedDevices, 2)
	require.NotEqual(t, result.Fingerprint, bound.Fingerprint)

	// The new device can log in.
	_, err = svc.Login(ctx, "bind@gmail.com", testPassword, bound.Fingerprint,
		currentCode(t, result.TOTPSecret), auth.DefaultChallengeResponse)
	require.NoError(t, err)

	// Re-binding the same hardware draws a fresh salt, so it yields a
	// distinct fingerprint instead of a conflict.
	again, err := svc.BindDevice(ctx, "bind@gmail.com", result.Paraphrase, "Second Browser", "2560x1440")
	require.NoError(t, err)
	require.NotEqual(t, bound.Fingerprint, again.Fingerprint)
	require.Len(t, again.TrustedDevices, 3)

	stored, err := repo.FindByEmail(ctx, "bind@gmail.com")
	require.NoError(t, err)
	require.Len(t, stored.TrustedDevices, 3)
}

func TestService_BindDeviceWrongParaphrase(t *testing.T) {
	t.Parallel()

	svc, repo := newService(t)
	register(t, svc, "wrongpara@gmail.com")
	ctx := context.Background()

	_, err := svc.BindDevice(ctx, "wrongpara@gmail.com", "XXXXX", "Second Browser", "2560x1440")
	require.ErrorIs(t, err, auth.ErrParaphraseIncorrect)

	// A rejected binding must not mutate the trust list.
	stored, err := repo.FindByEmail(ctx, "wrongpara@gmail.com")
	require.NoError(t, err)
	require.Len(t, stored.TrustedDevices, 1)
}

func TestService_BindDeviceUnknownAccount(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	_, err := svc.BindDevice(context.Background(), "ghost@gmail.com", "abcde", testUserAgent, testScreen)
	require.ErrorIs(t, err, auth.ErrAccountNotFound)
}

func TestService_BindDeviceValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	_, err := svc.BindDevice(context.Background(), "", "", "", "")
	ve := validator.ExtractValidationErrors(err)
	require.NotNil(t, ve)
	require.ElementsMatch(t, []string{"email", "paraphrase", "userAgent", "screen"}, ve.Fields())
}

func TestService_GetAccountExcludesSecrets(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	result := register(t, svc, "public@gmail.com")

	account, err := svc.GetAccount(context.Background(), result.AccountID)
	require.NoError(t, err)
	require.Equal(t, "public@gmail.com", account.Email)
	require.Contains(t, account.PublicKey, "BEGIN PUBLIC KEY")
}

func TestService_GetAccountMiss(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	_, err := svc.GetAccount(context.Background(), uuid.New())
	require.ErrorIs(t, err, auth.ErrAccountNotFound)
}

func TestService_ListAccounts(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	register(t, svc, "one@gmail.com")
	register(t, svc, "two@gmail.com")

	accounts, err := svc.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 2)
}
