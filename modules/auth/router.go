package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/romusha/forumauth/pkg/binder"
	"github.com/romusha/forumauth/pkg/handler"
)

// RegisterRequest is the POST /register payload.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	UserAgent string `json:"userAgent"`
	Screen    string `json:"screen"`
}

// LoginRequest is the POST /login payload.
type LoginRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	Fingerprint       string `json:"fingerprint"`
	TOTPCode          string `json:"totpCode"`
	ChallengeResponse string `json:"challengeResponse"`
}

// BindDeviceRequest is the POST /bind-device payload.
type BindDeviceRequest struct {
	Email      string `json:"email"`
	Paraphrase string `json:"paraphrase"`
	UserAgent  string `json:"userAgent"`
	Screen     string `json:"screen"`
}

// Router mounts the authentication HTTP surface on a chi router.
func Router(svc *Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/register", handler.Wrap(
		func(ctx handler.Context, req RegisterRequest) handler.Response {
			result, err := svc.Register(ctx, req.Username, req.Email, req.Password, req.UserAgent, req.Screen)
			if err != nil {
				return domainError(err)
			}
			return handler.JSON(result)
		},
		handler.WithBinder[handler.Context, RegisterRequest](binder.JSON()),
	))

	r.Post("/login", handler.Wrap(
		func(ctx handler.Context, req LoginRequest) handler.Response {
			account, err := svc.Login(ctx, req.Email, req.Password, req.Fingerprint, req.TOTPCode, req.ChallengeResponse)
			if err != nil {
				return domainError(err)
			}
			return handler.JSON(account)
		},
		handler.WithBinder[handler.Context, LoginRequest](binder.JSON()),
	))

	r.Post("/bind-device", handler.Wrap(
		func(ctx handler.Context, req BindDeviceRequest) handler.Response {
			result, err := svc.BindDevice(ctx, req.Email, req.Paraphrase, req.UserAgent, req.Screen)
			if err != nil {
				return domainError(err)
			}
			return handler.JSON(result)
		},
		handler.WithBinder[handler.Context, BindDeviceRequest](binder.JSON()),
	))

	r.Get("/accounts", handler.Wrap(
		func(ctx handler.Context, _ struct{}) handler.Response {
			accounts, err := svc.ListAccounts(ctx)
			if err != nil {
				return domainError(err)
			}
			return handler.JSON(accounts)
		},
	))

	r.Get("/accounts/{accountID}", handler.Wrap(
		func(ctx handler.Context, _ struct{}) handler.Response {
			id, err := uuid.Parse(chi.URLParam(ctx.Request(), "accountID"))
			if err != nil {
				return handler.JSONError(handler.ErrNotFound)
			}
			account, err := svc.GetAccount(ctx, id)
			if err != nil {
				return domainError(err)
			}
			return handler.JSON(account)
		},
	))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":{"status":"ok"}}`))
	})

	return r
}

// domainError maps domain sentinels to their HTTP status and machine code.
// Validation errors pass through untouched; JSONError already renders them
// as 400 with per-field details.
func domainError(err error) handler.Response {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return handler.JSONError(err,
			handler.WithStatus(http.StatusUnauthorized),
			handler.WithErrorCode("invalid_credentials"))
	case errors.Is(err, ErrParaphraseIncorrect):
		return handler.JSONError(err,
			handler.WithStatus(http.StatusUnauthorized),
			handler.WithErrorCode("paraphrase_incorrect"))
	case errors.Is(err, ErrUntrustedDevice):
		return handler.JSONError(err,
			handler.WithStatus(http.StatusForbidden),
			handler.WithErrorCode("untrusted_device"))
	case errors.Is(err, ErrInvalidCode):
		return handler.JSONError(err,
			handler.WithStatus(http.StatusForbidden),
			handler.WithErrorCode("invalid_code"))
	case errors.Is(err, ErrChallengeRejected):
		return handler.JSONError(err,
			handler.WithStatus(http.StatusForbidden),
			handler.WithErrorCode("challenge_rejected"))
	case errors.Is(err, ErrAccountNotFound):
		return handler.JSONError(err,
			handler.WithStatus(http.StatusNotFound),
			handler.WithErrorCode("not_found"))
	case errors.Is(err, ErrEmailTaken):
		return handler.JSONError(err,
			handler.WithStatus(http.StatusConflict),
			handler.WithErrorCode("email_taken"))
	case errors.Is(err, ErrDeviceAlreadyBound):
		return handler.JSONError(err,
			handler.WithStatus(http.StatusConflict),
			handler.WithErrorCode("device_already_bound"))
	default:
		return handler.JSONError(err)
	}
}
