package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/petalmarket/companypage-api/domains/auth/be/service"
	platformauth "github.com/petalmarket/companypage-api/platform/go/auth"
	"github.com/petalmarket/companypage-api/platform/go/httpx"
	"github.com/petalmarket/companypage-api/platform/go/identity"
	platformlogging "github.com/petalmarket/companypage-api/platform/go/logging"
)

// Handler serves the password login and logout endpoints.
type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc *service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("auth service is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	return &Handler{svc: svc, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message     string `json:"message"`
	User        any    `json:"user"`
	Session     any    `json:"session"`
	AccessToken string `json:"access_token"`
}

// Login handles POST /auth/login. Anything unexpected, including panics from
// the flow, surfaces as a generic 500 so internals never leak.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := platformlogging.FromRequest(r, h.logger)

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("login panicked", zap.Any("panic", rec))
			httpx.Error(w, http.StatusInternalServerError, "Login failed")
		}
	}()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.Error(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		status, msg := classifyLoginError(err)
		if status >= http.StatusInternalServerError {
			logger.Error("login failed", zap.Error(err))
		} else {
			logger.Warn("login rejected", zap.Int("status", status), zap.Error(err))
		}
		httpx.Error(w, status, msg)
		return
	}

	httpx.JSON(w, http.StatusOK, loginResponse{
		Message:     "Login Successful!",
		User:        result.Profile,
		Session:     result.Session,
		AccessToken: result.Session.AccessToken,
	})
}

// Logout handles POST /auth/logout. Sessions are token-based; the server has
// nothing to invalidate, so this is a stateless acknowledgement and the
// caller discards its tokens.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	httpx.Message(w, http.StatusOK, "Logged out successfully!")
}

func classifyLoginError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrMissingCredentials):
		return http.StatusBadRequest, "Email and password are required"
	case errors.Is(err, identity.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, platformauth.ErrBlocked):
		return http.StatusForbidden, "Your account has been blocked. Please contact administrator."
	default:
		return http.StatusInternalServerError, "Login failed"
	}
}
