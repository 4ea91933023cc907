// Package auth gates the API behind the identity reconciliation protocol:
// every request carries a bearer credential that must resolve to a local,
// non-blocked profile before any handler runs.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/petalmarket/companypage-api/platform/go/httpx"
	"github.com/petalmarket/companypage-api/platform/go/identity"
	"github.com/petalmarket/companypage-api/platform/go/persistence"
)

type ctxKey string

const ctxProfile ctxKey = "COMPANYPAGE_PROFILE"

// fallbackTokenHeader accepts the raw token for clients that predate the
// Authorization header contract.
const fallbackTokenHeader = "access-token"

var (
	// ErrBlocked indicates the resolved profile is flagged as blocked.
	ErrBlocked = errors.New("account blocked")
	// ErrSyncFailed indicates first-seen provisioning of the profile failed.
	ErrSyncFailed = errors.New("unable to sync profile")
)

// Reconciler turns a verified bearer token into a resolved, non-blocked
// profile, provisioning or repairing the identity mapping as needed.
type Reconciler interface {
	Reconcile(ctx context.Context, token string) (persistence.Profile, error)
}

// WithProfile stores the resolved profile on the context.
func WithProfile(ctx context.Context, profile persistence.Profile) context.Context {
	return context.WithValue(ctx, ctxProfile, profile)
}

// ProfileFromContext retrieves the resolved profile, if present.
func ProfileFromContext(ctx context.Context) (persistence.Profile, bool) {
	profile, ok := ctx.Value(ctxProfile).(persistence.Profile)
	return profile, ok
}

// UserFromContext is a backward-compatible alias for ProfileFromContext;
// older callers knew the resolved record as "user".
func UserFromContext(ctx context.Context) (persistence.Profile, bool) {
	return ProfileFromContext(ctx)
}

// ExtractToken pulls the bearer token from the Authorization header, falling
// back to the dedicated raw-token header.
func ExtractToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		if token := strings.TrimPrefix(header, "Bearer "); token != "" {
			return token, true
		}
	}

	if token := r.Header.Get(fallbackTokenHeader); token != "" {
		return token, true
	}

	return "", false
}

// RequireProfile rejects unauthenticated requests and exposes the reconciled
// profile to downstream handlers. Every failure path halts the request with
// an auth-layer status; there is no partial success.
func RequireProfile(reconciler Reconciler) func(http.Handler) http.Handler {
	if reconciler == nil {
		panic("auth.RequireProfile: reconciler must not be nil")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token, found := ExtractToken(r)
			if !found {
				httpx.Error(w, http.StatusUnauthorized, "Access denied. No token provided")
				return
			}

			profile, err := reconciler.Reconcile(r.Context(), token)
			if err != nil {
				status, msg := classifyReconcileError(err)
				httpx.Error(w, status, msg)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithProfile(r.Context(), profile)))
		})
	}
}

func classifyReconcileError(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBlocked):
		return http.StatusForbidden, "Your account has been blocked. Please contact administrator."
	case errors.Is(err, identity.ErrInvalidToken):
		return http.StatusUnauthorized, "Access denied. Invalid token"
	case errors.Is(err, ErrSyncFailed):
		return http.StatusUnauthorized, "Access denied. Unable to sync profile"
	default:
		return http.StatusUnauthorized, "Access denied."
	}
}
