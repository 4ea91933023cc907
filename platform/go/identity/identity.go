// Package identity abstracts the hosted identity provider: bearer token
// verification and password sign-in. The rest of the service only sees the
// Verifier port; provider selection happens at startup.
package identity

import (
	"context"
	"errors"
)

// Identity is the externally verified subject behind a credential. It is
// never persisted here, only referenced by the profile sync logic.
type Identity struct {
	// SubjectID is the provider-issued stable account identifier.
	SubjectID string `json:"subjectId"`
	Email     string `json:"email"`
	// Name is the display name claim when the provider carries one.
	Name *string `json:"name,omitempty"`
}

// Session is the provider-issued session returned by password sign-in.
type Session struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	ExpiresIn    int64    `json:"expires_in,omitempty"`
	Identity     Identity `json:"identity"`
}

var (
	// ErrInvalidToken indicates the bearer token failed verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidCredentials indicates a rejected email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Verifier is the port to the hosted identity service.
type Verifier interface {
	// VerifyToken validates a bearer token and returns the verified identity.
	VerifyToken(ctx context.Context, token string) (Identity, error)
	// SignInWithPassword exchanges email/password credentials for a session.
	SignInWithPassword(ctx context.Context, email, password string) (Session, error)
}
