package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DevVerifier is a local, self-contained identity provider for development
// and tests. Sign-in accepts any non-empty password and issues an HS256
// token; verification checks the shared secret. Subject ids are derived
// deterministically from the email so repeated sign-ins map to the same
// account, mirroring how a hosted provider behaves.
type DevVerifier struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewDevVerifier builds a DevVerifier around the shared HMAC secret.
func NewDevVerifier(secret string) *DevVerifier {
	return &DevVerifier{
		secret: []byte(secret),
		ttl:    time.Hour,
		now:    time.Now,
	}
}

func (v *DevVerifier) subjectFor(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(email)).String()
}

func (v *DevVerifier) VerifyToken(ctx context.Context, token string) (Identity, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(v.now))
	if err != nil || !parsed.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}

	ident := Identity{}
	if sub, ok := claims["sub"].(string); ok {
		ident.SubjectID = sub
	}
	if ident.SubjectID == "" {
		return Identity{}, ErrInvalidToken
	}
	if email, ok := claims["email"].(string); ok {
		ident.Email = email
	}
	if name, ok := claims["name"].(string); ok && name != "" {
		ident.Name = &name
	}

	return ident, nil
}

func (v *DevVerifier) SignInWithPassword(ctx context.Context, email, password string) (Session, error) {
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	now := v.now()
	subject := v.subjectFor(email)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   subject,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(v.ttl).Unix(),
	})

	signed, err := token.SignedString(v.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign dev token: %w", err)
	}

	return Session{
		AccessToken: signed,
		ExpiresIn:   int64(v.ttl.Seconds()),
		Identity: Identity{
			SubjectID: subject,
			Email:     email,
		},
	}, nil
}

var _ Verifier = (*DevVerifier)(nil)
