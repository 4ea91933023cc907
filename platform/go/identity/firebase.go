package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// identityToolkitEndpoint is the REST surface used for password sign-in; the
// Admin SDK only covers token verification.
const identityToolkitEndpoint = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword"

// FirebaseVerifier implements Verifier on top of Firebase Auth: ID tokens are
// checked through the Admin SDK, password sign-in goes through the Identity
// Toolkit REST endpoint keyed by the project's Web API key.
type FirebaseVerifier struct {
	auth       *firebaseauth.Client
	apiKey     string
	httpClient *http.Client
	endpoint   string
}

// NewFirebaseVerifier initializes the Firebase app (Application Default
// Credentials, or the JSON file at credentialsPath when non-nil) and returns
// a ready verifier.
func NewFirebaseVerifier(ctx context.Context, apiKey string, credentialsPath *string) (*FirebaseVerifier, error) {
	var (
		app *firebase.App
		err error
	)
	if credentialsPath != nil {
		app, err = firebase.NewApp(ctx, nil, option.WithCredentialsFile(*credentialsPath))
	} else {
		app, err = firebase.NewApp(ctx, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}

	return &FirebaseVerifier{
		auth:       authClient,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   identityToolkitEndpoint,
	}, nil
}

func (v *FirebaseVerifier) VerifyToken(ctx context.Context, token string) (Identity, error) {
	decoded, err := v.auth.VerifyIDToken(ctx, token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	ident := Identity{SubjectID: decoded.UID}
	if email, ok := decoded.Claims["email"].(string); ok {
		ident.Email = email
	}
	if name, ok := decoded.Claims["name"].(string); ok && name != "" {
		ident.Name = &name
	}

	return ident, nil
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

func (v *FirebaseVerifier) SignInWithPassword(ctx context.Context, email, password string) (Session, error) {
	body, err := json.Marshal(signInRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return Session{}, fmt.Errorf("encode sign-in request: %w", err)
	}

	endpoint := v.endpoint + "?key=" + url.QueryEscape(v.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Session{}, fmt.Errorf("build sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("identity toolkit sign-in: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		// The toolkit reports EMAIL_NOT_FOUND / INVALID_PASSWORD / USER_DISABLED
		// as 400s; all collapse to invalid credentials for the caller.
		return Session{}, ErrInvalidCredentials
	}
	if resp.StatusCode != http.StatusOK {
		return Session{}, fmt.Errorf("identity toolkit sign-in: unexpected status %d", resp.StatusCode)
	}

	var parsed signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Session{}, fmt.Errorf("decode sign-in response: %w", err)
	}

	expiresIn, _ := strconv.ParseInt(parsed.ExpiresIn, 10, 64)

	session := Session{
		AccessToken:  parsed.IDToken,
		RefreshToken: parsed.RefreshToken,
		ExpiresIn:    expiresIn,
		Identity: Identity{
			SubjectID: parsed.LocalID,
			Email:     parsed.Email,
		},
	}
	if parsed.DisplayName != "" {
		name := parsed.DisplayName
		session.Identity.Name = &name
	}

	return session, nil
}

var _ Verifier = (*FirebaseVerifier)(nil)
