package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/petalmarket/companypage-api/domains/auth/be/service"
	"github.com/petalmarket/companypage-api/platform/go/identity"
	"github.com/petalmarket/companypage-api/platform/go/persistence"
)

type mockVerifier struct {
	verifyFn func(ctx context.Context, token string) (identity.Identity, error)
	signInFn func(ctx context.Context, email, password string) (identity.Session, error)
}

func (m *mockVerifier) VerifyToken(ctx context.Context, token string) (identity.Identity, error) {
	if m.verifyFn == nil {
		panic("verifyFn not configured")
	}
	return m.verifyFn(ctx, token)
}

func (m *mockVerifier) SignInWithPassword(ctx context.Context, email, password string) (identity.Session, error) {
	if m.signInFn == nil {
		panic("signInFn not configured")
	}
	return m.signInFn(ctx, email, password)
}

type mockProfiles struct {
	getByAuthIDFn func(ctx context.Context, authUserID string) (persistence.Profile, error)
	createFn      func(ctx context.Context, params persistence.CreateProfileParams) (persistence.Profile, error)
}

func (m *mockProfiles) GetProfileByAuthUserID(ctx context.Context, authUserID string) (persistence.Profile, error) {
	if m.getByAuthIDFn == nil {
		panic("getByAuthIDFn not configured")
	}
	return m.getByAuthIDFn(ctx, authUserID)
}

func (m *mockProfiles) GetProfileByEmail(ctx context.Context, email string) (persistence.Profile, error) {
	panic("login must not consult the email fallback")
}

func (m *mockProfiles) CreateProfile(ctx context.Context, params persistence.CreateProfileParams) (persistence.Profile, error) {
	if m.createFn == nil {
		panic("createFn not configured")
	}
	return m.createFn(ctx, params)
}

func (m *mockProfiles) SetAuthUserID(ctx context.Context, id int64, authUserID string) error {
	panic("login must not backfill the mapping")
}

func newHandler(t *testing.T, verifier *mockVerifier, profiles *mockProfiles) *Handler {
	t.Helper()
	logger := zaptest.NewLogger(t)
	return New(service.New(verifier, profiles, logger), logger)
}

func postLogin(h *Handler, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Login(w, r)
	return w
}

func TestLoginMissingFields(t *testing.T) {
	t.Parallel()

	h := newHandler(t, &mockVerifier{}, &mockProfiles{})

	w := postLogin(h, `{"email":"alice@example.com"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "Email and password are required", body["error"])
}

func TestLoginMalformedBody(t *testing.T) {
	t.Parallel()

	h := newHandler(t, &mockVerifier{}, &mockProfiles{})

	w := postLogin(h, `{not json`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginInvalidCredentials(t *testing.T) {
	t.Parallel()

	verifier := &mockVerifier{signInFn: func(ctx context.Context, email, password string) (identity.Session, error) {
		return identity.Session{}, identity.ErrInvalidCredentials
	}}

	h := newHandler(t, verifier, &mockProfiles{})

	w := postLogin(h, `{"email":"alice@example.com","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "Invalid credentials", body["error"])
}

func TestLoginBlockedAccount(t *testing.T) {
	t.Parallel()

	verifier := &mockVerifier{signInFn: func(ctx context.Context, email, password string) (identity.Session, error) {
		return identity.Session{Identity: identity.Identity{SubjectID: "sub-1", Email: email}}, nil
	}}

	subjectID := "sub-1"
	profiles := &mockProfiles{getByAuthIDFn: func(ctx context.Context, authUserID string) (persistence.Profile, error) {
		return persistence.Profile{ID: 1, AuthUserID: &subjectID, IsBlocked: true}, nil
	}}

	h := newHandler(t, verifier, profiles)

	w := postLogin(h, `{"email":"alice@example.com","password":"pw"}`)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestLoginSuccessShape(t *testing.T) {
	t.Parallel()

	verifier := &mockVerifier{signInFn: func(ctx context.Context, email, password string) (identity.Session, error) {
		return identity.Session{
			AccessToken: "access-1",
			ExpiresIn:   3600,
			Identity:    identity.Identity{SubjectID: "sub-1", Email: email},
		}, nil
	}}

	subjectID := "sub-1"
	profiles := &mockProfiles{getByAuthIDFn: func(ctx context.Context, authUserID string) (persistence.Profile, error) {
		return persistence.Profile{ID: 3, AuthUserID: &subjectID, Email: "alice@example.com"}, nil
	}}

	h := newHandler(t, verifier, profiles)

	w := postLogin(h, `{"email":"alice@example.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Message     string              `json:"message"`
		User        persistence.Profile `json:"user"`
		AccessToken string              `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "Login Successful!", body.Message)
	require.Equal(t, int64(3), body.User.ID)
	require.Equal(t, "access-1", body.AccessToken)
}

func TestLoginUpstreamFailureIsGeneric(t *testing.T) {
	t.Parallel()

	verifier := &mockVerifier{signInFn: func(ctx context.Context, email, password string) (identity.Session, error) {
		return identity.Session{}, context.DeadlineExceeded
	}}

	h := newHandler(t, verifier, &mockProfiles{})

	w := postLogin(h, `{"email":"alice@example.com","password":"pw"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "Login failed", body["error"])
}

func TestLogoutAlwaysAcknowledges(t *testing.T) {
	t.Parallel()

	h := newHandler(t, &mockVerifier{}, &mockProfiles{})

	w := httptest.NewRecorder()
	h.Logout(w, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "Logged out successfully!", body["message"])
}
