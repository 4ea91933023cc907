package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petalmarket/companypage-api/platform/go/identity"
	"github.com/petalmarket/companypage-api/platform/go/persistence"
)

type mockReconciler struct {
	reconcileFn func(ctx context.Context, token string) (persistence.Profile, error)
}

func (m *mockReconciler) Reconcile(ctx context.Context, token string) (persistence.Profile, error) {
	if m.reconcileFn == nil {
		panic("reconcileFn not configured")
	}
	return m.reconcileFn(ctx, token)
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestExtractTokenPrefersBearer(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/slides", nil)
	r.Header.Set("Authorization", "Bearer abc123")
	r.Header.Set("access-token", "fallback")

	token, found := ExtractToken(r)
	require.True(t, found)
	require.Equal(t, "abc123", token)
}

func TestExtractTokenFallbackHeader(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/slides", nil)
	r.Header.Set("access-token", "raw-token")

	token, found := ExtractToken(r)
	require.True(t, found)
	require.Equal(t, "raw-token", token)
}

func TestExtractTokenAbsent(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/slides", nil)

	_, found := ExtractToken(r)
	require.False(t, found)
}

func TestRequireProfileNoToken(t *testing.T) {
	t.Parallel()

	called := false
	handler := RequireProfile(&mockReconciler{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slides", nil))

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Access denied. No token provided", errorBody(t, w))
	require.False(t, called)
}

func TestRequireProfileInvalidToken(t *testing.T) {
	t.Parallel()

	rec := &mockReconciler{reconcileFn: func(ctx context.Context, token string) (persistence.Profile, error) {
		return persistence.Profile{}, identity.ErrInvalidToken
	}}

	handler := RequireProfile(rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	r := httptest.NewRequest(http.MethodGet, "/slides", nil)
	r.Header.Set("Authorization", "Bearer bad")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Access denied. Invalid token", errorBody(t, w))
}

func TestRequireProfileBlocked(t *testing.T) {
	t.Parallel()

	rec := &mockReconciler{reconcileFn: func(ctx context.Context, token string) (persistence.Profile, error) {
		return persistence.Profile{}, ErrBlocked
	}}

	handler := RequireProfile(rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	r := httptest.NewRequest(http.MethodGet, "/slides", nil)
	r.Header.Set("access-token", "token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "Your account has been blocked. Please contact administrator.", errorBody(t, w))
}

func TestRequireProfileSyncFailure(t *testing.T) {
	t.Parallel()

	rec := &mockReconciler{reconcileFn: func(ctx context.Context, token string) (persistence.Profile, error) {
		return persistence.Profile{}, ErrSyncFailed
	}}

	handler := RequireProfile(rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	r := httptest.NewRequest(http.MethodGet, "/slides", nil)
	r.Header.Set("access-token", "token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Access denied. Unable to sync profile", errorBody(t, w))
}

func TestRequireProfileExposesProfileUnderBothAccessors(t *testing.T) {
	t.Parallel()

	rec := &mockReconciler{reconcileFn: func(ctx context.Context, token string) (persistence.Profile, error) {
		require.Equal(t, "good-token", token)
		return persistence.Profile{ID: 7, Email: "owner@example.com"}, nil
	}}

	handler := RequireProfile(rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		profile, ok := ProfileFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, int64(7), profile.ID)

		user, ok := UserFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, profile, user)

		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/slides", nil)
	r.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
}
