package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestFirebaseVerifier(endpoint string) *FirebaseVerifier {
	return &FirebaseVerifier{
		apiKey:     "test-api-key",
		httpClient: http.DefaultClient,
		endpoint:   endpoint,
	}
}

func TestFirebaseSignInSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "test-api-key", r.URL.Query().Get("key"))

		var req signInRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "alice@example.com", req.Email)
		require.Equal(t, "secret", req.Password)
		require.True(t, req.ReturnSecureToken)

		_ = json.NewEncoder(w).Encode(signInResponse{
			LocalID:      "firebase-uid-1",
			Email:        "alice@example.com",
			DisplayName:  "Alice",
			IDToken:      "id-token",
			RefreshToken: "refresh-token",
			ExpiresIn:    "3600",
		})
	}))
	defer server.Close()

	v := newTestFirebaseVerifier(server.URL)

	session, err := v.SignInWithPassword(context.Background(), "alice@example.com", "secret")
	require.NoError(t, err)
	require.Equal(t, "id-token", session.AccessToken)
	require.Equal(t, "refresh-token", session.RefreshToken)
	require.Equal(t, int64(3600), session.ExpiresIn)
	require.Equal(t, "firebase-uid-1", session.Identity.SubjectID)
	require.Equal(t, "alice@example.com", session.Identity.Email)
	require.NotNil(t, session.Identity.Name)
	require.Equal(t, "Alice", *session.Identity.Name)
}

func TestFirebaseSignInRejection(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"INVALID_PASSWORD"}}`))
	}))
	defer server.Close()

	v := newTestFirebaseVerifier(server.URL)

	_, err := v.SignInWithPassword(context.Background(), "alice@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestFirebaseSignInUpstreamFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	v := newTestFirebaseVerifier(server.URL)

	_, err := v.SignInWithPassword(context.Background(), "alice@example.com", "secret")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidCredentials)
}
