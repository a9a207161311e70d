// services/google_client_test.go
package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStubGoogle(t *testing.T, tokenStatus int, accessToken string) *GoogleClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			w.WriteHeader(tokenStatus)
			json.NewEncoder(w).Encode(map[string]string{"access_token": accessToken})
		case "/userinfo":
			if r.Header.Get("Authorization") != "Bearer "+accessToken {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{
				"id":      "google-123",
				"email":   "u@example.com",
				"name":    "Test User",
				"picture": "https://lh3.example/pic",
			})
		}
	}))
	t.Cleanup(srv.Close)

	client := NewGoogleClient("client-id", "client-secret", "https://app.example/callback")
	client.TokenURL = srv.URL + "/token"
	client.UserInfoURL = srv.URL + "/userinfo"
	return client
}

func TestGoogleAuthURL(t *testing.T) {
	t.Parallel()

	client := NewGoogleClient("client-id", "client-secret", "https://app.example/callback")
	url := client.AuthURL()
	assert.Contains(t, url, "accounts.google.com")
	assert.Contains(t, url, "client_id=client-id")
	assert.Contains(t, url, "scope=openid+email+profile")
}

func TestGoogleExchange(t *testing.T) {
	t.Parallel()

	client := newStubGoogle(t, http.StatusOK, "ya29.token")
	profile, err := client.Exchange(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "google-123", profile.ID)
	assert.Equal(t, "u@example.com", profile.Email)
	assert.Equal(t, "Test User", profile.Name)
}

func TestGoogleExchangeRejectedCode(t *testing.T) {
	t.Parallel()

	client := newStubGoogle(t, http.StatusBadRequest, "")
	_, err := client.Exchange(context.Background(), "bad-code")
	assert.ErrorIs(t, err, ErrProviderAuth)
}

func TestGoogleExchangeMissingAccessToken(t *testing.T) {
	t.Parallel()

	client := newStubGoogle(t, http.StatusOK, "")
	_, err := client.Exchange(context.Background(), "auth-code")
	assert.ErrorIs(t, err, ErrProviderAuth)
}
