// services/paystack_client_test.go
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

func TestPaystackInitializeTransaction(t *testing.T) {
	t.Parallel()

	var gotAuth string
	var gotPayload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transaction/initialize", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data":   map[string]interface{}{"authorization_url": "https://checkout.paystack.example/abc"},
		})
	}))
	t.Cleanup(srv.Close)

	client := NewPaystackClient("sk_test_secret")
	client.BaseURL = srv.URL

	url, err := client.InitializeTransaction(context.Background(), 5000, "payer@example.com", "txn_ref1")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.example/abc", url)
	assert.Equal(t, "Bearer sk_test_secret", gotAuth)
	assert.Equal(t, "payer@example.com", gotPayload["email"])
	assert.Equal(t, float64(5000), gotPayload["amount"])
	assert.Equal(t, "NGN", gotPayload["currency"])
}

func TestPaystackInitializeNonSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	client := NewPaystackClient("sk_bad")
	client.BaseURL = srv.URL

	_, err := client.InitializeTransaction(context.Background(), 5000, "payer@example.com", "txn_ref2")
	assert.ErrorIs(t, err, ErrProviderPayment)
}

func TestPaystackInitializeRejectedByProvider(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"status": false})
	}))
	t.Cleanup(srv.Close)

	client := NewPaystackClient("sk_test")
	client.BaseURL = srv.URL

	_, err := client.InitializeTransaction(context.Background(), 5000, "payer@example.com", "txn_ref3")
	assert.ErrorIs(t, err, ErrProviderPayment)
}

func TestPaystackVerifyTransaction(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transaction/verify/txn_ref4", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data":   map[string]interface{}{"status": "success"},
		})
	}))
	t.Cleanup(srv.Close)

	client := NewPaystackClient("sk_test")
	client.BaseURL = srv.URL

	status, err := client.VerifyTransaction(context.Background(), "txn_ref4")
	require.NoError(t, err)
	assert.Equal(t, "success", status)
}
