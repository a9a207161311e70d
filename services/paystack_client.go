// services/paystack_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const paystackBaseURL = "https://api.paystack.co"

// PaystackClient wraps the two provider calls the ledger depends on:
// initialize (hosted checkout URL) and verify (provider-side status).
type PaystackClient struct {
	BaseURL    string
	SecretKey  string
	HTTPClient *http.Client
}

func NewPaystackClient(secretKey string) *PaystackClient {
	return &PaystackClient{
		BaseURL:   paystackBaseURL,
		SecretKey: secretKey,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// InitializeTransaction requests a hosted payment page for the given
// amount (kobo) and idempotency reference. A non-success response maps
// to ErrProviderPayment.
func (c *PaystackClient) InitializeTransaction(ctx context.Context, amount int64, email, reference string) (string, error) {
	payload := map[string]interface{}{
		"amount":    amount,
		"email":     email,
		"reference": reference,
		"currency":  "NGN",
	}
	jsonData, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/transaction/initialize", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call paystack initialize: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Printf("Paystack initialize returned %d: %s", resp.StatusCode, string(body))
		return "", ErrProviderPayment
	}

	var out struct {
		Status bool `json:"status"`
		Data   struct {
			AuthorizationURL string `json:"authorization_url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode paystack response: %w", err)
	}
	if !out.Status || out.Data.AuthorizationURL == "" {
		return "", ErrProviderPayment
	}
	return out.Data.AuthorizationURL, nil
}

// VerifyTransaction fetches the provider-side status for a reference:
// "success", "failed", or anything else (still pending/abandoned).
func (c *PaystackClient) VerifyTransaction(ctx context.Context, reference string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/transaction/verify/"+reference, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call paystack verify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("paystack verify returned %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Status bool `json:"status"`
		Data   struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode paystack response: %w", err)
	}
	if !out.Status {
		return "", fmt.Errorf("paystack verify rejected reference %s", reference)
	}
	return out.Data.Status, nil
}
