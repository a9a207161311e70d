// services/token_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssueAndVerify(t *testing.T) {
	t.Parallel()

	svc := NewTokenService("super-secret")
	tok, err := svc.Issue("user-123", "u@example.com")
	require.NoError(t, err)

	userID, err := svc.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestTokenVerifyExpired(t *testing.T) {
	t.Parallel()

	svc := &TokenService{secret: []byte("secret"), ttl: -1 * time.Minute}
	tok, err := svc.Issue("u1", "u1@example.com")
	require.NoError(t, err)

	_, err = svc.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenVerifyWrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenService("right-secret").Issue("u2", "u2@example.com")
	require.NoError(t, err)

	_, err = NewTokenService("wrong-secret").Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenVerifyMalformed(t *testing.T) {
	t.Parallel()

	svc := NewTokenService("secret")
	for _, tok := range []string{"", "not.a.jwt", "garbage"} {
		_, err := svc.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
	}
}

func TestTokensDifferAcrossIssuance(t *testing.T) {
	t.Parallel()

	svc := NewTokenService("secret")
	a, err := svc.Issue("u3", "u3@example.com")
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond) // exp has second granularity
	b, err := svc.Issue("u3", "u3@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
