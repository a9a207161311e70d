// services/errors.go
package services

import (
	"errors"
	"fmt"
)

// Terminal, user-visible outcomes. Handlers map these to HTTP statuses;
// none of them is retried internally. Anything else bubbling out of a
// service is an internal fault.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("insufficient permissions")

	ErrInvalidToken = errors.New("could not validate credentials")

	ErrInvalidKey    = errors.New("invalid API key")
	ErrKeyRevoked    = errors.New("API key has been revoked")
	ErrKeyExpired    = errors.New("API key has expired")
	ErrKeyNotFound   = errors.New("API key not found or does not belong to you")
	ErrKeyNotExpired = errors.New("API key is not expired yet")
	ErrKeyLimit      = errors.New("maximum of 5 active API keys allowed per user")
	ErrInvalidExpiry = errors.New("invalid expiry format, expected one of 1H, 1D, 1M, 1Y")
	ErrInvalidScope  = errors.New("unknown permission, expected deposit, transfer or read")

	ErrInvalidAmount       = errors.New("amount must be greater than 0")
	ErrSelfTransfer        = errors.New("cannot transfer to your own wallet")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrRecipientNotFound   = errors.New("recipient not found")
	ErrTransactionNotFound = errors.New("transaction not found")

	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrProviderAuth     = errors.New("identity provider authentication failed")
	ErrProviderPayment  = errors.New("payment initiation failed")
)

// InsufficientBalanceError reports the available balance to the caller.
type InsufficientBalanceError struct {
	Available int64 // kobo
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: %d kobo available", e.Available)
}
