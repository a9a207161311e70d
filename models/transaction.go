// models/transaction.go
package models

import (
	"time"
)

type TransactionStatus string

const (
	TransactionPending TransactionStatus = "pending"
	TransactionSuccess TransactionStatus = "success"
	TransactionFailed  TransactionStatus = "failed"
)

// Transaction is a deposit. Created PENDING when a deposit is
// initiated; transitions to SUCCESS or FAILED exactly once, driven by
// the Paystack webhook (or the reconciliation worker). UserID is nil
// only for the legacy unauthenticated payments flow.
type Transaction struct {
	ID               string            `gorm:"primaryKey;type:uuid" json:"id"`
	Reference        string            `gorm:"uniqueIndex;not null" json:"reference"`
	UserID           *string           `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Amount           int64             `gorm:"not null" json:"amount"` // kobo
	Status           TransactionStatus `gorm:"not null;default:pending;index" json:"status"`
	AuthorizationURL string            `json:"authorization_url,omitempty"`
	PaidAt           *time.Time        `json:"paid_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}
