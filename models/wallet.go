// models/wallet.go
package models

import (
	"time"
)

// Wallet holds a user's balance in kobo (smallest currency unit).
// Balance never goes below zero; it is mutated only by the ledger
// service (deposit settlement, transfer debit/credit), never directly.
type Wallet struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
