// models/transfer.go
package models

import (
	"time"
)

// Transfer records a completed peer-to-peer movement. It is inserted in
// the same DB transaction as the paired debit/credit, so a recorded
// transfer has always been applied.
type Transfer struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	SenderID    string    `gorm:"type:uuid;not null;index" json:"sender_id"`
	RecipientID string    `gorm:"type:uuid;not null;index" json:"recipient_id"`
	Amount      int64     `gorm:"not null" json:"amount"` // kobo
	Status      string    `gorm:"not null;default:success" json:"status"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}
