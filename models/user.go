// models/user.go
package models

import (
	"time"
)

// User is created on first successful Google sign-in and refreshed
// (email/name/picture) on every subsequent login. Never deleted here.
type User struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Name      *string   `json:"name,omitempty"`
	Picture   *string   `json:"picture,omitempty"`
	GoogleID  string    `gorm:"uniqueIndex;not null" json:"-"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
