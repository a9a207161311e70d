// models/api_key.go
package models

import (
	"strings"
	"time"
)

// Permissions an API key may carry. Session (JWT) callers bypass
// permission checks entirely; API key callers get exactly this set.
const (
	PermissionDeposit  = "deposit"
	PermissionTransfer = "transfer"
	PermissionRead     = "read"
)

// MaxActiveKeysPerUser bounds keys that are active AND unexpired.
const MaxActiveKeysPerUser = 5

func ValidPermission(p string) bool {
	switch p {
	case PermissionDeposit, PermissionTransfer, PermissionRead:
		return true
	}
	return false
}

// APIKey stores only the SHA-256 hash of the secret. The plaintext is
// shown once at creation/rollover and cannot be recovered afterwards.
type APIKey struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string     `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string     `gorm:"not null" json:"name"`
	KeyHash     string     `gorm:"uniqueIndex;not null" json:"-"`
	Permissions string     `gorm:"not null" json:"permissions"` // comma-separated
	ExpiresAt   time.Time  `gorm:"not null" json:"expires_at"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

func (k *APIKey) PermissionList() []string {
	if k.Permissions == "" {
		return nil
	}
	return strings.Split(k.Permissions, ",")
}

func (k *APIKey) HasPermission(p string) bool {
	for _, have := range k.PermissionList() {
		if have == p {
			return true
		}
	}
	return false
}

// JoinPermissions serializes a permission set for storage.
func JoinPermissions(perms []string) string {
	return strings.Join(perms, ",")
}
