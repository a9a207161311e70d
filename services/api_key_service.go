// services/api_key_service.go
package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"wallet-service/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// APIKeyService generates, verifies, revokes and rolls over scoped API
// keys. Only the SHA-256 hash of a key is ever persisted.
type APIKeyService struct {
	DB *gorm.DB
}

func NewAPIKeyService(db *gorm.DB) *APIKeyService {
	return &APIKeyService{DB: db}
}

// ParseExpiry converts an expiry window (1H, 1D, 1M, 1Y) to a deadline.
func ParseExpiry(expiry string) (time.Time, error) {
	now := time.Now().UTC()
	switch expiry {
	case "1H":
		return now.Add(time.Hour), nil
	case "1D":
		return now.Add(24 * time.Hour), nil
	case "1M":
		return now.Add(30 * 24 * time.Hour), nil
	case "1Y":
		return now.Add(365 * 24 * time.Hour), nil
	}
	return time.Time{}, ErrInvalidExpiry
}

// generateKey returns the plaintext secret and its storage hash. The
// slugged label makes leaked keys attributable at a glance; entropy
// lives entirely in the random tail.
func generateKey(label string) (plaintext, keyHash string) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	random := base64.RawURLEncoding.EncodeToString(raw)

	prefix := slug.Make(label)
	if len(prefix) > 16 {
		prefix = prefix[:16]
	}
	if prefix == "" {
		prefix = "key"
	}
	plaintext = fmt.Sprintf("sk_live_%s_%s", prefix, random)

	sum := sha256.Sum256([]byte(plaintext))
	return plaintext, hex.EncodeToString(sum[:])
}

func hashKey(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

func (s *APIKeyService) countLiveKeys(tx *gorm.DB, userID string) (int64, error) {
	var count int64
	err := tx.Model(&models.APIKey{}).
		Where("user_id = ? AND is_active = ? AND expires_at > ?", userID, true, time.Now().UTC()).
		Count(&count).Error
	return count, err
}

// Create mints a new key for the user. The plaintext is returned
// exactly once. At most 5 keys may be simultaneously active and
// unexpired per user.
func (s *APIKeyService) Create(userID, label string, permissions []string, expiry string) (string, *models.APIKey, error) {
	for _, p := range permissions {
		if !models.ValidPermission(p) {
			return "", nil, ErrInvalidScope
		}
	}

	expiresAt, err := ParseExpiry(expiry)
	if err != nil {
		return "", nil, err
	}

	var plaintext string
	var key *models.APIKey
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		count, err := s.countLiveKeys(tx, userID)
		if err != nil {
			return err
		}
		if count >= models.MaxActiveKeysPerUser {
			return ErrKeyLimit
		}

		var keyHash string
		plaintext, keyHash = generateKey(label)
		key = &models.APIKey{
			ID:          uuid.NewString(),
			UserID:      userID,
			Name:        label,
			KeyHash:     keyHash,
			Permissions: models.JoinPermissions(permissions),
			ExpiresAt:   expiresAt,
			IsActive:    true,
		}
		return tx.Create(key).Error
	})
	if err != nil {
		return "", nil, err
	}
	return plaintext, key, nil
}

// Rollover replaces a genuinely expired key with a fresh one carrying
// the same label and permission set. The expired key does not count
// toward the active ceiling (its expiry already excludes it).
func (s *APIKeyService) Rollover(userID, expiredKeyID, expiry string) (string, *models.APIKey, error) {
	expiresAt, err := ParseExpiry(expiry)
	if err != nil {
		return "", nil, err
	}

	var plaintext string
	var key *models.APIKey
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var expired models.APIKey
		if err := tx.Where("id = ? AND user_id = ?", expiredKeyID, userID).First(&expired).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrKeyNotFound
			}
			return err
		}
		if expired.ExpiresAt.After(time.Now().UTC()) {
			return ErrKeyNotExpired
		}

		count, err := s.countLiveKeys(tx, userID)
		if err != nil {
			return err
		}
		if count >= models.MaxActiveKeysPerUser {
			return ErrKeyLimit
		}

		var keyHash string
		plaintext, keyHash = generateKey(expired.Name)
		key = &models.APIKey{
			ID:          uuid.NewString(),
			UserID:      userID,
			Name:        expired.Name,
			KeyHash:     keyHash,
			Permissions: expired.Permissions,
			ExpiresAt:   expiresAt,
			IsActive:    true,
		}
		return tx.Create(key).Error
	})
	if err != nil {
		return "", nil, err
	}
	return plaintext, key, nil
}

// Verify hashes the presented key and checks it is live. The three
// failure reasons stay distinct here; the auth middleware flattens them
// for callers.
func (s *APIKeyService) Verify(plaintext string) (*models.APIKey, error) {
	var key models.APIKey
	if err := s.DB.Where("key_hash = ?", hashKey(plaintext)).First(&key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidKey
		}
		return nil, err
	}
	if !key.IsActive {
		return nil, ErrKeyRevoked
	}
	if key.ExpiresAt.Before(time.Now().UTC()) {
		return nil, ErrKeyExpired
	}
	return &key, nil
}

// Revoke deactivates a key owned by the user.
func (s *APIKeyService) Revoke(userID, keyID string) error {
	now := time.Now().UTC()
	res := s.DB.Model(&models.APIKey{}).
		Where("id = ? AND user_id = ? AND is_active = ?", keyID, userID, true).
		Updates(map[string]interface{}{"is_active": false, "revoked_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrKeyNotFound
	}
	return nil
}

// List returns key metadata for the user, newest first. Hashes are
// excluded by the model's json tags; plaintext was never stored.
func (s *APIKeyService) List(userID string) ([]models.APIKey, error) {
	var keys []models.APIKey
	err := s.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&keys).Error
	return keys, err
}
