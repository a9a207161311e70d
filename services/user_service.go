// services/user_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"wallet-service/models"
	"wallet-service/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserService owns the user table. Avatars is optional; when set,
// Google profile pictures are mirrored to R2 after login.
type UserService struct {
	DB      *gorm.DB
	Avatars *utils.R2Client
}

func NewUserService(db *gorm.DB, avatars *utils.R2Client) *UserService {
	return &UserService{DB: db, Avatars: avatars}
}

// UpsertFromGoogle creates the user on first login and refreshes
// email/name/picture on every subsequent one.
func (s *UserService) UpsertFromGoogle(profile *GoogleProfile) (*models.User, error) {
	var user models.User
	err := s.DB.Where("google_id = ?", profile.ID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			ID:       uuid.NewString(),
			GoogleID: profile.ID,
			Email:    profile.Email,
		}
		if profile.Name != "" {
			user.Name = &profile.Name
		}
		if profile.Picture != "" {
			user.Picture = &profile.Picture
		}
		if err := s.DB.Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"email": profile.Email}
	if profile.Name != "" {
		updates["name"] = profile.Name
	}
	if profile.Picture != "" {
		updates["picture"] = profile.Picture
	}
	if err := s.DB.Model(&user).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID looks up a user; callers decide what a miss means.
func (s *UserService) FindByID(userID string) (*models.User, error) {
	var user models.User
	if err := s.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// MirrorAvatar downloads the user's current provider picture and
// re-hosts it on R2, then points the user record at the stable URL.
// Best-effort: failures are logged, never surfaced to the login flow.
func (s *UserService) MirrorAvatar(user *models.User) {
	if s.Avatars == nil || user.Picture == nil || *user.Picture == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := utils.HTTPClient.Get(*user.Picture)
	if err != nil {
		log.Printf("avatar fetch failed for user %s: %v", user.ID, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		log.Printf("avatar fetch for user %s returned %d", user.ID, resp.StatusCode)
		return
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		log.Printf("avatar read failed for user %s: %v", user.ID, err)
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	key := fmt.Sprintf("avatars/%s", user.ID)
	publicURL, err := s.Avatars.UploadBytes(ctx, key, contentType, data)
	if err != nil {
		log.Printf("avatar upload failed for user %s: %v", user.ID, err)
		return
	}

	if err := s.DB.Model(&models.User{}).Where("id = ?", user.ID).
		Update("picture", publicURL).Error; err != nil {
		log.Printf("avatar url update failed for user %s: %v", user.ID, err)
	}
}
