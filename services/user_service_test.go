// services/user_service_test.go
package services

import (
	"testing"

	"wallet-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertFromGoogle(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, nil)

	profile := &GoogleProfile{
		ID:      "google-1",
		Email:   "first@example.com",
		Name:    "First Name",
		Picture: "https://lh3.example/a",
	}

	created, err := svc.UpsertFromGoogle(profile)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "first@example.com", created.Email)

	// A later login with refreshed provider data updates in place.
	profile.Email = "renamed@example.com"
	profile.Name = "New Name"
	updated, err := svc.UpsertFromGoogle(profile)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	fresh, err := svc.FindByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed@example.com", fresh.Email)
	require.NotNil(t, fresh.Name)
	assert.Equal(t, "New Name", *fresh.Name)
}
