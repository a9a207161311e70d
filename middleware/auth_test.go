// middleware/auth_test.go
package middleware

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"wallet-service/models"
	"wallet-service/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type authFixture struct {
	db     *gorm.DB
	tokens *services.TokenService
	keys   *services.APIKeyService
	authn  *Authenticator
	user   *models.User
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.APIKey{}))

	user := &models.User{
		ID:       uuid.NewString(),
		Email:    "caller@example.com",
		GoogleID: "google-" + uuid.NewString(),
	}
	require.NoError(t, db.Create(user).Error)

	tokens := services.NewTokenService("middleware-test-secret")
	keys := services.NewAPIKeyService(db)
	return &authFixture{
		db:     db,
		tokens: tokens,
		keys:   keys,
		authn:  NewAuthenticator(db, tokens, keys),
		user:   user,
	}
}

// newAuthApp wires the three middleware variants onto probe routes that
// echo back who the resolved caller is.
func newAuthApp(f *authFixture) *fiber.App {
	app := fiber.New()

	whoami := func(c *fiber.Ctx) error {
		ctx := GetAuthContext(c)
		return c.JSON(fiber.Map{"user_id": ctx.User.ID, "method": string(ctx.Method)})
	}

	app.Get("/protected", f.authn.Required(), whoami)
	app.Get("/session-only", f.authn.SessionOnly(), whoami)
	app.Get("/needs-transfer", f.authn.Required(), RequireScope(models.PermissionTransfer), whoami)
	app.Get("/needs-read", f.authn.Required(), RequireScope(models.PermissionRead), whoami)
	return app
}

func TestRequiredRejectsAnonymous(t *testing.T) {
	f := newAuthFixture(t)
	app := newAuthApp(f)

	resp, err := app.Test(httptest.NewRequest("GET", "/protected", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Bearer token")
}

func TestSessionTokenGetsFullTrust(t *testing.T) {
	f := newAuthFixture(t)
	app := newAuthApp(f)

	token, err := f.tokens.Issue(f.user.ID, f.user.Email)
	require.NoError(t, err)

	for _, path := range []string{"/protected", "/session-only", "/needs-transfer", "/needs-read"} {
		req := httptest.NewRequest("GET", path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, path)
	}
}

func TestAPIKeyScopesAreEnforced(t *testing.T) {
	f := newAuthFixture(t)
	app := newAuthApp(f)

	plaintext, _, err := f.keys.Create(f.user.ID, "read only", []string{models.PermissionRead}, "1D")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/needs-read", nil)
	req.Header.Set("X-API-Key", plaintext)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/needs-transfer", nil)
	req.Header.Set("X-API-Key", plaintext)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), models.PermissionTransfer)
}

func TestAPIKeyCannotManageKeys(t *testing.T) {
	f := newAuthFixture(t)
	app := newAuthApp(f)

	plaintext, _, err := f.keys.Create(f.user.ID, "machine", []string{models.PermissionRead}, "1D")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/session-only", nil)
	req.Header.Set("X-API-Key", plaintext)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestBadBearerFallsThroughToAPIKey(t *testing.T) {
	f := newAuthFixture(t)
	app := newAuthApp(f)

	plaintext, _, err := f.keys.Create(f.user.ID, "fallback", []string{models.PermissionRead}, "1D")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	req.Header.Set("X-API-Key", plaintext)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"method":"api_key"`)
}

func TestRevokedAndExpiredKeysAreRejected(t *testing.T) {
	f := newAuthFixture(t)
	app := newAuthApp(f)

	revoked, revokedRow, err := f.keys.Create(f.user.ID, "revoked", []string{models.PermissionRead}, "1D")
	require.NoError(t, err)
	require.NoError(t, f.keys.Revoke(f.user.ID, revokedRow.ID))

	expired, expiredRow, err := f.keys.Create(f.user.ID, "expired", []string{models.PermissionRead}, "1H")
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.APIKey{}).Where("id = ?", expiredRow.ID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	for name, key := range map[string]string{"revoked": revoked, "expired": expired} {
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("X-API-Key", key)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, name)
	}
}

func TestTokenForDeletedUserIsRejected(t *testing.T) {
	f := newAuthFixture(t)
	app := newAuthApp(f)

	token, err := f.tokens.Issue(f.user.ID, f.user.Email)
	require.NoError(t, err)
	require.NoError(t, f.db.Delete(&models.User{}, "id = ?", f.user.ID).Error)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
