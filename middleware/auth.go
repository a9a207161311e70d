// middleware/auth.go
package middleware

import (
	"strings"

	"wallet-service/models"
	"wallet-service/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuthMethod string

const (
	AuthMethodSession AuthMethod = "session"
	AuthMethodAPIKey  AuthMethod = "api_key"
)

const authLocalKey = "auth_context"

// AuthContext is the resolved caller identity. Session callers carry
// the universal scope set; API key callers carry exactly the key's
// recorded permissions.
type AuthContext struct {
	User   models.User
	Method AuthMethod
	Scopes []string
}

// HasScope reports whether the caller may invoke an operation gated on
// scope. Session tokens imply full trust.
func (a *AuthContext) HasScope(scope string) bool {
	if a.Method == AuthMethodSession {
		return true
	}
	for _, s := range a.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Authenticator resolves either a Bearer session token or an X-API-Key
// header into an AuthContext. Resolvers run in order and short-circuit
// on the first success; a failed bearer attempt still lets a valid API
// key in the same request authenticate (matching the flexible flow).
type Authenticator struct {
	DB     *gorm.DB
	Tokens *services.TokenService
	Keys   *services.APIKeyService
}

func NewAuthenticator(db *gorm.DB, tokens *services.TokenService, keys *services.APIKeyService) *Authenticator {
	return &Authenticator{DB: db, Tokens: tokens, Keys: keys}
}

// Resolve inspects the request credentials. Every failure collapses to
// ErrUnauthenticated: the specific reason (bad signature, expired key,
// unknown subject) is not leaked to the caller.
func (a *Authenticator) Resolve(c *fiber.Ctx) (*AuthContext, error) {
	if ctx, ok := a.resolveBearer(c); ok {
		return ctx, nil
	}
	if ctx, ok := a.resolveAPIKey(c); ok {
		return ctx, nil
	}
	return nil, services.ErrUnauthenticated
}

func (a *Authenticator) resolveBearer(c *fiber.Ctx) (*AuthContext, bool) {
	authHeader := c.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, false
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	userID, err := a.Tokens.Verify(token)
	if err != nil {
		return nil, false
	}

	var user models.User
	if err := a.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, false
	}

	return &AuthContext{User: user, Method: AuthMethodSession}, true
}

func (a *Authenticator) resolveAPIKey(c *fiber.Ctx) (*AuthContext, bool) {
	plaintext := c.Get("X-API-Key")
	if plaintext == "" {
		return nil, false
	}

	key, err := a.Keys.Verify(plaintext)
	if err != nil {
		return nil, false
	}

	var user models.User
	if err := a.DB.Where("id = ?", key.UserID).First(&user).Error; err != nil {
		return nil, false
	}

	return &AuthContext{User: user, Method: AuthMethodAPIKey, Scopes: key.PermissionList()}, true
}

// Required is the strict middleware for protected routes.
func (a *Authenticator) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, err := a.Resolve(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication required, provide either a Bearer token or an X-API-Key header",
			})
		}
		c.Locals(authLocalKey, ctx)
		return c.Next()
	}
}

// SessionOnly additionally rejects API key callers; key management is
// reserved for interactive sessions.
func (a *Authenticator) SessionOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, err := a.Resolve(c)
		if err != nil || ctx.Method != AuthMethodSession {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "could not validate credentials",
			})
		}
		c.Locals(authLocalKey, ctx)
		return c.Next()
	}
}

// RequireScope gates a route on one permission. Must run after
// Required. Session callers always pass; API key callers need the
// scope on their key.
func RequireScope(scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := GetAuthContext(c)
		if ctx == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication required",
			})
		}
		if !ctx.HasScope(scope) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "API key does not have '" + scope + "' permission",
			})
		}
		return c.Next()
	}
}

// GetAuthContext pulls the resolved caller out of fiber locals.
func GetAuthContext(c *fiber.Ctx) *AuthContext {
	ctx, _ := c.Locals(authLocalKey).(*AuthContext)
	return ctx
}
