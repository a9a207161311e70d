// handlers/auth.go
package handlers

import (
	"errors"
	"log"

	"wallet-service/services"

	"github.com/gofiber/fiber/v2"
)

// SetupAuthRoutes registers the Google sign-in flow. The callback
// upserts the user, mirrors the avatar in the background and returns a
// session token.
func SetupAuthRoutes(app *fiber.App, users *services.UserService, google *services.GoogleClient, tokens *services.TokenService) {
	app.Get("/auth/google", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"google_auth_url": google.AuthURL(),
		})
	})

	app.Get("/auth/google/callback", func(c *fiber.Ctx) error {
		code := c.Query("code")
		if code == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "missing authorization code",
			})
		}

		profile, err := google.Exchange(c.UserContext(), code)
		if err != nil {
			if errors.Is(err, services.ErrProviderAuth) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "invalid authorization code",
				})
			}
			log.Printf("google exchange failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "provider error",
			})
		}

		user, err := users.UpsertFromGoogle(profile)
		if err != nil {
			log.Printf("user upsert failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to persist user",
			})
		}

		go users.MirrorAvatar(user)

		accessToken, err := tokens.Issue(user.ID, user.Email)
		if err != nil {
			log.Printf("token issue failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to issue session token",
			})
		}

		return c.JSON(fiber.Map{
			"user_id":      user.ID,
			"email":        user.Email,
			"name":         user.Name,
			"access_token": accessToken,
			"token_type":   "bearer",
		})
	})
}
