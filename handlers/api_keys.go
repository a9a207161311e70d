// handlers/api_keys.go
package handlers

import (
	"errors"
	"log"

	"wallet-service/middleware"
	"wallet-service/services"

	"github.com/gofiber/fiber/v2"
)

// SetupAPIKeyRoutes registers key management. These routes are session
// only: a key cannot mint, revoke or roll over keys.
func SetupAPIKeyRoutes(app *fiber.App, keys *services.APIKeyService, authn *middleware.Authenticator) {
	group := app.Group("/keys", authn.SessionOnly())

	group.Post("/create", func(c *fiber.Ctx) error {
		var req struct {
			Name        string   `json:"name"`
			Permissions []string `json:"permissions"`
			Expiry      string   `json:"expiry"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if req.Name == "" || len(req.Permissions) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "name and permissions are required",
			})
		}

		auth := middleware.GetAuthContext(c)
		plaintext, key, err := keys.Create(auth.User.ID, req.Name, req.Permissions, req.Expiry)
		if err != nil {
			return apiKeyError(c, err)
		}

		// The plaintext secret is returned exactly once.
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":          key.ID,
			"api_key":     plaintext,
			"name":        key.Name,
			"permissions": key.PermissionList(),
			"expires_at":  key.ExpiresAt,
		})
	})

	group.Post("/rollover", func(c *fiber.Ctx) error {
		var req struct {
			ExpiredKeyID string `json:"expired_key_id"`
			Expiry       string `json:"expiry"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		auth := middleware.GetAuthContext(c)
		plaintext, key, err := keys.Rollover(auth.User.ID, req.ExpiredKeyID, req.Expiry)
		if err != nil {
			return apiKeyError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":          key.ID,
			"api_key":     plaintext,
			"name":        key.Name,
			"permissions": key.PermissionList(),
			"expires_at":  key.ExpiresAt,
		})
	})

	group.Get("/", func(c *fiber.Ctx) error {
		auth := middleware.GetAuthContext(c)
		list, err := keys.List(auth.User.ID)
		if err != nil {
			log.Printf("key list failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list keys"})
		}
		return c.JSON(fiber.Map{"keys": list})
	})

	group.Post("/:id/revoke", func(c *fiber.Ctx) error {
		auth := middleware.GetAuthContext(c)
		if err := keys.Revoke(auth.User.ID, c.Params("id")); err != nil {
			return apiKeyError(c, err)
		}
		return c.JSON(fiber.Map{"status": "revoked"})
	})
}

func apiKeyError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrKeyNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrKeyLimit),
		errors.Is(err, services.ErrInvalidExpiry),
		errors.Is(err, services.ErrInvalidScope),
		errors.Is(err, services.ErrKeyNotExpired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	log.Printf("api key operation failed: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
