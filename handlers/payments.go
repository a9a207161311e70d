// handlers/payments.go
package handlers

import (
	"encoding/json"

	"wallet-service/middleware"
	"wallet-service/services"

	"github.com/gofiber/fiber/v2"
)

// SetupPaymentRoutes registers the older payments-only flow kept for
// existing integrations. Initiation works with or without credentials;
// an unauthenticated transaction carries no user and settlement only
// flips its status, never a wallet.
func SetupPaymentRoutes(app *fiber.App, ledger *services.LedgerService, authn *middleware.Authenticator) {
	app.Post("/payments/paystack/initiate", func(c *fiber.Ctx) error {
		var req struct {
			Amount json.Number `json:"amount"`
			Email  string      `json:"email"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		amount, err := parseAmountKobo(req.Amount)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": services.ErrInvalidAmount.Error()})
		}

		// The authenticated identity, when present, always wins over a
		// caller-supplied payer email.
		if auth, err := authn.Resolve(c); err == nil {
			txn, err := ledger.InitiateDeposit(c.UserContext(), &auth.User, amount)
			if err != nil {
				return ledgerError(c, err)
			}
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{
				"reference":         txn.Reference,
				"authorization_url": txn.AuthorizationURL,
			})
		}

		if req.Email == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "email is required for unauthenticated payments",
			})
		}
		txn, err := ledger.InitiateLegacyDeposit(c.UserContext(), req.Email, amount)
		if err != nil {
			return ledgerError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"reference":         txn.Reference,
			"authorization_url": txn.AuthorizationURL,
		})
	})

	app.Get("/payments/:reference/status", func(c *fiber.Ctx) error {
		refresh := c.QueryBool("refresh", false)
		txn, err := ledger.TransactionStatus(c.UserContext(), c.Params("reference"), refresh)
		if err != nil {
			return ledgerError(c, err)
		}
		return c.JSON(transactionStatusResponse(txn))
	})
}
