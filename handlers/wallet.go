// handlers/wallet.go
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"math"
	"strings"

	"wallet-service/middleware"
	"wallet-service/models"
	"wallet-service/services"
	"wallet-service/utils"

	"github.com/gofiber/fiber/v2"
)

// parseAmountKobo accepts both integers (already kobo) and fractional
// major-unit amounts (naira), converting the latter by *100 + round.
// No float ever reaches persistence.
func parseAmountKobo(n json.Number) (int64, error) {
	s := n.String()
	if s == "" {
		return 0, services.ErrInvalidAmount
	}
	if strings.ContainsAny(s, ".eE") {
		f, err := n.Float64()
		if err != nil {
			return 0, services.ErrInvalidAmount
		}
		return int64(math.Round(f * 100)), nil
	}
	v, err := n.Int64()
	if err != nil {
		return 0, services.ErrInvalidAmount
	}
	return v, nil
}

// SetupWalletRoutes registers the scoped wallet operations plus the
// Paystack webhook that settles deposits.
func SetupWalletRoutes(app *fiber.App, ledger *services.LedgerService, settlement *services.SettlementService, authn *middleware.Authenticator) {
	app.Post("/wallet/deposit",
		authn.Required(), middleware.RequireScope(models.PermissionDeposit),
		func(c *fiber.Ctx) error {
			var req struct {
				Amount json.Number `json:"amount"`
			}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
			}
			amount, err := parseAmountKobo(req.Amount)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": services.ErrInvalidAmount.Error()})
			}

			auth := middleware.GetAuthContext(c)
			txn, err := ledger.InitiateDeposit(c.UserContext(), &auth.User, amount)
			if err != nil {
				return ledgerError(c, err)
			}

			return c.Status(fiber.StatusCreated).JSON(fiber.Map{
				"reference":         txn.Reference,
				"authorization_url": txn.AuthorizationURL,
			})
		})

	app.Get("/wallet/balance",
		authn.Required(), middleware.RequireScope(models.PermissionRead),
		func(c *fiber.Ctx) error {
			auth := middleware.GetAuthContext(c)
			wallet, err := ledger.Balance(auth.User.ID)
			if err != nil {
				return ledgerError(c, err)
			}
			return c.JSON(fiber.Map{
				"user_id":         wallet.UserID,
				"balance":         wallet.Balance,
				"balance_display": utils.FormatKobo(wallet.Balance),
			})
		})

	app.Post("/wallet/transfer",
		authn.Required(), middleware.RequireScope(models.PermissionTransfer),
		func(c *fiber.Ctx) error {
			var req struct {
				RecipientID string      `json:"recipient_id"`
				Amount      json.Number `json:"amount"`
			}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
			}
			amount, err := parseAmountKobo(req.Amount)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": services.ErrInvalidAmount.Error()})
			}

			auth := middleware.GetAuthContext(c)
			transfer, err := ledger.Transfer(auth.User.ID, req.RecipientID, amount)
			if err != nil {
				return ledgerError(c, err)
			}

			return c.Status(fiber.StatusCreated).JSON(fiber.Map{
				"transfer_id":    transfer.ID,
				"recipient_id":   transfer.RecipientID,
				"amount":         transfer.Amount,
				"amount_display": utils.FormatKobo(transfer.Amount),
				"status":         transfer.Status,
			})
		})

	app.Get("/wallet/transactions",
		authn.Required(), middleware.RequireScope(models.PermissionRead),
		func(c *fiber.Ctx) error {
			auth := middleware.GetAuthContext(c)
			entries, err := ledger.History(auth.User.ID)
			if err != nil {
				return ledgerError(c, err)
			}
			return c.JSON(fiber.Map{"transactions": entries})
		})

	// Status lookup never credits wallets; only the webhook (and the
	// reconciler behind it) may settle.
	app.Get("/wallet/deposit/:reference/status", func(c *fiber.Ctx) error {
		txn, err := ledger.TransactionStatus(c.UserContext(), c.Params("reference"), false)
		if err != nil {
			return ledgerError(c, err)
		}
		return c.JSON(transactionStatusResponse(txn))
	})

	app.Post("/wallet/paystack/webhook", func(c *fiber.Ctx) error {
		// Exact raw bytes: the signature covers the body as delivered.
		body := c.Body()
		signature := c.Get("x-paystack-signature")

		if err := settlement.HandleWebhook(body, signature); err != nil {
			if errors.Is(err, services.ErrInvalidSignature) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			}
			log.Printf("webhook processing failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
		}
		return c.JSON(fiber.Map{"status": true})
	})
}

func transactionStatusResponse(txn *models.Transaction) fiber.Map {
	return fiber.Map{
		"reference": txn.Reference,
		"status":    txn.Status,
		"amount":    txn.Amount,
		"paid_at":   txn.PaidAt,
	}
}

func ledgerError(c *fiber.Ctx, err error) error {
	var insufficient *services.InsufficientBalanceError
	switch {
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":             "insufficient balance",
			"available":         insufficient.Available,
			"available_display": utils.FormatKobo(insufficient.Available),
		})
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrSelfTransfer):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrWalletNotFound),
		errors.Is(err, services.ErrRecipientNotFound),
		errors.Is(err, services.ErrTransactionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrProviderPayment):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": err.Error()})
	}
	log.Printf("ledger operation failed: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
