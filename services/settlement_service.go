// services/settlement_service.go
package services

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"log"
)

// SettlementService is the stateless relay between Paystack's webhook
// and the ledger. It verifies the HMAC-SHA512 signature over the exact
// raw body before parsing anything; a bad signature discards the event
// without touching state.
type SettlementService struct {
	Ledger        *LedgerService
	webhookSecret []byte
}

func NewSettlementService(ledger *LedgerService, webhookSecret string) *SettlementService {
	return &SettlementService{Ledger: ledger, webhookSecret: []byte(webhookSecret)}
}

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
	} `json:"data"`
}

func (s *SettlementService) validSignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, s.webhookSecret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// HandleWebhook verifies and dispatches one provider notification.
// After a valid signature every outcome is success: unknown event
// types, unknown references and already-settled transactions are all
// acknowledged so the provider stops retrying.
func (s *SettlementService) HandleWebhook(body []byte, signature string) error {
	if !s.validSignature(body, signature) {
		return ErrInvalidSignature
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("webhook body not parseable, acknowledging anyway: %v", err)
		return nil
	}

	switch event.Event {
	case "charge.success":
		if event.Data.Reference == "" {
			return nil
		}
		return s.Ledger.SettleDeposit(event.Data.Reference, true)
	case "charge.failed":
		if event.Data.Reference == "" {
			return nil
		}
		return s.Ledger.SettleDeposit(event.Data.Reference, false)
	default:
		// Future event types must not cause endless provider retries.
		return nil
	}
}
