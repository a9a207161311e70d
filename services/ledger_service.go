// services/ledger_service.go
package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"wallet-service/models"
	"wallet-service/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerService owns wallet balances and the deposit/transfer state
// machine. All balance mutations go through guarded UPDATEs inside a
// single DB transaction, so the non-negative invariant and the
// settle-exactly-once invariant hold under concurrent requests and
// duplicate webhook deliveries.
type LedgerService struct {
	DB       *gorm.DB
	Paystack *PaystackClient
}

func NewLedgerService(db *gorm.DB, paystack *PaystackClient) *LedgerService {
	return &LedgerService{DB: db, Paystack: paystack}
}

func newReference() string {
	return "txn_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ensureWallet fetches the user's wallet, creating an empty one if
// absent. Must run inside the caller's transaction.
func ensureWallet(tx *gorm.DB, userID string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := tx.Where("user_id = ?", userID).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		wallet = models.Wallet{
			ID:     uuid.NewString(),
			UserID: userID,
		}
		if err := tx.Create(&wallet).Error; err != nil {
			return nil, err
		}
		return &wallet, nil
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// InitiateDeposit creates a PENDING deposit for the authenticated user
// and returns the hosted checkout URL. The email sent to Paystack is
// always the account's own, never caller-supplied. The transaction row
// is persisted only after the provider call succeeds, so a timeout
// never leaves a PENDING row without a usable authorization URL.
func (s *LedgerService) InitiateDeposit(ctx context.Context, user *models.User, amount int64) (*models.Transaction, error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return s.initiate(ctx, &user.ID, user.Email, amount)
}

// InitiateLegacyDeposit serves the unauthenticated payments flow: the
// payer email comes from the request and the transaction is not tied
// to a user, so settlement updates status without crediting a wallet.
func (s *LedgerService) InitiateLegacyDeposit(ctx context.Context, email string, amount int64) (*models.Transaction, error) {
	return s.initiate(ctx, nil, email, amount)
}

func (s *LedgerService) initiate(ctx context.Context, userID *string, email string, amount int64) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	reference := newReference()

	// Idempotency seam shared with settlement: a colliding reference
	// returns the existing row instead of creating a duplicate.
	var existing models.Transaction
	err := s.DB.Where("reference = ?", reference).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	authorizationURL, err := s.Paystack.InitializeTransaction(ctx, amount, email, reference)
	if err != nil {
		return nil, err
	}

	txn := models.Transaction{
		ID:               uuid.NewString(),
		Reference:        reference,
		UserID:           userID,
		Amount:           amount,
		Status:           models.TransactionPending,
		AuthorizationURL: authorizationURL,
	}
	if err := s.DB.Create(&txn).Error; err != nil {
		// Unique index collision after the pre-check: surface the
		// winner's row, same as the pre-check would have.
		var winner models.Transaction
		if ferr := s.DB.Where("reference = ?", reference).First(&winner).Error; ferr == nil {
			return &winner, nil
		}
		return nil, err
	}
	return &txn, nil
}

// SettleDeposit drives a PENDING transaction to its final state and,
// on success, credits the owner's wallet — both in one DB transaction.
// Unknown references and already-settled transactions are silent
// no-ops: providers redeliver events, and redelivery must not
// double-credit. The conditional UPDATE on status is what closes the
// race between two concurrent deliveries of the same event.
func (s *LedgerService) SettleDeposit(reference string, success bool) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var txn models.Transaction
		if err := tx.Where("reference = ?", reference).First(&txn).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if txn.Status != models.TransactionPending {
			return nil
		}

		if !success {
			return tx.Model(&models.Transaction{}).
				Where("id = ? AND status = ?", txn.ID, models.TransactionPending).
				Update("status", models.TransactionFailed).Error
		}

		now := time.Now().UTC()
		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", txn.ID, models.TransactionPending).
			Updates(map[string]interface{}{
				"status":  models.TransactionSuccess,
				"paid_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Another delivery won the transition; nothing to credit.
			return nil
		}

		if txn.UserID == nil {
			// Legacy payments flow: status only, no wallet.
			return nil
		}

		wallet, err := ensureWallet(tx, *txn.UserID)
		if err != nil {
			return err
		}
		return tx.Model(&models.Wallet{}).
			Where("id = ?", wallet.ID).
			Update("balance", gorm.Expr("balance + ?", txn.Amount)).Error
	})
}

// Transfer moves amount kobo from sender to recipient. The balance
// check and the debit are one atomic unit: the debit is a conditional
// UPDATE guarded by balance >= amount, so two concurrent transfers
// from the same wallet cannot both pass a stale check.
func (s *LedgerService) Transfer(senderID, recipientID string, amount int64) (*models.Transfer, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if senderID == recipientID {
		return nil, ErrSelfTransfer
	}

	var record *models.Transfer
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var senderWallet models.Wallet
		if err := tx.Where("user_id = ?", senderID).First(&senderWallet).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWalletNotFound
			}
			return err
		}
		if senderWallet.Balance < amount {
			return &InsufficientBalanceError{Available: senderWallet.Balance}
		}

		// Recipient identifier doubles as account number: it must
		// resolve to a known user before any money moves.
		var recipient models.User
		if err := tx.Where("id = ?", recipientID).First(&recipient).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecipientNotFound
			}
			return err
		}

		recipientWallet, err := ensureWallet(tx, recipientID)
		if err != nil {
			return err
		}

		res := tx.Model(&models.Wallet{}).
			Where("id = ? AND balance >= ?", senderWallet.ID, amount).
			Update("balance", gorm.Expr("balance - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// A concurrent debit drained the wallet after our read.
			var fresh models.Wallet
			if err := tx.Where("id = ?", senderWallet.ID).First(&fresh).Error; err != nil {
				return err
			}
			return &InsufficientBalanceError{Available: fresh.Balance}
		}

		if err := tx.Model(&models.Wallet{}).
			Where("id = ?", recipientWallet.ID).
			Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
			return err
		}

		record = &models.Transfer{
			ID:          uuid.NewString(),
			SenderID:    senderID,
			RecipientID: recipientID,
			Amount:      amount,
			Status:      "success",
		}
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Balance returns the user's balance, lazily creating the wallet on
// first query.
func (s *LedgerService) Balance(userID string) (*models.Wallet, error) {
	var wallet *models.Wallet
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		wallet, err = ensureWallet(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// LedgerEntry is one row of a user's activity feed.
type LedgerEntry struct {
	Type          string    `json:"type"` // "deposit" or "transfer"
	ID            string    `json:"id"`
	Reference     string    `json:"reference,omitempty"`
	Amount        int64     `json:"amount"`
	AmountDisplay string    `json:"amount_display"`
	RecipientID   string    `json:"recipient_id,omitempty"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// History merges the user's successful deposits and sent transfers,
// newest first. Ties break on ID so the order is stable.
func (s *LedgerService) History(userID string) ([]LedgerEntry, error) {
	var deposits []models.Transaction
	if err := s.DB.Where("user_id = ? AND status = ?", userID, models.TransactionSuccess).
		Find(&deposits).Error; err != nil {
		return nil, err
	}

	var transfers []models.Transfer
	if err := s.DB.Where("sender_id = ?", userID).Find(&transfers).Error; err != nil {
		return nil, err
	}

	entries := make([]LedgerEntry, 0, len(deposits)+len(transfers))
	for _, d := range deposits {
		occurred := d.CreatedAt
		if d.PaidAt != nil {
			occurred = *d.PaidAt
		}
		entries = append(entries, LedgerEntry{
			Type:          "deposit",
			ID:            d.ID,
			Reference:     d.Reference,
			Amount:        d.Amount,
			AmountDisplay: utils.FormatKobo(d.Amount),
			Status:        string(d.Status),
			OccurredAt:    occurred,
		})
	}
	for _, t := range transfers {
		entries = append(entries, LedgerEntry{
			Type:          "transfer",
			ID:            t.ID,
			Amount:        t.Amount,
			AmountDisplay: utils.FormatKobo(t.Amount),
			RecipientID:   t.RecipientID,
			Status:        t.Status,
			OccurredAt:    t.CreatedAt,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].OccurredAt.Equal(entries[j].OccurredAt) {
			return entries[i].OccurredAt.After(entries[j].OccurredAt)
		}
		return entries[i].ID > entries[j].ID
	})
	return entries, nil
}

// TransactionStatus looks up a deposit by reference. With refresh, the
// provider is re-queried and a definitive answer is settled through
// the same idempotent path the webhook uses — so a refresh can never
// double-credit.
func (s *LedgerService) TransactionStatus(ctx context.Context, reference string, refresh bool) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.DB.Where("reference = ?", reference).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	if refresh && txn.Status == models.TransactionPending {
		status, err := s.Paystack.VerifyTransaction(ctx, reference)
		if err != nil {
			return nil, err
		}
		switch status {
		case "success":
			if err := s.SettleDeposit(reference, true); err != nil {
				return nil, err
			}
		case "failed":
			if err := s.SettleDeposit(reference, false); err != nil {
				return nil, err
			}
		}
		if err := s.DB.Where("reference = ?", reference).First(&txn).Error; err != nil {
			return nil, err
		}
	}
	return &txn, nil
}
