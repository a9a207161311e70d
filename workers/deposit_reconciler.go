// workers/deposit_reconciler.go
package workers

import (
	"context"
	"log"
	"time"

	"wallet-service/models"
	"wallet-service/services"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// DepositReconciler backstops lost webhooks: deposits stuck PENDING
// past a grace window are re-verified against Paystack and settled
// through the same idempotent path the webhook uses, so a webhook
// arriving mid-sweep cannot cause a double credit.
type DepositReconciler struct {
	DB       *gorm.DB
	Ledger   *services.LedgerService
	Paystack *services.PaystackClient

	Interval time.Duration
	Grace    time.Duration
	Batch    int
}

func NewDepositReconciler(db *gorm.DB, ledger *services.LedgerService, paystack *services.PaystackClient) *DepositReconciler {
	return &DepositReconciler{
		DB:       db,
		Ledger:   ledger,
		Paystack: paystack,
		Interval: 5 * time.Minute,
		Grace:    10 * time.Minute,
		Batch:    100,
	}
}

// Start schedules the periodic sweep. Returns the scheduler so main
// can shut it down.
func (r *DepositReconciler) Start() (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	sched.Start()

	_, err = sched.NewJob(
		gocron.DurationJob(r.Interval),
		gocron.NewTask(r.sweep),
	)
	if err != nil {
		return nil, err
	}
	return sched, nil
}

func (r *DepositReconciler) sweep() {
	cutoff := time.Now().UTC().Add(-r.Grace)

	var stale []models.Transaction
	err := r.DB.Where("status = ? AND created_at < ?", models.TransactionPending, cutoff).
		Order("created_at ASC").
		Limit(r.Batch).
		Find(&stale).Error
	if err != nil {
		log.Printf("[Reconciler] DB error: %v", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	log.Printf("[Reconciler] Re-verifying %d stale pending deposit(s)", len(stale))

	for _, txn := range stale {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		status, err := r.Paystack.VerifyTransaction(ctx, txn.Reference)
		cancel()
		if err != nil {
			log.Printf("[Reconciler] Verify failed for %s: %v", txn.Reference, err)
			continue
		}

		switch status {
		case "success":
			if err := r.Ledger.SettleDeposit(txn.Reference, true); err != nil {
				log.Printf("[Reconciler] Settle failed for %s: %v", txn.Reference, err)
			}
		case "failed":
			if err := r.Ledger.SettleDeposit(txn.Reference, false); err != nil {
				log.Printf("[Reconciler] Settle failed for %s: %v", txn.Reference, err)
			}
		default:
			// Still pending on the provider side; next sweep retries.
		}
	}
}
