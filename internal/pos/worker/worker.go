// Package worker runs POS's broker consumer: it dequeues each pending sale,
// publishes its journal entry to Ledger, and updates the sale's sync
// status. It is the asynchronous half of the sale pipeline, run alongside
// the HTTP server under one launcher.Launcher.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/corebooks/core/internal/platform/broker"
	"github.com/corebooks/core/internal/platform/launcher"
	"github.com/corebooks/core/internal/platform/logging"
	"github.com/corebooks/core/internal/pos/domain"
	"github.com/corebooks/core/internal/pos/ledgerclient"
	"github.com/corebooks/core/internal/pos/service"
)

const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
	maxAttempts    = 10
	saleSource     = "pos"
)

// Worker dequeues sale messages and publishes their journal entries to
// Ledger, retrying with backoff before leaving a sale in status failed for
// operator reconciliation.
type Worker struct {
	Sales    domain.SaleRepository
	Settings domain.SettingsRepository
	Ledger   service.LedgerClient
	Broker   broker.Broker
	Logger   logging.Logger
	// FallbackBearerToken authenticates the worker as a service account
	// when reprocessing a message from the boot-time rescan, since the
	// original caller's bearer token is not durably stored and does not
	// survive a process restart.
	FallbackBearerToken string
	// InitialBackoff, MaxBackoff, and MaxAttempts override the retry policy
	// constants when set; tests shrink them to keep the suite fast.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxAttempts    int
}

func (w *Worker) initialBackoff() time.Duration {
	if w.InitialBackoff > 0 {
		return w.InitialBackoff
	}

	return initialBackoff
}

func (w *Worker) maxBackoff() time.Duration {
	if w.MaxBackoff > 0 {
		return w.MaxBackoff
	}

	return maxBackoff
}

func (w *Worker) maxAttempts() int {
	if w.MaxAttempts > 0 {
		return w.MaxAttempts
	}

	return maxAttempts
}

// Run performs the boot-time rescan of pending/failed sales, then consumes
// the sale subject until ctx is cancelled.
func (w *Worker) Run(_ *launcher.Launcher) error {
	ctx := logging.ContextWithLogger(context.Background(), w.Logger)

	w.rescan(ctx)

	return w.Broker.Consume(ctx, service.SaleSubject, w.handle)
}

// rescan re-enqueues every sale left pending or failed by a prior process,
// giving the at-least-once guarantee the in-process broker backend cannot
// provide across a restart on its own.
func (w *Worker) rescan(ctx context.Context) {
	sales, err := w.Sales.ListPendingOrFailed(ctx)
	if err != nil {
		w.Logger.Errorf("boot rescan: list pending/failed sales: %v", err)
		return
	}

	for _, sale := range sales {
		body, err := json.Marshal(domain.SaleMessage{SaleID: sale.ID, SaleNumber: sale.SaleNumber, AuthToken: w.FallbackBearerToken})
		if err != nil {
			w.Logger.Errorf("boot rescan: encode sale %s: %v", sale.SaleNumber, err)
			continue
		}

		if err := w.Broker.Publish(ctx, broker.Message{ID: sale.ID, Subject: service.SaleSubject, Body: body}); err != nil {
			w.Logger.Errorf("boot rescan: re-enqueue sale %s: %v", sale.SaleNumber, err)
			continue
		}

		w.Logger.Infof("boot rescan: re-enqueued sale %s", sale.SaleNumber)
	}
}

func (w *Worker) handle(ctx context.Context, msg broker.Message) error {
	var payload domain.SaleMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		w.Logger.Errorf("sale message: decode: %v", err)
		return err
	}

	bearerToken := payload.AuthToken
	if bearerToken == "" {
		bearerToken = w.FallbackBearerToken
	}

	return w.publish(ctx, payload.SaleID, payload.SaleNumber, bearerToken)
}

// publish resolves the idempotency pre-check, then retries the Ledger post
// with doubling backoff up to maxAttempts before marking the sale failed.
func (w *Worker) publish(ctx context.Context, saleID, saleNumber, bearerToken string) error {
	if existingID, err := w.Ledger.FindByReference(ctx, bearerToken, saleSource, saleNumber); err == nil && existingID != "" {
		return w.markSynced(ctx, saleID, saleNumber, existingID)
	}

	sale, err := w.Sales.FindByID(ctx, saleID)
	if err != nil {
		w.Logger.Errorf("sale %s: load for publish: %v", saleNumber, err)
		return err
	}

	settings, err := w.Settings.Get(ctx)
	if err != nil {
		w.Logger.Errorf("sale %s: load settings: %v", saleNumber, err)
		return err
	}

	req := ledgerclient.PostTransactionRequest{
		Description: fmt.Sprintf("POS sale %s", saleNumber),
		Source:      saleSource,
		Reference:   saleNumber,
		Lines: []ledgerclient.Line{
			{AccountName: settings.LedgerCashAccount, Type: "debit", Amount: sale.Total.String()},
			{AccountName: settings.LedgerRevenueAccount, Type: "credit", Amount: sale.Total.String()},
		},
	}

	backoff := w.initialBackoff()
	attempts := w.maxAttempts()

	for attempt := 1; attempt <= attempts; attempt++ {
		ledgerEntryID, err := w.Ledger.PostTransaction(ctx, bearerToken, req)
		if err == nil {
			return w.markSynced(ctx, saleID, saleNumber, ledgerEntryID)
		}

		if errors.Is(err, ledgerclient.ErrConflict) {
			if existingID, ferr := w.Ledger.FindByReference(ctx, bearerToken, saleSource, saleNumber); ferr == nil && existingID != "" {
				return w.markSynced(ctx, saleID, saleNumber, existingID)
			}
		}

		w.Logger.Warnf("sale %s: publish attempt %d/%d failed: %v", saleNumber, attempt, attempts, err)

		if attempt == attempts {
			break
		}

		if !sleep(ctx, backoff) {
			return ctx.Err()
		}

		backoff *= 2
		if backoff > w.maxBackoff() {
			backoff = w.maxBackoff()
		}
	}

	if err := w.Sales.MarkFailed(ctx, saleID); err != nil {
		w.Logger.Errorf("sale %s: mark failed: %v", saleNumber, err)
	}

	return nil
}

func (w *Worker) markSynced(ctx context.Context, saleID, saleNumber, ledgerEntryID string) error {
	if err := w.Sales.MarkSynced(ctx, saleID, ledgerEntryID); err != nil {
		w.Logger.Errorf("sale %s: mark synced: %v", saleNumber, err)
		return err
	}

	w.Logger.Infof("sale %s: synced as ledger transaction %s", saleNumber, ledgerEntryID)

	return nil
}

// sleep waits for d or ctx cancellation, returning false on cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
