package worker

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebooks/core/internal/platform/broker"
	"github.com/corebooks/core/internal/platform/idgen"
	"github.com/corebooks/core/internal/platform/logging"
	"github.com/corebooks/core/internal/pos/domain"
	"github.com/corebooks/core/internal/pos/ledgerclient"
)

type fakeSales struct {
	byID map[string]*domain.Sale
}

func newFakeSales() *fakeSales {
	return &fakeSales{byID: map[string]*domain.Sale{}}
}

func (f *fakeSales) seed(total float64) *domain.Sale {
	s := &domain.Sale{
		ID:         idgen.New(),
		SaleNumber: idgen.SaleNumber("01", time.Unix(0, 0).UTC()),
		Total:      decimal.NewFromFloat(total),
		Status:     domain.SyncPending,
	}
	f.byID[s.ID] = s

	return s
}

func (f *fakeSales) Create(_ context.Context, s *domain.Sale) (*domain.Sale, error) {
	f.byID[s.ID] = s
	return s, nil
}

func (f *fakeSales) FindByID(_ context.Context, id string) (*domain.Sale, error) {
	return f.byID[id], nil
}

func (f *fakeSales) FindBySaleNumber(_ context.Context, _ string) (*domain.Sale, error) {
	return nil, nil
}

func (f *fakeSales) List(_ context.Context, _ domain.SyncStatus, _, _ time.Time, _, _ int) ([]*domain.Sale, error) {
	return nil, nil
}

func (f *fakeSales) ListPendingOrFailed(_ context.Context) ([]*domain.Sale, error) {
	var out []*domain.Sale
	for _, s := range f.byID {
		if s.Status.CanRetry() {
			out = append(out, s)
		}
	}

	return out, nil
}

func (f *fakeSales) MarkSynced(_ context.Context, id, ledgerEntryID string) error {
	s := f.byID[id]
	s.Status = domain.SyncSynced
	s.LedgerEntryID = ledgerEntryID

	return nil
}

func (f *fakeSales) MarkFailed(_ context.Context, id string) error {
	f.byID[id].Status = domain.SyncFailed
	return nil
}

type fakeSettings struct{}

func (fakeSettings) Get(_ context.Context) (*domain.Settings, error) {
	return &domain.Settings{LedgerCashAccount: "Cash", LedgerRevenueAccount: "Sales Revenue"}, nil
}

func (fakeSettings) Update(_ context.Context, s *domain.Settings) (*domain.Settings, error) {
	return s, nil
}

type fakeLedger struct {
	byReference  map[string]string
	postErrs     []error
	postCalls    int
	findRefCalls int
	// findRefDelay, when set, makes byReference return empty for the first
	// N FindByReference calls, then resolve normally — simulating a
	// concurrent publisher that wins the race after this worker's initial
	// pre-check already missed.
	findRefDelay int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{byReference: map[string]string{}}
}

func (f *fakeLedger) PostTransaction(_ context.Context, _ string, in ledgerclient.PostTransactionRequest) (string, error) {
	f.postCalls++

	if len(f.postErrs) > 0 {
		err := f.postErrs[0]
		f.postErrs = f.postErrs[1:]
		if err != nil {
			return "", err
		}
	}

	id := idgen.New()
	f.byReference[in.Reference] = id

	return id, nil
}

func (f *fakeLedger) FindByReference(_ context.Context, _, _, reference string) (string, error) {
	f.findRefCalls++

	if f.findRefCalls <= f.findRefDelay {
		return "", nil
	}

	return f.byReference[reference], nil
}

type fakeBroker struct {
	published []broker.Message
}

func (f *fakeBroker) Publish(_ context.Context, msg broker.Message) error {
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeBroker) Consume(_ context.Context, _ string, _ broker.Handler) error { return nil }
func (f *fakeBroker) Close() error                                               { return nil }

func newTestWorker() (*Worker, *fakeSales, *fakeLedger) {
	sales := newFakeSales()
	ledger := newFakeLedger()

	w := &Worker{
		Sales:          sales,
		Settings:       fakeSettings{},
		Ledger:         ledger,
		Broker:         &fakeBroker{},
		Logger:         logging.NewNoop(),
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		MaxAttempts:    4,
	}

	return w, sales, ledger
}

func TestPublishSkipsPostWhenReferenceAlreadyExists(t *testing.T) {
	w, sales, ledger := newTestWorker()

	sale := sales.seed(50)
	ledger.byReference[sale.SaleNumber] = "already-posted-id"

	err := w.publish(context.Background(), sale.ID, sale.SaleNumber, "token")
	require.NoError(t, err)

	assert.Equal(t, 0, ledger.postCalls)
	assert.Equal(t, domain.SyncSynced, sales.byID[sale.ID].Status)
	assert.Equal(t, "already-posted-id", sales.byID[sale.ID].LedgerEntryID)
}

func TestPublishMarksSyncedOnSuccess(t *testing.T) {
	w, sales, ledger := newTestWorker()

	sale := sales.seed(75)

	err := w.publish(context.Background(), sale.ID, sale.SaleNumber, "token")
	require.NoError(t, err)

	assert.Equal(t, 1, ledger.postCalls)
	assert.Equal(t, domain.SyncSynced, sales.byID[sale.ID].Status)
	assert.NotEmpty(t, sales.byID[sale.ID].LedgerEntryID)
}

func TestPublishRetriesThenMarksFailedAfterExhaustingAttempts(t *testing.T) {
	w, sales, ledger := newTestWorker()

	sale := sales.seed(30)

	for i := 0; i < w.maxAttempts(); i++ {
		ledger.postErrs = append(ledger.postErrs, assertError{"ledger down"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := w.publish(ctx, sale.ID, sale.SaleNumber, "token")
	require.NoError(t, err)

	assert.Equal(t, w.maxAttempts(), ledger.postCalls)
	assert.Equal(t, domain.SyncFailed, sales.byID[sale.ID].Status)
}

func TestPublishRecoversFromConflictRace(t *testing.T) {
	w, sales, ledger := newTestWorker()

	sale := sales.seed(40)

	// The worker's own initial pre-check misses (findRefDelay skips it),
	// the post then comes back a conflict, and the immediate re-check
	// resolves to the concurrent publisher's transaction id.
	ledger.postErrs = []error{ledgerclient.ErrConflict}
	ledger.byReference[sale.SaleNumber] = "concurrent-winner-id"
	ledger.findRefDelay = 1

	err := w.publish(context.Background(), sale.ID, sale.SaleNumber, "token")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncSynced, sales.byID[sale.ID].Status)
	assert.Equal(t, "concurrent-winner-id", sales.byID[sale.ID].LedgerEntryID)
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }
