package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebooks/core/internal/ledger/domain"
	"github.com/corebooks/core/internal/platform/apperr"
	"github.com/corebooks/core/internal/platform/idgen"
)

type fakeAccounts struct {
	byID   map[string]*domain.Account
	byName map[string]*domain.Account
	byCode map[string]*domain.Account
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		byID:   map[string]*domain.Account{},
		byName: map[string]*domain.Account{},
		byCode: map[string]*domain.Account{},
	}
}

func (f *fakeAccounts) seed(code, name string, typ domain.AccountType) *domain.Account {
	a := &domain.Account{ID: idgen.New(), Code: code, Name: name, Type: typ, Active: true, Balance: decimal.Zero}
	f.byID[a.ID] = a
	f.byName[a.Name] = a
	f.byCode[a.Code] = a

	return a
}

func (f *fakeAccounts) Create(_ context.Context, a *domain.Account) (*domain.Account, error) {
	if a.ID == "" {
		a.ID = idgen.New()
	}

	a.Active = true
	f.byID[a.ID] = a
	f.byName[a.Name] = a
	f.byCode[a.Code] = a

	return a, nil
}

func (f *fakeAccounts) FindByID(_ context.Context, id string) (*domain.Account, error) {
	if a, ok := f.byID[id]; ok {
		return a, nil
	}

	return nil, apperr.EntityNotFoundError{EntityType: "Account"}
}

func (f *fakeAccounts) FindByCode(_ context.Context, code string) (*domain.Account, error) {
	if a, ok := f.byCode[code]; ok {
		return a, nil
	}

	return nil, apperr.EntityNotFoundError{EntityType: "Account"}
}

func (f *fakeAccounts) FindByName(_ context.Context, name string) (*domain.Account, error) {
	if a, ok := f.byName[name]; ok {
		return a, nil
	}

	return nil, apperr.EntityNotFoundError{EntityType: "Account"}
}

func (f *fakeAccounts) ExistsByNameOrCode(_ context.Context, name, code string) (bool, error) {
	_, a := f.byName[name]
	_, b := f.byCode[code]

	return a || b, nil
}

func (f *fakeAccounts) List(_ context.Context, _, _ int) ([]*domain.Account, error) {
	var out []*domain.Account
	for _, a := range f.byID {
		out = append(out, a)
	}

	return out, nil
}

func (f *fakeAccounts) ListByIDs(_ context.Context, ids []string) ([]*domain.Account, error) {
	var out []*domain.Account
	for _, id := range ids {
		if a, ok := f.byID[id]; ok {
			out = append(out, a)
		}
	}

	return out, nil
}

func (f *fakeAccounts) ApplyBalanceDeltas(_ context.Context, deltas map[string]domain.BalanceDelta) error {
	for id, delta := range deltas {
		a, ok := f.byID[id]
		if !ok {
			return apperr.EntityNotFoundError{EntityType: "Account"}
		}

		a.ApplyLine(delta.LineType, delta.Amount)
	}

	return nil
}

type fakeTransactions struct {
	byID          map[string]*domain.Transaction
	bySourceRef   map[string]*domain.Transaction
	accounts      *fakeAccounts
}

func newFakeTransactions(accounts *fakeAccounts) *fakeTransactions {
	return &fakeTransactions{
		byID:        map[string]*domain.Transaction{},
		bySourceRef: map[string]*domain.Transaction{},
		accounts:    accounts,
	}
}

func (f *fakeTransactions) Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if tx.ID == "" {
		tx.ID = idgen.New()
	}

	tx.CreatedAt = time.Now().UTC()

	for i := range tx.Lines {
		if tx.Lines[i].ID == "" {
			tx.Lines[i].ID = idgen.New()
		}

		tx.Lines[i].TransactionID = tx.ID
	}

	deltas := map[string]domain.BalanceDelta{}

	for _, l := range tx.Lines {
		existing, ok := deltas[l.AccountID]
		if !ok {
			deltas[l.AccountID] = domain.BalanceDelta{LineType: l.Type, Amount: l.Amount}
			continue
		}

		if existing.LineType == l.Type {
			deltas[l.AccountID] = domain.BalanceDelta{LineType: existing.LineType, Amount: existing.Amount.Add(l.Amount)}
		} else {
			deltas[l.AccountID] = domain.BalanceDelta{LineType: existing.LineType, Amount: existing.Amount.Sub(l.Amount)}
		}
	}

	if err := f.accounts.ApplyBalanceDeltas(ctx, deltas); err != nil {
		return nil, err
	}

	f.byID[tx.ID] = tx

	if tx.Reference != "" {
		f.bySourceRef[string(tx.Source)+"|"+tx.Reference] = tx
	}

	return tx, nil
}

func (f *fakeTransactions) FindByID(_ context.Context, id string) (*domain.Transaction, error) {
	if tx, ok := f.byID[id]; ok {
		return tx, nil
	}

	return nil, apperr.EntityNotFoundError{EntityType: "Transaction"}
}

func (f *fakeTransactions) FindBySourceAndReference(_ context.Context, source domain.TransactionSource, reference string) (*domain.Transaction, error) {
	if tx, ok := f.bySourceRef[string(source)+"|"+reference]; ok {
		return tx, nil
	}

	return nil, apperr.EntityNotFoundError{EntityType: "Transaction"}
}

func (f *fakeTransactions) List(_ context.Context, accountID string, from, to time.Time, _, _ int) ([]*domain.Transaction, error) {
	var out []*domain.Transaction

	for _, tx := range f.byID {
		if !from.IsZero() && tx.OccurredAt.Before(from) {
			continue
		}

		if !to.IsZero() && tx.OccurredAt.After(to) {
			continue
		}

		for _, l := range tx.Lines {
			if l.AccountID == accountID {
				out = append(out, tx)
				break
			}
		}
	}

	return out, nil
}

type fakePeriods struct {
	byID map[string]*domain.AccountingPeriod
}

func newFakePeriods() *fakePeriods {
	return &fakePeriods{byID: map[string]*domain.AccountingPeriod{}}
}

func (f *fakePeriods) Create(_ context.Context, p *domain.AccountingPeriod) (*domain.AccountingPeriod, error) {
	if p.ID == "" {
		p.ID = idgen.New()
	}

	f.byID[p.ID] = p

	return p, nil
}

func (f *fakePeriods) FindByID(_ context.Context, id string) (*domain.AccountingPeriod, error) {
	if p, ok := f.byID[id]; ok {
		return p, nil
	}

	return nil, apperr.EntityNotFoundError{EntityType: "AccountingPeriod"}
}

func (f *fakePeriods) FindCovering(_ context.Context, at time.Time) (*domain.AccountingPeriod, error) {
	for _, p := range f.byID {
		if p.Covers(at) {
			return p, nil
		}
	}

	return nil, apperr.EntityNotFoundError{EntityType: "AccountingPeriod"}
}

func (f *fakePeriods) List(_ context.Context) ([]*domain.AccountingPeriod, error) {
	var out []*domain.AccountingPeriod
	for _, p := range f.byID {
		out = append(out, p)
	}

	return out, nil
}

func (f *fakePeriods) UpdateStatus(_ context.Context, id string, status domain.PeriodStatus) error {
	p, ok := f.byID[id]
	if !ok {
		return apperr.EntityNotFoundError{EntityType: "AccountingPeriod"}
	}

	p.Status = status

	return nil
}

func (f *fakePeriods) OverlapsExisting(_ context.Context, start, end time.Time) (bool, error) {
	for _, p := range f.byID {
		if start.Before(p.EndDate) && end.After(p.StartDate) {
			return true, nil
		}
	}

	return false, nil
}

func newTestService(t *testing.T) (*Service, *fakeAccounts) {
	t.Helper()

	accounts := newFakeAccounts()
	accounts.seed("1000", "Cash", domain.AccountTypeAsset)
	accounts.seed("4000", "Sales Revenue", domain.AccountTypeIncome)

	return &Service{
		Accounts:     accounts,
		Transactions: newFakeTransactions(accounts),
		Periods:      newFakePeriods(),
	}, accounts
}

func TestPostTransactionBalances(t *testing.T) {
	svc, accounts := newTestService(t)
	ctx := context.Background()

	tx, err := svc.PostTransaction(ctx, PostTransactionInput{
		Description: "cash sale",
		Source:      domain.SourcePOS,
		Date:        time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
		Lines: []PostLineInput{
			{AccountName: "Cash", Type: domain.LineTypeDebit, Amount: decimal.NewFromFloat(100)},
			{AccountName: "Sales Revenue", Type: domain.LineTypeCredit, Amount: decimal.NewFromFloat(100)},
		},
	})
	require.NoError(t, err)
	require.Len(t, tx.Lines, 2)

	cash, err := accounts.FindByName(ctx, "Cash")
	require.NoError(t, err)
	assert.True(t, cash.Balance.Equal(decimal.NewFromFloat(100)))

	revenue, err := accounts.FindByName(ctx, "Sales Revenue")
	require.NoError(t, err)
	assert.True(t, revenue.Balance.Equal(decimal.NewFromFloat(100)))
}

func TestPostTransactionRejectsUnbalanced(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.PostTransaction(context.Background(), PostTransactionInput{
		Description: "broken",
		Source:      domain.SourceAPI,
		Lines: []PostLineInput{
			{AccountName: "Cash", Type: domain.LineTypeDebit, Amount: decimal.NewFromFloat(100)},
			{AccountName: "Sales Revenue", Type: domain.LineTypeCredit, Amount: decimal.NewFromFloat(90)},
		},
	})

	require.Error(t, err)
	assert.IsType(t, apperr.ValidationError{}, err)
}

func TestPostTransactionRejectsTooFewLines(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.PostTransaction(context.Background(), PostTransactionInput{
		Description: "single line",
		Source:      domain.SourceAPI,
		Lines:       []PostLineInput{{AccountName: "Cash", Type: domain.LineTypeDebit, Amount: decimal.NewFromFloat(1)}},
	})

	require.Error(t, err)
}

func TestPostTransactionRejectsUnknownAccount(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.PostTransaction(context.Background(), PostTransactionInput{
		Description: "ghost account",
		Source:      domain.SourceAPI,
		Lines: []PostLineInput{
			{AccountName: "Cash", Type: domain.LineTypeDebit, Amount: decimal.NewFromFloat(10)},
			{AccountName: "Does Not Exist", Type: domain.LineTypeCredit, Amount: decimal.NewFromFloat(10)},
		},
	})

	require.Error(t, err)
	assert.IsType(t, apperr.ValidationError{}, err)
}

func TestPostTransactionRejectsClosedPeriod(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	period := &domain.AccountingPeriod{
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		Status:    domain.PeriodClosed,
	}
	_, err := svc.Periods.Create(ctx, period)
	require.NoError(t, err)

	_, err = svc.PostTransaction(ctx, PostTransactionInput{
		Description: "late post",
		Source:      domain.SourceAPI,
		Date:        time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Lines: []PostLineInput{
			{AccountName: "Cash", Type: domain.LineTypeDebit, Amount: decimal.NewFromFloat(10)},
			{AccountName: "Sales Revenue", Type: domain.LineTypeCredit, Amount: decimal.NewFromFloat(10)},
		},
	})

	require.Error(t, err)
	assert.IsType(t, apperr.UnprocessableOperationError{}, err)
}

func TestPostTransactionRejectsDuplicateReference(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	in := PostTransactionInput{
		Description: "idempotent retry",
		Source:      domain.SourcePOS,
		Reference:   "sale-123",
		Lines: []PostLineInput{
			{AccountName: "Cash", Type: domain.LineTypeDebit, Amount: decimal.NewFromFloat(50)},
			{AccountName: "Sales Revenue", Type: domain.LineTypeCredit, Amount: decimal.NewFromFloat(50)},
		},
	}

	_, err := svc.PostTransaction(ctx, in)
	require.NoError(t, err)

	_, err = svc.PostTransaction(ctx, in)
	require.Error(t, err)
	assert.IsType(t, apperr.EntityConflictError{}, err)
}

func TestTransitionPeriodRejectsReopeningLocked(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	period, err := svc.Periods.Create(ctx, &domain.AccountingPeriod{
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		Status:    domain.PeriodLocked,
	})
	require.NoError(t, err)

	_, err = svc.TransitionPeriod(ctx, period.ID, domain.PeriodOpen)
	require.Error(t, err)
	assert.IsType(t, apperr.UnprocessableOperationError{}, err)
}
