package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebooks/core/internal/ledger/domain"
	"github.com/corebooks/core/internal/platform/apperr"
)

// AccountBalance is one line of a trial balance or balance sheet.
type AccountBalance struct {
	AccountID string          `json:"account_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Type      domain.AccountType `json:"type"`
	Debits    decimal.Decimal `json:"debits"`
	Credits   decimal.Decimal `json:"credits"`
	Balance   decimal.Decimal `json:"balance"`
}

// TrialBalance is the as-of-date report per-account debit/credit totals.
type TrialBalance struct {
	AsOf         time.Time        `json:"as_of"`
	Accounts     []AccountBalance `json:"accounts"`
	TotalDebits  decimal.Decimal  `json:"total_debits"`
	TotalCredits decimal.Decimal  `json:"total_credits"`
	Balanced     bool             `json:"balanced"`
}

// accountTotals walks every account's transactions dated within [from, to],
// returning per-account debit/credit sums. This is the shared aggregation step behind
// TrialBalance, BalanceSheet, and IncomeStatement.
func (s *Service) accountTotals(ctx context.Context, from, to time.Time) (map[string]*AccountBalance, error) {
	accounts, err := s.Accounts.List(ctx, 100000, 0)
	if err != nil {
		return nil, apperr.ValidateInternalError(err, "Account")
	}

	totals := make(map[string]*AccountBalance, len(accounts))
	for _, a := range accounts {
		totals[a.ID] = &AccountBalance{
			AccountID: a.ID,
			Code:      a.Code,
			Name:      a.Name,
			Type:      a.Type,
			Debits:    decimal.Zero,
			Credits:   decimal.Zero,
		}
	}

	for _, a := range accounts {
		txs, err := s.Transactions.List(ctx, a.ID, from, to, 1000000, 0)
		if err != nil {
			return nil, apperr.ValidateInternalError(err, "Transaction")
		}

		bal := totals[a.ID]

		for _, tx := range txs {
			for _, l := range tx.Lines {
				if l.AccountID != a.ID {
					continue
				}

				if l.Type == domain.LineTypeDebit {
					bal.Debits = bal.Debits.Add(l.Amount)
				} else {
					bal.Credits = bal.Credits.Add(l.Amount)
				}
			}
		}

		if a.Type.NormalBalanceIsDebit() {
			bal.Balance = bal.Debits.Sub(bal.Credits)
		} else {
			bal.Balance = bal.Credits.Sub(bal.Debits)
		}
	}

	return totals, nil
}

// TrialBalance reports per-account debit/credit totals for every
// transaction dated on or before asOf.
func (s *Service) TrialBalance(ctx context.Context, asOf time.Time) (*TrialBalance, error) {
	totals, err := s.accountTotals(ctx, time.Time{}, asOf)
	if err != nil {
		return nil, err
	}

	report := &TrialBalance{AsOf: asOf, TotalDebits: decimal.Zero, TotalCredits: decimal.Zero}

	for _, bal := range totals {
		report.Accounts = append(report.Accounts, *bal)
		report.TotalDebits = report.TotalDebits.Add(bal.Debits)
		report.TotalCredits = report.TotalCredits.Add(bal.Credits)
	}

	sort.Slice(report.Accounts, func(i, j int) bool { return report.Accounts[i].Code < report.Accounts[j].Code })

	report.Balanced = report.TotalDebits.Sub(report.TotalCredits).Abs().LessThanOrEqual(decimal.NewFromFloat(0.005))

	return report, nil
}

// BalanceSheet is the as-of-date report grouping accounts into assets,
// liabilities, and equity, with retained earnings folded into equity.
type BalanceSheet struct {
	AsOf             time.Time        `json:"as_of"`
	Assets           []AccountBalance `json:"assets"`
	Liabilities      []AccountBalance `json:"liabilities"`
	Equity           []AccountBalance `json:"equity"`
	RetainedEarnings decimal.Decimal  `json:"retained_earnings"`
	TotalAssets      decimal.Decimal  `json:"total_assets"`
	TotalLiabilities decimal.Decimal  `json:"total_liabilities"`
	TotalEquity      decimal.Decimal  `json:"total_equity"`
	Balanced         bool             `json:"balanced"`
}

// BalanceSheet reports assets/liabilities/equity as of asOf, deriving
// retained earnings as income minus expense up to that date.
func (s *Service) BalanceSheet(ctx context.Context, asOf time.Time) (*BalanceSheet, error) {
	totals, err := s.accountTotals(ctx, time.Time{}, asOf)
	if err != nil {
		return nil, err
	}

	sheet := &BalanceSheet{
		AsOf:             asOf,
		RetainedEarnings: decimal.Zero,
		TotalAssets:      decimal.Zero,
		TotalLiabilities: decimal.Zero,
		TotalEquity:      decimal.Zero,
	}

	for _, bal := range totals {
		switch bal.Type {
		case domain.AccountTypeAsset:
			sheet.Assets = append(sheet.Assets, *bal)
			sheet.TotalAssets = sheet.TotalAssets.Add(bal.Balance)
		case domain.AccountTypeLiability:
			sheet.Liabilities = append(sheet.Liabilities, *bal)
			sheet.TotalLiabilities = sheet.TotalLiabilities.Add(bal.Balance)
		case domain.AccountTypeEquity:
			sheet.Equity = append(sheet.Equity, *bal)
			sheet.TotalEquity = sheet.TotalEquity.Add(bal.Balance)
		case domain.AccountTypeIncome:
			sheet.RetainedEarnings = sheet.RetainedEarnings.Add(bal.Balance)
		case domain.AccountTypeExpense:
			sheet.RetainedEarnings = sheet.RetainedEarnings.Sub(bal.Balance)
		}
	}

	sheet.TotalEquity = sheet.TotalEquity.Add(sheet.RetainedEarnings)

	for _, list := range [][]AccountBalance{sheet.Assets, sheet.Liabilities, sheet.Equity} {
		sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	}

	sheet.Balanced = sheet.TotalAssets.Sub(sheet.TotalLiabilities.Add(sheet.TotalEquity)).Abs().LessThanOrEqual(decimal.NewFromFloat(0.005))

	return sheet, nil
}

// IncomeStatement is the range report of income versus expense.
type IncomeStatement struct {
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
	Income     decimal.Decimal `json:"income"`
	Expense    decimal.Decimal `json:"expense"`
	NetIncome  decimal.Decimal `json:"net_income"`
}

// IncomeStatement sums income and expense account activity over [from, to].
func (s *Service) IncomeStatement(ctx context.Context, from, to time.Time) (*IncomeStatement, error) {
	totals, err := s.accountTotals(ctx, from, to)
	if err != nil {
		return nil, err
	}

	stmt := &IncomeStatement{From: from, To: to, Income: decimal.Zero, Expense: decimal.Zero}

	for _, bal := range totals {
		switch bal.Type {
		case domain.AccountTypeIncome:
			stmt.Income = stmt.Income.Add(bal.Balance)
		case domain.AccountTypeExpense:
			stmt.Expense = stmt.Expense.Add(bal.Balance)
		}
	}

	stmt.NetIncome = stmt.Income.Sub(stmt.Expense)

	return stmt, nil
}

// LedgerEntry is one line of a general ledger report, carrying the running
// balance after this line is applied.
type LedgerEntry struct {
	TransactionID string          `json:"transaction_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Description   string          `json:"description"`
	Type          domain.LineType `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	RunningBalance decimal.Decimal `json:"running_balance"`
}

// GeneralLedger walks accountID's lines in date order over [from, to],
// applying each line's sign per the account's natural balance to compute a
// running balance.
func (s *Service) GeneralLedger(ctx context.Context, accountID string, from, to time.Time) ([]LedgerEntry, error) {
	account, err := s.Accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	txs, err := s.Transactions.List(ctx, accountID, from, to, 1000000, 0)
	if err != nil {
		return nil, apperr.ValidateInternalError(err, "Transaction")
	}

	sort.Slice(txs, func(i, j int) bool { return txs[i].OccurredAt.Before(txs[j].OccurredAt) })

	running := decimal.Zero

	var entries []LedgerEntry

	for _, tx := range txs {
		for _, l := range tx.Lines {
			if l.AccountID != accountID {
				continue
			}

			sign := decimal.NewFromInt(1)
			if (l.Type == domain.LineTypeDebit) != account.Type.NormalBalanceIsDebit() {
				sign = decimal.NewFromInt(-1)
			}

			running = running.Add(l.Amount.Mul(sign))

			entries = append(entries, LedgerEntry{
				TransactionID:  tx.ID,
				OccurredAt:     tx.OccurredAt,
				Description:    tx.Description,
				Type:           l.Type,
				Amount:         l.Amount,
				RunningBalance: running,
			})
		}
	}

	return entries, nil
}

// CashMovement is one inflow or outflow line of a cash-flow statement.
type CashMovement struct {
	TransactionID string          `json:"transaction_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Description   string          `json:"description"`
	Direction     string          `json:"direction"` // "inflow" or "outflow"
	Amount        decimal.Decimal `json:"amount"`
}

// CashFlowStatement walks lines against accounts whose name contains
// "Cash" over [from, to]: a debit to a cash account is an inflow, a credit
// an outflow.
func (s *Service) CashFlowStatement(ctx context.Context, from, to time.Time) ([]CashMovement, decimal.Decimal, error) {
	accounts, err := s.Accounts.List(ctx, 100000, 0)
	if err != nil {
		return nil, decimal.Zero, apperr.ValidateInternalError(err, "Account")
	}

	var movements []CashMovement

	net := decimal.Zero

	for _, a := range accounts {
		if !strings.Contains(a.Name, "Cash") {
			continue
		}

		txs, err := s.Transactions.List(ctx, a.ID, from, to, 1000000, 0)
		if err != nil {
			return nil, decimal.Zero, apperr.ValidateInternalError(err, "Transaction")
		}

		for _, tx := range txs {
			for _, l := range tx.Lines {
				if l.AccountID != a.ID {
					continue
				}

				direction := "outflow"
				signed := l.Amount.Neg()

				if l.Type == domain.LineTypeDebit {
					direction = "inflow"
					signed = l.Amount
				}

				net = net.Add(signed)

				movements = append(movements, CashMovement{
					TransactionID: tx.ID,
					OccurredAt:    tx.OccurredAt,
					Description:   tx.Description,
					Direction:     direction,
					Amount:        l.Amount,
				})
			}
		}
	}

	sort.Slice(movements, func(i, j int) bool { return movements[i].OccurredAt.Before(movements[j].OccurredAt) })

	return movements, net, nil
}

// Dashboard bundles the trial balance's totals, the current period's
// status, and account-type subtotals into a single aggregate response. It
// introduces no computation beyond what TrialBalance and BalanceSheet
// already derive.
type Dashboard struct {
	AsOf              time.Time                         `json:"as_of"`
	TotalDebits       decimal.Decimal                    `json:"total_debits"`
	TotalCredits      decimal.Decimal                    `json:"total_credits"`
	Balanced          bool                               `json:"balanced"`
	CurrentPeriod     *domain.AccountingPeriod           `json:"current_period,omitempty"`
	SubtotalsByType   map[domain.AccountType]decimal.Decimal `json:"subtotals_by_type"`
}

// Dashboard composes a single-call snapshot for an operator landing page.
func (s *Service) Dashboard(ctx context.Context, asOf time.Time) (*Dashboard, error) {
	tb, err := s.TrialBalance(ctx, asOf)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		AsOf:            asOf,
		TotalDebits:     tb.TotalDebits,
		TotalCredits:    tb.TotalCredits,
		Balanced:        tb.Balanced,
		SubtotalsByType: make(map[domain.AccountType]decimal.Decimal),
	}

	for _, bal := range tb.Accounts {
		d.SubtotalsByType[bal.Type] = d.SubtotalsByType[bal.Type].Add(bal.Balance)
	}

	if period, err := s.Periods.FindCovering(ctx, asOf); err == nil {
		d.CurrentPeriod = period
	}

	return d, nil
}
