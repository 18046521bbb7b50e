// Package service implements the Ledger use cases: account creation,
// transaction posting, period lifecycle transitions, and report generation.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebooks/core/internal/ledger/domain"
	"github.com/corebooks/core/internal/platform/apperr"
	"github.com/corebooks/core/internal/platform/logging"
	"github.com/corebooks/core/internal/platform/money"
)

// Service wires the Ledger repositories into the posting engine and report
// generator.
type Service struct {
	Accounts     domain.AccountRepository
	Transactions domain.TransactionRepository
	Periods      domain.PeriodRepository
	Metadata     domain.MetadataRepository // optional; nil disables metadata
	Logger       logging.Logger
}

// CreateAccountInput describes a new chart-of-accounts entry.
type CreateAccountInput struct {
	Code string
	Name string
	Type domain.AccountType
}

// CreateAccount validates and persists a new account.
func (s *Service) CreateAccount(ctx context.Context, in CreateAccountInput) (*domain.Account, error) {
	if !in.Type.IsValid() {
		return nil, apperr.ValidationError{Code: "CB0013", Title: "Invalid Account Type", Message: "account type must be one of ASSET, LIABILITY, EQUITY, INCOME, EXPENSE"}
	}

	if in.Name == "" || in.Code == "" {
		return nil, apperr.ValidationError{Code: "CB0013", Title: "Invalid Account", Message: "account name and code are required"}
	}

	exists, err := s.Accounts.ExistsByNameOrCode(ctx, in.Name, in.Code)
	if err != nil {
		return nil, apperr.ValidateInternalError(err, "Account")
	}

	if exists {
		return nil, apperr.EntityConflictError{Code: "CB0011", Title: "Duplicate Account", Message: "an account with this name or code already exists"}
	}

	return s.Accounts.Create(ctx, &domain.Account{Code: in.Code, Name: in.Name, Type: in.Type})
}

// PostLineInput is one line of a PostTransaction request, addressing its
// account by exact name per the posting engine's resolution rule.
type PostLineInput struct {
	AccountName string
	Type        domain.LineType
	Amount      decimal.Decimal
}

// PostTransactionInput describes a journal entry to post.
type PostTransactionInput struct {
	Date        time.Time
	Description string
	Source      domain.TransactionSource
	Reference   string
	Lines       []PostLineInput
}

// PostTransaction runs the posting algorithm: validates shape, resolves
// every line's account, checks the debit/credit balance, confirms the
// covering period accepts postings, and persists the header and lines
// atomically. It re-reads and re-verifies the committed transaction before
// returning it, logging (never surfacing) a mismatch as an internal bug.
func (s *Service) PostTransaction(ctx context.Context, in PostTransactionInput) (*domain.Transaction, error) {
	if len(in.Lines) < 2 {
		return nil, apperr.ValidationError{Code: "CB0015", Title: "Too Few Lines", Message: "a transaction requires at least two lines"}
	}

	if in.Description == "" {
		return nil, apperr.ValidationError{Code: "CB0018", Title: "Empty Description", Message: "transaction description is required"}
	}

	if !in.Source.IsValid() {
		return nil, apperr.ValidationError{Code: "CB0018", Title: "Invalid Source", Message: "source must be one of pos, api, import, manual, web"}
	}

	occurredAt := in.Date
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	occurredAt = occurredAt.UTC()

	if in.Reference != "" {
		if existing, err := s.Transactions.FindBySourceAndReference(ctx, in.Source, in.Reference); err == nil && existing != nil {
			return nil, apperr.EntityConflictError{Code: "CB0022", Title: "Duplicate Transaction Reference", Message: "a transaction with this source and reference has already been posted"}
		} else if err != nil {
			if _, isNotFound := err.(apperr.EntityNotFoundError); !isNotFound {
				return nil, apperr.ValidateInternalError(err, "Transaction")
			}
		}
	}

	lines := make([]domain.TransactionLine, 0, len(in.Lines))

	for i, li := range in.Lines {
		if !li.Type.IsValid() {
			return nil, lineError(i, "CB0017", "invalid line type, must be debit or credit")
		}

		amount := money.Round2(li.Amount)
		if !money.IsPositive(amount) {
			return nil, lineError(i, "CB0016", "line amount must be greater than zero")
		}

		account, err := s.Accounts.FindByName(ctx, li.AccountName)
		if err != nil {
			return nil, lineError(i, "CB0012", fmt.Sprintf("account %q not found", li.AccountName))
		}

		if !account.Active {
			return nil, lineError(i, "CB0012", fmt.Sprintf("account %q is inactive", li.AccountName))
		}

		lines = append(lines, domain.TransactionLine{
			AccountID: account.ID,
			Type:      li.Type,
			Amount:    amount,
		})
	}

	debits, credits := (&domain.Transaction{Lines: lines}).TotalsByType()
	if !money.Equal(debits, credits) {
		return nil, apperr.ValidationError{Code: "CB0014", Title: "Unbalanced Transaction", Message: fmt.Sprintf("debits (%s) and credits (%s) must be equal", debits, credits)}
	}

	period, err := s.Periods.FindCovering(ctx, occurredAt)
	if err == nil && !period.AcceptsPostings() {
		return nil, apperr.UnprocessableOperationError{Code: "CB0019", Title: "Period Closed", Message: "the accounting period covering this date is not open"}
	} else if err != nil {
		if _, isNotFound := err.(apperr.EntityNotFoundError); !isNotFound {
			return nil, apperr.ValidateInternalError(err, "AccountingPeriod")
		}
	}

	tx := &domain.Transaction{
		Reference:   in.Reference,
		Source:      in.Source,
		Description: in.Description,
		OccurredAt:  occurredAt,
		Lines:       lines,
	}

	posted, err := s.Transactions.Create(ctx, tx)
	if err != nil {
		return nil, apperr.ValidateInternalError(err, "Transaction")
	}

	reread, err := s.Transactions.FindByID(ctx, posted.ID)
	if err == nil {
		rereadDebits, rereadCredits := reread.TotalsByType()
		if !money.Equal(rereadDebits, rereadCredits) && s.Logger != nil {
			s.Logger.Errorf("posted transaction %s failed post-commit balance re-verification: debits=%s credits=%s", reread.ID, rereadDebits, rereadCredits)
		}
	}

	return posted, nil
}

func lineError(index int, code, message string) error {
	return apperr.ValidationError{
		Code:    code,
		Title:   "Invalid Transaction Line",
		Message: fmt.Sprintf("line %d: %s", index, message),
		Fields:  map[string]string{"line": fmt.Sprintf("%d", index)},
	}
}

// CreatePeriodInput describes a new accounting period.
type CreatePeriodInput struct {
	Name       string
	StartDate  time.Time
	EndDate    time.Time
	FiscalYear int
}

// CreatePeriod validates non-overlap and persists a new OPEN period.
func (s *Service) CreatePeriod(ctx context.Context, in CreatePeriodInput) (*domain.AccountingPeriod, error) {
	if !in.EndDate.After(in.StartDate) {
		return nil, apperr.ValidationError{Code: "CB0020", Title: "Invalid Period", Message: "period end must be after period start"}
	}

	overlaps, err := s.Periods.OverlapsExisting(ctx, in.StartDate, in.EndDate)
	if err != nil {
		return nil, apperr.ValidateInternalError(err, "AccountingPeriod")
	}

	if overlaps {
		return nil, apperr.EntityConflictError{Code: "CB0020", Title: "Period Overlap", Message: "this date range overlaps an existing accounting period"}
	}

	return s.Periods.Create(ctx, &domain.AccountingPeriod{
		Name:      in.Name,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Status:    domain.PeriodOpen,
	})
}

// TransitionPeriod moves period id to next, rejecting illegal transitions
// per domain.PeriodStatus.CanTransitionTo.
func (s *Service) TransitionPeriod(ctx context.Context, id string, next domain.PeriodStatus) (*domain.AccountingPeriod, error) {
	p, err := s.Periods.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !p.Status.CanTransitionTo(next) {
		return nil, apperr.UnprocessableOperationError{
			Code:    "CB0021",
			Title:   "Invalid Period Transition",
			Message: fmt.Sprintf("cannot move a %s period to %s", p.Status, next),
		}
	}

	if err := s.Periods.UpdateStatus(ctx, id, next); err != nil {
		return nil, apperr.ValidateInternalError(err, "AccountingPeriod")
	}

	p.Status = next

	return p, nil
}
