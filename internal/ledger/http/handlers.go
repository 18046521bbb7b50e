// Package http is Ledger's Fiber handler/router layer.
package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/corebooks/core/internal/ledger/domain"
	"github.com/corebooks/core/internal/ledger/service"
	"github.com/corebooks/core/internal/platform/apperr"
	"github.com/corebooks/core/internal/platform/httpx"
)

// Handlers bundles Ledger's HTTP handlers over a Service.
type Handlers struct {
	Service *service.Service
}

type createAccountRequest struct {
	Code string `json:"code" validate:"required"`
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required"`
}

// CreateAccount handles POST /api/v1/accounts.
func (h *Handlers) CreateAccount(p any, c *fiber.Ctx) error {
	req := p.(*createAccountRequest)

	a, err := h.Service.CreateAccount(c.UserContext(), service.CreateAccountInput{
		Code: req.Code,
		Name: req.Name,
		Type: domain.AccountType(req.Type),
	})
	if err != nil {
		return httpx.WithError(c, err)
	}

	return httpx.Created(c, a)
}

// ListAccounts handles GET /api/v1/accounts.
func (h *Handlers) ListAccounts(c *fiber.Ctx) error {
	page := httpx.ParsePagination(c)

	accounts, err := h.Service.Accounts.List(c.UserContext(), page.Limit, page.Offset())
	if err != nil {
		return httpx.WithError(c, apperr.ValidateInternalError(err, "Account"))
	}

	return httpx.OK(c, fiber.Map{"accounts": accounts, "page": page.Page, "limit": page.Limit})
}

type postLineRequest struct {
	AccountName string `json:"account_name" validate:"required"`
	Type        string `json:"type" validate:"required"`
	Amount      string `json:"amount" validate:"required"`
}

type postTransactionRequest struct {
	Date        time.Time                `json:"date"`
	Description string                   `json:"description" validate:"required"`
	Source      domain.TransactionSource `json:"source" validate:"required"`
	Reference   string                   `json:"reference"`
	Lines       []postLineRequest        `json:"lines" validate:"required,min=2,dive"`
}

// PostTransaction handles POST /api/v1/transactions.
func (h *Handlers) PostTransaction(p any, c *fiber.Ctx) error {
	req := p.(*postTransactionRequest)

	lines := make([]service.PostLineInput, 0, len(req.Lines))

	for _, l := range req.Lines {
		amount, err := decimal.NewFromString(l.Amount)
		if err != nil {
			return httpx.BadRequest(c, "CB0016", "Invalid Amount", "line amount must be a decimal string", nil)
		}

		lines = append(lines, service.PostLineInput{
			AccountName: l.AccountName,
			Type:        domain.LineType(strings.ToUpper(l.Type)),
			Amount:      amount,
		})
	}

	tx, err := h.Service.PostTransaction(c.UserContext(), service.PostTransactionInput{
		Date:        req.Date,
		Description: req.Description,
		Source:      req.Source,
		Reference:   req.Reference,
		Lines:       lines,
	})
	if err != nil {
		return httpx.WithError(c, err)
	}

	return httpx.Created(c, tx)
}

// ListTransactions handles GET /api/v1/transactions.
func (h *Handlers) ListTransactions(c *fiber.Ctx) error {
	page := httpx.ParsePagination(c)
	accountID := c.Query("account_id")
	from, to := dateRange(c)

	txs, err := h.Service.Transactions.List(c.UserContext(), accountID, from, to, page.Limit, page.Offset())
	if err != nil {
		return httpx.WithError(c, apperr.ValidateInternalError(err, "Transaction"))
	}

	return httpx.OK(c, fiber.Map{"transactions": txs, "page": page.Page, "limit": page.Limit})
}

// GetTransaction handles GET /api/v1/transactions/:id.
func (h *Handlers) GetTransaction(c *fiber.Ctx) error {
	id, err := httpx.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	tx, err := h.Service.Transactions.FindByID(c.UserContext(), id)
	if err != nil {
		return httpx.WithError(c, err)
	}

	return httpx.OK(c, tx)
}

// FindTransactionByReference handles GET
// /api/v1/transactions/by-reference?source=&reference=, the exactly-once
// pre-check callers use before posting.
func (h *Handlers) FindTransactionByReference(c *fiber.Ctx) error {
	source := domain.TransactionSource(c.Query("source"))
	reference := c.Query("reference")

	if reference == "" {
		return httpx.BadRequest(c, "CB0022", "Missing Reference", "reference is required", nil)
	}

	tx, err := h.Service.Transactions.FindBySourceAndReference(c.UserContext(), source, reference)
	if err != nil {
		return httpx.WithError(c, err)
	}

	return httpx.OK(c, tx)
}

func dateRange(c *fiber.Ctx) (time.Time, time.Time) {
	from := parseDateOrZero(c.Query("date_from"))
	to := parseDateOrZero(c.Query("date_to"))

	if to.IsZero() {
		to = time.Now().UTC()
	}

	return from, to
}

func parseDateOrZero(s string) time.Time {
	if s == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}

	return t
}

// GetReport handles GET /api/v1/reports/:kind.
func (h *Handlers) GetReport(c *fiber.Ctx) error {
	kind := c.Params("kind")
	ctx := c.UserContext()
	from, to := dateRange(c)
	asOf := to

	switch kind {
	case "trial-balance":
		report, err := h.Service.TrialBalance(ctx, asOf)
		if err != nil {
			return httpx.WithError(c, err)
		}

		return httpx.OK(c, report)
	case "balance-sheet":
		report, err := h.Service.BalanceSheet(ctx, asOf)
		if err != nil {
			return httpx.WithError(c, err)
		}

		return httpx.OK(c, report)
	case "income-statement":
		report, err := h.Service.IncomeStatement(ctx, from, to)
		if err != nil {
			return httpx.WithError(c, err)
		}

		return httpx.OK(c, report)
	case "general-ledger":
		accountID := c.Query("account_id")
		if accountID == "" {
			return httpx.BadRequest(c, "CB0030", "Missing Account", "general-ledger requires account_id", nil)
		}

		entries, err := h.Service.GeneralLedger(ctx, accountID, from, to)
		if err != nil {
			return httpx.WithError(c, err)
		}

		return httpx.OK(c, fiber.Map{"account_id": accountID, "entries": entries})
	case "cash-flow":
		movements, net, err := h.Service.CashFlowStatement(ctx, from, to)
		if err != nil {
			return httpx.WithError(c, err)
		}

		return httpx.OK(c, fiber.Map{"movements": movements, "net": net})
	case "dashboard":
		report, err := h.Service.Dashboard(ctx, asOf)
		if err != nil {
			return httpx.WithError(c, err)
		}

		return httpx.OK(c, report)
	default:
		return httpx.BadRequest(c, "CB0030", "Unknown Report", "unknown report kind: "+kind, nil)
	}
}

type createPeriodRequest struct {
	Name       string    `json:"name" validate:"required"`
	StartDate  time.Time `json:"start_date" validate:"required"`
	EndDate    time.Time `json:"end_date" validate:"required"`
	FiscalYear int       `json:"fiscal_year"`
}

// CreatePeriod handles POST /api/v1/periods.
func (h *Handlers) CreatePeriod(p any, c *fiber.Ctx) error {
	req := p.(*createPeriodRequest)

	period, err := h.Service.CreatePeriod(c.UserContext(), service.CreatePeriodInput{
		Name:       req.Name,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		FiscalYear: req.FiscalYear,
	})
	if err != nil {
		return httpx.WithError(c, err)
	}

	return httpx.Created(c, period)
}

func (h *Handlers) transitionPeriod(c *fiber.Ctx, next domain.PeriodStatus) error {
	id, err := httpx.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	period, err := h.Service.TransitionPeriod(c.UserContext(), id, next)
	if err != nil {
		return httpx.WithError(c, err)
	}

	return httpx.OK(c, period)
}

// ClosePeriod handles POST /api/v1/periods/:id/close.
func (h *Handlers) ClosePeriod(c *fiber.Ctx) error { return h.transitionPeriod(c, domain.PeriodClosed) }

// LockPeriod handles POST /api/v1/periods/:id/lock.
func (h *Handlers) LockPeriod(c *fiber.Ctx) error { return h.transitionPeriod(c, domain.PeriodLocked) }

// ReopenPeriod handles POST /api/v1/periods/:id/reopen.
func (h *Handlers) ReopenPeriod(c *fiber.Ctx) error { return h.transitionPeriod(c, domain.PeriodOpen) }
