package apperr

import "errors"

// Coded business errors across the four services. Handlers and services
// also write these codes inline, and some codes are shared by more than one
// failure reason. The numeric suffix has no meaning beyond stable ordering;
// clients are expected to match on the string code, not parse it.
var (
	ErrUsernameOrEmailTaken        = errors.New("CB0001")
	ErrInvalidCredentials          = errors.New("CB0002")
	ErrInactiveUser                = errors.New("CB0003")
	ErrInvalidToken                = errors.New("CB0004")
	ErrExpiredToken                = errors.New("CB0005")
	ErrWrongTokenType              = errors.New("CB0006")
	ErrRefreshSessionInactive      = errors.New("CB0007")
	ErrMissingPermission           = errors.New("CB0008")
	ErrRoleNotFound                = errors.New("CB0009")
	ErrPasswordTooLong             = errors.New("CB0010")
	ErrAccountNameOrCodeDuplicate  = errors.New("CB0011")
	ErrAccountInactiveOrMissing    = errors.New("CB0012")
	ErrInvalidAccountType          = errors.New("CB0013")
	ErrTransactionUnbalanced       = errors.New("CB0014")
	ErrTransactionTooFewLines      = errors.New("CB0015")
	ErrLineAmountNotPositive       = errors.New("CB0016")
	ErrInvalidLineType             = errors.New("CB0017")
	ErrEmptyDescription            = errors.New("CB0018")
	ErrPeriodClosedOrLocked        = errors.New("CB0019")
	ErrPeriodOverlap               = errors.New("CB0020")
	ErrPeriodInvalidTransition     = errors.New("CB0021")
	ErrDuplicateTransactionRef     = errors.New("CB0022")
	ErrProductNotFound             = errors.New("CB0023")
	ErrStockItemNotFound           = errors.New("CB0024")
	ErrSizeRequired                = errors.New("CB0025")
	ErrTenderedBelowTotal          = errors.New("CB0026")
	ErrSaleNotFound                = errors.New("CB0027")
	ErrSaleAlreadyVoided           = errors.New("CB0028")
	ErrRefundExceedsTotal          = errors.New("CB0029")
	ErrInvalidDateRange            = errors.New("CB0030")
	ErrAuthServiceUnavailable      = errors.New("CB0031")
	ErrInventoryServiceUnavailable = errors.New("CB0032")
	ErrLedgerServiceUnavailable    = errors.New("CB0033")
)
