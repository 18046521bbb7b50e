package domain

import "time"

// PeriodStatus is one state in the accounting period lifecycle: OPEN <->
// CLOSED, and OPEN or CLOSED -> LOCKED (terminal).
type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "OPEN"
	PeriodClosed PeriodStatus = "CLOSED"
	PeriodLocked PeriodStatus = "LOCKED"
)

// CanTransitionTo reports whether moving from s to next is a legal period
// transition.
func (s PeriodStatus) CanTransitionTo(next PeriodStatus) bool {
	switch s {
	case PeriodOpen:
		return next == PeriodClosed || next == PeriodLocked
	case PeriodClosed:
		return next == PeriodOpen || next == PeriodLocked
	case PeriodLocked:
		return false
	default:
		return false
	}
}

// AccountingPeriod is a named date range that transactions post into.
// Postings are rejected once the covering period is CLOSED or LOCKED.
type AccountingPeriod struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	StartDate time.Time    `json:"start_date"`
	EndDate   time.Time    `json:"end_date"`
	Status    PeriodStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Covers reports whether at falls within [StartDate, EndDate].
func (p AccountingPeriod) Covers(at time.Time) bool {
	return !at.Before(p.StartDate) && !at.After(p.EndDate)
}

// AcceptsPostings reports whether transactions may post into this period.
func (p AccountingPeriod) AcceptsPostings() bool {
	return p.Status == PeriodOpen
}
