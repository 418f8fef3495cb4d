package advance

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

var (
	ErrAdvanceNotFound = errors.New("advance not found")
	ErrAdvanceClosed   = errors.New("advance is already closed")
)

// Advance is money fronted to a CSS against an approved fund request. It
// accrues simple daily interest until closed.
type Advance struct {
	ID        uuid.UUID
	Reference string
	CSSID     uuid.UUID
	CSSCode   string
	CSSName   string
	// RequestID points at the approval that opened this advance.
	RequestID *uuid.UUID
	Principal decimal.Decimal
	// AnnualRatePct is the yearly interest rate in percent, e.g. 4.500.
	AnnualRatePct  decimal.Decimal
	StartDate      time.Time
	EndDatePlanned *time.Time
	EndDateActual  *time.Time
	Status         Status
	// AccruedInterest is the running sum of recorded daily interest. It is
	// maintained by the accrual job, never recomputed from the principal.
	AccruedInterest decimal.Decimal
	LastAccrualDate *time.Time
	Notes           string
	CreatedAt       time.Time
}

var daysPerYear = decimal.NewFromInt(365)

// DailyInterest computes one day of simple interest on a principal:
// principal x (rate / 365) / 100, rounded to the cent.
func DailyInterest(principal, annualRatePct decimal.Decimal) decimal.Decimal {
	return principal.Mul(annualRatePct).Div(daysPerYear).Div(decimal.NewFromInt(100)).Round(2)
}
