package fundrequest

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category buckets line items for aggregation reporting. It carries no other
// semantic weight.
type Category string

const (
	CategoryFonctionnement Category = "fonctionnement"
	CategoryInvestissement Category = "investissement"
	CategorySQI            Category = "sqi"
	CategoryEBI            Category = "ebi"
)

// Categories lists all valid categories in reporting order.
var Categories = []Category{
	CategoryFonctionnement,
	CategoryInvestissement,
	CategorySQI,
	CategoryEBI,
}

func (c Category) IsValid() bool {
	switch c {
	case CategoryFonctionnement, CategoryInvestissement, CategorySQI, CategoryEBI:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentSuppliersDirectDeposit PaymentMethod = "fournisseurs_dd"
	PaymentSuppliersCheque        PaymentMethod = "fournisseurs_cheque"
	PaymentPayrollDirectDeposit   PaymentMethod = "salaires_dd"
	PaymentPayrollCheque          PaymentMethod = "salaires_cheque"
)

func (p PaymentMethod) IsValid() bool {
	switch p {
	case PaymentSuppliersDirectDeposit, PaymentSuppliersCheque, PaymentPayrollDirectDeposit, PaymentPayrollCheque:
		return true
	}
	return false
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusVersed   Status = "versed"
	StatusRejected Status = "rejected"
)

const (
	// MaxDaysPerRequest limits how many dated buckets a single request may hold.
	MaxDaysPerRequest = 10
	// MaxItemsPerDay limits how many lines a single day may hold.
	MaxItemsPerDay = 20
	// MaxDaysAhead is the furthest a requested date may lie in the future.
	MaxDaysAhead = 30
)

var (
	ErrInvalidDate          = errors.New("invalid date")
	ErrCapacityExceeded     = errors.New("capacity exceeded")
	ErrDayNotFound          = errors.New("day not found")
	ErrItemNotFound         = errors.New("item not found")
	ErrEmptyRequest         = errors.New("request has no line items")
	ErrInvalidCategory      = errors.New("invalid category")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrIllegalTransition    = errors.New("illegal status transition")
	ErrNotFound             = errors.New("fund request not found")
)

// LineItem is one monetary entry within a day. Negative amounts represent
// corrections and are permitted.
type LineItem struct {
	ID            uuid.UUID
	Amount        decimal.Decimal
	Category      Category
	PaymentMethod PaymentMethod
	Description   string
	// Order is the stable position within its day, assigned at insertion.
	Order int
}

// RequestDay is one calendar date holding an ordered sequence of line items.
type RequestDay struct {
	ID    uuid.UUID
	Date  time.Time
	Items []LineItem
}

// FundRequest is a multi-day, multi-line disbursement request submitted by a
// CSS and reviewed by CGTSIM. Totals are never stored; they are recomputed on
// demand from the days (see totals.go).
type FundRequest struct {
	ID          uuid.UUID
	Reference   string
	CSSID       uuid.UUID
	CSSCode     string
	CSSName     string
	Description string
	Days        []RequestDay

	Status        Status
	DateRequested time.Time
	RequestedBy   uuid.UUID

	ReviewedBy   *uuid.UUID
	DateReviewed *time.Time
	ReviewNotes  string

	// DateVersed is set exactly once, on the approved -> versed transition.
	DateVersed *time.Time
}

// toDay truncates a timestamp to its calendar date in UTC. All date
// comparisons in this package are done at day granularity.
func toDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
