package event_bus

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FundRequestApproved is published when a reviewer approves a fund request.
// The advance package listens to open an advance and record the matching
// ledger transaction.
type FundRequestApproved struct {
	RequestID  uuid.UUID
	Reference  string
	CSSID      uuid.UUID
	Total      decimal.Decimal
	ApprovedBy uuid.UUID
	// FirstDayDate is the earliest requested date, used as the advance start.
	FirstDayDate time.Time
}

// FundRequestVersed is published when an approved request is marked as paid
// out.
type FundRequestVersed struct {
	RequestID  uuid.UUID
	Reference  string
	CSSID      uuid.UUID
	DateVersed time.Time
}
