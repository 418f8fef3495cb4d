package fundrequest

import (
	"fmt"
	"time"

	"github.com/cgtsim/cgtsim/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Draft is an in-progress fund request owned by a single authoring session.
// All composition operations validate incrementally and leave the draft
// untouched when they fail. A draft becomes a FundRequest only through
// Service.Submit.
type Draft struct {
	clock       utils.Clock
	description string
	days        []RequestDay
}

func NewDraft(clock utils.Clock) *Draft {
	return &Draft{clock: clock}
}

func (d *Draft) SetDescription(description string) {
	d.description = description
}

// Days returns a deep copy of the current day buckets, so callers cannot
// mutate the draft behind its back.
func (d *Draft) Days() []RequestDay {
	days := make([]RequestDay, len(d.days))
	for i, day := range d.days {
		days[i] = day
		days[i].Items = append([]LineItem(nil), day.Items...)
	}
	return days
}

// AddDay appends a new empty day bucket. The date must lie strictly after
// today and no more than MaxDaysAhead days in the future, evaluated against
// the draft's clock at the moment of the call.
func (d *Draft) AddDay(date time.Time) (RequestDay, error) {
	if len(d.days) >= MaxDaysPerRequest {
		return RequestDay{}, fmt.Errorf("%w: a request can hold at most %d days", ErrCapacityExceeded, MaxDaysPerRequest)
	}
	if err := d.validateDate(date); err != nil {
		return RequestDay{}, err
	}
	day := RequestDay{ID: uuid.New(), Date: toDay(date)}
	d.days = append(d.days, day)
	return day, nil
}

// RemoveDay removes the bucket with the given id. Removing an unknown day is
// a no-op.
func (d *Draft) RemoveDay(dayID uuid.UUID) {
	for i, day := range d.days {
		if day.ID == dayID {
			d.days = append(d.days[:i], d.days[i+1:]...)
			return
		}
	}
}

// UpdateDayDate re-validates the date window for an existing day. Duplicate
// dates across buckets are permitted, so no cross-day check happens here.
func (d *Draft) UpdateDayDate(dayID uuid.UUID, newDate time.Time) error {
	idx := d.findDay(dayID)
	if idx == -1 {
		return fmt.Errorf("%w: %s", ErrDayNotFound, dayID)
	}
	if err := d.validateDate(newDate); err != nil {
		return err
	}
	d.days[idx].Date = toDay(newDate)
	return nil
}

// AddItem appends a line to a day, assigning its order from the current item
// count.
func (d *Draft) AddItem(dayID uuid.UUID, amount decimal.Decimal, category Category, paymentMethod PaymentMethod, description string) (LineItem, error) {
	idx := d.findDay(dayID)
	if idx == -1 {
		return LineItem{}, fmt.Errorf("%w: %s", ErrDayNotFound, dayID)
	}
	if len(d.days[idx].Items) >= MaxItemsPerDay {
		return LineItem{}, fmt.Errorf("%w: a day can hold at most %d lines", ErrCapacityExceeded, MaxItemsPerDay)
	}
	if !category.IsValid() {
		return LineItem{}, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if !paymentMethod.IsValid() {
		return LineItem{}, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, paymentMethod)
	}
	item := LineItem{
		ID:            uuid.New(),
		Amount:        amount,
		Category:      category,
		PaymentMethod: paymentMethod,
		Description:   description,
		Order:         len(d.days[idx].Items),
	}
	d.days[idx].Items = append(d.days[idx].Items, item)
	return item, nil
}

// RemoveItem removes a line from a day and renumbers the lines behind it,
// so Order always matches the position in the bucket and stays unique.
// Unknown day or item ids make it a no-op.
func (d *Draft) RemoveItem(dayID, itemID uuid.UUID) {
	idx := d.findDay(dayID)
	if idx == -1 {
		return
	}
	items := d.days[idx].Items
	for i, item := range items {
		if item.ID == itemID {
			d.days[idx].Items = append(items[:i], items[i+1:]...)
			for j := i; j < len(d.days[idx].Items); j++ {
				d.days[idx].Items[j].Order = j
			}
			return
		}
	}
}

// ItemPatch is a partial update for a line item. Nil fields are left
// untouched. The item's order is never changed by a patch.
type ItemPatch struct {
	Amount        *decimal.Decimal
	Category      *Category
	PaymentMethod *PaymentMethod
	Description   *string
}

func (d *Draft) UpdateItem(dayID, itemID uuid.UUID, patch ItemPatch) error {
	idx := d.findDay(dayID)
	if idx == -1 {
		return fmt.Errorf("%w: %s", ErrDayNotFound, dayID)
	}
	items := d.days[idx].Items
	itemIdx := -1
	for i, item := range items {
		if item.ID == itemID {
			itemIdx = i
			break
		}
	}
	if itemIdx == -1 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	if patch.Category != nil && !patch.Category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, *patch.Category)
	}
	if patch.PaymentMethod != nil && !patch.PaymentMethod.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, *patch.PaymentMethod)
	}
	item := &d.days[idx].Items[itemIdx]
	if patch.Amount != nil {
		item.Amount = *patch.Amount
	}
	if patch.Category != nil {
		item.Category = *patch.Category
	}
	if patch.PaymentMethod != nil {
		item.PaymentMethod = *patch.PaymentMethod
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	return nil
}

// ValidateForSubmission succeeds when at least one day holds at least one
// line. Zero and negative amounts are deliberately permitted; negatives are
// how corrections are entered.
func (d *Draft) ValidateForSubmission() error {
	for _, day := range d.days {
		if len(day.Items) > 0 {
			return nil
		}
	}
	return ErrEmptyRequest
}

// Payload is the immutable submission snapshot handed to the persistence
// layer. Server-assigned fields (id, reference, status, dateRequested) are
// absent on purpose.
type Payload struct {
	Description string
	Days        []RequestDay
}

func (d *Draft) Payload() Payload {
	return Payload{
		Description: d.description,
		Days:        d.Days(),
	}
}

func (d *Draft) findDay(dayID uuid.UUID) int {
	for i, day := range d.days {
		if day.ID == dayID {
			return i
		}
	}
	return -1
}

func (d *Draft) validateDate(date time.Time) error {
	today := toDay(d.clock.Now())
	day := toDay(date)
	if !day.After(today) {
		return fmt.Errorf("%w: %s is not after today (%s)", ErrInvalidDate,
			day.Format("2006-01-02"), today.Format("2006-01-02"))
	}
	if day.After(today.AddDate(0, 0, MaxDaysAhead)) {
		return fmt.Errorf("%w: %s is more than %d days ahead", ErrInvalidDate,
			day.Format("2006-01-02"), MaxDaysAhead)
	}
	return nil
}
