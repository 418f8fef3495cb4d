package fundrequest

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Action is a lifecycle event applied by a reviewer.
type Action string

const (
	ActionApprove    Action = "approve"
	ActionReject     Action = "reject"
	ActionMarkVersed Action = "markVersed"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionApprove, ActionReject, ActionMarkVersed:
		return true
	}
	return false
}

// transitions is the full lifecycle table. Any (status, action) pair not
// listed here is illegal. Versed and rejected are terminal.
var transitions = map[Status]map[Action]Status{
	StatusPending: {
		ActionApprove: StatusApproved,
		ActionReject:  StatusRejected,
	},
	StatusApproved: {
		ActionMarkVersed: StatusVersed,
	},
}

// NextStatus resolves the target status for an action, or ErrIllegalTransition
// when the table does not allow it.
func NextStatus(current Status, action Action) (Status, error) {
	if next, ok := transitions[current][action]; ok {
		return next, nil
	}
	return "", fmt.Errorf("%w: cannot %s a %s request", ErrIllegalTransition, action, current)
}

// ApplyReview moves a pending request to approved or rejected, recording the
// reviewer and an optional note. The request is left untouched on failure.
func (r *FundRequest) ApplyReview(action Action, reviewerID uuid.UUID, notes string, now time.Time) error {
	if action != ActionApprove && action != ActionReject {
		return fmt.Errorf("%w: %s is not a review action", ErrIllegalTransition, action)
	}
	next, err := NextStatus(r.Status, action)
	if err != nil {
		return err
	}
	r.Status = next
	r.ReviewedBy = &reviewerID
	r.DateReviewed = &now
	r.ReviewNotes = notes
	return nil
}

// ApplyVersed moves an approved request to versed and stamps the disbursement
// date. Disbursement dates before the request date are rejected; future
// dates are allowed.
func (r *FundRequest) ApplyVersed(date time.Time) error {
	next, err := NextStatus(r.Status, ActionMarkVersed)
	if err != nil {
		return err
	}
	day := toDay(date)
	if day.Before(toDay(r.DateRequested)) {
		return fmt.Errorf("%w: disbursement date %s predates the request (%s)", ErrInvalidDate,
			day.Format("2006-01-02"), toDay(r.DateRequested).Format("2006-01-02"))
	}
	r.Status = next
	r.DateVersed = &day
	return nil
}
