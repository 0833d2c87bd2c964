package expense

import (
	"strings"
	"time"

	errors "github.com/frahmantamala/club-ledger/internal"
	"github.com/frahmantamala/club-ledger/internal/core/events"
)

type Action string

const (
	ActionApprove   Action = "approve"
	ActionReject    Action = "reject"
	ActionReimburse Action = "reimburse"
)

// Command is a requested status change. The set of implementations is closed:
// Approve, Reject and Reimburse.
type Command interface {
	Action() Action
	Validate() error
	command()
}

type Approve struct{}

func (Approve) Action() Action  { return ActionApprove }
func (Approve) Validate() error { return nil }
func (Approve) command()        {}

type Reject struct {
	Reason string
}

func (Reject) Action() Action { return ActionReject }

func (c Reject) Validate() error {
	if strings.TrimSpace(c.Reason) == "" {
		return errors.NewValidationFieldError("reason", "reason is required when rejecting an expense", errors.ErrCodeReasonRequired)
	}
	return nil
}

func (Reject) command() {}

type Reimburse struct {
	Reference string
}

func (Reimburse) Action() Action { return ActionReimburse }

func (c Reimburse) Validate() error {
	if strings.TrimSpace(c.Reference) == "" {
		return errors.NewValidationFieldError("reference", "reimbursement reference is required", errors.ErrCodeReferenceRequired)
	}
	return nil
}

func (Reimburse) command() {}

type rule struct {
	from Status
	to   Status
}

var rules = map[Action]rule{
	ActionApprove:   {from: StatusPending, to: StatusApproved},
	ActionReject:    {from: StatusPending, to: StatusRejected},
	ActionReimburse: {from: StatusApproved, to: StatusReimbursed},
}

// Transition is the only patch the store accepts for a record. The store
// applies it only while the record is still in From and not archived.
type Transition struct {
	Action    Action
	From      Status
	To        Status
	ActorID   int64
	At        time.Time
	Reason    string
	Reference string
}

// Plan checks cmd against the observed record and returns the patch to apply.
func Plan(current *Expense, cmd Command, actorID int64, at time.Time) (Transition, error) {
	if err := cmd.Validate(); err != nil {
		return Transition{}, err
	}

	r, ok := rules[cmd.Action()]
	if !ok {
		return Transition{}, errors.NewInvalidTransitionError(string(cmd.Action()), string(current.Status))
	}

	if current.Archived {
		appErr := errors.NewInvalidTransitionError(string(cmd.Action()), string(current.Status))
		appErr.Code = errors.ErrCodeExpenseArchived
		appErr.Message = "expense belongs to a closed fiscal year"
		return Transition{}, appErr
	}

	if current.Status.Terminal() {
		appErr := errors.NewInvalidTransitionError(string(cmd.Action()), string(current.Status))
		appErr.Message = "expense is " + string(current.Status) + " and can no longer change"
		return Transition{}, appErr
	}
	if current.Status != r.from {
		return Transition{}, errors.NewInvalidTransitionError(string(cmd.Action()), string(current.Status))
	}

	t := Transition{
		Action:  cmd.Action(),
		From:    r.from,
		To:      r.to,
		ActorID: actorID,
		At:      at,
	}
	switch c := cmd.(type) {
	case Reject:
		t.Reason = strings.TrimSpace(c.Reason)
	case Reimburse:
		t.Reference = strings.TrimSpace(c.Reference)
	}
	return t, nil
}

// Apply returns a copy of e with t applied, as the store would persist it.
func (t Transition) Apply(e *Expense) *Expense {
	out := *e
	at := t.At
	actor := t.ActorID
	out.Status = t.To
	out.UpdatedAt = at
	switch t.Action {
	case ActionApprove:
		out.ApprovedBy, out.ApprovedAt = &actor, &at
	case ActionReject:
		reason := t.Reason
		out.RejectedBy, out.RejectedAt, out.RejectionReason = &actor, &at, &reason
	case ActionReimburse:
		ref := t.Reference
		out.ReimbursedBy, out.ReimbursedAt, out.ReimbursementReference = &actor, &at, &ref
	}
	return &out
}

// EventType names the notification emitted after t commits.
func (t Transition) EventType() string {
	switch t.Action {
	case ActionApprove:
		return events.EventTypeExpenseApproved
	case ActionReject:
		return events.EventTypeExpenseRejected
	default:
		return events.EventTypeExpenseReimbursed
	}
}
