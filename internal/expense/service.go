package expense

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	errors "github.com/frahmantamala/club-ledger/internal"
	"github.com/frahmantamala/club-ledger/internal/audit"
	"github.com/frahmantamala/club-ledger/internal/core/events"
	"github.com/frahmantamala/club-ledger/internal/core/fiscal"
)

// Repository is the ledger store. Update only applies t while the record is
// still in t.From, returning ErrTransitionConflict otherwise. Delete only
// removes pending or rejected records that are not archived.
type Repository interface {
	Insert(ctx context.Context, e *Expense) (int64, error)
	FindByID(ctx context.Context, id int64) (*Expense, error)
	FindByFilter(ctx context.Context, f Filter) ([]*Expense, error)
	Update(ctx context.Context, id int64, t Transition) (*Expense, error)
	Delete(ctx context.Context, id int64) error
	ArchiveFiscalYear(ctx context.Context, fiscalYear string) (int64, error)
}

type EventLookup interface {
	EventExists(ctx context.Context, id int64) (bool, error)
}

type MemberLookup interface {
	MemberExists(ctx context.Context, id int64) (bool, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// CacheInvalidator is told whenever ledger contents change.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Collaborators are the services the ledger calls into. Audit, Publisher
// and Cache are optional.
type Collaborators struct {
	Events    EventLookup
	Members   MemberLookup
	Audit     AuditRecorder
	Publisher events.Publisher
	Cache     CacheInvalidator
}

type Service struct {
	repo         Repository
	collab       Collaborators
	storeTimeout time.Duration
	clock        fiscal.Clock
	logger       *slog.Logger
}

func NewService(repo Repository, collab Collaborators, storeTimeout time.Duration, clock fiscal.Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		repo:         repo,
		collab:       collab,
		storeTimeout: storeTimeout,
		clock:        clock,
		logger:       logger,
	}
}

// Submit records a new pending expense for the acting member.
func (s *Service) Submit(ctx context.Context, actor *errors.Actor, dto SubmitExpenseDTO) (*Expense, error) {
	now := s.clock()
	if err := dto.Validate(now); err != nil {
		s.logger.Warn("expense validation failed", "error", err, "member_id", actor.ID)
		return nil, err
	}

	if err := s.checkEvent(ctx, dto.EventID); err != nil {
		return nil, err
	}

	e := s.newExpense(actor.ID, dto, StatusPending, now)
	return s.insert(ctx, actor, e, "expense_submitted")
}

// CreateAdministrative records an expense on behalf of a member, optionally
// already paid.
func (s *Service) CreateAdministrative(ctx context.Context, actor *errors.Actor, dto AdministrativeExpenseDTO) (*Expense, error) {
	now := s.clock()
	if err := dto.Validate(now); err != nil {
		s.logger.Warn("administrative expense validation failed", "error", err, "actor_id", actor.ID)
		return nil, err
	}

	if err := s.checkEvent(ctx, dto.EventID); err != nil {
		return nil, err
	}
	if err := s.checkMember(ctx, dto.MemberID); err != nil {
		return nil, err
	}

	e := s.newExpense(dto.MemberID, dto.SubmitExpenseDTO, dto.InitialStatus(), now)
	return s.insert(ctx, actor, e, "expense_created_by_admin")
}

func (s *Service) newExpense(memberID int64, dto SubmitExpenseDTO, status Status, now time.Time) *Expense {
	return &Expense{
		MemberID:     memberID,
		EventID:      dto.EventID,
		Category:     Category(dto.Category),
		Amount:       dto.Amount.Round(2),
		Description:  dto.Description,
		Date:         dto.ParsedDate(),
		PaymentMode:  PaymentMode(dto.PaymentMode),
		Status:       status,
		BillFileName: dto.BillFileName,
		FiscalYear:   fiscal.YearOf(now).Label(),
		SubmittedAt:  now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *Service) insert(ctx context.Context, actor *errors.Actor, e *Expense, auditAction string) (*Expense, error) {
	storeCtx, cancel := errors.DetachedTimeout(ctx, s.storeTimeout)
	defer cancel()

	id, err := s.repo.Insert(storeCtx, e)
	if err != nil {
		s.logger.Error("failed to insert expense", "error", err, "member_id", e.MemberID)
		return nil, err
	}
	e.ID = id

	s.logger.Info("expense recorded",
		"expense_id", e.ID,
		"member_id", e.MemberID,
		"amount", e.Amount.String(),
		"status", e.Status,
		"fiscal_year", e.FiscalYear)

	s.afterCommit(ctx, audit.Entry{
		Action:      auditAction,
		ActorID:     actor.ID,
		TargetType:  audit.TargetExpense,
		TargetID:    e.ID,
		Description: fmt.Sprintf("expense of %s recorded for member %d", e.Amount.StringFixed(2), e.MemberID),
		ChangeSet: map[string]interface{}{
			"status": e.Status,
			"amount": e.Amount.StringFixed(2),
		},
	}, events.NewExpenseEvent(events.EventTypeExpenseSubmitted, e.ID, e.MemberID, e.Amount, e.EventID, string(e.Status)))

	return e, nil
}

// Get returns the expense if actor owns it or may approve expenses.
func (s *Service) Get(ctx context.Context, actor *errors.Actor, id int64) (*Expense, error) {
	storeCtx, cancel := errors.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	e, err := s.repo.FindByID(storeCtx, id)
	if err != nil {
		s.logger.Warn("failed to get expense", "error", err, "expense_id", id)
		return nil, err
	}

	if e.MemberID != actor.ID && !actor.IsApprover() {
		s.logger.Warn("unauthorized access to expense", "expense_id", id, "member_id", actor.ID, "owner_id", e.MemberID)
		return nil, errors.ErrUnauthorizedAccess
	}
	return e, nil
}

// List returns expenses matching f. Members without an approver role only
// ever see their own records.
func (s *Service) List(ctx context.Context, actor *errors.Actor, f Filter) ([]*Expense, error) {
	if !actor.IsApprover() {
		own := actor.ID
		f.MemberID = &own
	}
	return s.Find(ctx, f)
}

// Find reads the ledger without access checks. Reporting uses it.
func (s *Service) Find(ctx context.Context, f Filter) ([]*Expense, error) {
	storeCtx, cancel := errors.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	expenses, err := s.repo.FindByFilter(storeCtx, f)
	if err != nil {
		s.logger.Error("failed to list expenses", "error", err)
		return nil, err
	}
	return expenses, nil
}

// Transition is the single mutator for an expense's status.
func (s *Service) Transition(ctx context.Context, actor *errors.Actor, id int64, cmd Command) (*Expense, error) {
	if err := cmd.Validate(); err != nil {
		s.logger.Warn("transition rejected by validation", "expense_id", id, "action", cmd.Action(), "error", err)
		return nil, err
	}

	readCtx, cancelRead := errors.WithTimeout(ctx, s.storeTimeout)
	current, err := s.repo.FindByID(readCtx, id)
	cancelRead()
	if err != nil {
		s.logger.Warn("expense not loaded for transition", "expense_id", id, "action", cmd.Action(), "error", err)
		return nil, err
	}

	t, err := Plan(current, cmd, actor.ID, s.clock())
	if err != nil {
		s.logger.Warn("illegal transition",
			"expense_id", id,
			"action", cmd.Action(),
			"current_status", current.Status,
			"archived", current.Archived)
		return nil, err
	}

	writeCtx, cancelWrite := errors.DetachedTimeout(ctx, s.storeTimeout)
	defer cancelWrite()

	updated, err := s.repo.Update(writeCtx, id, t)
	if err != nil {
		s.logger.Warn("transition not applied", "expense_id", id, "action", t.Action, "from", t.From, "error", err)
		return nil, err
	}

	s.logger.Info("expense transitioned",
		"expense_id", id,
		"action", t.Action,
		"from", t.From,
		"to", t.To,
		"actor_id", actor.ID)

	changeSet := map[string]interface{}{
		"from": t.From,
		"to":   t.To,
	}
	if t.Reason != "" {
		changeSet["reason"] = t.Reason
	}
	if t.Reference != "" {
		changeSet["reference"] = t.Reference
	}

	s.afterCommit(ctx, audit.Entry{
		Action:      "expense_" + string(t.Action),
		ActorID:     actor.ID,
		TargetType:  audit.TargetExpense,
		TargetID:    id,
		Description: fmt.Sprintf("expense %d moved from %s to %s", id, t.From, t.To),
		ChangeSet:   changeSet,
	}, events.NewExpenseEvent(t.EventType(), updated.ID, updated.MemberID, updated.Amount, updated.EventID, string(updated.Status)))

	return updated, nil
}

func (s *Service) Approve(ctx context.Context, actor *errors.Actor, id int64) (*Expense, error) {
	return s.Transition(ctx, actor, id, Approve{})
}

func (s *Service) Reject(ctx context.Context, actor *errors.Actor, id int64, reason string) (*Expense, error) {
	return s.Transition(ctx, actor, id, Reject{Reason: reason})
}

func (s *Service) Reimburse(ctx context.Context, actor *errors.Actor, id int64, reference string) (*Expense, error) {
	return s.Transition(ctx, actor, id, Reimburse{Reference: reference})
}

// Purge hard-deletes a pending or rejected expense.
func (s *Service) Purge(ctx context.Context, actor *errors.Actor, id int64) error {
	storeCtx, cancel := errors.DetachedTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.repo.Delete(storeCtx, id); err != nil {
		s.logger.Warn("expense purge refused", "expense_id", id, "error", err)
		return err
	}

	s.logger.Info("expense purged", "expense_id", id, "actor_id", actor.ID)
	s.afterCommit(ctx, audit.Entry{
		Action:      "expense_purged",
		ActorID:     actor.ID,
		TargetType:  audit.TargetExpense,
		TargetID:    id,
		Description: fmt.Sprintf("expense %d deleted", id),
	}, nil)
	return nil
}

// CloseFiscalYear archives every record of the labelled year. Future years
// cannot be closed.
func (s *Service) CloseFiscalYear(ctx context.Context, actor *errors.Actor, label string) (int64, error) {
	year, err := fiscal.Parse(label)
	if err != nil {
		return 0, errors.NewInvalidArgumentError(err.Error(), errors.ErrCodeInvalidFiscalYear)
	}
	if current := fiscal.Current(s.clock); year.Start > current.Start {
		return 0, errors.NewPreconditionFailedError(
			fmt.Sprintf("fiscal year %s has not started yet", year.Label()), errors.ErrCodeInvalidFiscalYear)
	}

	storeCtx, cancel := errors.DetachedTimeout(ctx, s.storeTimeout)
	defer cancel()

	archived, err := s.repo.ArchiveFiscalYear(storeCtx, year.Label())
	if err != nil {
		s.logger.Error("failed to archive fiscal year", "fiscal_year", year.Label(), "error", err)
		return 0, err
	}

	s.logger.Info("fiscal year closed", "fiscal_year", year.Label(), "archived", archived, "actor_id", actor.ID)
	s.afterCommit(ctx, audit.Entry{
		Action:      "fiscal_year_closed",
		ActorID:     actor.ID,
		TargetType:  audit.TargetFiscalYear,
		Description: fmt.Sprintf("fiscal year %s closed, %d expenses archived", year.Label(), archived),
		ChangeSet:   map[string]interface{}{"fiscal_year": year.Label(), "archived": archived},
	}, nil)
	return archived, nil
}

// afterCommit runs the best-effort side effects of a committed mutation.
// Failures are logged and never change the caller's result.
func (s *Service) afterCommit(ctx context.Context, entry audit.Entry, evt events.Event) {
	sideCtx, cancel := errors.DetachedTimeout(ctx, s.storeTimeout)
	defer cancel()

	if s.collab.Audit != nil {
		if err := s.collab.Audit.Record(sideCtx, entry); err != nil {
			s.logger.Error("failed to record audit entry", "action", entry.Action, "target_id", entry.TargetID, "error", err)
		}
	}
	if s.collab.Cache != nil {
		if err := s.collab.Cache.Invalidate(sideCtx); err != nil {
			s.logger.Warn("failed to invalidate report cache", "error", err)
		}
	}
	if s.collab.Publisher != nil && evt != nil {
		if err := s.collab.Publisher.Publish(sideCtx, evt); err != nil {
			s.logger.Error("failed to publish expense event", "event_type", evt.EventType(), "error", err)
		}
	}
}

func (s *Service) checkEvent(ctx context.Context, eventID int64) error {
	if s.collab.Events == nil {
		return nil
	}
	storeCtx, cancel := errors.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	ok, err := s.collab.Events.EventExists(storeCtx, eventID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.ErrEventNotFound
	}
	return nil
}

func (s *Service) checkMember(ctx context.Context, memberID int64) error {
	if s.collab.Members == nil {
		return nil
	}
	storeCtx, cancel := errors.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	ok, err := s.collab.Members.MemberExists(storeCtx, memberID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.ErrMemberNotFound
	}
	return nil
}
