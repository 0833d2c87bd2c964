package event

import (
	"context"
	"log/slog"
	"strings"
	"time"

	errors "github.com/frahmantamala/club-ledger/internal"
	"github.com/frahmantamala/club-ledger/internal/core/fiscal"
	"github.com/frahmantamala/club-ledger/internal/reporting"
)

type Repository interface {
	Create(ctx context.Context, e *Event) (int64, error)
	GetByID(ctx context.Context, id int64) (*Event, error)
	ListByFiscalYear(ctx context.Context, fiscalYear string) ([]*Event, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*Event, error)
}

type Service struct {
	repo    Repository
	timeout time.Duration
	clock   fiscal.Clock
	logger  *slog.Logger
}

func NewService(repo Repository, timeout time.Duration, clock fiscal.Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		repo:    repo,
		timeout: timeout,
		clock:   clock,
		logger:  logger,
	}
}

// Create schedules an event. The fiscal year follows the event date.
func (s *Service) Create(ctx context.Context, actor *errors.Actor, dto CreateEventDTO) (*Event, error) {
	if !actor.IsApprover() {
		return nil, errors.NewForbiddenError("only club officers can create events", errors.ErrCodeUnauthorizedAccess)
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	date := dto.ParsedDate()
	now := s.clock()
	e := &Event{
		Name:            strings.TrimSpace(dto.Name),
		Description:     strings.TrimSpace(dto.Description),
		Venue:           strings.TrimSpace(dto.Venue),
		Date:            date,
		EstimatedBudget: dto.EstimatedBudget,
		FiscalYear:      fiscal.YearOf(date).Label(),
		CreatedBy:       actor.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	storeCtx, cancel := errors.DetachedTimeout(ctx, s.timeout)
	defer cancel()

	id, err := s.repo.Create(storeCtx, e)
	if err != nil {
		s.logger.Error("failed to create event", "name", e.Name, "error", err)
		return nil, err
	}
	e.ID = id

	s.logger.Info("event created", "event_id", id, "fiscal_year", e.FiscalYear, "actor_id", actor.ID)
	return e, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Event, error) {
	ctx, cancel := errors.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.repo.GetByID(ctx, id)
}

// List returns the events of a fiscal year; an empty label means the current one.
func (s *Service) List(ctx context.Context, label string) (string, []*Event, error) {
	year := fiscal.Current(s.clock)
	if label != "" {
		parsed, err := fiscal.Parse(label)
		if err != nil {
			return "", nil, errors.NewValidationFieldError("year", err.Error(), errors.ErrCodeInvalidFiscalYear)
		}
		year = parsed
	}

	ctx, cancel := errors.WithTimeout(ctx, s.timeout)
	defer cancel()

	events, err := s.repo.ListByFiscalYear(ctx, year.Label())
	if err != nil {
		return "", nil, err
	}
	return year.Label(), events, nil
}

// EventExists reports whether id names a known event.
func (s *Service) EventExists(ctx context.Context, id int64) (bool, error) {
	_, err := s.Get(ctx, id)
	if err != nil {
		if errors.IsErrorType(err, errors.ErrorTypeNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Budgets lists the planned spend of every event in a fiscal year.
func (s *Service) Budgets(ctx context.Context, fiscalYear string) ([]reporting.EventBudget, error) {
	ctx, cancel := errors.WithTimeout(ctx, s.timeout)
	defer cancel()

	events, err := s.repo.ListByFiscalYear(ctx, fiscalYear)
	if err != nil {
		return nil, err
	}

	budgets := make([]reporting.EventBudget, 0, len(events))
	for _, e := range events {
		budgets = append(budgets, reporting.EventBudget{
			EventID:         e.ID,
			Name:            e.Name,
			EstimatedBudget: e.EstimatedBudget,
		})
	}
	return budgets, nil
}

// EventNames resolves event names by id, whatever their fiscal year.
func (s *Service) EventNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	ctx, cancel := errors.WithTimeout(ctx, s.timeout)
	defer cancel()

	events, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	names := make(map[int64]string, len(events))
	for _, e := range events {
		names[e.ID] = e.Name
	}
	return names, nil
}
