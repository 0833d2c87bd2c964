package audit

import (
	"context"
	"log/slog"
	"time"

	errors "github.com/frahmantamala/club-ledger/internal"
)

type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	List(ctx context.Context, f Filter) ([]*Entry, error)
}

type Service struct {
	repo    Repository
	timeout time.Duration
	logger  *slog.Logger
}

func NewService(repo Repository, timeout time.Duration, logger *slog.Logger) *Service {
	return &Service{repo: repo, timeout: timeout, logger: logger}
}

// Record persists entry. Callers treat failures as non-fatal.
func (s *Service) Record(ctx context.Context, entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	storeCtx, cancel := errors.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.Create(storeCtx, &entry); err != nil {
		s.logger.Error("failed to write audit entry", "action", entry.Action, "target_id", entry.TargetID, "error", err)
		return err
	}
	s.logger.Debug("audit entry written", "action", entry.Action, "target_type", entry.TargetType, "target_id", entry.TargetID)
	return nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]*Entry, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	storeCtx, cancel := errors.WithTimeout(ctx, s.timeout)
	defer cancel()

	entries, err := s.repo.List(storeCtx, f)
	if err != nil {
		s.logger.Error("failed to list audit entries", "error", err)
		return nil, err
	}
	return entries, nil
}
