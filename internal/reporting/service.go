package reporting

import (
	"context"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	errors "github.com/frahmantamala/club-ledger/internal"
	"github.com/frahmantamala/club-ledger/internal/core/fiscal"
	"github.com/frahmantamala/club-ledger/internal/expense"
)

// LedgerReader is the read side of the ledger store.
type LedgerReader interface {
	Find(ctx context.Context, f expense.Filter) ([]*expense.Expense, error)
}

// EventSource lists the events of a fiscal year with their budgets and
// names events of any year.
type EventSource interface {
	Budgets(ctx context.Context, fiscalYear string) ([]EventBudget, error)
	EventNames(ctx context.Context, ids []int64) (map[int64]string, error)
}

// MemberDirectory resolves member names for leaderboards.
type MemberDirectory interface {
	Names(ctx context.Context, ids []int64) (map[int64]string, error)
}

type Service struct {
	ledger  LedgerReader
	events  EventSource
	members MemberDirectory
	cache   *Cache
	clock   fiscal.Clock
	logger  *slog.Logger
}

func NewService(ledger LedgerReader, events EventSource, members MemberDirectory, cache *Cache, clock fiscal.Clock, logger *slog.Logger) *Service {
	return &Service{
		ledger:  ledger,
		events:  events,
		members: members,
		cache:   cache,
		clock:   clock,
		logger:  logger,
	}
}

// ResolveYear parses label, defaulting to the current fiscal year.
func (s *Service) ResolveYear(label string) (fiscal.Year, error) {
	if label == "" {
		return fiscal.Current(s.clock), nil
	}
	year, err := fiscal.Parse(label)
	if err != nil {
		return fiscal.Year{}, errors.NewInvalidArgumentError(err.Error(), errors.ErrCodeInvalidFiscalYear)
	}
	return year, nil
}

func (s *Service) records(ctx context.Context, year fiscal.Year) ([]*expense.Expense, error) {
	return s.ledger.Find(ctx, expense.Filter{FiscalYear: year.Label()})
}

// cached serves dest from the report cache. Cache outages fall back to
// computing the report directly.
func (s *Service) cached(ctx context.Context, dest interface{}, loader func(context.Context) (interface{}, error), parts ...string) error {
	key, err := s.cache.BuildKey(ctx, parts...)
	if err == nil {
		err = s.cache.FetchJSON(ctx, key, dest, loader)
		if err == nil {
			return nil
		}
		if _, isAppErr := errors.IsAppError(err); isAppErr {
			return err
		}
	}
	s.logger.Warn("report cache unavailable, computing directly", "report", parts, "error", err)
	return load(ctx, dest, loader)
}

func (s *Service) Rollup(ctx context.Context, label string, dim Dimension) ([]Rollup, error) {
	if _, err := ParseDimension(string(dim)); err != nil {
		return nil, err
	}
	year, err := s.ResolveYear(label)
	if err != nil {
		return nil, err
	}

	var rollups []Rollup
	err = s.cached(ctx, &rollups, func(ctx context.Context) (interface{}, error) {
		records, err := s.records(ctx, year)
		if err != nil {
			return nil, err
		}
		out, err := Aggregate(records, dim)
		if err != nil {
			return nil, err
		}
		return s.labelRollups(ctx, year, dim, out), nil
	}, "rollup", string(dim), year.Label())
	if err != nil {
		s.logger.Error("failed to compute rollup", "dimension", dim, "fiscal_year", year.Label(), "error", err)
		return nil, err
	}
	return rollups, nil
}

// labelRollups attaches event and member names. Lookup failures leave the
// labels empty.
func (s *Service) labelRollups(ctx context.Context, year fiscal.Year, dim Dimension, rollups []Rollup) []Rollup {
	switch dim {
	case DimensionEvent:
		if s.events == nil {
			return rollups
		}
		// records filed after a year boundary may belong to an earlier year's event
		ids := rollupIDs(rollups)
		if len(ids) == 0 {
			return rollups
		}
		names, err := s.events.EventNames(ctx, ids)
		if err != nil {
			s.logger.Warn("failed to load event names", "error", err)
			return rollups
		}
		for i := range rollups {
			id, _ := strconv.ParseInt(rollups[i].GroupKey, 10, 64)
			rollups[i].Label = names[id]
		}
	case DimensionMember:
		names := s.memberNames(ctx, rollupIDs(rollups))
		for i := range rollups {
			id, _ := strconv.ParseInt(rollups[i].GroupKey, 10, 64)
			rollups[i].Label = names[id]
		}
	}
	return rollups
}

func rollupIDs(rollups []Rollup) []int64 {
	ids := make([]int64, 0, len(rollups))
	for _, r := range rollups {
		if id, err := strconv.ParseInt(r.GroupKey, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *Service) memberNames(ctx context.Context, ids []int64) map[int64]string {
	if s.members == nil || len(ids) == 0 {
		return map[int64]string{}
	}
	names, err := s.members.Names(ctx, ids)
	if err != nil {
		s.logger.Warn("failed to load member names", "error", err)
		return map[int64]string{}
	}
	return names
}

func (s *Service) Summary(ctx context.Context, label string) (StatusTotals, error) {
	year, err := s.ResolveYear(label)
	if err != nil {
		return StatusTotals{}, err
	}

	var totals StatusTotals
	err = s.cached(ctx, &totals, func(ctx context.Context) (interface{}, error) {
		records, err := s.records(ctx, year)
		if err != nil {
			return nil, err
		}
		return TotalsByStatus(records), nil
	}, "summary", year.Label())
	return totals, err
}

// TopContributors returns at most limit ranked members; limit must lie in
// 1..LeaderboardLimit.
func (s *Service) TopContributors(ctx context.Context, label string, limit int) ([]Contributor, error) {
	if limit < 1 || limit > LeaderboardLimit {
		return nil, errors.NewInvalidArgumentError("limit must be between 1 and 20", errors.ErrCodeInvalidReportFilter)
	}
	year, err := s.ResolveYear(label)
	if err != nil {
		return nil, err
	}

	var contributors []Contributor
	err = s.cached(ctx, &contributors, func(ctx context.Context) (interface{}, error) {
		records, err := s.records(ctx, year)
		if err != nil {
			return nil, err
		}
		top := TopContributors(records, limit)
		ids := make([]int64, len(top))
		for i, c := range top {
			ids[i] = c.MemberID
		}
		names := s.memberNames(ctx, ids)
		for i := range top {
			top[i].Name = names[top[i].MemberID]
		}
		return top, nil
	}, "top", strconv.Itoa(limit), year.Label())
	return contributors, err
}

func (s *Service) Leaderboard(ctx context.Context, label string) ([]Contributor, error) {
	return s.TopContributors(ctx, label, LeaderboardLimit)
}

// BudgetVariance compares each event of the year with every expense filed
// against it, including expenses whose own fiscal year is a later one.
// Rejected expenses do not count as spent.
func (s *Service) BudgetVariance(ctx context.Context, label string) ([]Variance, error) {
	year, err := s.ResolveYear(label)
	if err != nil {
		return nil, err
	}

	var variances []Variance
	err = s.cached(ctx, &variances, func(ctx context.Context) (interface{}, error) {
		var budgets []EventBudget
		if s.events != nil {
			var err error
			budgets, err = s.events.Budgets(ctx, year.Label())
			if err != nil {
				return nil, err
			}
		}
		if len(budgets) == 0 {
			return []Variance{}, nil
		}
		ids := make([]int64, 0, len(budgets))
		for _, b := range budgets {
			ids = append(ids, b.EventID)
		}
		records, err := s.ledger.Find(ctx, expense.Filter{EventIDs: ids})
		if err != nil {
			return nil, err
		}
		return BudgetVariance(budgets, records), nil
	}, "variance", year.Label())
	return variances, err
}

// Dashboard gathers the headline reports of a year. Each part is read
// independently, so the figures are not a single consistent snapshot.
type Dashboard struct {
	FiscalYear      string        `json:"fiscal_year"`
	Summary         StatusTotals  `json:"summary"`
	ByCategory      []Rollup      `json:"by_category"`
	ByMonth         []Rollup      `json:"by_month"`
	TopContributors []Contributor `json:"top_contributors"`
	BudgetVariance  []Variance    `json:"budget_variance"`
}

func (s *Service) Dashboard(ctx context.Context, label string) (*Dashboard, error) {
	year, err := s.ResolveYear(label)
	if err != nil {
		return nil, err
	}
	dash := &Dashboard{FiscalYear: year.Label()}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		summary, err := s.Summary(ctx, year.Label())
		if err != nil {
			return err
		}
		dash.Summary = summary
		return nil
	})

	g.Go(func() error {
		rollups, err := s.Rollup(ctx, year.Label(), DimensionCategory)
		if err != nil {
			return err
		}
		dash.ByCategory = rollups
		return nil
	})

	g.Go(func() error {
		rollups, err := s.Rollup(ctx, year.Label(), DimensionMonth)
		if err != nil {
			return err
		}
		dash.ByMonth = rollups
		return nil
	})

	g.Go(func() error {
		top, err := s.TopContributors(ctx, year.Label(), TopContributorsLimit)
		if err != nil {
			return err
		}
		dash.TopContributors = top
		return nil
	})

	g.Go(func() error {
		variance, err := s.BudgetVariance(ctx, year.Label())
		if err != nil {
			return err
		}
		dash.BudgetVariance = variance
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("failed to build dashboard", "fiscal_year", year.Label(), "error", err)
		return nil, err
	}
	return dash, nil
}

// Records returns the raw ledger of a year for exports.
func (s *Service) Records(ctx context.Context, label string) (fiscal.Year, []*expense.Expense, error) {
	year, err := s.ResolveYear(label)
	if err != nil {
		return fiscal.Year{}, nil, err
	}
	records, err := s.records(ctx, year)
	return year, records, err
}
