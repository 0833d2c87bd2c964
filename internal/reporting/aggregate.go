package reporting

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/club-ledger/internal"
	"github.com/frahmantamala/club-ledger/internal/expense"
)

type Dimension string

const (
	DimensionCategory Dimension = "category"
	DimensionStatus   Dimension = "status"
	DimensionMonth    Dimension = "month"
	DimensionEvent    Dimension = "event"
	DimensionMember   Dimension = "member"
)

var Dimensions = []Dimension{DimensionCategory, DimensionStatus, DimensionMonth, DimensionEvent, DimensionMember}

func ParseDimension(raw string) (Dimension, error) {
	for _, d := range Dimensions {
		if string(d) == raw {
			return d, nil
		}
	}
	return "", errors.NewInvalidArgumentError("unknown grouping dimension "+strconv.Quote(raw), errors.ErrCodeInvalidDimension)
}

// Rollup is the sum and count of one group.
type Rollup struct {
	GroupKey    string          `json:"group_key"`
	Label       string          `json:"label,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Count       int             `json:"count"`
}

func groupKey(e *expense.Expense, dim Dimension) string {
	switch dim {
	case DimensionCategory:
		return string(e.Category)
	case DimensionStatus:
		return string(e.Status)
	case DimensionMonth:
		return e.Date.Format("2006-01")
	case DimensionEvent:
		return strconv.FormatInt(e.EventID, 10)
	default:
		return strconv.FormatInt(e.MemberID, 10)
	}
}

// Aggregate groups records along dim. Groups are ordered by total descending
// with ties broken by key, except months which are chronological.
func Aggregate(records []*expense.Expense, dim Dimension) ([]Rollup, error) {
	if _, err := ParseDimension(string(dim)); err != nil {
		return nil, err
	}

	index := make(map[string]int)
	rollups := make([]Rollup, 0)
	for _, e := range records {
		key := groupKey(e, dim)
		i, ok := index[key]
		if !ok {
			i = len(rollups)
			index[key] = i
			rollups = append(rollups, Rollup{GroupKey: key, TotalAmount: decimal.Zero})
		}
		rollups[i].TotalAmount = rollups[i].TotalAmount.Add(e.Amount)
		rollups[i].Count++
	}

	if dim == DimensionMonth {
		// YYYY-MM sorts chronologically as text
		sort.Slice(rollups, func(a, b int) bool { return rollups[a].GroupKey < rollups[b].GroupKey })
		return rollups, nil
	}

	sort.SliceStable(rollups, func(a, b int) bool {
		if c := rollups[a].TotalAmount.Cmp(rollups[b].TotalAmount); c != 0 {
			return c > 0
		}
		return keyLess(rollups[a].GroupKey, rollups[b].GroupKey)
	})
	return rollups, nil
}

// keyLess orders numeric ids numerically and everything else as text.
func keyLess(a, b string) bool {
	ai, errA := strconv.ParseInt(a, 10, 64)
	bi, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		return ai < bi
	}
	return a < b
}

// StatusTotals folds the status rollup into headline figures.
type StatusTotals struct {
	TotalExpenses   decimal.Decimal `json:"total_expenses"`
	TotalApproved   decimal.Decimal `json:"total_approved"`
	TotalPending    decimal.Decimal `json:"total_pending"`
	TotalRejected   decimal.Decimal `json:"total_rejected"`
	TotalReimbursed decimal.Decimal `json:"total_reimbursed"`
	TotalPaid       decimal.Decimal `json:"total_paid"`
	Count           int             `json:"count"`
}

func TotalsByStatus(records []*expense.Expense) StatusTotals {
	rollups, _ := Aggregate(records, DimensionStatus)

	totals := StatusTotals{
		TotalExpenses:   decimal.Zero,
		TotalApproved:   decimal.Zero,
		TotalPending:    decimal.Zero,
		TotalRejected:   decimal.Zero,
		TotalReimbursed: decimal.Zero,
		TotalPaid:       decimal.Zero,
	}
	for _, r := range rollups {
		totals.TotalExpenses = totals.TotalExpenses.Add(r.TotalAmount)
		totals.Count += r.Count
		switch expense.Status(r.GroupKey) {
		case expense.StatusApproved:
			totals.TotalApproved = r.TotalAmount
		case expense.StatusPending:
			totals.TotalPending = r.TotalAmount
		case expense.StatusRejected:
			totals.TotalRejected = r.TotalAmount
		case expense.StatusReimbursed:
			totals.TotalReimbursed = r.TotalAmount
		case expense.StatusPaid:
			totals.TotalPaid = r.TotalAmount
		}
	}
	return totals
}

const (
	TopContributorsLimit = 10
	LeaderboardLimit     = 20
)

type Contributor struct {
	Rank     int             `json:"rank"`
	MemberID int64           `json:"member_id"`
	Name     string          `json:"name,omitempty"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// TopContributors ranks members by approved, reimbursed and paid amounts and
// keeps the first n.
func TopContributors(records []*expense.Expense, n int) []Contributor {
	contributing := make([]*expense.Expense, 0, len(records))
	for _, e := range records {
		if e.Status.Contributing() {
			contributing = append(contributing, e)
		}
	}

	rollups, _ := Aggregate(contributing, DimensionMember)
	if n >= 0 && len(rollups) > n {
		rollups = rollups[:n]
	}

	out := make([]Contributor, len(rollups))
	for i, r := range rollups {
		memberID, _ := strconv.ParseInt(r.GroupKey, 10, 64)
		out[i] = Contributor{
			Rank:     i + 1,
			MemberID: memberID,
			Total:    r.TotalAmount,
			Count:    r.Count,
		}
	}
	return out
}

// EventBudget is the planned spend of one event.
type EventBudget struct {
	EventID         int64           `json:"event_id"`
	Name            string          `json:"name"`
	EstimatedBudget decimal.Decimal `json:"estimated_budget"`
}

// Variance is one row of the budget variance report. Spent and Count cover
// every non-rejected expense filed against the event; Variance is
// EstimatedBudget minus Spent and goes negative on overspend.
type Variance struct {
	EventID         int64           `json:"event_id"`
	Name            string          `json:"name"`
	EstimatedBudget decimal.Decimal `json:"estimated_budget"`
	Spent           decimal.Decimal `json:"spent"`
	Variance        decimal.Decimal `json:"variance"`
	Count           int             `json:"count"`
}

// Overspent reports a negative variance.
func (v Variance) Overspent() bool {
	return v.Variance.IsNegative()
}

// BudgetVariance computes estimatedBudget minus spend for every event.
// Rejected expenses were never spent and do not count.
func BudgetVariance(budgets []EventBudget, records []*expense.Expense) []Variance {
	spent := make(map[int64]decimal.Decimal)
	counts := make(map[int64]int)
	for _, e := range records {
		if e.Status == expense.StatusRejected {
			continue
		}
		spent[e.EventID] = spent[e.EventID].Add(e.Amount)
		counts[e.EventID]++
	}

	out := make([]Variance, len(budgets))
	for i, b := range budgets {
		s := spent[b.EventID]
		out[i] = Variance{
			EventID:         b.EventID,
			Name:            b.Name,
			EstimatedBudget: b.EstimatedBudget,
			Spent:           s,
			Variance:        b.EstimatedBudget.Sub(s),
			Count:           counts[b.EventID],
		}
	}
	return out
}
