package category

import (
	"log/slog"

	errors "github.com/frahmantamala/club-ledger/internal"
	"github.com/frahmantamala/club-ledger/internal/expense"
)

type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	return &Service{logger: logger}
}

// GetAllCategories lists every category in declaration order.
func (s *Service) GetAllCategories() []Category {
	out := make([]Category, 0, len(expense.Categories))
	for _, c := range expense.Categories {
		out = append(out, FromExpenseCategory(c))
	}
	return out
}

func (s *Service) GetCategoryByName(name string) (*Category, error) {
	c := expense.Category(name)
	if !c.Valid() {
		return nil, errors.NewNotFoundError("category not found: "+name, errors.ErrCodeInvalidCategory)
	}
	out := FromExpenseCategory(c)
	return &out, nil
}

func (s *Service) IsValidCategory(name string) bool {
	return expense.Category(name).Valid()
}
