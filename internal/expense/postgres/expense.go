package postgres

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	errors "github.com/frahmantamala/club-ledger/internal"
	expenseDatamodel "github.com/frahmantamala/club-ledger/internal/core/datamodel/expense"
	"github.com/frahmantamala/club-ledger/internal/expense"
)

// ExpenseRepository implements expense.Repository using GORM
type ExpenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) Insert(ctx context.Context, e *expense.Expense) (int64, error) {
	if e.MemberID <= 0 || e.EventID <= 0 || e.FiscalYear == "" || e.Date.IsZero() {
		return 0, errors.NewValidationError("member, event, date and fiscal year are required", errors.ErrCodeValidationFailed)
	}
	if !e.Amount.GreaterThanOrEqual(expense.MinimumAmount) {
		return 0, errors.NewValidationFieldError("amount", "amount must be at least 1", errors.ErrCodeInvalidAmount)
	}
	if !e.Category.Valid() || !e.PaymentMode.Valid() || !e.Status.Valid() {
		return 0, errors.NewValidationError("category, payment mode or status is malformed", errors.ErrCodeValidationFailed)
	}

	model := expense.ToDataModel(e)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return 0, storeError(err)
	}
	return model.ID, nil
}

func (r *ExpenseRepository) FindByID(ctx context.Context, id int64) (*expense.Expense, error) {
	var model expenseDatamodel.Expense
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrExpenseNotFound
		}
		return nil, storeError(err)
	}
	return expense.FromDataModel(&model), nil
}

func (r *ExpenseRepository) FindByFilter(ctx context.Context, f expense.Filter) ([]*expense.Expense, error) {
	query := r.db.WithContext(ctx).Model(&expenseDatamodel.Expense{})

	if f.MemberID != nil {
		query = query.Where("member_id = ?", *f.MemberID)
	}
	if f.EventID != nil {
		query = query.Where("event_id = ?", *f.EventID)
	}
	if len(f.EventIDs) > 0 {
		query = query.Where("event_id IN ?", f.EventIDs)
	}
	if f.Status != nil {
		query = query.Where("status = ?", string(*f.Status))
	}
	if f.Category != nil {
		query = query.Where("category = ?", string(*f.Category))
	}
	if f.FiscalYear != "" {
		query = query.Where("fiscal_year = ?", f.FiscalYear)
	}
	if f.DateFrom != nil {
		query = query.Where("expense_date >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		// inclusive upper bound on the calendar date
		query = query.Where("expense_date < ?", f.DateTo.AddDate(0, 0, 1))
	}
	if f.Archived != nil {
		query = query.Where("archived = ?", *f.Archived)
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}
	if f.Offset > 0 {
		query = query.Offset(f.Offset)
	}

	var models []*expenseDatamodel.Expense
	if err := query.Order("submitted_at DESC, id DESC").Find(&models).Error; err != nil {
		return nil, storeError(err)
	}
	return expense.FromDataModelSlice(models), nil
}

// Update applies t as one conditional UPDATE. When no row matches, the record
// is re-read to tell a missing record from one that moved on concurrently.
func (r *ExpenseRepository) Update(ctx context.Context, id int64, t expense.Transition) (*expense.Expense, error) {
	result := r.db.WithContext(ctx).
		Model(&expenseDatamodel.Expense{}).
		Where("id = ? AND status = ? AND archived = ?", id, string(t.From), false).
		Updates(transitionColumns(t))
	if result.Error != nil {
		return nil, storeError(result.Error)
	}

	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, errors.ErrTransitionConflict
	}

	return r.FindByID(ctx, id)
}

func transitionColumns(t expense.Transition) map[string]interface{} {
	columns := map[string]interface{}{
		"status":     string(t.To),
		"updated_at": t.At,
	}
	switch t.Action {
	case expense.ActionApprove:
		columns["approved_by"] = t.ActorID
		columns["approved_at"] = t.At
	case expense.ActionReject:
		columns["rejected_by"] = t.ActorID
		columns["rejected_at"] = t.At
		columns["rejection_reason"] = t.Reason
	case expense.ActionReimburse:
		columns["reimbursed_by"] = t.ActorID
		columns["reimbursed_at"] = t.At
		columns["reimbursement_reference"] = t.Reference
	}
	return columns
}

// Delete removes a record only while it is pending or rejected and not
// archived.
func (r *ExpenseRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND status IN ? AND archived = ?", id,
			[]string{string(expense.StatusPending), string(expense.StatusRejected)}, false).
		Delete(&expenseDatamodel.Expense{})
	if result.Error != nil {
		return storeError(result.Error)
	}

	if result.RowsAffected == 0 {
		current, err := r.FindByID(ctx, id)
		if err != nil {
			return err
		}
		return errors.NewPreconditionFailedError(
			"only pending or rejected expenses of an open fiscal year can be deleted, current status is "+string(current.Status),
			errors.ErrCodeCannotDeleteExpense)
	}
	return nil
}

func (r *ExpenseRepository) ArchiveFiscalYear(ctx context.Context, fiscalYear string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&expenseDatamodel.Expense{}).
		Where("fiscal_year = ? AND archived = ?", fiscalYear, false).
		Updates(map[string]interface{}{
			"archived":   true,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, storeError(result.Error)
	}
	return result.RowsAffected, nil
}

func storeError(err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewStoreFailureError("expense store timed out", err)
	}
	return errors.NewStoreFailureError("expense store unavailable", err)
}
