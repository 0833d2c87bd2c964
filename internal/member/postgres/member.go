package postgres

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	errors "github.com/frahmantamala/club-ledger/internal"
	memberDatamodel "github.com/frahmantamala/club-ledger/internal/core/datamodel/member"
	"github.com/frahmantamala/club-ledger/internal/member"
)

type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Create inserts m unless its email is already registered.
func (r *MemberRepository) Create(ctx context.Context, m *member.Member) (int64, error) {
	model := member.ToDataModel(m)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&memberDatamodel.Member{}).Where("email = ?", model.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errors.NewConflictError("email is already registered", errors.ErrCodeEmailTaken)
		}
		return tx.Create(model).Error
	})
	if err != nil {
		if _, ok := errors.IsAppError(err); ok {
			return 0, err
		}
		return 0, errors.NewStoreFailureError("member store unavailable", err)
	}
	return model.ID, nil
}

func (r *MemberRepository) GetByID(ctx context.Context, id int64) (*member.Member, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *MemberRepository) GetByEmail(ctx context.Context, email string) (*member.Member, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *MemberRepository) first(ctx context.Context, query string, arg interface{}) (*member.Member, error) {
	var model memberDatamodel.Member
	if err := r.db.WithContext(ctx).Where(query, arg).First(&model).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrMemberNotFound
		}
		return nil, errors.NewStoreFailureError("member store unavailable", err)
	}
	return member.FromDataModel(&model), nil
}

func (r *MemberRepository) List(ctx context.Context, limit, offset int) ([]*member.Member, error) {
	var models []*memberDatamodel.Member
	query := r.db.WithContext(ctx).Order("name ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, errors.NewStoreFailureError("member store unavailable", err)
	}
	return fromModels(models), nil
}

func (r *MemberRepository) FindByIDs(ctx context.Context, ids []int64) ([]*member.Member, error) {
	var models []*memberDatamodel.Member
	if len(ids) == 0 {
		return nil, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, errors.NewStoreFailureError("member store unavailable", err)
	}
	return fromModels(models), nil
}

func fromModels(models []*memberDatamodel.Member) []*member.Member {
	out := make([]*member.Member, len(models))
	for i, m := range models {
		out[i] = member.FromDataModel(m)
	}
	return out
}
