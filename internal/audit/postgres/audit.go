package postgres

import (
	"context"

	"gorm.io/gorm"

	errors "github.com/frahmantamala/club-ledger/internal"
	"github.com/frahmantamala/club-ledger/internal/audit"
	auditDatamodel "github.com/frahmantamala/club-ledger/internal/core/datamodel/audit"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, entry *audit.Entry) error {
	model, err := audit.ToDataModel(entry)
	if err != nil {
		return errors.NewInternalError("failed to encode audit change set", err)
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return errors.NewStoreFailureError("audit store unavailable", err)
	}
	entry.ID = model.ID
	return nil
}

func (r *AuditRepository) List(ctx context.Context, f audit.Filter) ([]*audit.Entry, error) {
	query := r.db.WithContext(ctx).Model(&auditDatamodel.Entry{})
	if f.Action != "" {
		query = query.Where("action = ?", f.Action)
	}
	if f.TargetType != "" {
		query = query.Where("target_type = ?", f.TargetType)
	}
	if f.TargetID != nil {
		query = query.Where("target_id = ?", *f.TargetID)
	}
	if f.ActorID != nil {
		query = query.Where("actor_id = ?", *f.ActorID)
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}
	if f.Offset > 0 {
		query = query.Offset(f.Offset)
	}

	var models []*auditDatamodel.Entry
	if err := query.Order("created_at DESC, id DESC").Find(&models).Error; err != nil {
		return nil, errors.NewStoreFailureError("audit store unavailable", err)
	}

	entries := make([]*audit.Entry, len(models))
	for i, m := range models {
		entries[i] = audit.FromDataModel(m)
	}
	return entries, nil
}
