package postgres

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	errors "github.com/frahmantamala/club-ledger/internal"
	eventDatamodel "github.com/frahmantamala/club-ledger/internal/core/datamodel/event"
	"github.com/frahmantamala/club-ledger/internal/event"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, e *event.Event) (int64, error) {
	model := event.ToDataModel(e)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return 0, errors.NewStoreFailureError("event store unavailable", err)
	}
	return model.ID, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*event.Event, error) {
	var model eventDatamodel.Event
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrEventNotFound
		}
		return nil, errors.NewStoreFailureError("event store unavailable", err)
	}
	return event.FromDataModel(&model), nil
}

func (r *EventRepository) ListByFiscalYear(ctx context.Context, fiscalYear string) ([]*event.Event, error) {
	return r.list(r.db.WithContext(ctx).Where("fiscal_year = ?", fiscalYear))
}

// ListByIDs skips ids that name no event.
func (r *EventRepository) ListByIDs(ctx context.Context, ids []int64) ([]*event.Event, error) {
	if len(ids) == 0 {
		return []*event.Event{}, nil
	}
	return r.list(r.db.WithContext(ctx).Where("id IN ?", ids))
}

func (r *EventRepository) list(query *gorm.DB) ([]*event.Event, error) {
	var models []*eventDatamodel.Event
	if err := query.Order("event_date ASC, id ASC").Find(&models).Error; err != nil {
		return nil, errors.NewStoreFailureError("event store unavailable", err)
	}

	events := make([]*event.Event, 0, len(models))
	for _, m := range models {
		events = append(events, event.FromDataModel(m))
	}
	return events, nil
}
