package audit

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	auditDatamodel "github.com/frahmantamala/club-ledger/internal/core/datamodel/audit"
)

const (
	TargetExpense    = "expense"
	TargetFiscalYear = "fiscal_year"
	TargetEvent      = "event"
	TargetMember     = "member"
)

// Entry is one durable record of who changed what.
type Entry struct {
	ID          int64                  `json:"id"`
	Action      string                 `json:"action"`
	ActorID     int64                  `json:"actor_id"`
	TargetType  string                 `json:"target_type"`
	TargetID    int64                  `json:"target_id"`
	Description string                 `json:"description"`
	ChangeSet   map[string]interface{} `json:"change_set,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

type Filter struct {
	Action     string
	TargetType string
	TargetID   *int64
	ActorID    *int64
	Limit      int
	Offset     int
}

func ToDataModel(e *Entry) (*auditDatamodel.Entry, error) {
	var changeSet datatypes.JSON
	if len(e.ChangeSet) > 0 {
		raw, err := json.Marshal(e.ChangeSet)
		if err != nil {
			return nil, err
		}
		changeSet = datatypes.JSON(raw)
	}
	return &auditDatamodel.Entry{
		ID:          e.ID,
		Action:      e.Action,
		ActorID:     e.ActorID,
		TargetType:  e.TargetType,
		TargetID:    e.TargetID,
		Description: e.Description,
		ChangeSet:   changeSet,
		CreatedAt:   e.CreatedAt,
	}, nil
}

func FromDataModel(e *auditDatamodel.Entry) *Entry {
	entry := &Entry{
		ID:          e.ID,
		Action:      e.Action,
		ActorID:     e.ActorID,
		TargetType:  e.TargetType,
		TargetID:    e.TargetID,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
	if len(e.ChangeSet) > 0 {
		// a malformed change set is still worth showing without it
		_ = json.Unmarshal(e.ChangeSet, &entry.ChangeSet)
	}
	return entry
}
