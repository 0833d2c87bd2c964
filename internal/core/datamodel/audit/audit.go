package audit

import (
	"time"

	"gorm.io/datatypes"
)

type Entry struct {
	ID          int64          `gorm:"primaryKey"`
	Action      string         `gorm:"column:action;not null;index:idx_audit_logs_action"`
	ActorID     int64          `gorm:"column:actor_id;not null"`
	TargetType  string         `gorm:"column:target_type;not null"`
	TargetID    int64          `gorm:"column:target_id;not null;index:idx_audit_logs_target"`
	Description string         `gorm:"column:description"`
	ChangeSet   datatypes.JSON `gorm:"column:change_set"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (Entry) TableName() string {
	return "audit_logs"
}
