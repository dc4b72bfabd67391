package audit

import "time"

type AuditLog struct {
	ID         int64     `gorm:"primaryKey"`
	ActorID    *int64    `gorm:"column:actor_id"`
	Action     string    `gorm:"column:action;size:50;not null"`
	TargetType string    `gorm:"column:target_type;size:50;not null;index:idx_audit_target"`
	TargetID   int64     `gorm:"column:target_id;not null;index:idx_audit_target"`
	Detail     string    `gorm:"column:detail"`
	ProjectID  *int64    `gorm:"column:project_id"`
	Timestamp  time.Time `gorm:"column:timestamp;not null"`
}
