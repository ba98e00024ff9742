package models

import "time"

type AuditLog struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"index"`

	UserID string `gorm:"size:64"`

	Entity   string `gorm:"size:50;not null;index:idx_audit_entity"` // "unit", "pipe_rack", "user"
	EntityID string `gorm:"size:160;index:idx_audit_entity"`
	Action   string `gorm:"size:50;not null"` // "create", "status_change", "delete"
	Details  string `gorm:"type:text"`
}
