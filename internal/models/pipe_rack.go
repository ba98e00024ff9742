package models

import "time"

// PipeRack lives under exactly one unit. There is no foreign key to units:
// deleting a unit leaves its racks in place.
type PipeRack struct {
	UnitID      string     `gorm:"primaryKey;size:64" json:"unitId"`
	ID          string     `gorm:"primaryKey;size:64" json:"id"`
	Status      RackStatus `gorm:"type:varchar(32);not null" json:"status"`
	StatusNote  string     `gorm:"type:text" json:"statusNote"`
	LastUpdated time.Time  `json:"lastUpdated"`
	UpdatedBy   string     `gorm:"size:64" json:"updatedBy"`
}

func (PipeRack) TableName() string {
	return "pipe_racks"
}
