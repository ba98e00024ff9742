package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pipe-rack-manager/internal/eventbus"
	"pipe-rack-manager/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) ListUnits(ctx context.Context) ([]models.Unit, error) {
	var units []models.Unit
	if err := s.db.WithContext(ctx).Order("id asc").Find(&units).Error; err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	return units, nil
}

// GetUnit returns nil, nil when the unit does not exist.
func (s *Store) GetUnit(ctx context.Context, id string) (*models.Unit, error) {
	var unit models.Unit
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&unit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get unit %s: %w", id, err)
	}
	return &unit, nil
}

// CreateUnit stores the unit under its number, replacing any existing document.
func (s *Store) CreateUnit(ctx context.Context, actorID string, unit models.Unit) error {
	unit.ID = strings.TrimSpace(unit.ID)
	unit.Name = strings.TrimSpace(unit.Name)
	unit.Description = strings.TrimSpace(unit.Description)

	if err := validDocID("unit number", unit.ID); err != nil {
		return s.writeErr("create unit", UnitsPath, err)
	}
	if err := required("unit name", unit.Name); err != nil {
		return s.writeErr("create unit", UnitsPath, err)
	}
	unit.CreatedAt = s.now()

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&unit).Error
	if err != nil {
		return s.writeErr("create unit", UnitsPath, err)
	}

	s.audit(ctx, actorID, "unit", unit.ID, "create", "Unit created: "+unit.Name)
	s.publish(ctx, UnitsPath, unit.ID, eventbus.OpCreated)
	return nil
}

// DeleteUnit removes the unit document only. Its pipe racks stay in place.
func (s *Store) DeleteUnit(ctx context.Context, actorID, id string) error {
	if err := required("unit number", id); err != nil {
		return s.writeErr("delete unit", UnitsPath, err)
	}
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Unit{}).Error; err != nil {
		return s.writeErr("delete unit", UnitsPath, err)
	}

	s.audit(ctx, actorID, "unit", id, "delete", "Unit deleted")
	s.publish(ctx, UnitsPath, id, eventbus.OpDeleted)
	return nil
}
