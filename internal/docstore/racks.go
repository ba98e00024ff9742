package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pipe-rack-manager/internal/eventbus"
	"pipe-rack-manager/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatusUpdate is the single write issued when a status editor saves.
type StatusUpdate struct {
	Status    models.RackStatus
	Note      string
	UpdatedBy string
	UpdatedAt time.Time
}

func rackEntityID(unitID, rackID string) string {
	return unitID + "/" + rackID
}

func (s *Store) ListPipeRacks(ctx context.Context, unitID string) ([]models.PipeRack, error) {
	var racks []models.PipeRack
	err := s.db.WithContext(ctx).
		Where("unit_id = ?", unitID).
		Order("id asc").
		Find(&racks).Error
	if err != nil {
		return nil, fmt.Errorf("list pipe racks of %s: %w", unitID, err)
	}
	return racks, nil
}

// GetPipeRack returns nil, nil when the rack does not exist.
func (s *Store) GetPipeRack(ctx context.Context, unitID, rackID string) (*models.PipeRack, error) {
	var rack models.PipeRack
	err := s.db.WithContext(ctx).
		Where("unit_id = ? AND id = ?", unitID, rackID).
		First(&rack).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pipe rack %s: %w", rackEntityID(unitID, rackID), err)
	}
	return &rack, nil
}

// CreatePipeRack stores a rack with status empty, replacing any existing one.
func (s *Store) CreatePipeRack(ctx context.Context, actorID, unitID, rackID string) error {
	unitID = strings.TrimSpace(unitID)
	rackID = strings.TrimSpace(rackID)
	path := PipeRacksPath(unitID)

	if err := validDocID("unit number", unitID); err != nil {
		return s.writeErr("create pipe rack", path, err)
	}
	if err := validDocID("rack id", rackID); err != nil {
		return s.writeErr("create pipe rack", path, err)
	}

	rack := models.PipeRack{
		UnitID:      unitID,
		ID:          rackID,
		Status:      models.StatusEmpty,
		LastUpdated: s.now(),
		UpdatedBy:   actorID,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rack).Error
	if err != nil {
		return s.writeErr("create pipe rack", path, err)
	}

	s.audit(ctx, actorID, "pipe_rack", rackEntityID(unitID, rackID), "create", "Pipe rack created")
	s.publish(ctx, path, rackID, eventbus.OpCreated)
	return nil
}

// UpdatePipeRackStatus writes status, note, timestamp and author in one
// update. The note is kept only for statuses that carry one.
func (s *Store) UpdatePipeRackStatus(ctx context.Context, unitID, rackID string, upd StatusUpdate) error {
	path := PipeRacksPath(unitID)
	if !upd.Status.Valid() {
		return s.writeErr("update pipe rack", path, fmt.Errorf("%w: status %q", ErrInvalid, upd.Status))
	}
	note := ""
	if upd.Status.HasNote() {
		note = strings.TrimSpace(upd.Note)
	}
	at := upd.UpdatedAt
	if at.IsZero() {
		at = s.now()
	}

	var previous models.RackStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rack models.PipeRack
		err := tx.Where("unit_id = ? AND id = ?", unitID, rackID).First(&rack).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, rackEntityID(unitID, rackID))
		}
		if err != nil {
			return err
		}
		previous = rack.Status

		return tx.Model(&models.PipeRack{}).
			Where("unit_id = ? AND id = ?", unitID, rackID).
			Updates(map[string]any{
				"status":       upd.Status,
				"status_note":  note,
				"last_updated": at,
				"updated_by":   upd.UpdatedBy,
			}).Error
	})
	if err != nil {
		return s.writeErr("update pipe rack", path, err)
	}

	s.audit(ctx, upd.UpdatedBy, "pipe_rack", rackEntityID(unitID, rackID), "status_change",
		fmt.Sprintf("%s -> %s", previous, upd.Status))
	s.publish(ctx, path, rackID, eventbus.OpUpdated)
	return nil
}

func (s *Store) DeletePipeRack(ctx context.Context, actorID, unitID, rackID string) error {
	path := PipeRacksPath(unitID)
	if err := required("rack id", rackID); err != nil {
		return s.writeErr("delete pipe rack", path, err)
	}
	res := s.db.WithContext(ctx).
		Where("unit_id = ? AND id = ?", unitID, rackID).
		Delete(&models.PipeRack{})
	if res.Error != nil {
		return s.writeErr("delete pipe rack", path, res.Error)
	}
	if res.RowsAffected == 0 {
		return s.writeErr("delete pipe rack", path, fmt.Errorf("%w: %s", ErrNotFound, rackEntityID(unitID, rackID)))
	}

	s.audit(ctx, actorID, "pipe_rack", rackEntityID(unitID, rackID), "delete", "Pipe rack deleted")
	s.publish(ctx, path, rackID, eventbus.OpDeleted)
	return nil
}

// OrphanedPipeRacks lists racks whose unit no longer exists.
func (s *Store) OrphanedPipeRacks(ctx context.Context) ([]models.PipeRack, error) {
	var racks []models.PipeRack
	err := s.db.WithContext(ctx).
		Model(&models.PipeRack{}).
		Select("pipe_racks.*").
		Joins("LEFT JOIN units ON units.id = pipe_racks.unit_id").
		Where("units.id IS NULL").
		Order("pipe_racks.unit_id asc, pipe_racks.id asc").
		Find(&racks).Error
	if err != nil {
		return nil, fmt.Errorf("list orphaned pipe racks: %w", err)
	}
	return racks, nil
}

// PurgeOrphanedPipeRacks deletes every orphaned rack in one transaction.
func (s *Store) PurgeOrphanedPipeRacks(ctx context.Context, actorID string) (int, error) {
	var purged []models.PipeRack
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var racks []models.PipeRack
		err := tx.Model(&models.PipeRack{}).
			Select("pipe_racks.*").
			Joins("LEFT JOIN units ON units.id = pipe_racks.unit_id").
			Where("units.id IS NULL").
			Find(&racks).Error
		if err != nil {
			return err
		}
		for _, r := range racks {
			if err := tx.Where("unit_id = ? AND id = ?", r.UnitID, r.ID).Delete(&models.PipeRack{}).Error; err != nil {
				return err
			}
		}
		purged = racks
		return nil
	})
	if err != nil {
		return 0, s.writeErr("purge orphaned pipe racks", UnitsPath, err)
	}

	for _, r := range purged {
		s.audit(ctx, actorID, "pipe_rack", rackEntityID(r.UnitID, r.ID), "delete", "Orphaned pipe rack purged")
		s.publish(ctx, PipeRacksPath(r.UnitID), r.ID, eventbus.OpDeleted)
	}
	return len(purged), nil
}
