package database

import (
	"pipe-rack-manager/internal/models"

	"gorm.io/gorm"
)

// CreateAuditLog records a change. Callers log the error; it never undoes
// the write it describes.
func CreateAuditLog(db *gorm.DB, userID, entity, entityID, action, details string) error {
	if db == nil {
		return nil
	}
	record := models.AuditLog{
		UserID:   userID,
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Details:  details,
	}
	return db.Create(&record).Error
}

// AuditTrail returns the newest entries for one entity first.
func AuditTrail(db *gorm.DB, entity, entityID string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []models.AuditLog
	q := db.Order("created_at desc, id desc").Limit(limit)
	if entity != "" {
		q = q.Where("entity = ?", entity)
	}
	if entityID != "" {
		q = q.Where("entity_id = ?", entityID)
	}
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
