package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"pipe-rack-manager/internal/logging"
	"pipe-rack-manager/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrAdminExists is returned by SeedAdmin when an admin profile is already present.
var ErrAdminExists = errors.New("admin user already exists")

// SeedAdmin creates the first admin account and profile. It is a no-op
// returning ErrAdminExists once any admin profile exists.
func SeedAdmin(db *gorm.DB, email, password, displayName string, logger *logging.Logger) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errors.New("admin email and password are required")
	}

	var count int64
	if err := db.Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check admin user: %w", err)
	}
	if count > 0 {
		return nil, ErrAdminExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	if displayName == "" {
		displayName = "Administrator"
	}

	var profile models.User
	err = db.Transaction(func(tx *gorm.DB) error {
		var account models.Account
		switch err := tx.Where("email = ?", email).First(&account).Error; {
		case err == nil:
			// reuse an orphaned account left behind by a deleted profile
			account.PasswordHash = string(hash)
			if err := tx.Save(&account).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			account = models.Account{ID: uuid.NewString(), Email: email, PasswordHash: string(hash)}
			if err := tx.Create(&account).Error; err != nil {
				return err
			}
		default:
			return err
		}

		profile = models.User{
			ID:          account.ID,
			Email:       email,
			Role:        models.RoleAdmin,
			DisplayName: displayName,
			CreatedAt:   time.Now().UTC(),
		}
		return tx.Save(&profile).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}

	logger.Info("created default admin user", "email", email)
	return &profile, nil
}
