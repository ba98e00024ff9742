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

type UserUpdate struct {
	Role           models.UserRole
	AssignedUnitID *string
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("email asc, id asc").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetUser returns nil, nil when no profile exists for id.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &user, nil
}

func normalizeUnitRef(id *string) *string {
	if id == nil {
		return nil
	}
	v := strings.TrimSpace(*id)
	if v == "" {
		return nil
	}
	return &v
}

// SetUser writes a whole profile document.
func (s *Store) SetUser(ctx context.Context, actorID string, user models.User) error {
	user.Email = strings.TrimSpace(user.Email)
	user.DisplayName = strings.TrimSpace(user.DisplayName)
	user.AssignedUnitID = normalizeUnitRef(user.AssignedUnitID)

	if err := required("user id", user.ID); err != nil {
		return s.writeErr("set user", UsersPath, err)
	}
	if err := required("email", user.Email); err != nil {
		return s.writeErr("set user", UsersPath, err)
	}
	if !user.Role.Valid() {
		return s.writeErr("set user", UsersPath, fmt.Errorf("%w: role %q", ErrInvalid, user.Role))
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&user).Error
	if err != nil {
		return s.writeErr("set user", UsersPath, err)
	}

	s.audit(ctx, actorID, "user", user.ID, "create", "User profile saved: "+user.Email)
	s.publish(ctx, UsersPath, user.ID, eventbus.OpCreated)
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, actorID, id string, upd UserUpdate) error {
	if !upd.Role.Valid() {
		return s.writeErr("update user", UsersPath, fmt.Errorf("%w: role %q", ErrInvalid, upd.Role))
	}
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"role":             upd.Role,
			"assigned_unit_id": normalizeUnitRef(upd.AssignedUnitID),
		})
	if res.Error != nil {
		return s.writeErr("update user", UsersPath, res.Error)
	}
	if res.RowsAffected == 0 {
		return s.writeErr("update user", UsersPath, fmt.Errorf("%w: %s", ErrNotFound, id))
	}

	s.audit(ctx, actorID, "user", id, "update", "Role set to "+string(upd.Role))
	s.publish(ctx, UsersPath, id, eventbus.OpUpdated)
	return nil
}

// DeleteUser removes the profile only; the sign-in account remains.
func (s *Store) DeleteUser(ctx context.Context, actorID, id string) error {
	if err := required("user id", id); err != nil {
		return s.writeErr("delete user", UsersPath, err)
	}
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return s.writeErr("delete user", UsersPath, res.Error)
	}
	if res.RowsAffected == 0 {
		return s.writeErr("delete user", UsersPath, fmt.Errorf("%w: %s", ErrNotFound, id))
	}

	s.audit(ctx, actorID, "user", id, "delete", "User profile deleted")
	s.publish(ctx, UsersPath, id, eventbus.OpDeleted)
	return nil
}
