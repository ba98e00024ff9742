package models

import "time"

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
	// RoleGuest is assigned to anonymous sessions only and is never stored.
	RoleGuest UserRole = "guest"
)

// Valid reports whether r may be stored on a profile.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is the profile record of the users collection. ID equals the account id.
type User struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	Email          string    `gorm:"size:255;not null" json:"email"`
	Role           UserRole  `gorm:"type:varchar(20);not null" json:"role"`
	AssignedUnitID *string   `gorm:"size:64" json:"assignedUnitId"`
	DisplayName    string    `gorm:"size:255" json:"displayName"`
	CreatedAt      time.Time `json:"createdAt"`
}

// AssignedUnit returns the assigned unit id or "" when none is set.
func (u User) AssignedUnit() string {
	if u.AssignedUnitID == nil {
		return ""
	}
	return *u.AssignedUnitID
}
