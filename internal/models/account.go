package models

import "time"

// Account is the credential record owned by the identity provider.
// It is independent from the User profile: deleting a profile keeps the account.
type Account struct {
	ID           string `gorm:"primaryKey;size:64"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
}
