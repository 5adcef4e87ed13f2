package models

import "time"

// Operator is a console or API user. Role is matched against
// auth.trusted_roles to decide whether unredacted output is allowed.
type Operator struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;size:191;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         string `gorm:"size:32;not null;default:reader"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
