// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// SystemActorID is the user that owns writes made outside an interactive request.
const SystemActorID uint = 1

// User represents a forum member. Authentication lives elsewhere; threads only
// read the role and state flags and bump the point counter.
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Username    string         `gorm:"unique;not null" json:"username"`
	Email       string         `gorm:"unique;not null" json:"email"`
	Password    string         `gorm:"not null" json:"-"`
	IsAdmin     bool           `gorm:"not null;default:false" json:"is_admin"`
	Points      int64          `gorm:"not null;default:0" json:"points"`
	ActivatedAt *time.Time     `json:"activated_at,omitempty"`
	BannedAt    *time.Time     `json:"banned_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsActive reports whether the user counts towards published visibility.
func (u *User) IsActive() bool {
	return u.ActivatedAt != nil && u.BannedAt == nil
}
