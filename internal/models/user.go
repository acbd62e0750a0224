package models

import "time"

// User represents the user model in the database
type User struct {
	Base
	Email               string     `gorm:"uniqueIndex;not null" json:"email"`
	Password            string     `gorm:"not null" json:"-"`
	DisplayName         string     `json:"display_name"`
	IsActive            bool       `gorm:"default:true" json:"is_active"`
	RefreshTokenHash    string     `gorm:"size:64" json:"-"`
	ResetTokenHash      string     `gorm:"size:64" json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`

	Budgets     []Budget       `gorm:"foreignKey:OwnerID" json:"budgets,omitempty"`
	Memberships []BudgetMember `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
}
