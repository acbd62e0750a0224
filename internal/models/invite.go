package models

import "time"

// InviteStatus tracks an invite through its lifecycle.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusSent     InviteStatus = "sent"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusRevoked  InviteStatus = "revoked"
)

// BudgetInvite is an email invitation to join a budget. The raw token is
// only ever sent in the invite email; the database keeps its hash.
type BudgetInvite struct {
	Base
	BudgetID    uint         `gorm:"not null;index" json:"budget_id"`
	InvitedByID uint         `gorm:"not null" json:"invited_by_id"`
	Email       string       `gorm:"not null;index" json:"email"`
	TokenHash   string       `gorm:"size:64;uniqueIndex;not null" json:"-"`
	Status      InviteStatus `gorm:"not null;default:'pending'" json:"status"`
	ExpiresAt   time.Time    `gorm:"not null" json:"expires_at"`

	Budget    Budget `gorm:"foreignKey:BudgetID" json:"budget,omitempty"`
	InvitedBy User   `gorm:"foreignKey:InvitedByID" json:"invited_by,omitempty"`
}

// Open reports whether the invite can still be accepted at the given time.
func (i *BudgetInvite) Open(now time.Time) bool {
	return (i.Status == InviteStatusPending || i.Status == InviteStatusSent) && now.Before(i.ExpiresAt)
}
