package models

// MemberRole distinguishes the budget owner from invited members.
type MemberRole string

const (
	MemberRoleOwner  MemberRole = "owner"
	MemberRoleMember MemberRole = "member"
)

// Budget is a shareable household budget. Its actual contents (periods,
// incomes, expenses, personas) live in the associated BudgetState snapshot.
type Budget struct {
	Base
	OwnerID uint   `gorm:"not null;index" json:"owner_id"`
	Name    string `gorm:"not null" json:"name"`

	Members []BudgetMember `gorm:"foreignKey:BudgetID" json:"members,omitempty"`
}

// BudgetMember links a user to a budget they can read and mutate.
type BudgetMember struct {
	Base
	BudgetID uint       `gorm:"not null;uniqueIndex:idx_budget_user" json:"budget_id"`
	UserID   uint       `gorm:"not null;uniqueIndex:idx_budget_user" json:"user_id"`
	Role     MemberRole `gorm:"not null;default:'member'" json:"role"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// BudgetState is the persisted snapshot slot for one budget: a single JSON
// document holding the full budget.Snapshot, overwritten on every mutation.
type BudgetState struct {
	Base
	BudgetID uint   `gorm:"not null;uniqueIndex" json:"budget_id"`
	Data     []byte `gorm:"type:jsonb" json:"-"`
}
