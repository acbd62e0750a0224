package services

import (
	"context"

	"github.com/jorgenomente/hucha/internal/budget"
	"github.com/jorgenomente/hucha/internal/mailer"
	"github.com/jorgenomente/hucha/internal/models"
	"github.com/jorgenomente/hucha/internal/pagination"
)

// MailDispatcher is the outbound email boundary. The AMQP-backed
// mailer.Client implements it in production; tests substitute a fake.
type MailDispatcher interface {
	Publish(ctx context.Context, msg *mailer.Message) error
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, displayName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID uint, tokenHash string) error
	GetRefreshTokenHash(userID uint) (string, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(token, newPassword string) error
}

// BudgetOverview describes a budget's identity and currently selected period.
type BudgetOverview struct {
	BudgetID    uint   `json:"budget_id"`
	Name        string `json:"name"`
	Year        int    `json:"year"`
	Month       int    `json:"month"`
	PeriodKey   string `json:"period_key"`
	PeriodLabel string `json:"period_label"`
}

// BudgetSummary aggregates the selected period's totals.
type BudgetSummary struct {
	TotalIncome   float64               `json:"total_income"`
	TotalExpenses float64               `json:"total_expenses"`
	Balance       float64               `json:"balance"`
	PersonaTotals []budget.PersonaTotal `json:"persona_totals"`
}

// BudgetServicer defines the contract for budget state operations. Every
// method resolves the caller's budget (owned or joined via invite), applies
// the operation to its hydrated store, and relies on the store's change
// subscription for persistence.
type BudgetServicer interface {
	Overview(userID uint) (*BudgetOverview, error)
	Rename(userID uint, name string) error
	SelectPeriod(userID uint, year, month int) error
	Reset(userID uint) error
	Summary(userID uint) (*BudgetSummary, error)

	Incomes(userID uint) ([]budget.IncomeEntry, error)
	AddMovement(userID uint, form budget.MovementForm) (string, error)
	ToggleReceived(userID uint, entryID string) error
	UpdateIncome(userID uint, entryID string, update budget.IncomeUpdate) error
	RemoveIncome(userID uint, entryID string) error

	Personas(userID uint) ([]string, map[string]int, error)
	RenamePersona(userID uint, oldName, newName string) error
	SetPersonaThemeHue(userID uint, persona string, hue int) error

	FixedExpenses(userID uint) ([]budget.FixedExpense, error)
	UpdateFixedExpense(userID uint, item budget.FixedExpense) error
	ToggleFixedExpensePaid(userID uint, expenseID string) error
	UpdateFixedExpensePaymentDate(userID uint, expenseID string, date *string) error
	RemoveFixedExpense(userID uint, expenseID string) error

	VariableExpenses(userID uint) ([]budget.VariableExpense, error)
	AddVariableExpense(userID uint, form budget.VariableExpenseForm) (string, error)
	RemoveVariableExpense(userID uint, expenseID string) error
}

// InviteServicer defines the contract for sharing a budget between accounts.
type InviteServicer interface {
	CreateInvite(ctx context.Context, userID uint, email string) (*models.BudgetInvite, error)
	ListInvites(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetInvite], error)
	RevokeInvite(userID, inviteID uint) error
	AcceptInvite(userID uint, token string) (*models.BudgetMember, error)
	MarkInviteSent(inviteID uint) error
	ListMembers(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetMember], error)
}
