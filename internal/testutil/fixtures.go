package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jorgenomente/hucha/internal/mailer"
	"github.com/jorgenomente/hucha/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestBudget creates a budget owned by the given user, with the
// owner membership row the registration flow would create.
func CreateTestBudget(t *testing.T, db *gorm.DB, ownerID uint) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		OwnerID: ownerID,
		Name:    fmt.Sprintf("Test Budget %d", nextID()),
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}

	member := &models.BudgetMember{
		BudgetID: budget.ID,
		UserID:   ownerID,
		Role:     models.MemberRoleOwner,
	}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to create test budget membership: %v", err)
	}
	return budget
}

// CreateTestInvite creates an open invite to the given budget.
func CreateTestInvite(t *testing.T, db *gorm.DB, budgetID, invitedByID uint, email, tokenHash string) *models.BudgetInvite {
	t.Helper()

	invite := &models.BudgetInvite{
		BudgetID:    budgetID,
		InvitedByID: invitedByID,
		Email:       email,
		TokenHash:   tokenHash,
		Status:      models.InviteStatusPending,
		ExpiresAt:   time.Now().Add(24 * time.Hour),
	}
	if err := db.Create(invite).Error; err != nil {
		t.Fatalf("failed to create test invite: %v", err)
	}
	return invite
}

// FakeMailDispatcher records published messages instead of talking to a broker.
type FakeMailDispatcher struct {
	mu       sync.Mutex
	Messages []*mailer.Message
	Err      error
}

// Publish appends the message, or returns the configured error.
func (f *FakeMailDispatcher) Publish(_ context.Context, msg *mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Messages = append(f.Messages, msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (f *FakeMailDispatcher) Sent() []*mailer.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*mailer.Message, len(f.Messages))
	copy(out, f.Messages)
	return out
}
