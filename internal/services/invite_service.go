package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/jorgenomente/hucha/internal/errors"
	"github.com/jorgenomente/hucha/internal/logger"
	"github.com/jorgenomente/hucha/internal/mailer"
	"github.com/jorgenomente/hucha/internal/models"
	"github.com/jorgenomente/hucha/internal/pagination"
	"github.com/jorgenomente/hucha/internal/uuid"
)

const inviteExpiry = 7 * 24 * time.Hour

// inviteService handles sharing a budget between accounts.
type inviteService struct {
	db        *gorm.DB
	mail      MailDispatcher
	fromEmail string
	baseURL   string
}

// NewInviteService creates a new InviteServicer.
func NewInviteService(db *gorm.DB, mail MailDispatcher, fromEmail, baseURL string) InviteServicer {
	return &inviteService{db: db, mail: mail, fromEmail: fromEmail, baseURL: baseURL}
}

// ownedBudget returns the budget the user owns. Only owners manage invites.
func (s *inviteService) ownedBudget(userID uint) (*models.Budget, error) {
	var b models.Budget
	err := s.db.Where("owner_id = ?", userID).First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrForbidden
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &b, nil
}

// CreateInvite issues an invite for an email address and dispatches the
// invite email. The raw token only travels inside the email link.
func (s *inviteService) CreateInvite(ctx context.Context, userID uint, email string) (*models.BudgetInvite, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email is required")
	}

	b, err := s.ownedBudget(userID)
	if err != nil {
		return nil, err
	}

	// Already a member under this email?
	var memberCount int64
	s.db.Model(&models.BudgetMember{}).
		Joins("JOIN users ON users.id = budget_members.user_id").
		Where("budget_members.budget_id = ? AND users.email = ?", b.ID, email).
		Count(&memberCount)
	if memberCount > 0 {
		return nil, apperrors.ErrAlreadyMember
	}

	var openCount int64
	s.db.Model(&models.BudgetInvite{}).
		Where("budget_id = ? AND email = ? AND status IN ? AND expires_at > ?",
			b.ID, email, []models.InviteStatus{models.InviteStatusPending, models.InviteStatusSent}, time.Now()).
		Count(&openCount)
	if openCount > 0 {
		return nil, apperrors.ErrDuplicateInvite
	}

	token := uuid.New()
	invite := &models.BudgetInvite{
		BudgetID:    b.ID,
		InvitedByID: userID,
		Email:       email,
		TokenHash:   hashSecret(token),
		Status:      models.InviteStatusPending,
		ExpiresAt:   time.Now().Add(inviteExpiry),
	}
	if err := s.db.Create(invite).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var inviter models.User
	if err := s.db.First(&inviter, userID).Error; err != nil {
		logger.Get().Warnw("load inviter for invite email", "user_id", userID, "error", err)
	}
	msg := mailer.NewInviteMessage(email, s.fromEmail, b.Name, inviter.DisplayName,
		s.baseURL+"/invites/accept?token="+token)
	msg.RefID = invite.ID
	if err := s.mail.Publish(ctx, msg); err != nil {
		// Invite stays pending; the owner can revoke and re-invite.
		logger.Get().Errorw("dispatch invite email", "invite_id", invite.ID, "error", err)
	}

	return invite, nil
}

// ListInvites returns a paginated list of the owner's invites.
func (s *inviteService) ListInvites(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetInvite], error) {
	page.Defaults()

	b, err := s.ownedBudget(userID)
	if err != nil {
		return nil, err
	}

	base := s.db.Model(&models.BudgetInvite{}).Where("budget_id = ?", b.ID)
	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var invites []models.BudgetInvite
	if err := base.Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&invites).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(invites, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// RevokeInvite closes an open invite.
func (s *inviteService) RevokeInvite(userID, inviteID uint) error {
	b, err := s.ownedBudget(userID)
	if err != nil {
		return err
	}

	var invite models.BudgetInvite
	if err := s.db.Where("id = ? AND budget_id = ?", inviteID, b.ID).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInviteNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if invite.Status == models.InviteStatusAccepted || invite.Status == models.InviteStatusRevoked {
		return apperrors.ErrInviteNotOpen
	}

	if err := s.db.Model(&invite).Update("status", models.InviteStatusRevoked).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// AcceptInvite redeems an invite token for the authenticated user, joining
// them to the shared budget.
func (s *inviteService) AcceptInvite(userID uint, token string) (*models.BudgetMember, error) {
	var invite models.BudgetInvite
	err := s.db.Where("token_hash = ?", hashSecret(token)).First(&invite).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInviteNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	now := time.Now()
	if invite.Status == models.InviteStatusAccepted || invite.Status == models.InviteStatusRevoked {
		return nil, apperrors.ErrInviteNotOpen
	}
	if !invite.Open(now) {
		return nil, apperrors.ErrInviteExpired
	}

	var existing int64
	s.db.Model(&models.BudgetMember{}).
		Where("budget_id = ? AND user_id = ?", invite.BudgetID, userID).
		Count(&existing)
	if existing > 0 {
		return nil, apperrors.ErrAlreadyMember
	}

	member := &models.BudgetMember{BudgetID: invite.BudgetID, UserID: userID, Role: models.MemberRoleMember}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(member).Error; err != nil {
			return err
		}
		return tx.Model(&invite).Update("status", models.InviteStatusAccepted).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return member, nil
}

// MarkInviteSent records that the mail worker delivered the invite email.
func (s *inviteService) MarkInviteSent(inviteID uint) error {
	var invite models.BudgetInvite
	if err := s.db.First(&invite, inviteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInviteNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if invite.Status != models.InviteStatusPending {
		return nil
	}
	if err := s.db.Model(&invite).Update("status", models.InviteStatusSent).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ListMembers returns a paginated list of the members of the user's budget.
func (s *inviteService) ListMembers(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetMember], error) {
	page.Defaults()

	var member models.BudgetMember
	err := s.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	base := s.db.Model(&models.BudgetMember{}).Where("budget_id = ?", member.BudgetID)
	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var members []models.BudgetMember
	if err := base.Preload("User").Order("created_at ASC").Scopes(pagination.Paginate(page)).Find(&members).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(members, page.Page, page.PageSize, totalItems)
	return &result, nil
}
