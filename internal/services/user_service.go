package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "github.com/jorgenomente/hucha/internal/errors"
	"github.com/jorgenomente/hucha/internal/logger"
	"github.com/jorgenomente/hucha/internal/mailer"
	"github.com/jorgenomente/hucha/internal/models"
	"github.com/jorgenomente/hucha/internal/uuid"
)

const (
	maxFailedLogins  = 5
	lockoutDuration  = 15 * time.Minute
	resetTokenExpiry = time.Hour
)

// userService handles user-related business logic.
type userService struct {
	db        *gorm.DB
	mail      MailDispatcher
	fromEmail string
	baseURL   string
}

// NewUserService creates a new UserServicer. mail may be a no-op dispatcher
// when password reset emails are not needed (tests, CLI tooling).
func NewUserService(db *gorm.DB, mail MailDispatcher, fromEmail, baseURL string) UserServicer {
	return &userService{db: db, mail: mail, fromEmail: fromEmail, baseURL: baseURL}
}

// CreateUser registers a new user and their default budget.
func (s *userService) CreateUser(email, password, displayName string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email and password are required")
	}
	email = strings.ToLower(strings.TrimSpace(email))

	var count int64
	s.db.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Email:       email,
		Password:    string(hashedPassword),
		DisplayName: displayName,
		IsActive:    true,
	}

	// User, default budget, and owner membership are created together.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		budget := &models.Budget{OwnerID: user.ID, Name: "Household budget"}
		if err := tx.Create(budget).Error; err != nil {
			return err
		}
		member := &models.BudgetMember{BudgetID: budget.ID, UserID: user.ID, Role: models.MemberRoleOwner}
		return tx.Create(member).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return user, nil
}

// GetUserByEmail retrieves an active user by email.
func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ? AND is_active = ?", strings.ToLower(email), true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID.
func (s *userService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// VerifyPassword checks if the provided password matches the stored hash.
func (s *userService) VerifyPassword(user *models.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	return err == nil
}

// AttemptLogin authenticates a user, enforcing the failed-attempt lockout.
func (s *userService) AttemptLogin(email, password string) (*models.User, error) {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	now := time.Now()
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return nil, apperrors.ErrAccountLocked
	}

	if !s.VerifyPassword(user, password) {
		updates := map[string]interface{}{"failed_login_attempts": user.FailedLoginAttempts + 1}
		if user.FailedLoginAttempts+1 >= maxFailedLogins {
			lockedUntil := now.Add(lockoutDuration)
			updates["locked_until"] = lockedUntil
			updates["failed_login_attempts"] = 0
		}
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			logger.Get().Errorw("record failed login", "user_id", user.ID, "error", err)
		}
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := s.db.Model(user).Updates(map[string]interface{}{
		"failed_login_attempts": 0,
		"locked_until":          nil,
		"last_login_at":         now,
	}).Error; err != nil {
		logger.Get().Errorw("record login", "user_id", user.ID, "error", err)
	}
	return user, nil
}

// StoreRefreshTokenHash saves the hash of the user's current refresh token.
func (s *userService) StoreRefreshTokenHash(userID uint, tokenHash string) error {
	if err := s.db.Model(&models.User{}).Where("id = ?", userID).
		Update("refresh_token_hash", tokenHash).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetRefreshTokenHash returns the stored refresh token hash for the user.
func (s *userService) GetRefreshTokenHash(userID uint) (string, error) {
	var user models.User
	if err := s.db.Select("refresh_token_hash").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.ErrUserNotFound
		}
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return user.RefreshTokenHash, nil
}

// RequestPasswordReset issues a short-lived reset token and dispatches the
// reset email. Callers should respond identically whether or not the email
// exists, to avoid account enumeration.
func (s *userService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		return err
	}

	token := uuid.New()
	expires := time.Now().Add(resetTokenExpiry)
	err = s.db.Model(user).Updates(map[string]interface{}{
		"reset_token_hash":       hashSecret(token),
		"reset_token_expires_at": expires,
	}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	msg := mailer.NewPasswordResetMessage(user.Email, s.fromEmail, s.baseURL+"/reset-password?token="+token)
	if err := s.mail.Publish(ctx, msg); err != nil {
		// The token is stored; the user can retry the email.
		logger.Get().Errorw("dispatch password reset email", "user_id", user.ID, "error", err)
	}
	return nil
}

// ResetPassword sets a new password for the user holding the given token.
func (s *userService) ResetPassword(token, newPassword string) error {
	if newPassword == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "password is required")
	}

	var user models.User
	err := s.db.Where("reset_token_hash = ?", hashSecret(token)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInvalidResetToken
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if user.ResetTokenExpiresAt == nil || time.Now().After(*user.ResetTokenExpiresAt) {
		return apperrors.ErrInvalidResetToken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	err = s.db.Model(&user).Updates(map[string]interface{}{
		"password":               string(hashedPassword),
		"reset_token_hash":       "",
		"reset_token_expires_at": nil,
		"refresh_token_hash":     "",
		"failed_login_attempts":  0,
		"locked_until":           nil,
	}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// hashSecret returns the SHA-256 hex digest of a token so raw secrets never
// hit the database.
func hashSecret(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
