// Package auth signs clinic staff in and out. Staff accounts gate the
// patient directory and report downloads; patients checking in never sign in.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"patient-intake-server/internal/apperrors"
	"patient-intake-server/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidSession     = errors.New("session not found, expired, or revoked")
	ErrEmailTaken         = fmt.Errorf("user with this email %w", apperrors.ErrConflict)
)

// SignUpInput is the public staff registration form. It carries no role:
// self-registered accounts are always staff.
type SignUpInput struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
}

// CreateUserInput is the admin form for creating an account with a role.
type CreateUserInput struct {
	SignUpInput
	Role models.Role `json:"role" binding:"omitempty,oneof=admin staff"`
}

// Session is a signed-in staff member with their token pair.
type Session struct {
	AccessToken  string               `json:"accessToken"`
	RefreshToken string               `json:"refreshToken"`
	User         models.UserSanitized `json:"user"`
}

// Service implements sign-up, sign-in, sign-out, current user and session.
type Service struct {
	db     *gorm.DB
	tokens *Tokens
	logger *zap.Logger
}

// NewService creates a Service.
func NewService(db *gorm.DB, tokens *Tokens, logger *zap.Logger) *Service {
	return &Service{db: db, tokens: tokens, logger: logger.Named("auth")}
}

// Tokens exposes the signer used by the auth middleware.
func (s *Service) Tokens() *Tokens { return s.tokens }

// SignUp creates a staff account.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*models.User, error) {
	return s.createUser(ctx, in, models.RoleStaff)
}

// CreateUser creates an account with the requested role, staff by default.
// Only admins reach it.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	role := in.Role
	if role == "" {
		role = models.RoleStaff
	}
	return s.createUser(ctx, in.SignUpInput, role)
}

func (s *Service) createUser(ctx context.Context, in SignUpInput, role models.Role) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperrors.Store("look up user", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	user := models.User{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     email,
		Role:      role,
	}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, apperrors.Store("create user", err)
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return &user, nil
}

// SignIn checks credentials and opens a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperrors.Store("look up user", err)
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return s.open(s.db.WithContext(ctx), &user)
}

func (s *Service) open(db *gorm.DB, user *models.User) (*Session, error) {
	access, refresh, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	stored := models.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: s.tokens.now().Add(s.tokens.RefreshTTL()),
	}
	if err := db.Create(&stored).Error; err != nil {
		return nil, apperrors.Store("store refresh token", err)
	}
	return &Session{AccessToken: access, RefreshToken: refresh, User: user.Sanitize()}, nil
}

// Session exchanges a live refresh token for a new token pair. The old
// refresh token is revoked.
func (s *Service) Session(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidSession
	}

	var session *Session
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored models.RefreshToken
		err := tx.Where("token = ? AND user_id = ?", refreshToken, claims.UserID).First(&stored).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !stored.Active(s.tokens.now())) {
			return ErrInvalidSession
		}
		if err != nil {
			return apperrors.Store("look up refresh token", err)
		}

		var user models.User
		if err := tx.First(&user, "id = ?", claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidSession
			}
			return apperrors.Store("look up user", err)
		}

		if err := tx.Model(&stored).Update("is_revoked", true).Error; err != nil {
			return apperrors.Store("revoke refresh token", err)
		}
		session, err = s.open(tx, &user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// SignOut revokes a refresh token. Unknown or already revoked tokens are not
// an error.
func (s *Service) SignOut(ctx context.Context, refreshToken string) error {
	res := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ? AND is_revoked = ?", refreshToken, false).
		Updates(map[string]interface{}{"is_revoked": true, "expires_at": s.tokens.now()})
	if res.Error != nil {
		return apperrors.Store("revoke refresh token", res.Error)
	}
	if res.RowsAffected > 0 {
		s.logger.Info("user signed out")
	}
	return nil
}

// CurrentUser loads the signed-in user.
func (s *Service) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, apperrors.ErrNotFound)
		}
		return nil, apperrors.Store("look up user", err)
	}
	return &user, nil
}

// UpdateUserInput is an admin edit of a staff account. Empty fields are left
// unchanged.
type UpdateUserInput struct {
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email" binding:"omitempty,email"`
	Role      models.Role `json:"role" binding:"omitempty,oneof=admin staff"`
}

// ListUsers returns every staff account.
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at asc").Find(&users).Error; err != nil {
		return nil, apperrors.Store("list users", err)
	}
	return users, nil
}

// UpdateUser applies an admin edit.
func (s *Service) UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*models.User, error) {
	user, err := s.CurrentUser(ctx, id)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	if in.FirstName != "" {
		user.FirstName = strings.TrimSpace(in.FirstName)
	}
	if in.LastName != "" {
		user.LastName = strings.TrimSpace(in.LastName)
	}
	if email := strings.ToLower(strings.TrimSpace(in.Email)); email != "" && email != user.Email {
		var count int64
		if err := db.Model(&models.User{}).Where("email = ? AND id <> ?", email, user.ID).Count(&count).Error; err != nil {
			return nil, apperrors.Store("look up user", err)
		}
		if count > 0 {
			return nil, ErrEmailTaken
		}
		user.Email = email
	}
	if in.Role != "" {
		user.Role = in.Role
	}

	if err := db.Save(user).Error; err != nil {
		return nil, apperrors.Store("update user", err)
	}
	return user, nil
}

// DeleteUser removes a staff account and its refresh tokens.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.RefreshToken{}).Error; err != nil {
			return apperrors.Store("delete refresh tokens", err)
		}
		res := tx.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return apperrors.Store("delete user", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user %s: %w", id, apperrors.ErrNotFound)
		}
		s.logger.Info("user deleted", zap.String("user_id", id))
		return nil
	})
}
