package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/petermazzocco/go-presenter/models"
	"gorm.io/gorm"
)

// NormalizeEmail lowercases and trims an address for lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser registers a password account. ErrConflict means the email is taken.
func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	user := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Provider:     "password",
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("email %s: %w", user.Email, ErrConflict)
		}
		return tx.Create(user).Error
	})
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	s.logger.Info("user created", "user_id", user.ID)
	return user, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Roles").Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

// UpsertOAuthUser finds the account for an OAuth login by email, creating it
// on first sign-in.
func (s *Store) UpsertOAuthUser(ctx context.Context, name, email, provider string) (*models.User, error) {
	user, err := s.UserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	user = &models.User{
		Name:     strings.TrimSpace(name),
		Email:    NormalizeEmail(email),
		Provider: provider,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	s.logger.Info("user created", "user_id", user.ID, "provider", provider)
	return user, nil
}

func (s *Store) GrantRole(ctx context.Context, userID string, role models.Role) error {
	if has, err := s.HasRole(ctx, userID, role); err != nil || has {
		return err
	}
	if err := s.db.WithContext(ctx).Create(&models.UserRole{UserID: userID, Role: role}).Error; err != nil {
		return fmt.Errorf("granting role: %w", err)
	}
	return nil
}

func (s *Store) HasRole(ctx context.Context, userID string, role models.Role) (bool, error) {
	return hasRole(s.db.WithContext(ctx), userID, role)
}

func hasRole(tx *gorm.DB, userID string, role models.Role) (bool, error) {
	if userID == "" {
		return false, nil
	}
	var count int64
	err := tx.Model(&models.UserRole{}).
		Where("user_id = ? AND role = ?", userID, role).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking role: %w", err)
	}
	return count > 0, nil
}
