// internal/services/user_service.go
package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	apperrors "github.com/chuzo/zxi/internal/errors"
	"github.com/chuzo/zxi/internal/models"
	"github.com/chuzo/zxi/internal/storage"
)

// UserService manages user records and preferences.
type UserService struct {
	users *storage.SQLiteUserRepository
}

func NewUserService(db *sql.DB) *UserService {
	return &UserService{
		users: storage.NewSQLiteUserRepository(db),
	}
}

// EnsureUser registers the user on first contact and refreshes identity
// fields afterwards. Existing settings survive re-registration.
func (s *UserService) EnsureUser(ctx context.Context, id, username, firstName, lastName string) (*models.User, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("user id is required", nil)
	}

	existing, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	now := time.Now()
	user := models.User{
		ID:         id,
		Username:   username,
		FirstName:  firstName,
		LastName:   lastName,
		CreatedAt:  now,
		LastActive: now,
		Settings:   models.DefaultSettings(),
	}
	if existing != nil {
		user.CreatedAt = existing.CreatedAt
		user.Settings = existing.Settings
	}

	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, err
	}

	return &user, nil
}

// GetUser returns the user or a not-found error.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("user not found: %s", id), nil)
	}
	return user, nil
}

// UpdateSettings validates and stores the user's preferences.
func (s *UserService) UpdateSettings(ctx context.Context, id string, settings models.UserSettings) error {
	switch settings.NotificationLevel {
	case "all", "important", "none":
	default:
		return apperrors.NewValidationError(
			fmt.Sprintf("invalid notification level: %s", settings.NotificationLevel), nil)
	}

	if err := s.users.UpdateSettings(ctx, id, settings); err != nil {
		if err == sql.ErrNoRows {
			return apperrors.NewNotFoundError(fmt.Sprintf("user not found: %s", id), nil)
		}
		return fmt.Errorf("failed to update settings: %w", err)
	}
	return nil
}

// Touch updates the user's last-active timestamp.
func (s *UserService) Touch(ctx context.Context, id string) error {
	return s.users.Touch(ctx, id)
}
