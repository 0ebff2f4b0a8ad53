// internal/services/user_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/chuzo/zxi/internal/errors"
	"github.com/chuzo/zxi/internal/models"
)

func TestEnsureUserRegistersAndRefreshes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.user.EnsureUser(ctx, "u1", "ember_fan", "Kai", "")
	require.NoError(t, err)
	assert.Equal(t, "important", user.Settings.NotificationLevel)

	// Re-registration with a new username keeps the original record's
	// creation time and settings.
	settings := user.Settings
	settings.NotificationLevel = "none"
	require.NoError(t, env.user.UpdateSettings(ctx, "u1", settings))

	again, err := env.user.EnsureUser(ctx, "u1", "ember_fanatic", "Kai", "")
	require.NoError(t, err)
	assert.Equal(t, "ember_fanatic", again.Username)
	assert.Equal(t, "none", again.Settings.NotificationLevel)
	assert.Equal(t, user.CreatedAt.Unix(), again.CreatedAt.Unix())
}

func TestEnsureUserRequiresID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.user.EnsureUser(context.Background(), "", "x", "", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))
}

func TestGetUserNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.user.GetUser(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestUpdateSettingsValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "u1")

	err := env.user.UpdateSettings(ctx, "u1", models.UserSettings{NotificationLevel: "loud"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))

	err = env.user.UpdateSettings(ctx, "ghost", models.UserSettings{NotificationLevel: "all"})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFoundError(err))

	require.NoError(t, env.user.UpdateSettings(ctx, "u1", models.UserSettings{NotificationLevel: "all"}))

	user, err := env.user.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "all", user.Settings.NotificationLevel)
}
