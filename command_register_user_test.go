package identity_test

import (
	"context"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-identity"
	"github.com/goliatone/go-repository-bun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterUserHandler_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("registers a new user", func(t *testing.T) {
		repo := newTestRepo(t)
		handler := identity.NewRegisterUserHandler(repo)

		user, err := handler.Execute(ctx, identity.RegisterUserMessage{
			Username:     "pepe",
			Email:        "pepe@example.com",
			MobileNumber: "15551234567",
			Password:     "secretPassword123",
		})
		require.NoError(t, err)
		require.NotNil(t, user)

		assert.NotEqual(t, "", user.ID.String())
		assert.Equal(t, "pepe", user.Username)
		assert.Equal(t, "pepe@example.com", user.Email)
		assert.NotEqual(t, "secretPassword123", user.PasswordHash)
		assert.NoError(t, identity.ComparePasswordAndHash("secretPassword123", user.PasswordHash))

		view := user.PublicView()
		_, exposed := view["password"]
		assert.False(t, exposed)
		_, exposed = view["password_hash"]
		assert.False(t, exposed)
	})

	t.Run("no profile is created on registration", func(t *testing.T) {
		repo := newTestRepo(t)
		user := registerTestUser(t, repo, "pepe", "pepe@example.com", "15551234567")

		_, err := repo.Profiles().GetByUserID(ctx, user.ID)
		assert.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})

	t.Run("rejects short passwords", func(t *testing.T) {
		repo := newTestRepo(t)
		handler := identity.NewRegisterUserHandler(repo)

		_, err := handler.Execute(ctx, identity.RegisterUserMessage{
			Username:     "pepe",
			Email:        "pepe@example.com",
			MobileNumber: "15551234567",
			Password:     "short",
		})
		require.Error(t, err)

		var verrs validation.Errors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs, "password")
	})

	t.Run("rejects invalid mobile numbers", func(t *testing.T) {
		repo := newTestRepo(t)
		handler := identity.NewRegisterUserHandler(repo)

		_, err := handler.Execute(ctx, identity.RegisterUserMessage{
			Username:     "pepe",
			Email:        "pepe@example.com",
			MobileNumber: "12",
			Password:     "secretPassword123",
		})
		require.Error(t, err)

		var verrs validation.Errors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs, "mobile_number")
	})

	t.Run("duplicate identifiers report per field", func(t *testing.T) {
		repo := newTestRepo(t)
		registerTestUser(t, repo, "pepe", "pepe@example.com", "15551234567")

		handler := identity.NewRegisterUserHandler(repo)

		_, err := handler.Execute(ctx, identity.RegisterUserMessage{
			Username:     "pepe",
			Email:        "other@example.com",
			MobileNumber: "15559876543",
			Password:     "secretPassword123",
		})
		require.Error(t, err)

		var verrs validation.Errors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs, "username")
		assert.NotContains(t, verrs, "email")
		assert.NotContains(t, verrs, "mobile_number")
	})

	t.Run("duplicate email and mobile aggregate", func(t *testing.T) {
		repo := newTestRepo(t)
		registerTestUser(t, repo, "pepe", "pepe@example.com", "15551234567")

		handler := identity.NewRegisterUserHandler(repo)

		_, err := handler.Execute(ctx, identity.RegisterUserMessage{
			Username:     "other",
			Email:        "pepe@example.com",
			MobileNumber: "15551234567",
			Password:     "secretPassword123",
		})
		require.Error(t, err)

		var verrs validation.Errors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs, "email")
		assert.Contains(t, verrs, "mobile_number")
	})

	t.Run("failed registration persists nothing", func(t *testing.T) {
		repo := newTestRepo(t)
		registerTestUser(t, repo, "pepe", "pepe@example.com", "15551234567")

		handler := identity.NewRegisterUserHandler(repo)
		_, err := handler.Execute(ctx, identity.RegisterUserMessage{
			Username:     "pepe",
			Email:        "other@example.com",
			MobileNumber: "15559876543",
			Password:     "secretPassword123",
		})
		require.Error(t, err)

		_, err = repo.Users().GetByIdentifier(ctx, "other@example.com")
		assert.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})

	t.Run("cancelled context aborts early", func(t *testing.T) {
		repo := newTestRepo(t)
		handler := identity.NewRegisterUserHandler(repo)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := handler.Execute(cancelled, identity.RegisterUserMessage{
			Username:     "pepe",
			Email:        "pepe@example.com",
			MobileNumber: "15551234567",
			Password:     "secretPassword123",
		})
		assert.Error(t, err)
	})
}
