package service

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/fortress/internal/identity/domain"
	"github.com/stretchr/testify/require"
)

func TestRoles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.register(t, anaRegistration())

	require.NoError(t, h.roles.AssignRole(ctx, id, "Admin"))

	roles, err := h.roles.Roles(ctx, id)
	require.NoError(t, err)
	require.Equal(t, []domain.Role{domain.RoleUser, domain.RoleAdmin}, roles)

	t.Run("already held", func(t *testing.T) {
		require.ErrorIs(t, h.roles.AssignRole(ctx, id, "Admin"), domain.ErrConflict)
	})

	t.Run("unknown role", func(t *testing.T) {
		err := h.roles.AssignRole(ctx, id, "Superuser")
		require.ErrorIs(t, err, domain.ErrValidation)
		require.Equal(t, map[string]string{"role": "must be one of Admin, User"}, domain.ValidationDetails(err))
	})

	t.Run("unknown account", func(t *testing.T) {
		require.ErrorIs(t, h.roles.AssignRole(ctx, "nobody", "Admin"), domain.ErrNotFound)
		_, err := h.roles.Roles(ctx, "nobody")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("by email", func(t *testing.T) {
		other := anaRegistration()
		other.Email = "bea@example.com"
		otherID := h.register(t, other)

		require.NoError(t, h.roles.AssignRoleByEmail(ctx, "BEA@example.com", "Admin"))
		roles, err := h.roles.Roles(ctx, otherID)
		require.NoError(t, err)
		require.Contains(t, roles, domain.RoleAdmin)

		require.ErrorIs(t, h.roles.AssignRoleByEmail(ctx, "ghost@example.com", "Admin"), domain.ErrNotFound)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, h.roles.RemoveRole(ctx, id, "User"))
		require.ErrorIs(t, h.roles.RemoveRole(ctx, id, "User"), domain.ErrConflict)

		// Admin is now the only role left.
		require.ErrorIs(t, h.roles.RemoveRole(ctx, id, "Admin"), domain.ErrValidation)

		roles, err := h.roles.Roles(ctx, id)
		require.NoError(t, err)
		require.Equal(t, []domain.Role{domain.RoleAdmin}, roles)
	})
}
