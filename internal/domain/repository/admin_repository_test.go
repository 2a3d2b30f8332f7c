package repository

import (
	"context"
	"testing"

	"codequest_admin/internal/common"
	"codequest_admin/internal/domain/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseAdminRepository(t *testing.T, repo AdminRepository) {
	t.Helper()
	ctx := context.Background()
	suffix := uuid.NewString()[:8]

	account := &model.AdminAccount{
		Admin: model.Admin{
			ID:       uuid.NewString(),
			Email:    "host-" + suffix + "@arena.io",
			Name:     "Host",
			Username: "host-" + suffix,
			Role:     model.RoleAdmin,
		},
		HashedPassword: "hash",
	}
	require.NoError(t, repo.Create(ctx, account))
	assert.False(t, account.CreatedAt.IsZero())

	dup := *account
	dup.ID = uuid.NewString()
	assert.ErrorIs(t, repo.Create(ctx, &dup), common.ErrConflict)

	byEmail, err := repo.FindByEmail(ctx, account.Email)
	require.NoError(t, err)
	assert.Equal(t, account.ID, byEmail.ID)
	assert.Equal(t, "hash", byEmail.HashedPassword)

	byID, err := repo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, account.Email, byID.Email)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = repo.FindByEmail(ctx, "missing@arena.io")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemoryAdminRepository(t *testing.T) {
	exerciseAdminRepository(t, NewMemoryAdminRepository())
}

func TestPgAdminRepository(t *testing.T) {
	exerciseAdminRepository(t, NewPgAdminRepository(openTestDB(t)))
}
