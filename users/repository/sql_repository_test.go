// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository_test

import (
	"context"
	"testing"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/telar/apps/social/internal/testutil"
	usererrors "github.com/qolzam/telar/apps/social/users/errors"
	"github.com/qolzam/telar/apps/social/users/models"
	"github.com/qolzam/telar/apps/social/users/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	t.Parallel()

	client := testutil.NewSQLiteClient(t)
	repo := repository.NewSQLUserRepository(client)
	ctx := context.Background()

	user := &models.User{Email: "alice@example.com", Username: "alice", FullName: "Alice"}
	require.NoError(t, repo.Create(ctx, user))
	require.NotEqual(t, uuid.Nil, user.ObjectId)

	t.Run("FindByID", func(t *testing.T) {
		found, err := repo.FindByID(ctx, user.ObjectId)
		require.NoError(t, err)
		assert.Equal(t, "alice", found.Username)
		assert.Equal(t, "Alice", found.FullName)
		assert.WithinDuration(t, user.CreatedAt, found.CreatedAt, time.Second)

		_, err = repo.FindByID(ctx, uuid.Must(uuid.NewV4()))
		assert.ErrorIs(t, err, usererrors.ErrUserNotFound)
	})

	t.Run("Exists", func(t *testing.T) {
		ok, err := repo.Exists(ctx, user.ObjectId)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Exists(ctx, uuid.Must(uuid.NewV4()))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Duplicate username", func(t *testing.T) {
		err := repo.Create(ctx, &models.User{Email: "other@example.com", Username: "alice"})
		assert.ErrorIs(t, err, usererrors.ErrDuplicateUser)
	})
}
