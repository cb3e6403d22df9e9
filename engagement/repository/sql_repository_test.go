// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	uuid "github.com/gofrs/uuid"
	engagementErrors "github.com/qolzam/telar/apps/social/engagement/errors"
	"github.com/qolzam/telar/apps/social/engagement/models"
	"github.com/qolzam/telar/apps/social/engagement/repository"
	"github.com/qolzam/telar/apps/social/internal/database/sqldb"
	"github.com/qolzam/telar/apps/social/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store  repository.InteractionStore
	client *sqldb.Client
	userID uuid.UUID
	postID uuid.UUID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := testutil.NewSQLiteClient(t)
	userID := testutil.SeedUser(t, client, "alice")
	postID := testutil.SeedPost(t, client, userID, "first post")
	return fixture{
		store:  repository.NewSQLInteractionStore(client),
		client: client,
		userID: userID,
		postID: postID,
	}
}

func newPostgresFixture(t *testing.T) fixture {
	t.Helper()
	client := testutil.NewPostgresClient(t)
	userID := testutil.SeedUser(t, client, "pg_alice")
	postID := testutil.SeedPost(t, client, userID, "postgres post")
	return fixture{
		store:  repository.NewSQLInteractionStore(client),
		client: client,
		userID: userID,
		postID: postID,
	}
}

func TestRecordInteraction(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	t.Run("Creates once then finds", func(t *testing.T) {
		first, created, err := f.store.RecordInteraction(ctx, f.postID, f.userID, models.KindLike)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, models.KindLike, first.Kind)

		second, created, err := f.store.RecordInteraction(ctx, f.postID, f.userID, models.KindLike)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ObjectId, second.ObjectId)
		assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
	})

	t.Run("Like and share are independent", func(t *testing.T) {
		_, created, err := f.store.RecordInteraction(ctx, f.postID, f.userID, models.KindShare)
		require.NoError(t, err)
		assert.True(t, created)

		counts, err := f.store.CountByKind(ctx, f.postID)
		require.NoError(t, err)
		assert.Equal(t, models.InteractionCounts{Likes: 1, Shares: 1}, counts)
	})

	t.Run("Missing post", func(t *testing.T) {
		_, _, err := f.store.RecordInteraction(ctx, uuid.Must(uuid.NewV4()), f.userID, models.KindLike)
		assert.ErrorIs(t, err, engagementErrors.ErrPostNotFound)
	})

	t.Run("Missing user", func(t *testing.T) {
		_, _, err := f.store.RecordInteraction(ctx, f.postID, uuid.Must(uuid.NewV4()), models.KindLike)
		assert.ErrorIs(t, err, engagementErrors.ErrUserNotFound)
	})
}

func TestRecordInteraction_Concurrent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	errs := make([]error, 0)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.client.WithTransaction(ctx, func(txCtx context.Context) error {
				_, created, err := f.store.RecordInteraction(txCtx, f.postID, f.userID, models.KindLike)
				if err != nil {
					return err
				}
				mu.Lock()
				if created {
					createdCount++
				}
				mu.Unlock()
				return nil
			})
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, errs)
	assert.Equal(t, 1, createdCount)

	counts, err := f.store.CountByKind(ctx, f.postID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Likes)
}

func TestRemoveInteraction(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	removed, err := f.store.RemoveInteraction(ctx, f.postID, f.userID, models.KindLike)
	require.NoError(t, err)
	assert.False(t, removed)

	_, _, err = f.store.RecordInteraction(ctx, f.postID, f.userID, models.KindLike)
	require.NoError(t, err)

	removed, err = f.store.RemoveInteraction(ctx, f.postID, f.userID, models.KindLike)
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = f.store.FindInteraction(ctx, f.postID, f.userID, models.KindLike)
	assert.ErrorIs(t, err, engagementErrors.ErrInteractionNotFound)
}

func TestComments(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	comment, err := f.store.AddComment(ctx, f.postID, f.userID, "nice")
	require.NoError(t, err)
	assert.Equal(t, "nice", comment.Content)
	assert.Equal(t, f.postID, comment.PostId)

	_, err = f.store.AddComment(ctx, f.postID, f.userID, "again")
	require.NoError(t, err)

	n, err := f.store.CountComments(ctx, f.postID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = f.store.AddComment(ctx, uuid.Must(uuid.NewV4()), f.userID, "orphan")
	assert.ErrorIs(t, err, engagementErrors.ErrPostNotFound)

	_, err = f.store.AddComment(ctx, f.postID, uuid.Must(uuid.NewV4()), "ghost")
	assert.ErrorIs(t, err, engagementErrors.ErrUserNotFound)
}

func TestCountsReadTheirOwnTransaction(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	err := f.client.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, _, err := f.store.RecordInteraction(txCtx, f.postID, f.userID, models.KindShare); err != nil {
			return err
		}
		if _, err := f.store.AddComment(txCtx, f.postID, f.userID, "in tx"); err != nil {
			return err
		}

		counts, err := f.store.CountByKind(txCtx, f.postID)
		require.NoError(t, err)
		assert.Equal(t, models.InteractionCounts{Shares: 1}, counts)

		n, err := f.store.CountComments(txCtx, f.postID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		return nil
	})
	require.NoError(t, err)
}

func TestPostDeleteCascades(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.store.RecordInteraction(ctx, f.postID, f.userID, models.KindLike)
	require.NoError(t, err)
	_, err = f.store.AddComment(ctx, f.postID, f.userID, "bye")
	require.NoError(t, err)

	_, err = f.client.DB().ExecContext(ctx, f.client.DB().Rebind(`DELETE FROM posts WHERE id = ?`), f.postID)
	require.NoError(t, err)

	counts, err := f.store.CountByKind(ctx, f.postID)
	require.NoError(t, err)
	assert.Equal(t, models.InteractionCounts{}, counts)

	n, err := f.store.CountComments(ctx, f.postID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInteractionStorePostgres(t *testing.T) {
	f := newPostgresFixture(t)
	ctx := context.Background()

	t.Run("Filtered counts", func(t *testing.T) {
		bob := testutil.SeedUser(t, f.client, "pg_bob")
		for _, rec := range []struct {
			user uuid.UUID
			kind models.Kind
		}{{f.userID, models.KindLike}, {bob, models.KindLike}, {bob, models.KindShare}} {
			_, created, err := f.store.RecordInteraction(ctx, f.postID, rec.user, rec.kind)
			require.NoError(t, err)
			assert.True(t, created)
		}

		counts, err := f.store.CountByKind(ctx, f.postID)
		require.NoError(t, err)
		assert.Equal(t, models.InteractionCounts{Likes: 2, Shares: 1}, counts)
	})

	t.Run("Foreign key violation is an unknown user", func(t *testing.T) {
		err := f.client.WithTransaction(ctx, func(txCtx context.Context) error {
			_, _, err := f.store.RecordInteraction(txCtx, f.postID, uuid.Must(uuid.NewV4()), models.KindShare)
			return err
		})
		assert.ErrorIs(t, err, engagementErrors.ErrUserNotFound)
	})

	t.Run("Insert behind an uncommitted duplicate is a conflict", func(t *testing.T) {
		carol := testutil.SeedUser(t, f.client, "pg_carol")
		inserted := make(chan struct{})
		release := make(chan struct{})
		first := make(chan error, 1)
		go func() {
			first <- f.client.WithTransaction(ctx, func(txCtx context.Context) error {
				if _, _, err := f.store.RecordInteraction(txCtx, f.postID, carol, models.KindShare); err != nil {
					return err
				}
				close(inserted)
				<-release
				return nil
			})
		}()
		select {
		case <-inserted:
		case err := <-first:
			t.Fatalf("first insert failed: %v", err)
		}

		second := make(chan error, 1)
		go func() {
			second <- f.client.WithTransaction(ctx, func(txCtx context.Context) error {
				_, _, err := f.store.RecordInteraction(txCtx, f.postID, carol, models.KindShare)
				return err
			})
		}()
		// the second insert waits on the unique index until the first commits
		time.Sleep(200 * time.Millisecond)
		close(release)

		require.NoError(t, <-first)
		assert.ErrorIs(t, <-second, engagementErrors.ErrConflict)

		existing, err := f.store.FindInteraction(ctx, f.postID, carol, models.KindShare)
		require.NoError(t, err)
		assert.Equal(t, carol, existing.OwnerUserId)
	})

	t.Run("Concurrent records create one row", func(t *testing.T) {
		dave := testutil.SeedUser(t, f.client, "pg_dave")
		const workers = 16
		var wg sync.WaitGroup
		var mu sync.Mutex
		createdCount := 0
		errs := make([]error, 0)

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := f.client.WithTransaction(ctx, func(txCtx context.Context) error {
					_, created, err := f.store.RecordInteraction(txCtx, f.postID, dave, models.KindLike)
					if err == nil && created {
						mu.Lock()
						createdCount++
						mu.Unlock()
					}
					return err
				})
				if err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, createdCount)
		for _, err := range errs {
			assert.ErrorIs(t, err, engagementErrors.ErrConflict)
		}

		var rows int
		require.NoError(t, f.client.DB().Get(&rows, f.client.DB().Rebind(`SELECT COUNT(*) FROM interactions WHERE post_id = ? AND owner_user_id = ?`), f.postID, dave))
		assert.Equal(t, 1, rows)
	})
}
