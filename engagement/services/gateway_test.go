// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	uuid "github.com/gofrs/uuid"
	engagementErrors "github.com/qolzam/telar/apps/social/engagement/errors"
	"github.com/qolzam/telar/apps/social/engagement/models"
	"github.com/qolzam/telar/apps/social/engagement/repository"
	"github.com/qolzam/telar/apps/social/engagement/services"
	"github.com/qolzam/telar/apps/social/internal/database/sqldb"
	"github.com/qolzam/telar/apps/social/internal/globalid"
	"github.com/qolzam/telar/apps/social/internal/testutil"
	"github.com/qolzam/telar/apps/social/internal/types"
	postsModels "github.com/qolzam/telar/apps/social/posts/models"
	postsRepository "github.com/qolzam/telar/apps/social/posts/repository"
	usersRepository "github.com/qolzam/telar/apps/social/users/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingInvalidator struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (r *recordingInvalidator) Invalidate(_ context.Context, postID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, postID)
}

func (r *recordingInvalidator) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}

type harness struct {
	client      *sqldb.Client
	store       repository.InteractionStore
	posts       postsRepository.PostRepository
	gateway     services.PostMutationGateway
	codec       globalid.Codec
	invalidator *recordingInvalidator
	author      uuid.UUID
	postID      uuid.UUID
	postRef     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	client := testutil.NewSQLiteClient(t)
	store := repository.NewSQLInteractionStore(client)
	return newHarnessWithStore(t, client, store)
}

func newHarnessWithStore(t *testing.T, client *sqldb.Client, store repository.InteractionStore) *harness {
	t.Helper()
	codec := globalid.RelayCodec{}
	posts := postsRepository.NewSQLRepository(client)
	invalidator := &recordingInvalidator{}
	author := testutil.SeedUser(t, client, "author")
	postID := testutil.SeedPost(t, client, author, "hello world")

	return &harness{
		client:      client,
		store:       store,
		posts:       posts,
		gateway:     services.NewGateway(store, posts, usersRepository.NewSQLUserRepository(client), codec, invalidator, services.GatewayConfig{CommentMaxLength: 280, ConflictRetries: 3}),
		codec:       codec,
		invalidator: invalidator,
		author:      author,
		postID:      postID,
		postRef:     codec.Encode(globalid.TypePost, postID),
	}
}

func (h *harness) actor(t *testing.T, username string) types.UserContext {
	t.Helper()
	return types.UserContext{UserID: testutil.SeedUser(t, h.client, username), Username: username, SystemRole: types.UserRole}
}

func (h *harness) counters(t *testing.T) postsModels.Counters {
	t.Helper()
	post, err := h.posts.FindByID(context.Background(), h.postID)
	require.NoError(t, err)
	return post.Counters()
}

// sourceCounts counts the rows the counters are derived from, bypassing the store
func (h *harness) sourceCounts(t *testing.T) postsModels.Counters {
	t.Helper()
	db := h.client.DB()
	var c postsModels.Counters
	require.NoError(t, db.Get(&c.Likes, db.Rebind(`SELECT COUNT(*) FROM interactions WHERE post_id = ? AND kind = 'like'`), h.postID))
	require.NoError(t, db.Get(&c.Shares, db.Rebind(`SELECT COUNT(*) FROM interactions WHERE post_id = ? AND kind = 'share'`), h.postID))
	require.NoError(t, db.Get(&c.Comments, db.Rebind(`SELECT COUNT(*) FROM comments WHERE post_id = ?`), h.postID))
	return c
}

func TestGateway_Scenario(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	alice := h.actor(t, "alice")
	bob := h.actor(t, "bob")

	assert.Equal(t, postsModels.Counters{}, h.counters(t))

	res, err := h.gateway.ToggleInteraction(ctx, alice, h.postRef, "like")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, int64(1), res.Post.LikesCount)

	res, err = h.gateway.ToggleInteraction(ctx, bob, h.postRef, "like")
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Post.LikesCount)

	res, err = h.gateway.ToggleInteraction(ctx, alice, h.postRef, "like")
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, int64(2), res.Post.LikesCount)

	for i := 1; i <= 2; i++ {
		commentRes, err := h.gateway.AddComment(ctx, alice, h.postRef, fmt.Sprintf("comment %d", i))
		require.NoError(t, err)
		assert.Equal(t, int64(i), commentRes.Post.CommentsCount)
		assert.Equal(t, alice.UserID, commentRes.Comment.OwnerUserId)
	}

	assert.Equal(t, postsModels.Counters{Likes: 2, Comments: 2}, h.counters(t))
	assert.Equal(t, h.sourceCounts(t), h.counters(t))
	assert.Equal(t, 5, h.invalidator.count())
}

func TestGateway_ToggleIsIdempotent(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	alice := h.actor(t, "alice")

	first, err := h.gateway.ToggleInteraction(ctx, alice, h.postRef, "like")
	require.NoError(t, err)
	second, err := h.gateway.ToggleInteraction(ctx, alice, h.postRef, "like")
	require.NoError(t, err)

	assert.Equal(t, first.Interaction.ObjectId, second.Interaction.ObjectId)
	assert.Equal(t, first.Post.LikesCount, second.Post.LikesCount)
	assert.Equal(t, int64(1), h.sourceCounts(t).Likes)
}

func TestGateway_LikeAndShareAreIndependent(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	alice := h.actor(t, "alice")

	_, err := h.gateway.ToggleInteraction(ctx, alice, h.postRef, "like")
	require.NoError(t, err)
	res, err := h.gateway.ToggleInteraction(ctx, alice, h.postRef, "share")
	require.NoError(t, err)
	assert.True(t, res.Created)

	assert.Equal(t, postsModels.Counters{Likes: 1, Shares: 1}, h.counters(t))
	assert.Equal(t, h.sourceCounts(t), h.counters(t))
}

func newPostgresHarness(t *testing.T) *harness {
	t.Helper()
	client := testutil.NewPostgresClient(t)
	return newHarnessWithStore(t, client, repository.NewSQLInteractionStore(client))
}

func TestGateway_ConcurrentToggleBySameUser(t *testing.T) {
	t.Parallel()
	checkConcurrentToggleBySameUser(t, newHarness(t))
}

func TestGateway_ConcurrentToggleBySameUserPostgres(t *testing.T) {
	checkConcurrentToggleBySameUser(t, newPostgresHarness(t))
}

func checkConcurrentToggleBySameUser(t *testing.T, h *harness) {
	t.Helper()
	ctx := context.Background()
	alice := h.actor(t, "alice")

	const n = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	var errs []error
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := h.gateway.ToggleInteraction(ctx, alice, h.postRef, "like")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if res.Created {
				created++
			}
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Equal(t, 1, created)
	assert.Equal(t, postsModels.Counters{Likes: 1}, h.counters(t))
	assert.Equal(t, h.sourceCounts(t), h.counters(t))
}

func TestGateway_ConcurrentMixedMutations(t *testing.T) {
	t.Parallel()
	checkConcurrentMixedMutations(t, newHarness(t))
}

// Different users mutate the same post at once, so recounts of
// uncommitted rows race against each other
func TestGateway_ConcurrentMixedMutationsPostgres(t *testing.T) {
	checkConcurrentMixedMutations(t, newPostgresHarness(t))
}

func checkConcurrentMixedMutations(t *testing.T, h *harness) {
	t.Helper()
	ctx := context.Background()

	const n = 8
	actors := make([]types.UserContext, n)
	for i := range actors {
		actors[i] = h.actor(t, fmt.Sprintf("user%d", i))
	}

	var wg sync.WaitGroup
	for _, actor := range actors {
		for _, op := range []string{"like", "share", "comment"} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				var err error
				if op == "comment" {
					_, err = h.gateway.AddComment(ctx, actor, h.postRef, "hi from "+actor.Username)
				} else {
					_, err = h.gateway.ToggleInteraction(ctx, actor, h.postRef, op)
				}
				assert.NoError(t, err)
			}()
		}
	}
	wg.Wait()

	assert.Equal(t, postsModels.Counters{Likes: n, Comments: n, Shares: n}, h.counters(t))
	assert.Equal(t, h.sourceCounts(t), h.counters(t))
}

func TestGateway_RejectsInvalidKind(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	alice := h.actor(t, "alice")

	for _, kind := range []string{"dislike", "LIKE", " Share ", "Like"} {
		_, err := h.gateway.ToggleInteraction(context.Background(), alice, h.postRef, kind)
		assert.ErrorIs(t, err, engagementErrors.ErrInvalidInteractionKind, kind)
	}
	assert.Equal(t, postsModels.Counters{}, h.counters(t))
	assert.Equal(t, postsModels.Counters{}, h.sourceCounts(t))
	assert.Zero(t, h.invalidator.count())
}

func TestGateway_UnknownPost(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	alice := h.actor(t, "alice")
	missing := h.codec.Encode(globalid.TypePost, uuid.Must(uuid.NewV4()))

	_, err := h.gateway.ToggleInteraction(ctx, alice, missing, "like")
	assert.ErrorIs(t, err, engagementErrors.ErrPostNotFound)

	_, err = h.gateway.AddComment(ctx, alice, missing, "anyone there?")
	assert.ErrorIs(t, err, engagementErrors.ErrPostNotFound)

	var rows int
	require.NoError(t, h.client.DB().Get(&rows, `SELECT (SELECT COUNT(*) FROM interactions) + (SELECT COUNT(*) FROM comments)`))
	assert.Zero(t, rows)
}

func TestGateway_Validation(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	alice := h.actor(t, "alice")
	ghost := types.UserContext{UserID: uuid.Must(uuid.NewV4())}

	cases := []struct {
		name string
		call func() error
		want error
	}{
		{"anonymous toggle", func() error {
			_, err := h.gateway.ToggleInteraction(ctx, types.Anonymous, h.postRef, "dislike")
			return err
		}, engagementErrors.ErrAuthenticationRequired},
		{"anonymous comment", func() error {
			_, err := h.gateway.AddComment(ctx, types.Anonymous, h.postRef, "hi")
			return err
		}, engagementErrors.ErrAuthenticationRequired},
		{"kind before reference", func() error {
			_, err := h.gateway.ToggleInteraction(ctx, alice, "!!", "dislike")
			return err
		}, engagementErrors.ErrInvalidInteractionKind},
		{"empty content", func() error {
			_, err := h.gateway.AddComment(ctx, alice, h.postRef, " \n\t ")
			return err
		}, engagementErrors.ErrInvalidContent},
		{"content too long", func() error {
			_, err := h.gateway.AddComment(ctx, alice, h.postRef, strings.Repeat("x", 281))
			return err
		}, engagementErrors.ErrInvalidContent},
		{"malformed reference", func() error {
			_, err := h.gateway.ToggleInteraction(ctx, alice, "not-an-id", "like")
			return err
		}, engagementErrors.ErrMalformedReference},
		{"reference of another type", func() error {
			_, err := h.gateway.ToggleInteraction(ctx, alice, h.codec.Encode(globalid.TypeUser, h.postID), "like")
			return err
		}, engagementErrors.ErrMalformedReference},
		{"unknown actor", func() error {
			_, err := h.gateway.ToggleInteraction(ctx, ghost, h.postRef, "like")
			return err
		}, engagementErrors.ErrUserNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.call(), tc.want)
		})
	}
	assert.Equal(t, postsModels.Counters{}, h.counters(t))
}

func TestGateway_RemoveInteraction(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	alice := h.actor(t, "alice")

	_, err := h.gateway.ToggleInteraction(ctx, alice, h.postRef, "share")
	require.NoError(t, err)

	res, err := h.gateway.RemoveInteraction(ctx, alice, h.postRef, "share")
	require.NoError(t, err)
	assert.True(t, res.Removed)
	assert.Zero(t, res.Post.SharesCount)

	res, err = h.gateway.RemoveInteraction(ctx, alice, h.postRef, "share")
	require.NoError(t, err)
	assert.False(t, res.Removed)
	assert.Equal(t, h.sourceCounts(t), h.counters(t))
}

// failingCounts breaks the recount while leaving writes intact
type failingCounts struct {
	repository.InteractionStore
	fail bool
}

var errCountUnavailable = errors.New("count unavailable")

func (f *failingCounts) CountByKind(ctx context.Context, postID uuid.UUID) (models.InteractionCounts, error) {
	if f.fail {
		return models.InteractionCounts{}, errCountUnavailable
	}
	return f.InteractionStore.CountByKind(ctx, postID)
}

func TestGateway_ResyncFailureKeepsTheWrite(t *testing.T) {
	t.Parallel()
	client := testutil.NewSQLiteClient(t)
	store := &failingCounts{InteractionStore: repository.NewSQLInteractionStore(client), fail: true}
	h := newHarnessWithStore(t, client, store)
	ctx := context.Background()
	alice := h.actor(t, "alice")

	res, err := h.gateway.ToggleInteraction(ctx, alice, h.postRef, "like")
	require.Error(t, err)
	assert.ErrorIs(t, err, engagementErrors.ErrResyncFailed)
	assert.ErrorIs(t, err, errCountUnavailable)
	require.NotNil(t, res)
	assert.True(t, res.Created)

	// the interaction is committed, the counter lags behind
	assert.Equal(t, int64(1), h.sourceCounts(t).Likes)
	assert.Zero(t, h.counters(t).Likes)

	store.fail = false
	post, err := h.gateway.ResyncPost(ctx, h.postRef)
	require.NoError(t, err)
	assert.Equal(t, int64(1), post.LikesCount)
	assert.Equal(t, h.sourceCounts(t), h.counters(t))
}

func TestGateway_ResyncPostHealsDrift(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	alice := h.actor(t, "alice")

	_, err := h.gateway.AddComment(ctx, alice, h.postRef, "one")
	require.NoError(t, err)
	require.NoError(t, h.posts.SetInteractionCounters(ctx, h.postID, 40, 2))
	require.NoError(t, h.posts.SetCommentCount(ctx, h.postID, 9))

	post, err := h.gateway.ResyncPost(ctx, h.postRef)
	require.NoError(t, err)
	assert.Equal(t, postsModels.Counters{Comments: 1}, post.Counters())

	_, err = h.gateway.ResyncPost(ctx, h.codec.Encode(globalid.TypePost, uuid.Must(uuid.NewV4())))
	assert.ErrorIs(t, err, engagementErrors.ErrPostNotFound)
}
