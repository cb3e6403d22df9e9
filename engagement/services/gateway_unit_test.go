// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	uuid "github.com/gofrs/uuid"
	engagementErrors "github.com/qolzam/telar/apps/social/engagement/errors"
	"github.com/qolzam/telar/apps/social/engagement/models"
	"github.com/qolzam/telar/apps/social/internal/globalid"
	"github.com/qolzam/telar/apps/social/internal/types"
	postsModels "github.com/qolzam/telar/apps/social/posts/models"
	postsServices "github.com/qolzam/telar/apps/social/posts/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mocks struct {
	store *MockInteractionStore
	posts *postsServices.MockPostRepository
	users *MockUserRepository
}

func newMockGateway(retries int) (PostMutationGateway, mocks) {
	m := mocks{
		store: new(MockInteractionStore),
		posts: new(postsServices.MockPostRepository),
		users: new(MockUserRepository),
	}
	m.posts.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
	m.posts.On("LockCounters", mock.Anything, mock.Anything).Return(nil).Maybe()
	gw := NewGateway(m.store, m.posts, m.users, globalid.UUIDCodec{}, nil, GatewayConfig{ConflictRetries: retries})
	return gw, m
}

func TestToggleInteraction_ConflictIsResolvedByReRead(t *testing.T) {
	gw, m := newMockGateway(3)
	ctx := context.Background()
	postID := uuid.Must(uuid.NewV4())
	actor := types.UserContext{UserID: uuid.Must(uuid.NewV4())}
	post := &postsModels.Post{ObjectId: postID, LikesCount: 1}
	winner := &models.Interaction{ObjectId: uuid.Must(uuid.NewV4()), PostId: postID, OwnerUserId: actor.UserID, Kind: models.KindLike}

	m.posts.On("FindByID", mock.Anything, postID).Return(post, nil)
	m.users.On("Exists", mock.Anything, actor.UserID).Return(true, nil)
	m.store.On("RecordInteraction", mock.Anything, postID, actor.UserID, models.KindLike).
		Return(nil, false, fmt.Errorf("%w: lost race", engagementErrors.ErrConflict)).Once()
	m.store.On("FindInteraction", mock.Anything, postID, actor.UserID, models.KindLike).Return(winner, nil).Once()
	m.store.On("CountByKind", mock.Anything, postID).Return(models.InteractionCounts{Likes: 1}, nil)
	m.posts.On("SetInteractionCounters", mock.Anything, postID, int64(1), int64(0)).Return(nil)

	res, err := gw.ToggleInteraction(ctx, actor, postID.String(), "like")
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, winner, res.Interaction)
	assert.Equal(t, int64(1), res.Post.LikesCount)

	m.store.AssertExpectations(t)
	m.posts.AssertExpectations(t)
}

func TestToggleInteraction_ConflictRetriesAreBounded(t *testing.T) {
	gw, m := newMockGateway(2)
	ctx := context.Background()
	postID := uuid.Must(uuid.NewV4())
	actor := types.UserContext{UserID: uuid.Must(uuid.NewV4())}

	m.posts.On("FindByID", mock.Anything, postID).Return(&postsModels.Post{ObjectId: postID}, nil)
	m.users.On("Exists", mock.Anything, actor.UserID).Return(true, nil)
	m.store.On("RecordInteraction", mock.Anything, postID, actor.UserID, models.KindShare).
		Return(nil, false, engagementErrors.ErrConflict)
	m.store.On("FindInteraction", mock.Anything, postID, actor.UserID, models.KindShare).
		Return(nil, engagementErrors.ErrInteractionNotFound)

	_, err := gw.ToggleInteraction(ctx, actor, postID.String(), "share")
	assert.ErrorIs(t, err, engagementErrors.ErrConflict)
	m.store.AssertNumberOfCalls(t, "RecordInteraction", 2)
	m.store.AssertNotCalled(t, "CountByKind", mock.Anything, mock.Anything)
}

func TestGateway_ErrorClassification(t *testing.T) {
	ctx := context.Background()
	postID := uuid.Must(uuid.NewV4())
	actor := types.UserContext{UserID: uuid.Must(uuid.NewV4())}

	t.Run("Driver errors become StorageUnavailable", func(t *testing.T) {
		gw, m := newMockGateway(1)
		m.posts.On("FindByID", mock.Anything, postID).Return(nil, errors.New("connection reset by peer"))

		_, err := gw.AddComment(ctx, actor, postID.String(), "hello")
		assert.ErrorIs(t, err, engagementErrors.ErrStorageUnavailable)
		assert.Equal(t, engagementErrors.CodeStorageUnavailable, engagementErrors.CodeOf(err))
	})

	t.Run("Cancellation passes through", func(t *testing.T) {
		gw, m := newMockGateway(1)
		m.posts.On("FindByID", mock.Anything, postID).Return(nil, fmt.Errorf("failed to find post: %w", context.Canceled))

		_, err := gw.AddComment(ctx, actor, postID.String(), "hello")
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, engagementErrors.ErrStorageUnavailable)
	})

	t.Run("Comment recount failure is surfaced after commit", func(t *testing.T) {
		gw, m := newMockGateway(1)
		comment := &models.Comment{ObjectId: uuid.Must(uuid.NewV4()), PostId: postID, OwnerUserId: actor.UserID, Content: "hello"}
		m.posts.On("FindByID", mock.Anything, postID).Return(&postsModels.Post{ObjectId: postID}, nil)
		m.users.On("Exists", mock.Anything, actor.UserID).Return(true, nil)
		m.store.On("AddComment", mock.Anything, postID, actor.UserID, "hello").Return(comment, nil)
		m.store.On("CountComments", mock.Anything, postID).Return(int64(0), errors.New("disk I/O error"))

		res, err := gw.AddComment(ctx, actor, postID.String(), "hello")
		assert.ErrorIs(t, err, engagementErrors.ErrResyncFailed)
		require.NotNil(t, res)
		assert.Equal(t, comment, res.Comment)
	})
}

func TestCounterProjector(t *testing.T) {
	ctx := context.Background()
	postID := uuid.Must(uuid.NewV4())
	store := new(MockInteractionStore)
	posts := new(postsServices.MockPostRepository)
	projector := NewCounterProjector(store, posts)

	store.On("CountByKind", mock.Anything, postID).Return(models.InteractionCounts{Likes: 4, Shares: 2}, nil)
	store.On("CountComments", mock.Anything, postID).Return(int64(7), nil)
	posts.On("SetInteractionCounters", mock.Anything, postID, int64(4), int64(2)).Return(nil)
	posts.On("SetCommentCount", mock.Anything, postID, int64(7)).Return(nil)
	posts.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
	posts.On("LockCounters", mock.Anything, postID).Return(nil)
	posts.On("FindByID", mock.Anything, postID).
		Return(&postsModels.Post{ObjectId: postID, LikesCount: 4, SharesCount: 2, CommentsCount: 7}, nil)

	post, err := projector.ResyncAll(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, postsModels.Counters{Likes: 4, Comments: 7, Shares: 2}, post.Counters())
	posts.AssertExpectations(t)
	posts.AssertNumberOfCalls(t, "LockCounters", 1)
}

func TestCounterProjector_LockFailureStopsTheRecount(t *testing.T) {
	ctx := context.Background()
	postID := uuid.Must(uuid.NewV4())
	store := new(MockInteractionStore)
	posts := new(postsServices.MockPostRepository)
	projector := NewCounterProjector(store, posts)

	posts.On("LockCounters", mock.Anything, postID).Return(errors.New("lock timeout"))

	_, err := projector.ResyncInteractionCounters(ctx, postID)
	assert.Error(t, err)
	_, err = projector.ResyncCommentCount(ctx, postID)
	assert.Error(t, err)
	store.AssertNotCalled(t, "CountByKind", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "CountComments", mock.Anything, mock.Anything)
	posts.AssertNotCalled(t, "SetInteractionCounters", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
