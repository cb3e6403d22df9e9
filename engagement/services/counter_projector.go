// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services

import (
	"context"
	"fmt"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/telar/apps/social/engagement/repository"
	postsModels "github.com/qolzam/telar/apps/social/posts/models"
	postsRepository "github.com/qolzam/telar/apps/social/posts/repository"
)

// CounterProjector rebuilds the denormalized counters of a post from its source rows.
// Counters are always overwritten with a fresh count, never adjusted by a delta.
// Each recount holds the post's counter lock, so a recount always sees every row
// committed by the recounts that finished before it.
type CounterProjector struct {
	store repository.InteractionStore
	posts postsRepository.PostRepository
}

// NewCounterProjector creates a CounterProjector
func NewCounterProjector(store repository.InteractionStore, posts postsRepository.PostRepository) *CounterProjector {
	return &CounterProjector{store: store, posts: posts}
}

// ResyncInteractionCounters recounts likes and shares and writes both in one update
func (p *CounterProjector) ResyncInteractionCounters(ctx context.Context, postID uuid.UUID) (*postsModels.Post, error) {
	if err := p.posts.LockCounters(ctx, postID); err != nil {
		return nil, err
	}
	if err := p.syncInteractions(ctx, postID); err != nil {
		return nil, err
	}
	return p.posts.FindByID(ctx, postID)
}

// ResyncCommentCount recounts comments
func (p *CounterProjector) ResyncCommentCount(ctx context.Context, postID uuid.UUID) (*postsModels.Post, error) {
	if err := p.posts.LockCounters(ctx, postID); err != nil {
		return nil, err
	}
	if err := p.syncComments(ctx, postID); err != nil {
		return nil, err
	}
	return p.posts.FindByID(ctx, postID)
}

// ResyncAll recounts all three counters in one transaction, joining the caller's when present
func (p *CounterProjector) ResyncAll(ctx context.Context, postID uuid.UUID) (*postsModels.Post, error) {
	var post *postsModels.Post
	err := p.posts.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := p.posts.LockCounters(txCtx, postID); err != nil {
			return err
		}
		if err := p.syncInteractions(txCtx, postID); err != nil {
			return err
		}
		if err := p.syncComments(txCtx, postID); err != nil {
			return err
		}
		var err error
		post, err = p.posts.FindByID(txCtx, postID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (p *CounterProjector) syncInteractions(ctx context.Context, postID uuid.UUID) error {
	counts, err := p.store.CountByKind(ctx, postID)
	if err != nil {
		return err
	}
	if err := p.posts.SetInteractionCounters(ctx, postID, counts.Likes, counts.Shares); err != nil {
		return fmt.Errorf("failed to store interaction counters: %w", err)
	}
	return nil
}

func (p *CounterProjector) syncComments(ctx context.Context, postID uuid.UUID) error {
	n, err := p.store.CountComments(ctx, postID)
	if err != nil {
		return err
	}
	if err := p.posts.SetCommentCount(ctx, postID, n); err != nil {
		return fmt.Errorf("failed to store comment count: %w", err)
	}
	return nil
}
