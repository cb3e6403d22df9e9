// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services

import (
	"context"
	"errors"
	"fmt"

	uuid "github.com/gofrs/uuid"
	engagementErrors "github.com/qolzam/telar/apps/social/engagement/errors"
	"github.com/qolzam/telar/apps/social/engagement/models"
	"github.com/qolzam/telar/apps/social/engagement/repository"
	"github.com/qolzam/telar/apps/social/internal/database/sqldb"
	"github.com/qolzam/telar/apps/social/internal/globalid"
	"github.com/qolzam/telar/apps/social/internal/pkg/content"
	"github.com/qolzam/telar/apps/social/internal/pkg/log"
	"github.com/qolzam/telar/apps/social/internal/types"
	postsModels "github.com/qolzam/telar/apps/social/posts/models"
	postsRepository "github.com/qolzam/telar/apps/social/posts/repository"
	usersRepository "github.com/qolzam/telar/apps/social/users/repository"
)

const (
	resyncSavepoint = "counter_resync"
	recordSavepoint = "record_interaction"
)

// GatewayConfig tunes validation and conflict handling
type GatewayConfig struct {
	CommentMaxLength int
	// ConflictRetries bounds how often a lost insert race is resolved by re-reading
	ConflictRetries int
}

type gateway struct {
	store       repository.InteractionStore
	posts       postsRepository.PostRepository
	users       usersRepository.UserRepository
	projector   *CounterProjector
	codec       globalid.Codec
	invalidator SnapshotInvalidator
	config      GatewayConfig
}

// NewGateway creates a PostMutationGateway. invalidator may be nil when no snapshot cache is used.
func NewGateway(
	store repository.InteractionStore,
	posts postsRepository.PostRepository,
	users usersRepository.UserRepository,
	codec globalid.Codec,
	invalidator SnapshotInvalidator,
	config GatewayConfig,
) PostMutationGateway {
	if config.CommentMaxLength <= 0 {
		config.CommentMaxLength = 5000
	}
	if config.ConflictRetries < 1 {
		config.ConflictRetries = 3
	}
	return &gateway{
		store:       store,
		posts:       posts,
		users:       users,
		projector:   NewCounterProjector(store, posts),
		codec:       codec,
		invalidator: invalidator,
		config:      config,
	}
}

func (g *gateway) AddComment(ctx context.Context, actor types.UserContext, postRef, body string) (*CommentResult, error) {
	if !actor.IsAuthenticated() {
		return nil, engagementErrors.ErrAuthenticationRequired
	}
	cleaned, err := content.Clean(body, g.config.CommentMaxLength)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", engagementErrors.ErrInvalidContent, err)
	}
	postID, err := g.decodePost(postRef)
	if err != nil {
		return nil, err
	}

	result := &CommentResult{}
	var resyncErr error
	err = g.posts.WithTransaction(ctx, func(txCtx context.Context) error {
		post, err := g.resolve(txCtx, postID, actor.UserID)
		if err != nil {
			return err
		}
		result.Post = post

		comment, err := g.store.AddComment(txCtx, postID, actor.UserID, cleaned)
		if err != nil {
			return err
		}
		result.Comment = comment

		resyncErr = sqldb.WithSavepoint(txCtx, resyncSavepoint, func(spCtx context.Context) error {
			post, err := g.projector.ResyncCommentCount(spCtx, postID)
			if err != nil {
				return err
			}
			result.Post = post
			return nil
		})
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	g.invalidate(ctx, postID)
	if resyncErr != nil {
		log.ErrorWithContext(ctx, "Comment %s stored but comment count of post %s not recomputed: %v", result.Comment.ObjectId, postID, resyncErr)
		return result, fmt.Errorf("%w: %w", engagementErrors.ErrResyncFailed, resyncErr)
	}
	return result, nil
}

func (g *gateway) ToggleInteraction(ctx context.Context, actor types.UserContext, postRef, rawKind string) (*InteractionResult, error) {
	if !actor.IsAuthenticated() {
		return nil, engagementErrors.ErrAuthenticationRequired
	}
	kind, err := models.ParseKind(rawKind)
	if err != nil {
		return nil, err
	}
	postID, err := g.decodePost(postRef)
	if err != nil {
		return nil, err
	}

	result := &InteractionResult{}
	var resyncErr error
	err = g.posts.WithTransaction(ctx, func(txCtx context.Context) error {
		post, err := g.resolve(txCtx, postID, actor.UserID)
		if err != nil {
			return err
		}
		result.Post = post

		interaction, created, err := g.record(txCtx, postID, actor.UserID, kind)
		if err != nil {
			return err
		}
		result.Interaction, result.Created = interaction, created

		resyncErr = sqldb.WithSavepoint(txCtx, resyncSavepoint, func(spCtx context.Context) error {
			post, err := g.projector.ResyncInteractionCounters(spCtx, postID)
			if err != nil {
				return err
			}
			result.Post = post
			return nil
		})
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	g.invalidate(ctx, postID)
	if resyncErr != nil {
		log.ErrorWithContext(ctx, "Interaction %s stored but counters of post %s not recomputed: %v", result.Interaction.ObjectId, postID, resyncErr)
		return result, fmt.Errorf("%w: %w", engagementErrors.ErrResyncFailed, resyncErr)
	}
	return result, nil
}

func (g *gateway) RemoveInteraction(ctx context.Context, actor types.UserContext, postRef, rawKind string) (*RemovalResult, error) {
	if !actor.IsAuthenticated() {
		return nil, engagementErrors.ErrAuthenticationRequired
	}
	kind, err := models.ParseKind(rawKind)
	if err != nil {
		return nil, err
	}
	postID, err := g.decodePost(postRef)
	if err != nil {
		return nil, err
	}

	result := &RemovalResult{}
	var resyncErr error
	err = g.posts.WithTransaction(ctx, func(txCtx context.Context) error {
		post, err := g.resolve(txCtx, postID, actor.UserID)
		if err != nil {
			return err
		}
		result.Post = post

		removed, err := g.store.RemoveInteraction(txCtx, postID, actor.UserID, kind)
		if err != nil {
			return err
		}
		result.Removed = removed

		resyncErr = sqldb.WithSavepoint(txCtx, resyncSavepoint, func(spCtx context.Context) error {
			post, err := g.projector.ResyncInteractionCounters(spCtx, postID)
			if err != nil {
				return err
			}
			result.Post = post
			return nil
		})
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	g.invalidate(ctx, postID)
	if resyncErr != nil {
		log.ErrorWithContext(ctx, "Interaction removed but counters of post %s not recomputed: %v", postID, resyncErr)
		return result, fmt.Errorf("%w: %w", engagementErrors.ErrResyncFailed, resyncErr)
	}
	return result, nil
}

func (g *gateway) ResyncPost(ctx context.Context, postRef string) (*postsModels.Post, error) {
	postID, err := g.decodePost(postRef)
	if err != nil {
		return nil, err
	}

	post, err := g.projector.ResyncAll(ctx, postID)
	if err != nil {
		return nil, classify(err)
	}
	g.invalidate(ctx, postID)
	return post, nil
}

// record resolves a lost insert race by re-reading the winner's row.
// The row can vanish again between the two steps when a removal interleaves, hence the loop.
func (g *gateway) record(ctx context.Context, postID, userID uuid.UUID, kind models.Kind) (*models.Interaction, bool, error) {
	for attempt := 1; attempt <= g.config.ConflictRetries; attempt++ {
		var interaction *models.Interaction
		var created bool
		err := sqldb.WithSavepoint(ctx, recordSavepoint, func(spCtx context.Context) error {
			var err error
			interaction, created, err = g.store.RecordInteraction(spCtx, postID, userID, kind)
			return err
		})
		if !errors.Is(err, engagementErrors.ErrConflict) {
			return interaction, created, err
		}

		existing, findErr := g.store.FindInteraction(ctx, postID, userID, kind)
		if findErr == nil {
			return existing, false, nil
		}
		if !errors.Is(findErr, engagementErrors.ErrInteractionNotFound) {
			return nil, false, findErr
		}
		log.WarnWithContext(ctx, "Interaction %s by %s on %s conflicted and vanished, attempt %d", kind, userID, postID, attempt)
	}
	return nil, false, fmt.Errorf("%w: unresolved after %d attempts", engagementErrors.ErrConflict, g.config.ConflictRetries)
}

// resolve loads the post and checks the actor exists, in that order
func (g *gateway) resolve(ctx context.Context, postID, userID uuid.UUID) (*postsModels.Post, error) {
	post, err := g.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	exists, err := g.users.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", engagementErrors.ErrUserNotFound, userID)
	}
	return post, nil
}

func (g *gateway) decodePost(postRef string) (uuid.UUID, error) {
	postID, err := g.codec.Decode(globalid.TypePost, postRef)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", engagementErrors.ErrMalformedReference, err)
	}
	return postID, nil
}

// invalidate must run after commit
func (g *gateway) invalidate(ctx context.Context, postID uuid.UUID) {
	if g.invalidator != nil {
		g.invalidator.Invalidate(ctx, postID)
	}
}

// classify keeps known kinds and context errors as they are and marks everything else as a storage failure
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if engagementErrors.CodeOf(err) != engagementErrors.CodeInternalError {
		return err
	}
	return fmt.Errorf("%w: %w", engagementErrors.ErrStorageUnavailable, err)
}
