// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services

import (
	"context"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/telar/apps/social/engagement/models"
	"github.com/qolzam/telar/apps/social/internal/types"
	postsModels "github.com/qolzam/telar/apps/social/posts/models"
)

// PostMutationGateway is the only path through which comments and interactions change.
// Each call writes its row and recounts the affected counters in one transaction.
type PostMutationGateway interface {
	// AddComment stores a comment and recounts comments_count
	AddComment(ctx context.Context, actor types.UserContext, postRef, content string) (*CommentResult, error)

	// ToggleInteraction records a like or share. It is create-only: repeating it is a no-op.
	ToggleInteraction(ctx context.Context, actor types.UserContext, postRef, kind string) (*InteractionResult, error)

	// RemoveInteraction deletes the actor's like or share if present
	RemoveInteraction(ctx context.Context, actor types.UserContext, postRef, kind string) (*RemovalResult, error)

	// ResyncPost recounts all counters of a post
	ResyncPost(ctx context.Context, postRef string) (*postsModels.Post, error)
}

// CommentResult carries the new comment and the post after the recount
type CommentResult struct {
	Comment *models.Comment
	Post    *postsModels.Post
}

// InteractionResult carries the stored interaction and the post after the recount.
// Created is false when the interaction already existed.
type InteractionResult struct {
	Interaction *models.Interaction
	Post        *postsModels.Post
	Created     bool
}

// RemovalResult reports whether an interaction was deleted
type RemovalResult struct {
	Removed bool
	Post    *postsModels.Post
}

// SnapshotInvalidator drops cached post snapshots after their counters change
type SnapshotInvalidator interface {
	Invalidate(ctx context.Context, postID uuid.UUID)
}
