// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/telar/apps/social/posts/models"
)

// PostRepository defines the post operations the engagement core needs.
// Every method runs inside the transaction carried by ctx when there is one.
type PostRepository interface {
	// Create inserts a new post with zero counters
	Create(ctx context.Context, post *models.Post) error

	// FindByID retrieves a post by its ID; ErrPostNotFound when absent
	FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error)

	// SetInteractionCounters overwrites likes_count and shares_count in a single write
	SetInteractionCounters(ctx context.Context, id uuid.UUID, likes, shares int64) error

	// SetCommentCount overwrites comments_count
	SetCommentCount(ctx context.Context, id uuid.UUID, comments int64) error

	// LockCounters serializes counter recounts of one post until the transaction in ctx ends.
	// Rows inserted by a concurrent transaction are invisible to a recount until that
	// transaction commits, so the later of two recounts must wait for the earlier one.
	LockCounters(ctx context.Context, id uuid.UUID) error

	// ListIDs returns up to limit post ids greater than afterID in ascending order.
	// Pass uuid.Nil to start from the beginning.
	ListIDs(ctx context.Context, afterID uuid.UUID, limit int) ([]uuid.UUID, error)

	// Delete removes a post; comments and interactions cascade
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTransaction executes fn within a database transaction
	WithTransaction(ctx context.Context, fn func(context.Context) error) error
}
