package services

import (
	"context"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/telar/apps/social/posts/models"
)

// PostService serves post snapshots with their counters
type PostService interface {
	// GetPost decodes an opaque reference and returns the post, from cache unless fresh is set
	GetPost(ctx context.Context, postRef string, fresh bool) (*models.Post, error)

	// GetPostByID returns the post for a storage key, bypassing the cache
	GetPostByID(ctx context.Context, postID uuid.UUID) (*models.Post, error)

	// Invalidate drops the cached snapshot of a post
	Invalidate(ctx context.Context, postID uuid.UUID)
}
