package services

import (
	"context"
	"errors"
	"fmt"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/telar/apps/social/internal/cache"
	"github.com/qolzam/telar/apps/social/internal/globalid"
	"github.com/qolzam/telar/apps/social/internal/pkg/log"
	postsErrors "github.com/qolzam/telar/apps/social/posts/errors"
	"github.com/qolzam/telar/apps/social/posts/models"
	"github.com/qolzam/telar/apps/social/posts/repository"
)

// postService implements PostService
type postService struct {
	repo         repository.PostRepository
	codec        globalid.Codec
	cacheService *cache.GenericCacheService
}

// NewPostService creates a PostService. cacheService may be nil to disable caching.
func NewPostService(repo repository.PostRepository, codec globalid.Codec, cacheService *cache.GenericCacheService) PostService {
	return &postService{
		repo:         repo,
		codec:        codec,
		cacheService: cacheService,
	}
}

func snapshotKey(postID uuid.UUID) string {
	return "post:" + postID.String()
}

func (s *postService) GetPost(ctx context.Context, postRef string, fresh bool) (*models.Post, error) {
	postID, err := s.codec.Decode(globalid.TypePost, postRef)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", postsErrors.ErrMalformedReference, err)
	}

	if !fresh && s.cacheService.IsEnabled() {
		var cached models.Post
		if err := s.cacheService.GetCached(ctx, snapshotKey(postID), &cached); err == nil {
			return &cached, nil
		}
	}

	post, err := s.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if s.cacheService.IsEnabled() {
		return s.cacheSnapshot(ctx, post), nil
	}
	return post, nil
}

// cacheSnapshot stores post and then reads the row again. A counter commit that landed between
// the first read and the store has already run its Invalidate, so a changed row drops the
// snapshot it would otherwise leave behind.
func (s *postService) cacheSnapshot(ctx context.Context, post *models.Post) *models.Post {
	key := snapshotKey(post.ObjectId)
	if err := s.cacheService.CacheData(ctx, key, post); err != nil {
		log.WarnWithContext(ctx, "Failed to cache post %s: %v", post.ObjectId, err)
		return post
	}

	current, err := s.repo.FindByID(ctx, post.ObjectId)
	if err == nil && current.Counters() == post.Counters() && current.UpdatedAt.Equal(post.UpdatedAt) {
		return post
	}
	if err := s.cacheService.InvalidateKey(ctx, key); err != nil {
		log.WarnWithContext(ctx, "Failed to drop stale snapshot of post %s: %v", post.ObjectId, err)
	}
	if err != nil {
		return post
	}
	return current
}

func (s *postService) GetPostByID(ctx context.Context, postID uuid.UUID) (*models.Post, error) {
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, postsErrors.ErrPostNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", postsErrors.ErrStorageUnavailable, err)
	}
	return post, nil
}

// Invalidate is best effort: a stale snapshot expires with the cache TTL
func (s *postService) Invalidate(ctx context.Context, postID uuid.UUID) {
	if !s.cacheService.IsEnabled() {
		return
	}
	if err := s.cacheService.InvalidateKey(ctx, snapshotKey(postID)); err != nil {
		log.WarnWithContext(ctx, "Failed to invalidate cached post %s: %v", postID, err)
	}
}
