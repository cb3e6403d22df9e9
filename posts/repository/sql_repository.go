// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/qolzam/telar/apps/social/internal/database/sqldb"
	postsErrors "github.com/qolzam/telar/apps/social/posts/errors"
	"github.com/qolzam/telar/apps/social/posts/models"
)

const postColumns = `id, owner_user_id, content, likes_count, comments_count, shares_count, created_at, updated_at`

// sqlRepository implements PostRepository with raw SQL rebound to the client's dialect
type sqlRepository struct {
	client *sqldb.Client
}

// NewSQLRepository creates a new SQL repository for posts
func NewSQLRepository(client *sqldb.Client) PostRepository {
	return &sqlRepository{client: client}
}

func (r *sqlRepository) Create(ctx context.Context, post *models.Post) error {
	if post.ObjectId == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("failed to generate post id: %w", err)
		}
		post.ObjectId = id
	}
	now := time.Now().UTC().Truncate(time.Microsecond)
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = post.CreatedAt

	query := r.client.DB().Rebind(`
		INSERT INTO posts (` + postColumns + `)
		VALUES (?, ?, ?, 0, 0, 0, ?, ?)
	`)
	if _, err := r.client.Executor(ctx).ExecContext(ctx, query,
		post.ObjectId, post.OwnerUserId, post.Content, post.CreatedAt, post.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	post.LikesCount, post.CommentsCount, post.SharesCount = 0, 0, 0
	return nil
}

func (r *sqlRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	query := r.client.DB().Rebind(`SELECT ` + postColumns + ` FROM posts WHERE id = ?`)

	var post models.Post
	if err := sqlx.GetContext(ctx, r.client.Executor(ctx), &post, query, id); err != nil {
		if sqldb.IsNoRows(err) {
			return nil, fmt.Errorf("%w: %s", postsErrors.ErrPostNotFound, id)
		}
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	return &post, nil
}

func (r *sqlRepository) SetInteractionCounters(ctx context.Context, id uuid.UUID, likes, shares int64) error {
	query := r.client.DB().Rebind(`UPDATE posts SET likes_count = ?, shares_count = ? WHERE id = ?`)
	result, err := r.client.Executor(ctx).ExecContext(ctx, query, likes, shares, id)
	if err != nil {
		return fmt.Errorf("failed to set interaction counters: %w", err)
	}
	return requireRow(result, id)
}

func (r *sqlRepository) SetCommentCount(ctx context.Context, id uuid.UUID, comments int64) error {
	query := r.client.DB().Rebind(`UPDATE posts SET comments_count = ? WHERE id = ?`)
	result, err := r.client.Executor(ctx).ExecContext(ctx, query, comments, id)
	if err != nil {
		return fmt.Errorf("failed to set comment count: %w", err)
	}
	return requireRow(result, id)
}

// LockCounters takes a transaction-scoped advisory lock on PostgreSQL.
// SQLite already runs one writer at a time, so there it does nothing.
func (r *sqlRepository) LockCounters(ctx context.Context, id uuid.UUID) error {
	if !r.client.IsPostgres() {
		return nil
	}
	query := r.client.DB().Rebind(`SELECT pg_advisory_xact_lock(hashtextextended(?::text, 0))`)
	if _, err := r.client.Executor(ctx).ExecContext(ctx, query, id.String()); err != nil {
		return fmt.Errorf("failed to lock counters of post %s: %w", id, err)
	}
	return nil
}

func (r *sqlRepository) ListIDs(ctx context.Context, afterID uuid.UUID, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := r.client.DB().Rebind(`SELECT id FROM posts WHERE id > ? ORDER BY id LIMIT ?`)

	var ids []uuid.UUID
	if err := sqlx.SelectContext(ctx, r.client.Executor(ctx), &ids, query, afterID, limit); err != nil {
		return nil, fmt.Errorf("failed to list post ids: %w", err)
	}
	return ids, nil
}

func (r *sqlRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := r.client.DB().Rebind(`DELETE FROM posts WHERE id = ?`)
	result, err := r.client.Executor(ctx).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return requireRow(result, id)
}

func (r *sqlRepository) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	return r.client.WithTransaction(ctx, fn)
}

func requireRow(result sql.Result, id uuid.UUID) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", postsErrors.ErrPostNotFound, id)
	}
	return nil
}
