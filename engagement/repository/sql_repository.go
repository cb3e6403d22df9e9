// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"
	engagementErrors "github.com/qolzam/telar/apps/social/engagement/errors"
	"github.com/qolzam/telar/apps/social/engagement/models"
	"github.com/qolzam/telar/apps/social/internal/database/sqldb"
)

const (
	interactionColumns = `id, post_id, owner_user_id, kind, created_at`
	commentColumns     = `id, post_id, owner_user_id, content, created_at`
)

type sqlInteractionStore struct {
	client *sqldb.Client
}

// NewSQLInteractionStore creates an InteractionStore over the given client
func NewSQLInteractionStore(client *sqldb.Client) InteractionStore {
	return &sqlInteractionStore{client: client}
}

func (s *sqlInteractionStore) RecordInteraction(ctx context.Context, postID, userID uuid.UUID, kind models.Kind) (*models.Interaction, bool, error) {
	existing, err := s.FindInteraction(ctx, postID, userID, kind)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, engagementErrors.ErrInteractionNotFound) {
		return nil, false, err
	}

	if err := s.requirePost(ctx, postID); err != nil {
		return nil, false, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate interaction id: %w", err)
	}
	interaction := &models.Interaction{
		ObjectId:    id,
		PostId:      postID,
		OwnerUserId: userID,
		Kind:        kind,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}

	// DO NOTHING keeps a lost race from raising an error, which on PostgreSQL would abort the transaction
	query := s.client.DB().Rebind(`
		INSERT INTO interactions (` + interactionColumns + `)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (post_id, owner_user_id, kind) DO NOTHING
	`)
	result, err := s.client.Executor(ctx).ExecContext(ctx, query,
		interaction.ObjectId, interaction.PostId, interaction.OwnerUserId, interaction.Kind, interaction.CreatedAt)
	if err != nil {
		switch {
		case sqldb.IsUniqueViolation(err):
			return nil, false, fmt.Errorf("%w: %v", engagementErrors.ErrConflict, err)
		case sqldb.IsForeignKeyViolation(err):
			return nil, false, fmt.Errorf("%w: %s", engagementErrors.ErrUserNotFound, userID)
		}
		return nil, false, fmt.Errorf("failed to record interaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, false, fmt.Errorf("%w: %s %s on %s", engagementErrors.ErrConflict, userID, kind, postID)
	}
	return interaction, true, nil
}

func (s *sqlInteractionStore) FindInteraction(ctx context.Context, postID, userID uuid.UUID, kind models.Kind) (*models.Interaction, error) {
	query := s.client.DB().Rebind(`
		SELECT ` + interactionColumns + `
		FROM interactions
		WHERE post_id = ? AND owner_user_id = ? AND kind = ?
	`)

	var interaction models.Interaction
	if err := sqlx.GetContext(ctx, s.client.Executor(ctx), &interaction, query, postID, userID, kind); err != nil {
		if sqldb.IsNoRows(err) {
			return nil, fmt.Errorf("%w: %s %s on %s", engagementErrors.ErrInteractionNotFound, userID, kind, postID)
		}
		return nil, fmt.Errorf("failed to find interaction: %w", err)
	}
	return &interaction, nil
}

func (s *sqlInteractionStore) RemoveInteraction(ctx context.Context, postID, userID uuid.UUID, kind models.Kind) (bool, error) {
	query := s.client.DB().Rebind(`DELETE FROM interactions WHERE post_id = ? AND owner_user_id = ? AND kind = ?`)
	result, err := s.client.Executor(ctx).ExecContext(ctx, query, postID, userID, kind)
	if err != nil {
		return false, fmt.Errorf("failed to remove interaction: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func (s *sqlInteractionStore) CountByKind(ctx context.Context, postID uuid.UUID) (models.InteractionCounts, error) {
	query := s.client.DB().Rebind(`
		SELECT
			COUNT(*) FILTER (WHERE kind = ?) AS likes,
			COUNT(*) FILTER (WHERE kind = ?) AS shares
		FROM interactions
		WHERE post_id = ?
	`)

	var counts models.InteractionCounts
	if err := sqlx.GetContext(ctx, s.client.Executor(ctx), &counts, query, models.KindLike, models.KindShare, postID); err != nil {
		return models.InteractionCounts{}, fmt.Errorf("failed to count interactions: %w", err)
	}
	return counts, nil
}

func (s *sqlInteractionStore) AddComment(ctx context.Context, postID, authorID uuid.UUID, content string) (*models.Comment, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate comment id: %w", err)
	}
	comment := &models.Comment{
		ObjectId:    id,
		PostId:      postID,
		OwnerUserId: authorID,
		Content:     content,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}

	query := s.client.DB().Rebind(`INSERT INTO comments (` + commentColumns + `) VALUES (?, ?, ?, ?, ?)`)
	if _, err := s.client.Executor(ctx).ExecContext(ctx, query,
		comment.ObjectId, comment.PostId, comment.OwnerUserId, comment.Content, comment.CreatedAt); err != nil {
		if sqldb.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: %s", engagementErrors.ErrUserNotFound, authorID)
		}
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	return comment, nil
}

func (s *sqlInteractionStore) CountComments(ctx context.Context, postID uuid.UUID) (int64, error) {
	query := s.client.DB().Rebind(`SELECT COUNT(*) FROM comments WHERE post_id = ?`)

	var n int64
	if err := sqlx.GetContext(ctx, s.client.Executor(ctx), &n, query, postID); err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return n, nil
}

// requirePost separates a missing post from a missing user before the insert hits the foreign keys
func (s *sqlInteractionStore) requirePost(ctx context.Context, postID uuid.UUID) error {
	query := s.client.DB().Rebind(`SELECT COUNT(*) FROM posts WHERE id = ?`)

	var n int
	if err := sqlx.GetContext(ctx, s.client.Executor(ctx), &n, query, postID); err != nil {
		return fmt.Errorf("failed to check post existence: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", engagementErrors.ErrPostNotFound, postID)
	}
	return nil
}
