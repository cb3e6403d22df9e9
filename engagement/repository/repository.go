// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/telar/apps/social/engagement/models"
)

// InteractionStore is the durable record of interactions and comments.
// Every method runs inside the transaction carried by ctx when there is one,
// so counts read after a write in the same transaction include that write.
type InteractionStore interface {
	// RecordInteraction finds or creates the (post, user, kind) row.
	// An existing row is returned with created=false. ErrPostNotFound when the post is missing,
	// ErrUserNotFound when the user is missing, ErrConflict when a concurrent writer won the insert.
	RecordInteraction(ctx context.Context, postID, userID uuid.UUID, kind models.Kind) (*models.Interaction, bool, error)

	// FindInteraction returns ErrInteractionNotFound when no row matches
	FindInteraction(ctx context.Context, postID, userID uuid.UUID, kind models.Kind) (*models.Interaction, error)

	// RemoveInteraction deletes the row and reports whether one existed
	RemoveInteraction(ctx context.Context, postID, userID uuid.UUID, kind models.Kind) (bool, error)

	// CountByKind counts interactions of the post per kind in a single query
	CountByKind(ctx context.Context, postID uuid.UUID) (models.InteractionCounts, error)

	// AddComment stores a comment; content must already be validated
	AddComment(ctx context.Context, postID, authorID uuid.UUID, content string) (*models.Comment, error)

	// CountComments counts the comments of the post
	CountComments(ctx context.Context, postID uuid.UUID) (int64, error)
}
