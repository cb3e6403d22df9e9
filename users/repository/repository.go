// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/telar/apps/social/users/models"
)

// UserRepository resolves actor identities against storage
type UserRepository interface {
	// Create inserts a new user; a taken email or username yields ErrDuplicateUser
	Create(ctx context.Context, user *models.User) error

	// FindByID returns ErrUserNotFound when no row matches
	FindByID(ctx context.Context, userID uuid.UUID) (*models.User, error)

	// Exists reports whether a user row with the id is present
	Exists(ctx context.Context, userID uuid.UUID) (bool, error)
}
