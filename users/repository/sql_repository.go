// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"
	"fmt"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/qolzam/telar/apps/social/internal/database/sqldb"
	usererrors "github.com/qolzam/telar/apps/social/users/errors"
	"github.com/qolzam/telar/apps/social/users/models"
)

type sqlUserRepository struct {
	client *sqldb.Client
}

// NewSQLUserRepository creates a UserRepository over the given client
func NewSQLUserRepository(client *sqldb.Client) UserRepository {
	return &sqlUserRepository{client: client}
}

func (r *sqlUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ObjectId == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("failed to generate user id: %w", err)
		}
		user.ObjectId = id
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}

	query := r.client.DB().Rebind(`
		INSERT INTO users (id, email, username, full_name, bio, profile_image, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.client.Executor(ctx).ExecContext(ctx, query,
		user.ObjectId, user.Email, user.Username, user.FullName, user.Bio, user.ProfileImage, user.CreatedAt)
	if err != nil {
		if sqldb.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %v", usererrors.ErrDuplicateUser, err)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *sqlUserRepository) FindByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	query := r.client.DB().Rebind(`
		SELECT id, email, username, full_name, bio, profile_image, created_at
		FROM users
		WHERE id = ?
	`)

	var user models.User
	if err := sqlx.GetContext(ctx, r.client.Executor(ctx), &user, query, userID); err != nil {
		if sqldb.IsNoRows(err) {
			return nil, fmt.Errorf("%w: %s", usererrors.ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (r *sqlUserRepository) Exists(ctx context.Context, userID uuid.UUID) (bool, error) {
	query := r.client.DB().Rebind(`SELECT COUNT(*) FROM users WHERE id = ?`)

	var n int
	if err := sqlx.GetContext(ctx, r.client.Executor(ctx), &n, query, userID); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return n > 0, nil
}
