package services

import (
	"context"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/telar/apps/social/engagement/models"
	usersModels "github.com/qolzam/telar/apps/social/users/models"
	"github.com/stretchr/testify/mock"
)

// MockInteractionStore is a testify mock of repository.InteractionStore
type MockInteractionStore struct {
	mock.Mock
}

func (m *MockInteractionStore) RecordInteraction(ctx context.Context, postID, userID uuid.UUID, kind models.Kind) (*models.Interaction, bool, error) {
	args := m.Called(ctx, postID, userID, kind)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Interaction), args.Bool(1), args.Error(2)
}

func (m *MockInteractionStore) FindInteraction(ctx context.Context, postID, userID uuid.UUID, kind models.Kind) (*models.Interaction, error) {
	args := m.Called(ctx, postID, userID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Interaction), args.Error(1)
}

func (m *MockInteractionStore) RemoveInteraction(ctx context.Context, postID, userID uuid.UUID, kind models.Kind) (bool, error) {
	args := m.Called(ctx, postID, userID, kind)
	return args.Bool(0), args.Error(1)
}

func (m *MockInteractionStore) CountByKind(ctx context.Context, postID uuid.UUID) (models.InteractionCounts, error) {
	args := m.Called(ctx, postID)
	return args.Get(0).(models.InteractionCounts), args.Error(1)
}

func (m *MockInteractionStore) AddComment(ctx context.Context, postID, authorID uuid.UUID, content string) (*models.Comment, error) {
	args := m.Called(ctx, postID, authorID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *MockInteractionStore) CountComments(ctx context.Context, postID uuid.UUID) (int64, error) {
	args := m.Called(ctx, postID)
	return args.Get(0).(int64), args.Error(1)
}

// MockUserRepository is a testify mock of the users repository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *usersModels.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, userID uuid.UUID) (*usersModels.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usersModels.User), args.Error(1)
}

func (m *MockUserRepository) Exists(ctx context.Context, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}
