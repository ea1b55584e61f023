package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/vaultgate/internal/domain/models"
)

// MockAuthRequestStore is a mock implementation of AuthRequestStore
type MockAuthRequestStore struct {
	mock.Mock
}

func (m *MockAuthRequestStore) Create(ctx context.Context, req *models.AuthRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockAuthRequestStore) GetByID(ctx context.Context, id string) (*models.AuthRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthRequest), args.Error(1)
}

func (m *MockAuthRequestStore) GetByFingerprint(ctx context.Context, email, fingerprint string) (*models.AuthRequest, error) {
	args := m.Called(ctx, email, fingerprint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthRequest), args.Error(1)
}

func (m *MockAuthRequestStore) ListByEmail(ctx context.Context, email string) ([]*models.AuthRequest, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuthRequest), args.Error(1)
}

func (m *MockAuthRequestStore) Decide(ctx context.Context, id string, approved bool, masterPasswordHash *string, publicKey string) (*models.AuthRequest, error) {
	args := m.Called(ctx, id, approved, masterPasswordHash, publicKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthRequest), args.Error(1)
}
