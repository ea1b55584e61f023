package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/vaultgate/internal/domain/models"
)

// MockCipherRepository is a mock implementation of repository.CipherRepository
type MockCipherRepository struct {
	mock.Mock
}

func (m *MockCipherRepository) Save(ctx context.Context, cipher *models.Cipher) error {
	args := m.Called(ctx, cipher)
	return args.Error(0)
}

func (m *MockCipherRepository) Update(ctx context.Context, cipher *models.Cipher) error {
	args := m.Called(ctx, cipher)
	return args.Error(0)
}

func (m *MockCipherRepository) FindByID(ctx context.Context, userID, cipherID string) (*models.Cipher, error) {
	args := m.Called(ctx, userID, cipherID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cipher), args.Error(1)
}

func (m *MockCipherRepository) ListByUser(ctx context.Context, userID string) ([]*models.Cipher, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Cipher), args.Error(1)
}

func (m *MockCipherRepository) SoftDelete(ctx context.Context, userID, cipherID string) error {
	args := m.Called(ctx, userID, cipherID)
	return args.Error(0)
}
