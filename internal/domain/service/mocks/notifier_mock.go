package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/vaultgate/internal/domain/service"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, email string, n service.Notification) {
	m.Called(ctx, email, n)
}
