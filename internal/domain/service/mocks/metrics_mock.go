package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"
)

// MockMetrics is a mock implementation of Metrics
type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordAuthRequestCreated(platform string, success bool) {
	m.Called(platform, success)
}

func (m *MockMetrics) RecordAuthRequestDecision(outcome string, duration time.Duration) {
	m.Called(outcome, duration)
}

func (m *MockMetrics) RecordCipherOperation(operation string, success bool) {
	m.Called(operation, success)
}

func (m *MockMetrics) RecordRateLimitHit(scope string) {
	m.Called(scope)
}

func (m *MockMetrics) RecordNotification(notificationType string, delivered int) {
	m.Called(notificationType, delivered)
}

func (m *MockMetrics) RecordVaultAPI(operation string, duration time.Duration, err error) {
	m.Called(operation, duration, err)
}
