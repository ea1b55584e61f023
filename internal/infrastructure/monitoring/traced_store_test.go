package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/turtacn/vaultgate/internal/domain/models"
	"github.com/turtacn/vaultgate/internal/domain/service/mocks"
	apperrors "github.com/turtacn/vaultgate/pkg/errors"
	"github.com/turtacn/vaultgate/pkg/logger"
)

func newRecordingTracingManager() (*TracingManager, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return &TracingManager{tracer: provider.Tracer("test"), logger: logger.NewNoopLogger()}, recorder
}

func TestTracedAuthRequestStore_RecordsSpans(t *testing.T) {
	tm, recorder := newRecordingTracingManager()
	store := new(mocks.MockAuthRequestStore)
	traced := NewTracedAuthRequestStore(store, tm)
	ctx := context.Background()

	req := models.NewAuthRequest("alice@example.com", "cHVibGljLWtleQ==", "device-1", "Android", "", "10.0.0.1", time.Minute)
	store.On("Create", mock.Anything, req).Return(nil).Once()
	store.On("Decide", mock.Anything, req.ID, true, (*string)(nil), "key").
		Return(nil, apperrors.ErrAlreadyDecided(req.ID)).Once()

	require.NoError(t, traced.Create(ctx, req))
	_, err := traced.Decide(ctx, req.ID, true, nil, "key")
	assert.True(t, apperrors.IsAlreadyDecided(err))

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "auth_request_store.create", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("auth_request.id", req.ID))

	assert.Equal(t, "auth_request_store.decide", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	require.Len(t, spans[1].Events(), 1)
	assert.Equal(t, "exception", spans[1].Events()[0].Name)
	store.AssertExpectations(t)
}

func TestTracedAuthRequestStore_PassesResults(t *testing.T) {
	tm, recorder := newRecordingTracingManager()
	store := new(mocks.MockAuthRequestStore)
	traced := NewTracedAuthRequestStore(store, tm)
	ctx := context.Background()

	req := models.NewAuthRequest("alice@example.com", "cHVibGljLWtleQ==", "device-1", "Android", "", "10.0.0.1", time.Minute)
	store.On("GetByID", mock.Anything, req.ID).Return(req, nil).Once()
	store.On("GetByFingerprint", mock.Anything, "alice@example.com", "fp").Return(req, nil).Once()
	store.On("ListByEmail", mock.Anything, "alice@example.com").Return([]*models.AuthRequest{req}, nil).Once()

	got, err := traced.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Same(t, req, got)
	got, err = traced.GetByFingerprint(ctx, "alice@example.com", "fp")
	require.NoError(t, err)
	assert.Same(t, req, got)
	list, err := traced.ListByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.Len(t, recorder.Ended(), 3)
	store.AssertExpectations(t)
}
