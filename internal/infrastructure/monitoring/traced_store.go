package monitoring

import (
	"context"

	"github.com/turtacn/vaultgate/internal/domain/models"
	"github.com/turtacn/vaultgate/internal/domain/service"
)

// tracedAuthRequestStore 为每次存储调用创建一个子 Span
type tracedAuthRequestStore struct {
	next    service.AuthRequestStore
	tracing *TracingManager
}

// NewTracedAuthRequestStore 包装 store，使每个操作都被追踪
func NewTracedAuthRequestStore(store service.AuthRequestStore, tm *TracingManager) service.AuthRequestStore {
	return &tracedAuthRequestStore{next: store, tracing: tm}
}

func (s *tracedAuthRequestStore) Create(ctx context.Context, req *models.AuthRequest) error {
	return TraceOperation(ctx, s.tracing, "auth_request_store.create", func(ctx context.Context) error {
		return s.next.Create(ctx, req)
	}, map[string]interface{}{"auth_request.id": req.ID, "auth_request.platform": req.Platform})
}

func (s *tracedAuthRequestStore) GetByID(ctx context.Context, id string) (*models.AuthRequest, error) {
	var req *models.AuthRequest
	err := TraceOperation(ctx, s.tracing, "auth_request_store.get_by_id", func(ctx context.Context) error {
		var err error
		req, err = s.next.GetByID(ctx, id)
		return err
	}, map[string]interface{}{"auth_request.id": id})
	return req, err
}

func (s *tracedAuthRequestStore) GetByFingerprint(ctx context.Context, email, fingerprint string) (*models.AuthRequest, error) {
	var req *models.AuthRequest
	err := TraceOperation(ctx, s.tracing, "auth_request_store.get_by_fingerprint", func(ctx context.Context) error {
		var err error
		req, err = s.next.GetByFingerprint(ctx, email, fingerprint)
		return err
	}, nil)
	return req, err
}

func (s *tracedAuthRequestStore) ListByEmail(ctx context.Context, email string) ([]*models.AuthRequest, error) {
	var reqs []*models.AuthRequest
	err := TraceOperation(ctx, s.tracing, "auth_request_store.list_by_email", func(ctx context.Context) error {
		var err error
		reqs, err = s.next.ListByEmail(ctx, email)
		return err
	}, nil)
	return reqs, err
}

func (s *tracedAuthRequestStore) Decide(ctx context.Context, id string, approved bool, masterPasswordHash *string, publicKey string) (*models.AuthRequest, error) {
	var req *models.AuthRequest
	err := TraceOperation(ctx, s.tracing, "auth_request_store.decide", func(ctx context.Context) error {
		var err error
		req, err = s.next.Decide(ctx, id, approved, masterPasswordHash, publicKey)
		return err
	}, map[string]interface{}{"auth_request.id": id, "auth_request.approved": approved})
	return req, err
}
