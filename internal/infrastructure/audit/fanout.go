package audit

import (
	"context"
	"errors"

	"github.com/turtacn/vaultgate/internal/domain/models"
	"github.com/turtacn/vaultgate/internal/domain/service"
)

// FanoutAuditService writes every event to all sinks and joins their errors.
type FanoutAuditService struct {
	sinks []service.AuditService
}

// NewFanoutAuditService creates an AuditService over the given sinks.
func NewFanoutAuditService(sinks ...service.AuditService) *FanoutAuditService {
	return &FanoutAuditService{sinks: sinks}
}

// LogEvent forwards the event to every sink, even after a failure.
func (f *FanoutAuditService) LogEvent(ctx context.Context, event models.AuditEvent) error {
	var errs []error
	for _, sink := range f.sinks {
		if err := sink.LogEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
