// Package audit implements the AuditService interface using GORM and Kafka.
package audit

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/turtacn/vaultgate/internal/domain/models"
	"github.com/turtacn/vaultgate/internal/domain/service"
)

// AuditRecord is the row layout of the audit_events table.
type AuditRecord struct {
	EventID   string    `gorm:"primaryKey;type:varchar(36)"`
	EventType string    `gorm:"type:varchar(64);index;not null"`
	ActorID   string    `gorm:"type:varchar(255);index"`
	Subject   string    `gorm:"type:varchar(64);index"`
	Result    string    `gorm:"type:varchar(16)"`
	IPAddress string    `gorm:"type:varchar(64)"`
	TraceID   string    `gorm:"type:varchar(64)"`
	Message   string    `gorm:"type:text"`
	Metadata  string    `gorm:"type:text"`
	Timestamp time.Time `gorm:"index;not null"`
}

// TableName overrides the table name used by AuditRecord.
func (AuditRecord) TableName() string {
	return "audit_events"
}

func recordFromEvent(event models.AuditEvent) *AuditRecord {
	return &AuditRecord{
		EventID:   event.EventID,
		EventType: string(event.EventType),
		ActorID:   event.ActorID,
		Subject:   event.Subject,
		Result:    event.Result,
		IPAddress: event.IPAddress,
		TraceID:   event.TraceID,
		Message:   event.Message,
		Metadata:  string(event.Metadata),
		Timestamp: event.Timestamp,
	}
}

// GormAuditService provides a GORM-backed implementation of the AuditService.
// It stores audit events in a relational database.
type GormAuditService struct {
	db *gorm.DB
}

// NewGormAuditService creates and configures a new GormAuditService.
func NewGormAuditService(db *gorm.DB) *GormAuditService {
	return &GormAuditService{
		db: db,
	}
}

var _ service.AuditService = (*GormAuditService)(nil)

// Migrate creates the audit_events table.
func (s *GormAuditService) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&AuditRecord{})
}

// LogEvent saves an AuditEvent to the database.
func (s *GormAuditService) LogEvent(ctx context.Context, event models.AuditEvent) error {
	return s.db.WithContext(ctx).Create(recordFromEvent(event)).Error
}
