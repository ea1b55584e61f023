package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/vaultgate/internal/application/dto"
	"github.com/turtacn/vaultgate/internal/domain/models"
	"github.com/turtacn/vaultgate/internal/domain/repository"
	domainService "github.com/turtacn/vaultgate/internal/domain/service"
	"github.com/turtacn/vaultgate/pkg/constants"
	"github.com/turtacn/vaultgate/pkg/errors"
	"github.com/turtacn/vaultgate/pkg/logger"
	"github.com/turtacn/vaultgate/pkg/utils"
)

// revisionTolerance absorbs timestamp precision lost in storage.
const revisionTolerance = time.Second

// Account identifies the authenticated caller.
type Account struct {
	UserID string
	Email  string
}

// CipherAppService manages an account's vault items. Contents are opaque to the server.
type CipherAppService interface {
	Create(ctx context.Context, account Account, req *dto.CipherRequest) (*models.Cipher, error)
	Get(ctx context.Context, account Account, id string) (*models.Cipher, error)
	List(ctx context.Context, account Account) (*dto.CipherListResponse, error)
	// Update rejects a request whose LastKnownRevisionDate is older than the stored revision.
	Update(ctx context.Context, account Account, id string, req *dto.CipherRequest) (*models.Cipher, error)
	Delete(ctx context.Context, account Account, id string) error
}

type cipherAppServiceImpl struct {
	repo     repository.CipherRepository
	audit    domainService.AuditService
	notifier domainService.Notifier
	metrics  domainService.Metrics
	logger   logger.Logger
	now      func() time.Time
}

// NewCipherAppService creates a new instance of CipherAppService
func NewCipherAppService(
	repo repository.CipherRepository,
	audit domainService.AuditService,
	notifier domainService.Notifier,
	metrics domainService.Metrics,
	log logger.Logger,
) CipherAppService {
	if metrics == nil {
		metrics = domainService.NoopMetrics{}
	}
	return &cipherAppServiceImpl{
		repo:     repo,
		audit:    audit,
		notifier: notifier,
		metrics:  metrics,
		logger:   log.WithComponent("cipher_service"),
		now:      time.Now,
	}
}

func (s *cipherAppServiceImpl) Create(ctx context.Context, account Account, req *dto.CipherRequest) (*models.Cipher, error) {
	if err := validateCipherRequest(req); err != nil {
		s.metrics.RecordCipherOperation("create", false)
		return nil, err
	}

	now := s.timestamp()
	cipher := req.ToCipher(account.UserID)
	cipher.ID = uuid.NewString()
	cipher.CreationDate = now
	cipher.RevisionDate = now

	if err := s.repo.Save(ctx, cipher); err != nil {
		s.metrics.RecordCipherOperation("create", false)
		return nil, err
	}
	s.metrics.RecordCipherOperation("create", true)
	s.changed(ctx, account, constants.AuditEventCipherCreated, cipher.ID)
	return cipher, nil
}

func (s *cipherAppServiceImpl) Get(ctx context.Context, account Account, id string) (*models.Cipher, error) {
	return s.repo.FindByID(ctx, account.UserID, id)
}

func (s *cipherAppServiceImpl) List(ctx context.Context, account Account) (*dto.CipherListResponse, error) {
	ciphers, err := s.repo.ListByUser(ctx, account.UserID)
	if err != nil {
		return nil, err
	}
	if ciphers == nil {
		ciphers = []*models.Cipher{}
	}
	return &dto.CipherListResponse{Data: ciphers}, nil
}

func (s *cipherAppServiceImpl) Update(ctx context.Context, account Account, id string, req *dto.CipherRequest) (*models.Cipher, error) {
	if err := validateCipherRequest(req); err != nil {
		s.metrics.RecordCipherOperation("update", false)
		return nil, err
	}

	cipher, err := s.repo.FindByID(ctx, account.UserID, id)
	if err != nil {
		s.metrics.RecordCipherOperation("update", false)
		return nil, err
	}
	if req.LastKnownRevisionDate != nil && cipher.RevisionDate.Sub(*req.LastKnownRevisionDate) > revisionTolerance {
		s.metrics.RecordCipherOperation("update", false)
		s.logger.Info(ctx, "Rejected update with stale revision date", logger.String("cipher_id", id))
		return nil, errors.ErrCipherOutOfDate(id)
	}

	req.ApplyTo(cipher)
	cipher.RevisionDate = s.timestamp()
	if err := s.repo.Update(ctx, cipher); err != nil {
		s.metrics.RecordCipherOperation("update", false)
		return nil, err
	}
	s.metrics.RecordCipherOperation("update", true)
	s.changed(ctx, account, constants.AuditEventCipherUpdated, id)
	return cipher, nil
}

func (s *cipherAppServiceImpl) Delete(ctx context.Context, account Account, id string) error {
	if err := s.repo.SoftDelete(ctx, account.UserID, id); err != nil {
		s.metrics.RecordCipherOperation("delete", false)
		return err
	}
	s.metrics.RecordCipherOperation("delete", true)
	s.changed(ctx, account, constants.AuditEventCipherDeleted, id)
	return nil
}

// timestamp is truncated to the precision postgres keeps.
func (s *cipherAppServiceImpl) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *cipherAppServiceImpl) changed(ctx context.Context, account Account, eventType constants.AuditEventType, cipherID string) {
	event := models.NewAuditEvent(eventType, account.Email, cipherID, string(eventType)).
		WithContextInfo("", traceIDFrom(ctx))
	if err := s.audit.LogEvent(ctx, *event); err != nil {
		s.logger.Warn(ctx, "Failed to write audit event",
			logger.String("event_type", string(eventType)),
			logger.Error(err),
		)
	}
	s.notifier.Notify(ctx, account.Email, domainService.Notification{
		Type:    constants.NotificationCipherChanged,
		Payload: map[string]string{"id": cipherID, "event": string(eventType)},
	})
}

// validateCipherRequest checks field constraints and that the sub-object for the type is present.
func validateCipherRequest(req *dto.CipherRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	var present bool
	switch req.Type {
	case constants.CipherTypeLogin:
		present = req.Login != nil
	case constants.CipherTypeSecureNote:
		present = req.SecureNote != nil
	case constants.CipherTypeCard:
		present = req.Card != nil
	case constants.CipherTypeIdentity:
		present = req.Identity != nil
	default:
		return errors.ErrInvalidRequest("unknown cipher type")
	}
	if !present {
		return errors.ErrInvalidRequest("cipher data does not match its type").WithMetadata("type", int(req.Type))
	}
	return nil
}
