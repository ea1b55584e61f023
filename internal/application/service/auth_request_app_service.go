// Package service provides application-level services that orchestrate domain services and repositories
package service

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/turtacn/vaultgate/internal/application/dto"
	"github.com/turtacn/vaultgate/internal/config"
	"github.com/turtacn/vaultgate/internal/domain/models"
	domainService "github.com/turtacn/vaultgate/internal/domain/service"
	"github.com/turtacn/vaultgate/pkg/constants"
	"github.com/turtacn/vaultgate/pkg/errors"
	"github.com/turtacn/vaultgate/pkg/logger"
	"github.com/turtacn/vaultgate/pkg/utils"
)

// AuthRequestAppService drives the login approval flow between the requesting and the approving device.
//
//go:generate mockery --name AuthRequestAppService --output ./mocks --filename mock_auth_request_app_service.go --structname MockAuthRequestAppService
type AuthRequestAppService interface {
	// Create registers a pending request from a device that wants to sign in to req.Email.
	Create(ctx context.Context, req *dto.CreateAuthRequestRequest, ipAddress string) (*dto.CreateAuthRequestResponse, error)
	// ListPending returns the account's undecided, unexpired requests, newest first.
	ListPending(ctx context.Context, email string) (*dto.AuthRequestListResponse, error)
	// Get returns one of the account's requests.
	Get(ctx context.Context, email, id string) (*dto.AuthRequestResponse, error)
	// GetByFingerprint returns the account's request shown under a fingerprint phrase.
	GetByFingerprint(ctx context.Context, email, fingerprint string) (*dto.AuthRequestResponse, error)
	// Decide records the approving device's single answer.
	Decide(ctx context.Context, email, id string, req *dto.UpdateAuthRequestRequest, ipAddress string) (*dto.AuthRequestResponse, error)
	// GetResponse is polled by the requesting device with the access code it received on Create.
	GetResponse(ctx context.Context, id, accessCode string) (*dto.AuthRequestResponse, error)
}

type authRequestAppServiceImpl struct {
	store    domainService.AuthRequestStore
	audit    domainService.AuditService
	notifier domainService.Notifier
	metrics  domainService.Metrics
	ttl      time.Duration
	logger   logger.Logger
}

// NewAuthRequestAppService creates a new instance of AuthRequestAppService
func NewAuthRequestAppService(
	store domainService.AuthRequestStore,
	audit domainService.AuditService,
	notifier domainService.Notifier,
	metrics domainService.Metrics,
	cfg config.AuthRequestConfig,
	log logger.Logger,
) AuthRequestAppService {
	if metrics == nil {
		metrics = domainService.NoopMetrics{}
	}
	ttl := cfg.ExpiresIn
	if ttl <= 0 {
		ttl = constants.AuthRequestDefaultTTL
	}
	return &authRequestAppServiceImpl{
		store:    store,
		audit:    audit,
		notifier: notifier,
		metrics:  metrics,
		ttl:      ttl,
		logger:   log.WithComponent("auth_request_service"),
	}
}

func (s *authRequestAppServiceImpl) Create(ctx context.Context, req *dto.CreateAuthRequestRequest, ipAddress string) (*dto.CreateAuthRequestResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		s.metrics.RecordAuthRequestCreated("unknown", false)
		return nil, err
	}

	email := normalizeEmail(req.Email)
	fingerprint, err := utils.FingerprintPhrase(email, req.PublicKey)
	if err != nil {
		s.metrics.RecordAuthRequestCreated(req.Platform, false)
		return nil, errors.ErrInvalidRequest(err.Error()).WithMetadata("parameter", "publicKey")
	}
	accessCode, err := utils.GenerateSecureRandomString(constants.AuthRequestAccessCodeLength)
	if err != nil {
		s.metrics.RecordAuthRequestCreated(req.Platform, false)
		return nil, errors.WrapError(err, errors.CodeServerError, "failed to generate access code")
	}

	authReq := models.NewAuthRequest(email, req.PublicKey, req.DeviceIdentifier, req.Platform, req.OriginURL, ipAddress, s.ttl)
	authReq.Fingerprint = fingerprint
	authReq.AccessCode = accessCode

	if err := s.store.Create(ctx, authReq); err != nil {
		s.metrics.RecordAuthRequestCreated(req.Platform, false)
		s.logger.Error(ctx, "Failed to store auth request", err)
		return nil, err
	}
	s.metrics.RecordAuthRequestCreated(req.Platform, true)

	s.logger.Info(ctx, "Auth request created",
		logger.String("request_id", authReq.ID),
		logger.String("platform", authReq.Platform),
		logger.String("ip_address", ipAddress),
	)
	s.logAudit(ctx, models.NewAuditEvent(constants.AuditEventAuthRequestCreated, email, authReq.ID, "login approval requested").
		WithContextInfo(ipAddress, traceIDFrom(ctx)).
		WithMetadata(map[string]string{"platform": authReq.Platform, "device_identifier": authReq.DeviceIdentifier}))
	s.notifier.Notify(ctx, email, domainService.Notification{
		Type:    constants.NotificationAuthRequest,
		Payload: map[string]string{"id": authReq.ID},
	})

	return &dto.CreateAuthRequestResponse{
		AuthRequestResponse: dto.NewAuthRequestResponse(authReq),
		AccessCode:          accessCode,
	}, nil
}

func (s *authRequestAppServiceImpl) ListPending(ctx context.Context, email string) (*dto.AuthRequestListResponse, error) {
	requests, err := s.store.ListByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}

	resp := &dto.AuthRequestListResponse{Data: make([]dto.AuthRequestResponse, 0, len(requests))}
	for _, req := range requests {
		if req.IsPending() {
			resp.Data = append(resp.Data, dto.NewAuthRequestResponse(req))
		}
	}
	return resp, nil
}

func (s *authRequestAppServiceImpl) Get(ctx context.Context, email, id string) (*dto.AuthRequestResponse, error) {
	req, err := s.getOwned(ctx, email, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewAuthRequestResponse(req)
	return &resp, nil
}

func (s *authRequestAppServiceImpl) GetByFingerprint(ctx context.Context, email, fingerprint string) (*dto.AuthRequestResponse, error) {
	if strings.TrimSpace(fingerprint) == "" {
		return nil, errors.ErrMissingRequiredParameter("fingerprint")
	}
	req, err := s.store.GetByFingerprint(ctx, normalizeEmail(email), fingerprint)
	if err != nil {
		return nil, err
	}
	if !req.IsPending() || req.IsExpired(time.Now()) {
		return nil, errors.ErrAuthRequestNotFound(fingerprint)
	}
	resp := dto.NewAuthRequestResponse(req)
	return &resp, nil
}

func (s *authRequestAppServiceImpl) Decide(ctx context.Context, email, id string, req *dto.UpdateAuthRequestRequest, ipAddress string) (*dto.AuthRequestResponse, error) {
	start := time.Now()
	outcome := "error"
	defer func() {
		s.metrics.RecordAuthRequestDecision(outcome, time.Since(start))
	}()

	if err := utils.ValidateStruct(req); err != nil {
		outcome = "invalid"
		return nil, err
	}

	email = normalizeEmail(email)
	if _, err := s.getOwned(ctx, email, id); err != nil {
		if errors.IsNotFoundError(err) {
			outcome = "not_found"
		}
		return nil, err
	}

	approved := *req.RequestApproved
	decided, err := s.store.Decide(ctx, id, approved, req.MasterPasswordHash, req.PublicKey)
	if err != nil {
		switch {
		case errors.IsAlreadyDecided(err):
			outcome = "already_decided"
			s.logger.Warn(ctx, "Decision submitted for an already decided auth request", logger.String("request_id", id))
		case errors.IsNotFoundError(err):
			outcome = "not_found"
		default:
			s.logger.Error(ctx, "Failed to record auth request decision", err, logger.String("request_id", id))
		}
		return nil, err
	}

	eventType := constants.AuditEventAuthRequestDeclined
	outcome = string(constants.AuthRequestStatusDeclined)
	if approved {
		eventType = constants.AuditEventAuthRequestApproved
		outcome = string(constants.AuthRequestStatusApproved)
	}

	s.logger.Info(ctx, "Auth request decided",
		logger.String("request_id", id),
		logger.String("outcome", outcome),
	)
	s.logAudit(ctx, models.NewAuditEvent(eventType, email, id, "login approval "+outcome).
		WithContextInfo(ipAddress, traceIDFrom(ctx)))
	s.notifier.Notify(ctx, email, domainService.Notification{
		Type:    constants.NotificationAuthRequestResponse,
		Payload: map[string]interface{}{"id": id, "requestApproved": approved},
	})

	resp := dto.NewAuthRequestResponse(decided)
	return &resp, nil
}

func (s *authRequestAppServiceImpl) GetResponse(ctx context.Context, id, accessCode string) (*dto.AuthRequestResponse, error) {
	if accessCode == "" {
		return nil, errors.ErrMissingRequiredParameter("code")
	}
	req, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(req.AccessCode), []byte(accessCode)) != 1 {
		return nil, errors.ErrAuthRequestNotFound(id)
	}
	resp := dto.NewAuthRequestResponse(req)
	return &resp, nil
}

// getOwned hides requests of other accounts behind not_found.
func (s *authRequestAppServiceImpl) getOwned(ctx context.Context, email, id string) (*models.AuthRequest, error) {
	req, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(req.Email, normalizeEmail(email)) {
		return nil, errors.ErrAuthRequestNotFound(id)
	}
	return req, nil
}

func (s *authRequestAppServiceImpl) logAudit(ctx context.Context, event *models.AuditEvent) {
	if err := s.audit.LogEvent(ctx, *event); err != nil {
		s.logger.Warn(ctx, "Failed to write audit event",
			logger.String("event_type", string(event.EventType)),
			logger.Error(err),
		)
	}
}
