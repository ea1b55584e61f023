package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/vaultgate/internal/application/dto"
	"github.com/turtacn/vaultgate/internal/config"
	"github.com/turtacn/vaultgate/internal/domain/models"
	domainservice "github.com/turtacn/vaultgate/internal/domain/service"
	"github.com/turtacn/vaultgate/internal/domain/service/mocks"
	"github.com/turtacn/vaultgate/pkg/constants"
	"github.com/turtacn/vaultgate/pkg/errors"
	"github.com/turtacn/vaultgate/pkg/logger"
	"github.com/turtacn/vaultgate/pkg/utils"
)

const testPublicKey = "cHVibGljLWtleQ=="

type AuthRequestAppServiceTestSuite struct {
	suite.Suite
	store    *mocks.MockAuthRequestStore
	audit    *mocks.MockAuditService
	notifier *mocks.MockNotifier
	metrics  *mocks.MockMetrics
	svc      AuthRequestAppService
	ctx      context.Context
}

func (s *AuthRequestAppServiceTestSuite) SetupTest() {
	s.store = new(mocks.MockAuthRequestStore)
	s.audit = new(mocks.MockAuditService)
	s.notifier = new(mocks.MockNotifier)
	s.metrics = new(mocks.MockMetrics)
	s.svc = NewAuthRequestAppService(s.store, s.audit, s.notifier, s.metrics,
		config.AuthRequestConfig{ExpiresIn: 15 * time.Minute}, logger.NewNoopLogger())
	s.ctx = context.WithValue(context.Background(), constants.ContextKeyTraceID, "trace-1")
}

func (s *AuthRequestAppServiceTestSuite) TearDownTest() {
	s.store.AssertExpectations(s.T())
	s.audit.AssertExpectations(s.T())
	s.notifier.AssertExpectations(s.T())
	s.metrics.AssertExpectations(s.T())
}

func TestAuthRequestAppServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthRequestAppServiceTestSuite))
}

func pendingRequest(email string) *models.AuthRequest {
	req := models.NewAuthRequest(email, testPublicKey, "device-1", "Android", "vault.example.com", "10.0.0.1", 15*time.Minute)
	req.Fingerprint = "amber-basil-cedar-delta-ember"
	req.AccessCode = "secret-code"
	return req
}

func (s *AuthRequestAppServiceTestSuite) TestCreate() {
	s.metrics.On("RecordAuthRequestCreated", "Android", true).Once()
	s.store.On("Create", s.ctx, mock.MatchedBy(func(r *models.AuthRequest) bool {
		return r.Email == "alice@example.com" && r.IsPending() && len(r.AccessCode) == constants.AuthRequestAccessCodeLength
	})).Return(nil).Once()
	s.audit.On("LogEvent", s.ctx, mock.MatchedBy(func(e models.AuditEvent) bool {
		return e.EventType == constants.AuditEventAuthRequestCreated && e.TraceID == "trace-1" && e.IPAddress == "10.0.0.1"
	})).Return(nil).Once()
	s.notifier.On("Notify", s.ctx, "alice@example.com", mock.MatchedBy(func(n domainservice.Notification) bool {
		return n.Type == constants.NotificationAuthRequest
	})).Once()

	resp, err := s.svc.Create(s.ctx, &dto.CreateAuthRequestRequest{
		Email:            "Alice@Example.com",
		PublicKey:        testPublicKey,
		DeviceIdentifier: "device-1",
		Platform:         "Android",
		OriginURL:        "vault.example.com",
	}, "10.0.0.1")
	s.Require().NoError(err)

	want, err := utils.FingerprintPhrase("alice@example.com", testPublicKey)
	s.Require().NoError(err)
	s.Equal(want, resp.Fingerprint)
	s.Len(resp.AccessCode, constants.AuthRequestAccessCodeLength)
	s.Nil(resp.RequestApproved)
	s.WithinDuration(resp.CreationDate.Add(15*time.Minute), resp.ExpirationDate, time.Second)
}

func (s *AuthRequestAppServiceTestSuite) TestCreate_InvalidPayload() {
	s.metrics.On("RecordAuthRequestCreated", "unknown", false).Once()

	_, err := s.svc.Create(s.ctx, &dto.CreateAuthRequestRequest{
		Email:            "not-an-email",
		PublicKey:        testPublicKey,
		DeviceIdentifier: "device-1",
		Platform:         "Toaster",
	}, "10.0.0.1")
	s.True(errors.HasCode(err, errors.CodeInvalidRequest))
}

func (s *AuthRequestAppServiceTestSuite) TestCreate_AuditFailureDoesNotFail() {
	s.metrics.On("RecordAuthRequestCreated", "Android", true).Once()
	s.store.On("Create", s.ctx, mock.Anything).Return(nil).Once()
	s.audit.On("LogEvent", s.ctx, mock.Anything).Return(errors.ErrTemporarilyUnavailable("kafka down")).Once()
	s.notifier.On("Notify", s.ctx, "alice@example.com", mock.Anything).Once()

	_, err := s.svc.Create(s.ctx, &dto.CreateAuthRequestRequest{
		Email:            "alice@example.com",
		PublicKey:        testPublicKey,
		DeviceIdentifier: "device-1",
		Platform:         "Android",
	}, "10.0.0.1")
	s.NoError(err)
}

func (s *AuthRequestAppServiceTestSuite) TestListPending_FiltersDecided() {
	pending := pendingRequest("alice@example.com")
	decided := pendingRequest("alice@example.com")
	decided.Decide(false, nil, "", time.Now())
	s.store.On("ListByEmail", s.ctx, "alice@example.com").Return([]*models.AuthRequest{pending, decided}, nil).Once()

	resp, err := s.svc.ListPending(s.ctx, "ALICE@example.com")
	s.Require().NoError(err)
	s.Require().Len(resp.Data, 1)
	s.Equal(pending.ID, resp.Data[0].ID)
}

func (s *AuthRequestAppServiceTestSuite) TestGet_OtherAccountIsNotFound() {
	req := pendingRequest("bob@example.com")
	s.store.On("GetByID", s.ctx, req.ID).Return(req, nil).Once()

	_, err := s.svc.Get(s.ctx, "alice@example.com", req.ID)
	s.True(errors.IsNotFoundError(err))
}

func (s *AuthRequestAppServiceTestSuite) TestGetByFingerprint() {
	req := pendingRequest("alice@example.com")
	s.store.On("GetByFingerprint", s.ctx, "alice@example.com", req.Fingerprint).Return(req, nil).Once()

	resp, err := s.svc.GetByFingerprint(s.ctx, "alice@example.com", req.Fingerprint)
	s.Require().NoError(err)
	s.Equal(req.ID, resp.ID)
	s.Equal(req.PublicKey, resp.PublicKey)
	s.Equal("Android", resp.Platform)
	s.Equal("vault.example.com", resp.OriginURL)
	s.Equal("10.0.0.1", resp.IPAddress)
}

func (s *AuthRequestAppServiceTestSuite) TestGetByFingerprint_DecidedIsNotFound() {
	req := pendingRequest("alice@example.com")
	req.Decide(false, nil, "", time.Now())
	s.store.On("GetByFingerprint", s.ctx, "alice@example.com", req.Fingerprint).Return(req, nil).Once()

	_, err := s.svc.GetByFingerprint(s.ctx, "alice@example.com", req.Fingerprint)
	s.True(errors.IsNotFoundError(err))
}

func (s *AuthRequestAppServiceTestSuite) TestGetByFingerprint_ExpiredIsNotFound() {
	req := pendingRequest("alice@example.com")
	req.ExpiresAt = time.Now().Add(-time.Second)
	s.store.On("GetByFingerprint", s.ctx, "alice@example.com", req.Fingerprint).Return(req, nil).Once()

	_, err := s.svc.GetByFingerprint(s.ctx, "alice@example.com", req.Fingerprint)
	s.True(errors.IsNotFoundError(err))
}

func (s *AuthRequestAppServiceTestSuite) TestGetByFingerprint_Missing() {
	_, err := s.svc.GetByFingerprint(s.ctx, "alice@example.com", " ")
	s.True(errors.HasCode(err, errors.CodeInvalidRequest))
}

func (s *AuthRequestAppServiceTestSuite) TestDecide_Approve() {
	req := pendingRequest("alice@example.com")
	mph := "mp-hash"
	decided := *req
	decided.Decide(true, &mph, "approver-key", time.Now())

	s.store.On("GetByID", s.ctx, req.ID).Return(req, nil).Once()
	s.store.On("Decide", s.ctx, req.ID, true, &mph, "approver-key").Return(&decided, nil).Once()
	s.metrics.On("RecordAuthRequestDecision", "approved", mock.AnythingOfType("time.Duration")).Once()
	s.audit.On("LogEvent", s.ctx, mock.MatchedBy(func(e models.AuditEvent) bool {
		return e.EventType == constants.AuditEventAuthRequestApproved && e.Subject == req.ID
	})).Return(nil).Once()
	s.notifier.On("Notify", s.ctx, "alice@example.com", mock.MatchedBy(func(n domainservice.Notification) bool {
		return n.Type == constants.NotificationAuthRequestResponse
	})).Once()

	approved := true
	resp, err := s.svc.Decide(s.ctx, "alice@example.com", req.ID, &dto.UpdateAuthRequestRequest{
		MasterPasswordHash: &mph,
		PublicKey:          "approver-key",
		RequestApproved:    &approved,
	}, "10.0.0.2")
	s.Require().NoError(err)
	s.Require().NotNil(resp.RequestApproved)
	s.True(*resp.RequestApproved)
	s.NotNil(resp.ResponseDate)
}

func (s *AuthRequestAppServiceTestSuite) TestDecide_Decline() {
	req := pendingRequest("alice@example.com")
	decided := *req
	decided.Decide(false, nil, "approver-key", time.Now())

	s.store.On("GetByID", s.ctx, req.ID).Return(req, nil).Once()
	s.store.On("Decide", s.ctx, req.ID, false, (*string)(nil), "approver-key").Return(&decided, nil).Once()
	s.metrics.On("RecordAuthRequestDecision", "declined", mock.AnythingOfType("time.Duration")).Once()
	s.audit.On("LogEvent", s.ctx, mock.MatchedBy(func(e models.AuditEvent) bool {
		return e.EventType == constants.AuditEventAuthRequestDeclined
	})).Return(nil).Once()
	s.notifier.On("Notify", s.ctx, "alice@example.com", mock.Anything).Once()

	declined := false
	resp, err := s.svc.Decide(s.ctx, "alice@example.com", req.ID, &dto.UpdateAuthRequestRequest{
		PublicKey:       "approver-key",
		RequestApproved: &declined,
	}, "10.0.0.2")
	s.Require().NoError(err)
	s.False(*resp.RequestApproved)
	s.Nil(resp.MasterPasswordHash)
}

func (s *AuthRequestAppServiceTestSuite) TestDecide_AlreadyDecided() {
	req := pendingRequest("alice@example.com")
	s.store.On("GetByID", s.ctx, req.ID).Return(req, nil).Once()
	s.store.On("Decide", s.ctx, req.ID, true, (*string)(nil), "approver-key").Return(nil, errors.ErrAlreadyDecided(req.ID)).Once()
	s.metrics.On("RecordAuthRequestDecision", "already_decided", mock.AnythingOfType("time.Duration")).Once()

	approved := true
	_, err := s.svc.Decide(s.ctx, "alice@example.com", req.ID, &dto.UpdateAuthRequestRequest{
		PublicKey:       "approver-key",
		RequestApproved: &approved,
	}, "10.0.0.2")
	s.True(errors.IsAlreadyDecided(err))
}

func (s *AuthRequestAppServiceTestSuite) TestDecide_NotFound() {
	s.store.On("GetByID", s.ctx, "missing").Return(nil, errors.ErrAuthRequestNotFound("missing")).Once()
	s.metrics.On("RecordAuthRequestDecision", "not_found", mock.AnythingOfType("time.Duration")).Once()

	approved := true
	_, err := s.svc.Decide(s.ctx, "alice@example.com", "missing", &dto.UpdateAuthRequestRequest{
		PublicKey:       "approver-key",
		RequestApproved: &approved,
	}, "10.0.0.2")
	s.True(errors.IsNotFoundError(err))
}

func (s *AuthRequestAppServiceTestSuite) TestDecide_RequiresAnswer() {
	s.metrics.On("RecordAuthRequestDecision", "invalid", mock.AnythingOfType("time.Duration")).Once()

	_, err := s.svc.Decide(s.ctx, "alice@example.com", "id", &dto.UpdateAuthRequestRequest{PublicKey: "k"}, "10.0.0.2")
	s.True(errors.HasCode(err, errors.CodeInvalidRequest))
}

func (s *AuthRequestAppServiceTestSuite) TestGetResponse() {
	req := pendingRequest("alice@example.com")
	s.store.On("GetByID", s.ctx, req.ID).Return(req, nil).Twice()

	resp, err := s.svc.GetResponse(s.ctx, req.ID, "secret-code")
	s.Require().NoError(err)
	s.Equal(req.ID, resp.ID)

	_, err = s.svc.GetResponse(s.ctx, req.ID, "wrong-code")
	s.True(errors.IsNotFoundError(err))

	_, err = s.svc.GetResponse(s.ctx, req.ID, "")
	s.True(errors.HasCode(err, errors.CodeInvalidRequest))
}
