package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/vaultgate/internal/application/dto"
	"github.com/turtacn/vaultgate/pkg/errors"
	"github.com/turtacn/vaultgate/pkg/logger"
)

// MockAuthRequestAppService is a mock for the AuthRequestAppService
type MockAuthRequestAppService struct {
	mock.Mock
}

func (m *MockAuthRequestAppService) Create(ctx context.Context, req *dto.CreateAuthRequestRequest, ipAddress string) (*dto.CreateAuthRequestResponse, error) {
	args := m.Called(ctx, req, ipAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CreateAuthRequestResponse), args.Error(1)
}

func (m *MockAuthRequestAppService) ListPending(ctx context.Context, email string) (*dto.AuthRequestListResponse, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AuthRequestListResponse), args.Error(1)
}

func (m *MockAuthRequestAppService) Get(ctx context.Context, email, id string) (*dto.AuthRequestResponse, error) {
	args := m.Called(ctx, email, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AuthRequestResponse), args.Error(1)
}

func (m *MockAuthRequestAppService) GetByFingerprint(ctx context.Context, email, fingerprint string) (*dto.AuthRequestResponse, error) {
	args := m.Called(ctx, email, fingerprint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AuthRequestResponse), args.Error(1)
}

func (m *MockAuthRequestAppService) Decide(ctx context.Context, email, id string, req *dto.UpdateAuthRequestRequest, ipAddress string) (*dto.AuthRequestResponse, error) {
	args := m.Called(ctx, email, id, req, ipAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AuthRequestResponse), args.Error(1)
}

func (m *MockAuthRequestAppService) GetResponse(ctx context.Context, id, accessCode string) (*dto.AuthRequestResponse, error) {
	args := m.Called(ctx, id, accessCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AuthRequestResponse), args.Error(1)
}

type AuthRequestHandlerTestSuite struct {
	suite.Suite
	service *MockAuthRequestAppService
	handler http.Handler
	auth    string
}

func (s *AuthRequestHandlerTestSuite) SetupTest() {
	s.service = new(MockAuthRequestAppService)
	h := NewAuthRequestHandler(s.service, logger.NewNoopLogger())

	engine, authed := newEngine()
	engine.POST("/auth-requests", h.Create)
	engine.GET("/auth-requests/:id/response", h.GetResponse)
	authed.GET("/auth-requests", h.List)
	authed.GET("/auth-requests/fingerprint/:fingerprint", h.GetByFingerprint)
	authed.GET("/auth-requests/:id", h.Get)
	authed.PUT("/auth-requests/:id", h.Update)

	s.handler = engine
	s.auth = bearer(s.T(), testUserID, testEmail)
}

func (s *AuthRequestHandlerTestSuite) TearDownTest() {
	s.service.AssertExpectations(s.T())
}

func TestAuthRequestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(AuthRequestHandlerTestSuite))
}

func (s *AuthRequestHandlerTestSuite) TestCreate() {
	body := dto.CreateAuthRequestRequest{
		Email:            testEmail,
		PublicKey:        "cHVibGljLWtleQ==",
		DeviceIdentifier: "device-1",
		Platform:         "android",
	}
	resp := &dto.CreateAuthRequestResponse{
		AuthRequestResponse: dto.AuthRequestResponse{ID: "req-1", Fingerprint: "alpha-bravo"},
		AccessCode:          "code",
	}
	s.service.On("Create", mock.Anything, &body, "192.0.2.1").Return(resp, nil).Once()

	w := doRequest(s.T(), s.handler, http.MethodPost, "/auth-requests", body, "")

	s.Equal(http.StatusCreated, w.Code)
	var got dto.CreateAuthRequestResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	s.Equal("req-1", got.ID)
	s.Equal("code", got.AccessCode)
}

func (s *AuthRequestHandlerTestSuite) TestCreate_MalformedBody() {
	w := doRequest(s.T(), s.handler, http.MethodPost, "/auth-requests", "not an object", "")
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("invalid_request", errorCode(s.T(), w))
}

func (s *AuthRequestHandlerTestSuite) TestGetResponse() {
	s.service.On("GetResponse", mock.Anything, "req-1", "secret").
		Return(nil, errors.ErrAuthRequestNotFound("req-1")).Once()

	w := doRequest(s.T(), s.handler, http.MethodGet, "/auth-requests/req-1/response?code=secret", nil, "")
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("not_found", errorCode(s.T(), w))
}

func (s *AuthRequestHandlerTestSuite) TestList_RequiresToken() {
	w := doRequest(s.T(), s.handler, http.MethodGet, "/auth-requests", nil, "")
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *AuthRequestHandlerTestSuite) TestList() {
	s.service.On("ListPending", mock.Anything, testEmail).
		Return(&dto.AuthRequestListResponse{Data: []dto.AuthRequestResponse{{ID: "req-1"}}}, nil).Once()

	w := doRequest(s.T(), s.handler, http.MethodGet, "/auth-requests", nil, s.auth)
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`"req-1"`, mustField(s, w.Body.Bytes(), "data", 0, "id"))
}

func (s *AuthRequestHandlerTestSuite) TestGetByFingerprint() {
	created := time.Date(2024, 3, 5, 14, 7, 0, 0, time.UTC)
	s.service.On("GetByFingerprint", mock.Anything, testEmail, "alpha-bravo").
		Return(&dto.AuthRequestResponse{ID: "req-1", Fingerprint: "alpha-bravo", CreationDate: created}, nil).Once()
	s.service.On("GetByFingerprint", mock.Anything, testEmail, "unknown").
		Return(nil, errors.ErrAuthRequestNotFound("unknown")).Once()

	w := doRequest(s.T(), s.handler, http.MethodGet, "/auth-requests/fingerprint/alpha-bravo", nil, s.auth)
	s.Equal(http.StatusOK, w.Code)
	var got dto.AuthRequestResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	s.Equal("req-1", got.ID)
	s.True(created.Equal(got.CreationDate))

	w = doRequest(s.T(), s.handler, http.MethodGet, "/auth-requests/fingerprint/unknown", nil, s.auth)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *AuthRequestHandlerTestSuite) TestGet() {
	s.service.On("Get", mock.Anything, testEmail, "req-1").Return(&dto.AuthRequestResponse{ID: "req-1"}, nil).Once()

	w := doRequest(s.T(), s.handler, http.MethodGet, "/auth-requests/req-1", nil, s.auth)
	s.Equal(http.StatusOK, w.Code)
}

func (s *AuthRequestHandlerTestSuite) TestUpdate() {
	approved := true
	body := dto.UpdateAuthRequestRequest{PublicKey: "cHVibGljLWtleQ==", RequestApproved: &approved}
	s.service.On("Decide", mock.Anything, testEmail, "req-1", mock.MatchedBy(func(req *dto.UpdateAuthRequestRequest) bool {
		return req.RequestApproved != nil && *req.RequestApproved
	}), "192.0.2.1").Return(&dto.AuthRequestResponse{ID: "req-1", RequestApproved: &approved}, nil).Once()

	w := doRequest(s.T(), s.handler, http.MethodPut, "/auth-requests/req-1", body, s.auth)
	s.Equal(http.StatusOK, w.Code)
}

func (s *AuthRequestHandlerTestSuite) TestUpdate_AlreadyDecided() {
	approved := false
	body := dto.UpdateAuthRequestRequest{PublicKey: "cHVibGljLWtleQ==", RequestApproved: &approved}
	s.service.On("Decide", mock.Anything, testEmail, "req-1", mock.Anything, mock.Anything).
		Return(nil, errors.ErrAlreadyDecided("req-1")).Once()

	w := doRequest(s.T(), s.handler, http.MethodPut, "/auth-requests/req-1", body, s.auth)
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("already_decided", errorCode(s.T(), w))
}

func (s *AuthRequestHandlerTestSuite) TestUpdate_UnexpectedError() {
	approved := true
	body := dto.UpdateAuthRequestRequest{PublicKey: "cHVibGljLWtleQ==", RequestApproved: &approved}
	s.service.On("Decide", mock.Anything, testEmail, "req-1", mock.Anything, mock.Anything).
		Return(nil, context.DeadlineExceeded).Once()

	w := doRequest(s.T(), s.handler, http.MethodPut, "/auth-requests/req-1", body, s.auth)
	s.Equal(http.StatusInternalServerError, w.Code)
	s.Equal("server_error", errorCode(s.T(), w))
}

// mustField walks a decoded JSON document by object keys and array indexes and re-encodes the leaf.
func mustField(s *AuthRequestHandlerTestSuite, raw []byte, path ...interface{}) string {
	var doc interface{}
	s.Require().NoError(json.Unmarshal(raw, &doc))
	for _, p := range path {
		switch k := p.(type) {
		case string:
			doc = doc.(map[string]interface{})[k]
		case int:
			doc = doc.([]interface{})[k]
		}
	}
	out, err := json.Marshal(doc)
	s.Require().NoError(err)
	return string(out)
}
