package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/turtacn/vaultgate/internal/application/dto"
	"github.com/turtacn/vaultgate/internal/application/service"
	"github.com/turtacn/vaultgate/internal/domain/models"
	"github.com/turtacn/vaultgate/internal/domain/service/mocks"
	"github.com/turtacn/vaultgate/internal/infrastructure/audit"
	"github.com/turtacn/vaultgate/internal/infrastructure/persistence/postgres"
	"github.com/turtacn/vaultgate/pkg/constants"
	"github.com/turtacn/vaultgate/pkg/logger"
)

// CipherHandlerTestSuite runs the cipher endpoints against the real service and a sqlite repository.
type CipherHandlerTestSuite struct {
	suite.Suite
	db       *gorm.DB
	notifier *mocks.MockNotifier
	handler  http.Handler
	auth     string
}

func (s *CipherHandlerTestSuite) SetupTest() {
	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	s.Require().NoError(err)
	s.Require().NoError(postgres.AutoMigrate(ctx, db))

	auditSink := audit.NewGormAuditService(db)
	s.Require().NoError(auditSink.Migrate(ctx))

	s.notifier = new(mocks.MockNotifier)
	s.notifier.On("Notify", mock.Anything, testEmail, mock.Anything).Return().Maybe()

	log := logger.NewNoopLogger()
	svc := service.NewCipherAppService(postgres.NewCipherRepository(db, log), auditSink, s.notifier, nil, log)
	h := NewCipherHandler(svc, log)

	engine, authed := newEngine()
	authed.POST("/ciphers", h.Create)
	authed.GET("/ciphers", h.List)
	authed.GET("/ciphers/:id", h.Get)
	authed.PUT("/ciphers/:id", h.Update)
	authed.DELETE("/ciphers/:id", h.Delete)

	s.db = db
	s.handler = engine
	s.auth = bearer(s.T(), testUserID, testEmail)
}

func (s *CipherHandlerTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	_ = sqlDB.Close()
}

func TestCipherHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(CipherHandlerTestSuite))
}

func enc(v string) *string { return &v }

// fullPayload populates every sub-object a cipher can carry.
func fullPayload() *dto.CipherRequest {
	match := 1
	linked := 100
	autofill := true
	pwdRevision := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return &dto.CipherRequest{
		Type:     constants.CipherTypeLogin,
		FolderID: enc("0b8f3b9e-6f0e-4a57-9a59-51b1c2e0d0aa"),
		Name:     "2.name|iv|mac",
		Notes:    enc("2.notes|iv|mac"),
		Favorite: true,
		Reprompt: constants.CipherRepromptPassword,
		Key:      enc("2.key|iv|mac"),
		Login: &models.CipherLogin{
			URIs:                 []models.LoginURI{{URI: enc("2.uri|iv|mac"), Match: &match}},
			Username:             enc("2.user|iv|mac"),
			Password:             enc("2.pass|iv|mac"),
			PasswordRevisionDate: &pwdRevision,
			Totp:                 enc("2.totp|iv|mac"),
			AutofillOnPageLoad:   &autofill,
		},
		Card: &models.CipherCard{
			CardholderName: enc("2.holder|iv|mac"),
			Brand:          enc("2.brand|iv|mac"),
			Number:         enc("2.number|iv|mac"),
			ExpMonth:       enc("2.month|iv|mac"),
			ExpYear:        enc("2.year|iv|mac"),
			Code:           enc("2.code|iv|mac"),
		},
		Identity: &models.CipherIdentity{
			Title:     enc("2.title|iv|mac"),
			FirstName: enc("2.first|iv|mac"),
			LastName:  enc("2.last|iv|mac"),
			Email:     enc("2.email|iv|mac"),
			SSN:       enc("2.ssn|iv|mac"),
		},
		SecureNote: &models.CipherSecureNote{Type: 0},
		Fields: []models.CipherField{
			{Name: enc("2.f1|iv|mac"), Value: enc("2.v1|iv|mac"), Type: 0},
			{Name: enc("2.f2|iv|mac"), Type: 3, LinkedID: &linked},
		},
		PasswordHistory: []models.PasswordHistory{
			{Password: "2.old|iv|mac", LastUsedDate: pwdRevision},
		},
		Attachments: []models.Attachment{
			{ID: "att-1", FileName: enc("2.file|iv|mac"), Key: enc("2.akey|iv|mac"), Size: "1024", SizeName: "1 KB"},
		},
		CollectionIDs: []string{"col-1", "col-2"},
	}
}

func (s *CipherHandlerTestSuite) decodeCipher(raw []byte) *models.Cipher {
	var c models.Cipher
	s.Require().NoError(json.Unmarshal(raw, &c))
	return &c
}

func (s *CipherHandlerTestSuite) TestCreate_RoundTrip() {
	payload := fullPayload()

	w := doRequest(s.T(), s.handler, http.MethodPost, "/ciphers", payload, s.auth)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	created := s.decodeCipher(w.Body.Bytes())

	s.NotEmpty(created.ID)
	s.False(created.CreationDate.IsZero())
	s.Equal(created.CreationDate, created.RevisionDate)

	// The input plus only what the server assigns.
	expected := payload.ToCipher("")
	expected.ID = created.ID
	expected.CreationDate = created.CreationDate
	expected.RevisionDate = created.RevisionDate
	s.Equal(expected, created)

	w = doRequest(s.T(), s.handler, http.MethodGet, "/ciphers/"+created.ID, nil, s.auth)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(created, s.decodeCipher(w.Body.Bytes()))
}

func (s *CipherHandlerTestSuite) TestCreate_TypeMismatch() {
	payload := fullPayload()
	payload.Type = constants.CipherTypeCard
	payload.Card = nil

	w := doRequest(s.T(), s.handler, http.MethodPost, "/ciphers", payload, s.auth)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("invalid_request", errorCode(s.T(), w))
}

func (s *CipherHandlerTestSuite) TestOtherAccountCannotRead() {
	w := doRequest(s.T(), s.handler, http.MethodPost, "/ciphers", fullPayload(), s.auth)
	s.Require().Equal(http.StatusCreated, w.Code)
	created := s.decodeCipher(w.Body.Bytes())

	other := bearer(s.T(), uuid.NewString(), "bob@example.com")
	w = doRequest(s.T(), s.handler, http.MethodGet, "/ciphers/"+created.ID, nil, other)
	s.Equal(http.StatusNotFound, w.Code)

	w = doRequest(s.T(), s.handler, http.MethodGet, "/ciphers", nil, other)
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"data":[]}`, w.Body.String())
}

func (s *CipherHandlerTestSuite) TestUpdateAndDelete() {
	w := doRequest(s.T(), s.handler, http.MethodPost, "/ciphers", fullPayload(), s.auth)
	s.Require().Equal(http.StatusCreated, w.Code)
	created := s.decodeCipher(w.Body.Bytes())

	update := fullPayload()
	update.Name = "2.renamed|iv|mac"
	update.LastKnownRevisionDate = &created.RevisionDate
	w = doRequest(s.T(), s.handler, http.MethodPut, "/ciphers/"+created.ID, update, s.auth)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("2.renamed|iv|mac", s.decodeCipher(w.Body.Bytes()).Name)

	stale := created.RevisionDate.Add(-time.Hour)
	update.LastKnownRevisionDate = &stale
	w = doRequest(s.T(), s.handler, http.MethodPut, "/ciphers/"+created.ID, update, s.auth)
	s.Equal(http.StatusConflict, w.Code)

	w = doRequest(s.T(), s.handler, http.MethodDelete, "/ciphers/"+created.ID, nil, s.auth)
	s.Equal(http.StatusNoContent, w.Code)

	w = doRequest(s.T(), s.handler, http.MethodGet, "/ciphers/"+created.ID, nil, s.auth)
	s.Equal(http.StatusNotFound, w.Code)

	w = doRequest(s.T(), s.handler, http.MethodDelete, "/ciphers/"+created.ID, nil, s.auth)
	s.Equal(http.StatusNotFound, w.Code)
}
