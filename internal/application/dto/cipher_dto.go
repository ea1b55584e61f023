package dto

import (
	"time"

	"github.com/turtacn/vaultgate/internal/domain/models"
	"github.com/turtacn/vaultgate/pkg/constants"
)

// CipherRequest is the create/update body of a vault item. Server-assigned fields are absent.
type CipherRequest struct {
	Type           constants.CipherType         `json:"type" validate:"required,min=1,max=4"`
	OrganizationID *string                      `json:"organizationId" validate:"omitempty,uuid_str"`
	FolderID       *string                      `json:"folderId" validate:"omitempty,uuid_str"`
	Name           string                       `json:"name" validate:"required"`
	Notes          *string                      `json:"notes"`
	Favorite       bool                         `json:"favorite"`
	Reprompt       constants.CipherRepromptType `json:"reprompt" validate:"min=0,max=1"`
	Key            *string                      `json:"key"`

	Login      *models.CipherLogin      `json:"login"`
	Card       *models.CipherCard       `json:"card"`
	Identity   *models.CipherIdentity   `json:"identity"`
	SecureNote *models.CipherSecureNote `json:"secureNote"`

	Fields          []models.CipherField     `json:"fields"`
	PasswordHistory []models.PasswordHistory `json:"passwordHistory"`
	Attachments     []models.Attachment      `json:"attachments"`
	CollectionIDs   []string                 `json:"collectionIds"`

	// LastKnownRevisionDate guards updates against overwriting a newer revision.
	LastKnownRevisionDate *time.Time `json:"lastKnownRevisionDate,omitempty"`
}

// CipherListResponse wraps a list of ciphers.
type CipherListResponse struct {
	Data []*models.Cipher `json:"data"`
}

// ToCipher builds a new cipher owned by userID. ID and dates are left for the service to assign.
func (r *CipherRequest) ToCipher(userID string) *models.Cipher {
	c := &models.Cipher{UserID: userID}
	r.ApplyTo(c)
	return c
}

// ApplyTo copies every client-controlled field onto c.
func (r *CipherRequest) ApplyTo(c *models.Cipher) {
	c.Type = r.Type
	c.OrganizationID = r.OrganizationID
	c.FolderID = r.FolderID
	c.Name = r.Name
	c.Notes = r.Notes
	c.Favorite = r.Favorite
	c.Reprompt = r.Reprompt
	c.Key = r.Key
	c.Login = r.Login
	c.Card = r.Card
	c.Identity = r.Identity
	c.SecureNote = r.SecureNote
	c.Fields = r.Fields
	c.PasswordHistory = r.PasswordHistory
	c.Attachments = r.Attachments
	c.CollectionIDs = r.CollectionIDs
}
