package models

import (
	"time"

	"github.com/turtacn/vaultgate/pkg/constants"
)

// Cipher is one encrypted vault item. Every string payload is an opaque encrypted string;
// the server stores and returns it without interpretation.
type Cipher struct {
	ID             string                       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID         string                       `gorm:"type:varchar(255);index;not null" json:"-"`
	OrganizationID *string                      `gorm:"type:varchar(36);index" json:"organizationId"`
	FolderID       *string                      `gorm:"type:varchar(36)" json:"folderId"`
	Type           constants.CipherType         `gorm:"not null" json:"type"`
	Name           string                       `gorm:"type:text;not null" json:"name"`
	Notes          *string                      `gorm:"type:text" json:"notes"`
	Favorite       bool                         `gorm:"not null;default:false" json:"favorite"`
	Reprompt       constants.CipherRepromptType `gorm:"not null;default:0" json:"reprompt"`
	Key            *string                      `gorm:"type:text" json:"key"`

	Login      *CipherLogin      `gorm:"serializer:json" json:"login"`
	Card       *CipherCard       `gorm:"serializer:json" json:"card"`
	Identity   *CipherIdentity   `gorm:"serializer:json" json:"identity"`
	SecureNote *CipherSecureNote `gorm:"serializer:json" json:"secureNote"`

	Fields          []CipherField     `gorm:"serializer:json" json:"fields"`
	PasswordHistory []PasswordHistory `gorm:"serializer:json" json:"passwordHistory"`
	Attachments     []Attachment      `gorm:"serializer:json" json:"attachments"`
	CollectionIDs   []string          `gorm:"serializer:json" json:"collectionIds"`

	CreationDate time.Time  `gorm:"not null" json:"creationDate"`
	RevisionDate time.Time  `gorm:"not null;index" json:"revisionDate"`
	DeletedDate  *time.Time `gorm:"index" json:"deletedDate"`
}

// TableName overrides the table name used by Cipher.
func (Cipher) TableName() string {
	return "ciphers"
}

// IsDeleted reports whether the cipher has been soft deleted.
func (c *Cipher) IsDeleted() bool {
	return c.DeletedDate != nil
}

type LoginURI struct {
	URI   *string `json:"uri"`
	Match *int    `json:"match"`
}

type CipherLogin struct {
	URIs                 []LoginURI `json:"uris"`
	Username             *string    `json:"username"`
	Password             *string    `json:"password"`
	PasswordRevisionDate *time.Time `json:"passwordRevisionDate"`
	Totp                 *string    `json:"totp"`
	AutofillOnPageLoad   *bool      `json:"autofillOnPageLoad"`
}

type CipherCard struct {
	CardholderName *string `json:"cardholderName"`
	Brand          *string `json:"brand"`
	Number         *string `json:"number"`
	ExpMonth       *string `json:"expMonth"`
	ExpYear        *string `json:"expYear"`
	Code           *string `json:"code"`
}

type CipherIdentity struct {
	Title          *string `json:"title"`
	FirstName      *string `json:"firstName"`
	MiddleName     *string `json:"middleName"`
	LastName       *string `json:"lastName"`
	Address1       *string `json:"address1"`
	Address2       *string `json:"address2"`
	Address3       *string `json:"address3"`
	City           *string `json:"city"`
	State          *string `json:"state"`
	PostalCode     *string `json:"postalCode"`
	Country        *string `json:"country"`
	Company        *string `json:"company"`
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
	SSN            *string `json:"ssn"`
	Username       *string `json:"username"`
	PassportNumber *string `json:"passportNumber"`
	LicenseNumber  *string `json:"licenseNumber"`
}

type CipherSecureNote struct {
	Type int `json:"type"`
}

// CipherField is a user-defined custom field. Type 0 text, 1 hidden, 2 boolean, 3 linked.
type CipherField struct {
	Name     *string `json:"name"`
	Value    *string `json:"value"`
	Type     int     `json:"type"`
	LinkedID *int    `json:"linkedId"`
}

type PasswordHistory struct {
	Password     string    `json:"password"`
	LastUsedDate time.Time `json:"lastUsedDate"`
}

type Attachment struct {
	ID       string  `json:"id"`
	FileName *string `json:"fileName"`
	Key      *string `json:"key"`
	Size     string  `json:"size"`
	SizeName string  `json:"sizeName"`
	URL      *string `json:"url"`
}
