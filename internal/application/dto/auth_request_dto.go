package dto

import (
	"time"

	"github.com/turtacn/vaultgate/internal/domain/models"
)

// CreateAuthRequestRequest is sent by the requesting device.
type CreateAuthRequestRequest struct {
	Email            string `json:"email" validate:"required,email"`
	PublicKey        string `json:"publicKey" validate:"required,base64"`
	DeviceIdentifier string `json:"deviceIdentifier" validate:"required,max=255"`
	Platform         string `json:"platform" validate:"required,device_type"`
	OriginURL        string `json:"originUrl,omitempty" validate:"omitempty,max=2048"`
}

// UpdateAuthRequestRequest carries the approving device's decision.
type UpdateAuthRequestRequest struct {
	MasterPasswordHash *string `json:"masterPasswordHash,omitempty"`
	PublicKey          string  `json:"publicKey" validate:"required"`
	RequestApproved    *bool   `json:"requestApproved" validate:"required"`
}

// AuthRequestResponse is the wire form of an auth request.
type AuthRequestResponse struct {
	ID                 string     `json:"id"`
	Email              string     `json:"email"`
	Fingerprint        string     `json:"fingerprint"`
	PublicKey          string     `json:"publicKey"`
	MasterPasswordHash *string    `json:"masterPasswordHash,omitempty"`
	ResponsePublicKey  string     `json:"responsePublicKey,omitempty"`
	Platform           string     `json:"platform"`
	OriginURL          string     `json:"originUrl"`
	IPAddress          string     `json:"ipAddress"`
	CreationDate       time.Time  `json:"creationDate"`
	ExpirationDate     time.Time  `json:"expirationDate"`
	RequestApproved    *bool      `json:"requestApproved,omitempty"`
	ResponseDate       *time.Time `json:"responseDate,omitempty"`
}

// CreateAuthRequestResponse adds the access code, which is only returned to the requesting device.
type CreateAuthRequestResponse struct {
	AuthRequestResponse
	AccessCode string `json:"accessCode"`
}

// AuthRequestListResponse wraps a list of requests.
type AuthRequestListResponse struct {
	Data []AuthRequestResponse `json:"data"`
}

// NewAuthRequestResponse maps the domain model to its wire form.
func NewAuthRequestResponse(req *models.AuthRequest) AuthRequestResponse {
	return AuthRequestResponse{
		ID:                 req.ID,
		Email:              req.Email,
		Fingerprint:        req.Fingerprint,
		PublicKey:          req.PublicKey,
		MasterPasswordHash: req.MasterPasswordHash,
		ResponsePublicKey:  req.ResponsePublicKey,
		Platform:           req.Platform,
		OriginURL:          req.OriginURL,
		IPAddress:          req.IPAddress,
		CreationDate:       req.CreationDate,
		ExpirationDate:     req.ExpiresAt,
		RequestApproved:    req.Approved(),
		ResponseDate:       req.ResponseDate,
	}
}
