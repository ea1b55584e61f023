// Package models defines the domain models.
package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/vaultgate/pkg/constants"
)

// AuthRequest is a pending new-device login waiting for an already signed-in device to approve it.
// AuthRequest 表示等待已登录设备批准的新设备登录请求。
type AuthRequest struct {
	// ID is the opaque identifier of the request.
	// ID 是请求的唯一标识符。
	ID string `json:"id"`
	// Email is the account the requesting device is trying to sign in to.
	// Email 是请求设备尝试登录的账户。
	Email string `json:"email"`
	// Fingerprint is the human-comparable phrase derived from Email and PublicKey.
	// Fingerprint 是由 Email 和 PublicKey 派生出的可人工比对短语。
	Fingerprint string `json:"fingerprint"`
	// PublicKey is the requesting device's base64 public key.
	// PublicKey 是请求设备的 base64 公钥。
	PublicKey string `json:"public_key"`
	// DeviceIdentifier is the requesting device's stable identifier.
	DeviceIdentifier string `json:"device_identifier"`
	// AccessCode is only known to the requesting device and guards the response poll.
	// AccessCode 仅请求设备知晓，用于保护结果轮询。
	AccessCode string `json:"access_code"`
	Platform   string `json:"platform"`
	OriginURL  string `json:"origin_url"`
	IPAddress  string `json:"ip_address"`

	CreationDate time.Time `json:"creation_date"`
	ExpiresAt    time.Time `json:"expires_at"`

	// Status is pending until the single decision is recorded.
	// Status 在唯一一次决定记录之前保持 pending。
	Status constants.AuthRequestStatus `json:"status"`
	// MasterPasswordHash and ResponsePublicKey are supplied by the approving device.
	MasterPasswordHash *string    `json:"master_password_hash,omitempty"`
	ResponsePublicKey  string     `json:"response_public_key,omitempty"`
	ResponseDate       *time.Time `json:"response_date,omitempty"`
}

// NewAuthRequest creates a pending request that expires after ttl.
func NewAuthRequest(email, publicKey, deviceIdentifier, platform, originURL, ip string, ttl time.Duration) *AuthRequest {
	now := time.Now().UTC()
	return &AuthRequest{
		ID:               uuid.NewString(),
		Email:            email,
		PublicKey:        publicKey,
		DeviceIdentifier: deviceIdentifier,
		Platform:         platform,
		OriginURL:        originURL,
		IPAddress:        ip,
		CreationDate:     now,
		ExpiresAt:        now.Add(ttl),
		Status:           constants.AuthRequestStatusPending,
	}
}

// IsPending reports whether no decision has been recorded yet.
func (r *AuthRequest) IsPending() bool {
	return r.Status == constants.AuthRequestStatusPending
}

// IsExpired reports whether the request can no longer be acted upon at now.
func (r *AuthRequest) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Approved returns nil while pending, otherwise whether the request was approved.
func (r *AuthRequest) Approved() *bool {
	if r.IsPending() {
		return nil
	}
	approved := r.Status == constants.AuthRequestStatusApproved
	return &approved
}

// Decide records the approving device's answer. The caller must have checked IsPending.
func (r *AuthRequest) Decide(approved bool, masterPasswordHash *string, publicKey string, at time.Time) {
	if approved {
		r.Status = constants.AuthRequestStatusApproved
		r.MasterPasswordHash = masterPasswordHash
		r.ResponsePublicKey = publicKey
	} else {
		r.Status = constants.AuthRequestStatusDeclined
	}
	decidedAt := at.UTC()
	r.ResponseDate = &decidedAt
}
