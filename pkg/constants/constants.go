// Package constants defines system-wide constants for the vaultgate service.
// This package provides type-safe constant definitions used across all modules.
package constants

import "time"

// ================================================================================
// Auth Request Constants
// ================================================================================

// AuthRequestStatus represents the lifecycle status of a login approval request.
type AuthRequestStatus string

const (
	// AuthRequestStatusPending indicates that no decision has been made yet.
	AuthRequestStatusPending AuthRequestStatus = "pending"
	// AuthRequestStatusApproved indicates that the approving device accepted the request.
	AuthRequestStatusApproved AuthRequestStatus = "approved"
	// AuthRequestStatusDeclined indicates that the approving device rejected the request.
	AuthRequestStatusDeclined AuthRequestStatus = "declined"
)

const (
	// AuthRequestDefaultTTL is how long a pending request stays fetchable (15 minutes).
	AuthRequestDefaultTTL = 15 * time.Minute
	// AuthRequestAccessCodeLength is the length of the secret the requesting device polls with.
	AuthRequestAccessCodeLength = 25
	// FingerprintWordCount is the number of groups in a fingerprint phrase.
	FingerprintWordCount = 5
)

// ================================================================================
// Cipher Constants
// ================================================================================

// CipherType identifies the kind of vault item.
type CipherType int

const (
	CipherTypeLogin      CipherType = 1
	CipherTypeSecureNote CipherType = 2
	CipherTypeCard       CipherType = 3
	CipherTypeIdentity   CipherType = 4
)

// Valid reports whether t is one of the known cipher types.
func (t CipherType) Valid() bool {
	return t >= CipherTypeLogin && t <= CipherTypeIdentity
}

// CipherRepromptType controls whether the client asks for the master password again.
type CipherRepromptType int

const (
	CipherRepromptNone     CipherRepromptType = 0
	CipherRepromptPassword CipherRepromptType = 1
)

// ================================================================================
// Device Type Constants
// ================================================================================

// DeviceTypes lists the platform names a requesting device may report.
var DeviceTypes = []string{
	"Android",
	"iOS",
	"Chrome Extension",
	"Firefox Extension",
	"Opera Extension",
	"Edge Extension",
	"Windows",
	"macOS",
	"Linux",
	"Chrome",
	"Firefox",
	"Opera",
	"Edge",
	"Internet Explorer",
	"Unknown Browser",
	"Android (Amazon)",
	"Windows (UWP)",
	"Safari",
	"Vivaldi",
	"Vivaldi Extension",
	"Safari Extension",
	"SDK",
	"Server",
	"Windows CLI",
	"macOS CLI",
	"Linux CLI",
}

// ================================================================================
// Logging Constants
// ================================================================================

// LogLevel represents the severity of a log entry
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelFatal
)

// ================================================================================
// Context Keys
// ================================================================================

// ContextKey is the type used for values stored in a context.Context.
type ContextKey string

const (
	// ContextKeyRequestID holds the per-request correlation id.
	ContextKeyRequestID ContextKey = "request_id"
	// ContextKeyTraceID holds the OpenTelemetry trace id.
	ContextKeyTraceID ContextKey = "trace_id"
	// ContextKeyUserID holds the authenticated account id.
	ContextKeyUserID ContextKey = "user_id"
	// ContextKeyEmail holds the authenticated account email.
	ContextKeyEmail ContextKey = "email"
	// ContextKeyLogger holds a request-scoped logger.
	ContextKeyLogger ContextKey = "logger"
)

// ================================================================================
// HTTP Header Constants
// ================================================================================

const (
	HeaderRequestID      = "X-Request-ID"
	HeaderAuthorization  = "Authorization"
	HeaderRateLimitLimit = "X-RateLimit-Limit"
	HeaderRateLimitLeft  = "X-RateLimit-Remaining"
	HeaderRetryAfter     = "Retry-After"
	BearerPrefix         = "Bearer "
)

// ================================================================================
// Audit Event Type Constants
// ================================================================================

// AuditEventType represents different types of auditable events
type AuditEventType string

const (
	AuditEventAuthRequestCreated  AuditEventType = "auth_request_created"
	AuditEventAuthRequestApproved AuditEventType = "auth_request_approved"
	AuditEventAuthRequestDeclined AuditEventType = "auth_request_declined"
	AuditEventCipherCreated       AuditEventType = "cipher_created"
	AuditEventCipherUpdated       AuditEventType = "cipher_updated"
	AuditEventCipherDeleted       AuditEventType = "cipher_deleted"
)

// ================================================================================
// Notification Constants
// ================================================================================

// NotificationType tags push messages sent over the notification socket.
type NotificationType string

const (
	NotificationAuthRequest         NotificationType = "auth_request"
	NotificationAuthRequestResponse NotificationType = "auth_request_response"
	NotificationCipherChanged       NotificationType = "cipher_changed"
)

// ================================================================================
// Rate Limiting Constants
// ================================================================================

// RateLimitScope defines the scope level for rate limiting
type RateLimitScope string

const (
	RateLimitScopeIP     RateLimitScope = "ip"
	RateLimitScopeUser   RateLimitScope = "user"
	RateLimitScopeGlobal RateLimitScope = "global"
)

const (
	// RateLimitWindow is the fixed window used by the Redis limiter.
	RateLimitWindow = 1 * time.Minute
	// DefaultRateLimitPerMinute is used when no limit is configured.
	DefaultRateLimitPerMinute = 60
)

// ServiceName is used for tracing, metrics namespaces and logs.
const ServiceName = "vaultgate"
