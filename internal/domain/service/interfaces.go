package service

import (
	"context"
	"time"

	"github.com/turtacn/vaultgate/internal/domain/models"
	"github.com/turtacn/vaultgate/pkg/constants"
)

// AuthRequestStore defines the interface for holding login approval requests until they are decided or expire.
// AuthRequestStore 定义了保存登录审批请求直到其被决定或过期的接口。
//
//go:generate mockery --name AuthRequestStore --output mocks --outpkg mocks
type AuthRequestStore interface {
	// Create stores a new pending request. It expires at req.ExpiresAt.
	// Create 存储新的待处理请求，在 req.ExpiresAt 过期。
	Create(ctx context.Context, req *models.AuthRequest) error
	// GetByID retrieves a request by its id. Missing or expired requests return ErrAuthRequestNotFound.
	// GetByID 根据 id 检索请求，不存在或已过期时返回 ErrAuthRequestNotFound。
	GetByID(ctx context.Context, id string) (*models.AuthRequest, error)
	// GetByFingerprint retrieves the request an account's approver sees under a fingerprint phrase.
	// GetByFingerprint 根据指纹短语检索账户的请求。
	GetByFingerprint(ctx context.Context, email, fingerprint string) (*models.AuthRequest, error)
	// ListByEmail returns all unexpired requests for an account.
	// ListByEmail 返回账户下所有未过期的请求。
	ListByEmail(ctx context.Context, email string) ([]*models.AuthRequest, error)
	// Decide atomically records the single decision. A request that is no longer pending returns ErrAlreadyDecided.
	// Decide 原子地记录唯一一次决定，已决定的请求返回 ErrAlreadyDecided。
	Decide(ctx context.Context, id string, approved bool, masterPasswordHash *string, publicKey string) (*models.AuthRequest, error)
}

// RateLimitService defines the interface for rate limiting operations.
// RateLimitService 定义了速率限制操作的接口。
type RateLimitService interface {
	// Allow checks if a request is allowed under the rate limit policy for a given scope and identifier.
	// It returns whether the request is allowed, the number of remaining requests, and the time when the limit resets.
	// Allow 检查在给定范围和标识符的速率限制策略下是否允许请求。
	Allow(ctx context.Context, scope constants.RateLimitScope, identifier string) (allowed bool, remaining int, resetAt time.Time, err error)
}

// AuditService defines the interface for logging security-sensitive audit events.
// AuditService 定义了用于记录安全敏感审计事件的接口。
type AuditService interface {
	// LogEvent records an audit event.
	// LogEvent 记录审计事件。
	LogEvent(ctx context.Context, event models.AuditEvent) error
}

// Notification is a push message delivered to an account's connected sessions.
type Notification struct {
	Type    constants.NotificationType `json:"type"`
	Payload interface{}                `json:"payload"`
}

// Notifier defines the interface for pushing notifications to an account's connected devices.
// Notifier 定义了向账户已连接设备推送通知的接口。
type Notifier interface {
	// Notify delivers n to every session of the account. Delivery is best effort.
	// Notify 将 n 推送到账户的所有会话，尽力而为。
	Notify(ctx context.Context, email string, n Notification)
}
