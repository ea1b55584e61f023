// Package service defines the interfaces for domain services.
package service

import (
	"time"
)

// Metrics defines the interface for collecting business metrics.
// This abstraction allows the application layer to remain independent of the specific monitoring implementation (e.g., Prometheus).
// Metrics 定义了收集业务指标的接口。
type Metrics interface {
	// RecordAuthRequestCreated records a new login approval request.
	// RecordAuthRequestCreated 记录新的登录审批请求。
	RecordAuthRequestCreated(platform string, success bool)

	// RecordAuthRequestDecision records the outcome of a decision submission ("approved", "declined", "already_decided", "not_found", "error").
	// RecordAuthRequestDecision 记录决定提交的结果。
	RecordAuthRequestDecision(outcome string, duration time.Duration)

	// RecordCipherOperation records a cipher CRUD operation.
	// RecordCipherOperation 记录保险库条目操作。
	RecordCipherOperation(operation string, success bool)

	// RecordRateLimitHit records an event when a rate limit is triggered.
	// RecordRateLimitHit 记录触发速率限制的事件。
	RecordRateLimitHit(scope string)

	// RecordNotification records a push notification delivery attempt.
	RecordNotification(notificationType string, delivered int)

	// RecordVaultAPI records the latency and error status of a Vault API call.
	// RecordVaultAPI 记录 Vault API 调用的延迟和错误状态。
	RecordVaultAPI(operation string, duration time.Duration, err error)
}

// NoopMetrics discards every measurement.
type NoopMetrics struct{}

func (NoopMetrics) RecordAuthRequestCreated(string, bool)           {}
func (NoopMetrics) RecordAuthRequestDecision(string, time.Duration) {}
func (NoopMetrics) RecordCipherOperation(string, bool)              {}
func (NoopMetrics) RecordRateLimitHit(string)                       {}
func (NoopMetrics) RecordNotification(string, int)                  {}
func (NoopMetrics) RecordVaultAPI(string, time.Duration, error)     {}
