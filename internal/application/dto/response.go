package dto

import (
	"fmt"
	"time"

	"github.com/turtacn/vaultgate/pkg/errors"
)

// APIResponse 通用 API 响应结构
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorDTO   `json:"error,omitempty"`
	TraceID   string      `json:"trace_id,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// ErrorDTO 错误信息 DTO
type ErrorDTO struct {
	Code        string            `json:"code"`
	Message     string            `json:"message"`
	Description string            `json:"description,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
}

// SuccessResponse 创建成功响应
func SuccessResponse(data interface{}, traceID string) *APIResponse {
	return &APIResponse{
		Success:   true,
		Data:      data,
		TraceID:   traceID,
		Timestamp: time.Now().Unix(),
	}
}

// ErrorResponse 创建错误响应并返回对应的 HTTP 状态码
// Errors without an APIError in their chain are reported as server_error without their text.
func ErrorResponse(err error, traceID string) (int, *APIResponse) {
	apiErr, ok := errors.AsAPIError(err)
	if !ok {
		apiErr = errors.ErrServerError("internal server error")
	}

	var details map[string]string
	if md := apiErr.Metadata(); len(md) > 0 {
		details = make(map[string]string, len(md))
		for k, v := range md {
			details[k] = fmt.Sprint(v)
		}
	}

	return apiErr.HTTPStatus(), &APIResponse{
		Success: false,
		Error: &ErrorDTO{
			Code:        string(apiErr.Code()),
			Message:     apiErr.Error(),
			Description: apiErr.Description(),
			Details:     details,
		},
		TraceID:   traceID,
		Timestamp: time.Now().Unix(),
	}
}
