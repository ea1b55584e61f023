package service

import (
	"context"
	"strings"

	"github.com/turtacn/vaultgate/pkg/constants"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func traceIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(constants.ContextKeyTraceID).(string); ok {
		return v
	}
	return ""
}
