package services

import (
	"context"

	"github.com/yungbote/officechat-backend/internal/platform/apierr"
	"github.com/yungbote/officechat-backend/internal/platform/ctxutil"
	"github.com/yungbote/officechat-backend/internal/platform/logger"
)

// asAPIError passes *apierr.Error through and wraps anything else as an upstream failure.
// Upstream causes are logged here since the response never carries them.
func asAPIError(ctx context.Context, log *logger.Logger, op string, err error) error {
	if err == nil {
		return nil
	}
	if ae, ok := apierr.As(err); ok {
		return ae
	}
	fields := append([]interface{}{"op", op, "error", err}, ctxutil.LogFields(ctx)...)
	log.Error("upstream failure", fields...)
	return apierr.Upstream(op, err)
}

// resultOf labels an operation outcome for metrics.
func resultOf(err error) string {
	if err == nil {
		return "ok"
	}
	if ae, ok := apierr.As(err); ok && ae.Code != "" {
		return ae.Code
	}
	return "error"
}
