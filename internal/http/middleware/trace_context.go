package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/officechat-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"

	maxClientIDLen = 128
)

// AttachTraceContext puts trace and request ids on the request context and echoes them in
// the response headers. Client-supplied ids are only trusted when they are short and
// printable, since they end up in every log line for the request. An active otel span
// wins over a client trace id.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := clientID(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		traceID := ""
		if spanCtx := trace.SpanContextFromContext(c.Request.Context()); spanCtx.HasTraceID() {
			traceID = spanCtx.TraceID().String()
		}
		if traceID == "" {
			traceID = clientID(c.GetHeader(headerTraceID))
		}
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := ctxutil.WithTraceData(c.Request.Context(), &ctxutil.TraceData{
			TraceID:   traceID,
			RequestID: reqID,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Set("trace_id", traceID)
		c.Set("request_id", reqID)
		c.Writer.Header().Set(headerTraceID, traceID)
		c.Writer.Header().Set(headerRequestID, reqID)
		c.Next()
	}
}

// clientID returns raw trimmed, or "" when it is too long or carries characters outside
// [A-Za-z0-9._:-].
func clientID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxClientIDLen {
		return ""
	}
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return ""
		}
	}
	return raw
}
