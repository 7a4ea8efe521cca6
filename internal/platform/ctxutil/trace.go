package ctxutil

import "context"

type traceDataKey struct{}

type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// LogFields returns trace/request ids as logger key-value pairs.
func LogFields(ctx context.Context) []interface{} {
	td := GetTraceData(ctx)
	if td == nil {
		return nil
	}
	fields := make([]interface{}, 0, 4)
	if td.TraceID != "" {
		fields = append(fields, "trace_id", td.TraceID)
	}
	if td.RequestID != "" {
		fields = append(fields, "request_id", td.RequestID)
	}
	return fields
}
