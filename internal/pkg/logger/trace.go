package logger

import (
	"context"
	log "log/slog"

	"github.com/google/uuid"
)

// TraceIDKey 定义 Context 中的 Key
const TraceIDKey = "trace_id"

// WithTraceID 为一次用户操作注入追踪标识，已有标识时原样返回。
// 同一次操作内经 *Context 族函数输出的日志会带上相同的 trace_id。
func WithTraceID(ctx context.Context) context.Context {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok && traceID != "" {
		return ctx
	}
	return context.WithValue(ctx, TraceIDKey, uuid.NewString())
}

// ContextHandler 包装器，用于从 ctx 中提取 trace_id
type ContextHandler struct {
	log.Handler
}

func (h *ContextHandler) Handle(ctx context.Context, r log.Record) error {
	if ctx != nil {
		if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
			r.AddAttrs(log.String("trace_id", traceID))
		}
	}
	return h.Handler.Handle(ctx, r)
}
