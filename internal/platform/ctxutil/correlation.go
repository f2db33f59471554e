package ctxutil

import "context"

type correlationKey struct{}

// Correlation ties log lines, spans and published events to one inbound
// request.
type Correlation struct {
	TraceID   string
	RequestID string
}

func WithCorrelation(ctx context.Context, c Correlation) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, correlationKey{}, c)
}

func CorrelationFrom(ctx context.Context) (Correlation, bool) {
	if ctx == nil {
		return Correlation{}, false
	}
	c, ok := ctx.Value(correlationKey{}).(Correlation)
	return c, ok
}

// RequestID is empty outside an HTTP request.
func RequestID(ctx context.Context) string {
	c, _ := CorrelationFrom(ctx)
	return c.RequestID
}

// LogFields renders the non-empty ids as logger key/value pairs.
func (c Correlation) LogFields() []interface{} {
	out := make([]interface{}, 0, 4)
	if c.TraceID != "" {
		out = append(out, "trace_id", c.TraceID)
	}
	if c.RequestID != "" {
		out = append(out, "request_id", c.RequestID)
	}
	return out
}
