package ctxutil

import (
	"context"
	"testing"
)

func TestCorrelationRoundTrip(t *testing.T) {
	if _, ok := CorrelationFrom(context.Background()); ok {
		t.Fatalf("expected no correlation on a bare context")
	}
	ctx := WithCorrelation(context.Background(), Correlation{TraceID: "t-1", RequestID: "r-1"})
	if got := RequestID(ctx); got != "r-1" {
		t.Fatalf("RequestID: got %q", got)
	}
	if got := RequestID(nil); got != "" {
		t.Fatalf("RequestID(nil): got %q", got)
	}
}

func TestLogFieldsSkipsEmptyIDs(t *testing.T) {
	fields := Correlation{RequestID: "r-1"}.LogFields()
	if len(fields) != 2 || fields[0] != "request_id" {
		t.Fatalf("fields: %v", fields)
	}
}
