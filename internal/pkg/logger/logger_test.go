package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestFromContextFallsBackToGlobal(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected global logger")
	}
}

func TestWithRequestIDAndUserIDTagEvents(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := WithContext(context.Background(), &base)
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithUserID(ctx, 42)

	FromContext(ctx).Info().Msg("hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["request_id"] != "req-1" {
		t.Fatalf("expected request_id, got %v", entry["request_id"])
	}
	if entry["user_id"] != float64(42) {
		t.Fatalf("expected user_id 42, got %v", entry["user_id"])
	}
}
