package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextFieldsPropagate(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logg := New(Options{ServiceName: "order-engine", Output: &buf})

	ctx := logg.WithOrderNumber(context.Background(), "GT240115A1B2C3")
	ctx = logg.WithField(ctx, "attempt", 2)
	logg.Info(ctx, "status updated")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parse log line: %v", err)
	}
	if entry["order_number"] != "GT240115A1B2C3" {
		t.Fatalf("missing order_number field: %v", entry)
	}
	if entry["service"] != "order-engine" {
		t.Fatalf("missing service field: %v", entry)
	}
	if entry["attempt"] != float64(2) {
		t.Fatalf("missing attempt field: %v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	if got := ParseLevel("debug"); got != zerolog.DebugLevel {
		t.Fatalf("expected debug, got %v", got)
	}
	if got := ParseLevel(" WARN "); got != zerolog.WarnLevel {
		t.Fatalf("expected warn, got %v", got)
	}
	if got := ParseLevel("nonsense"); got != zerolog.InfoLevel {
		t.Fatalf("expected info fallback, got %v", got)
	}
}
