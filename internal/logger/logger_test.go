package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARNING": zerolog.WarnLevel,
		"warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "json")
	l.Info().Str("k", "v").Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if entry["message"] != "hello" || entry["k"] != "v" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("missing timestamp")
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	scoped := New(&buf, "json").With().Str("request_id", "r-1").Logger()
	ctx := scoped.WithContext(context.Background())

	FromContext(ctx).Info().Msg("scoped")
	if !bytes.Contains(buf.Bytes(), []byte(`"request_id":"r-1"`)) {
		t.Errorf("request logger not used: %s", buf.String())
	}

	if FromContext(context.Background()) != &Logger {
		t.Error("expected fallback to the global logger")
	}
}
