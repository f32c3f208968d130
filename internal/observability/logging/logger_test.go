package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestJSONLoggerCarriesServiceAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf, "closet-worker", "production", "warn")

	logger.Info("dropped")
	logger.Warn("stage_failed", "item_id", "i-1")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected exactly one JSON record, got %q: %v", buf.String(), err)
	}
	if rec["service"] != "closet-worker" || rec["msg"] != "stage_failed" || rec["item_id"] != "i-1" || rec["env"] != "production" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
		"info":    slog.LevelInfo,
		"debug-4": slog.LevelDebug - 4,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJSONLoggerOmitsEmptyEnv(t *testing.T) {
	var buf bytes.Buffer
	newJSONLogger(&buf, "api", " ", "info").Info("api_listening")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if _, ok := rec["env"]; ok {
		t.Fatalf("expected no env attribute, got %v", rec)
	}
}
