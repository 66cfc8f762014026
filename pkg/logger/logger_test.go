package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestFromContextAttachesKnownKeys(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "debug", "json")

	ctx := WithProject(context.Background(), "p-1")
	ctx = WithContext(ctx, RequestIDKey, "req-9")
	Error(ctx, "boom", errors.New("bad"))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if line["project_id"] != "p-1" {
		t.Fatalf("project_id = %v", line["project_id"])
	}
	if line["request_id"] != "req-9" {
		t.Fatalf("request_id = %v", line["request_id"])
	}
	if line["error"] != "bad" {
		t.Fatalf("error = %v", line["error"])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"debug":   "DEBUG",
		"WARNING": "WARN",
		"error":   "ERROR",
		"":        "INFO",
	}
	for in, want := range cases {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
