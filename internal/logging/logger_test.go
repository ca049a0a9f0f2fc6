package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestParseLevelDefaultsToInfo(t *testing.T) {
	if ParseLevel("bogus") != LevelInfo {
		t.Fatalf("ParseLevel(bogus) = %v, want LevelInfo", ParseLevel("bogus"))
	}
	if ParseLevel("debug") != LevelDebug {
		t.Fatalf("ParseLevel(debug) = %v, want LevelDebug", ParseLevel("debug"))
	}
}

func TestLevelStringUnknown(t *testing.T) {
	if got := Level(99).String(); got != "unknown" {
		t.Fatalf("Level(99).String() = %q, want unknown", got)
	}
}

func newTestLogger(t *testing.T, buf *bytes.Buffer, level Level) *Logger {
	t.Helper()
	SetDefaultLevel(level)
	SetDefaultOutput(buf)
	t.Cleanup(func() {
		SetDefaultLevel(LevelInfo)
		SetDefaultOutput(os.Stderr)
	})
	return New("test")
}

func TestLoggerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(t, &buf, LevelInfo)

	log.Info("started", "port", 8080)

	line := strings.TrimSpace(buf.String())
	var decoded map[string]any
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v (%q)", err, line)
	}
	if decoded["msg"] != "started" {
		t.Fatalf("msg = %v, want started", decoded["msg"])
	}
	if decoded["logger"] != "test" {
		t.Fatalf("logger = %v, want test", decoded["logger"])
	}
	fields, ok := decoded["fields"].(map[string]any)
	if !ok {
		t.Fatalf("fields not present or not an object: %v", decoded["fields"])
	}
	if fields["port"] != float64(8080) {
		t.Fatalf("fields[port] = %v, want 8080", fields["port"])
	}
}

func TestLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(t, &buf, LevelWarn)

	log.Info("should be dropped")
	log.Debug("should also be dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below the configured level, got %q", buf.String())
	}

	log.Warn("should appear")
	if buf.Len() == 0 {
		t.Fatal("expected output at or above the configured level")
	}
}

func TestWithProducesIndependentChild(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(t, &buf, LevelInfo)

	child := log.With(F("component", "mixer"))
	buf.Reset()
	child.Info("mixing")

	var decoded map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	fields := decoded["fields"].(map[string]any)
	if fields["component"] != "mixer" {
		t.Fatalf("fields[component] = %v, want mixer", fields["component"])
	}

	buf.Reset()
	log.Info("parent unaffected")
	var parentDecoded map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &parentDecoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	parentFields, _ := parentDecoded["fields"].(map[string]any)
	if _, present := parentFields["component"]; present {
		t.Fatal("parent logger picked up the child's field")
	}
}

func TestLogErrorIncludesOperationWhenPresent(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(t, &buf, LevelInfo)

	log.LogError("plain failure", errors.New("disk full"))
	if buf.Len() == 0 {
		t.Fatal("expected output for a plain error")
	}

	buf.Reset()
	log.LogError("op failure", opErr{"audio.Open", errors.New("device busy")})
	var decoded map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	fields := decoded["fields"].(map[string]any)
	if fields["operation"] != "audio.Open" {
		t.Fatalf("fields[operation] = %v, want audio.Open", fields["operation"])
	}
}

type opErr struct {
	op   string
	err  error
}

func (e opErr) Error() string   { return e.err.Error() }
func (e opErr) Operation() string { return e.op }
