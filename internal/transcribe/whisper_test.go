package transcribe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/flowstt/core/internal/ferr"
)

func TestNewEngineRejectsMissingModelFile(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "does-not-exist.bin")

	_, err := NewEngine(missing, "en")
	if err == nil {
		t.Fatalf("expected an error for a missing model file")
	}
	if ferr.GetCode(err) != ferr.CodeModelMissing {
		t.Fatalf("code = %v, want CodeModelMissing", ferr.GetCode(err))
	}
}

func TestNewEngineRejectsEmptyModelPath(t *testing.T) {
	_, err := NewEngine("", "en")
	if err == nil {
		t.Fatalf("expected an error for an empty model path")
	}
}

func TestNewEngineDefaultsLanguageWhenEmpty(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "model.bin")
	if err := os.WriteFile(model, []byte("fake"), 0o644); err != nil {
		t.Fatalf("write fixture model: %v", err)
	}

	// NewEngine checks for a whisper binary before it applies the
	// language default; without one on PATH it fails with
	// CodeModelMissing, so the default is only checked when it succeeds.
	e, err := NewEngine(model, "")
	if err != nil {
		if ferr.GetCode(err) != ferr.CodeModelMissing {
			t.Fatalf("unexpected error: %v", err)
		}
		return
	}
	if e.language != "en" {
		t.Fatalf("language = %q, want en", e.language)
	}
}
