package audio

import (
	"context"
	"testing"

	"github.com/flowstt/core/internal/ferr"
	"github.com/flowstt/core/internal/logging"
)

func TestCaptureErrorReturnsAndClearsPersistentError(t *testing.T) {
	b := newBaseBackend(logging.New("test"))
	_, cancel := context.WithCancel(context.Background())
	h := &sourceHandle{role: rolePrimary, cancel: cancel, done: make(chan struct{})}
	h.captureErr.Store(ferr.New("read failed repeatedly").WithCode(ferr.CodeCaptureAborted))
	b.sources[rolePrimary] = h

	if err := b.CaptureError(); err == nil {
		t.Fatalf("expected a captured error")
	}
	if err := b.CaptureError(); err != nil {
		t.Fatalf("expected error to be cleared after the first read, got %v", err)
	}
}

func TestCaptureErrorNilWhenNoSourceFailed(t *testing.T) {
	b := newBaseBackend(logging.New("test"))
	if err := b.CaptureError(); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
