//go:build !darwin

package hotkey

import (
	"testing"

	"github.com/flowstt/core/internal/ferr"
	"github.com/flowstt/core/internal/logging"
)

func TestStubBackendStartReturnsNotImplemented(t *testing.T) {
	b := NewBackend(logging.New("test"))
	err := b.Start(KeyRightOption)
	if err == nil {
		t.Fatal("expected an error from the stub backend")
	}
	if code := ferr.GetCode(err); code != ferr.CodeNotImplemented {
		t.Fatalf("GetCode(err) = %v, want CodeNotImplemented", code)
	}
	status := b.Status()
	if status.Available {
		t.Fatal("Status().Available = true, want false on a stub backend")
	}
}

func TestStubBackendTryRecvNeverReports(t *testing.T) {
	b := NewBackend(logging.New("test"))
	_, ok := b.TryRecv()
	if ok {
		t.Fatal("TryRecv() reported an event on a stub backend")
	}
}

func TestStubBackendStopIsNoop(t *testing.T) {
	b := NewBackend(logging.New("test"))
	if err := b.Stop(); err != nil {
		t.Fatalf("Stop() = %v, want nil", err)
	}
}
