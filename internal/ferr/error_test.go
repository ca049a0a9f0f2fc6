package ferr

import (
	"errors"
	"testing"
)

func TestNewSetsDefaults(t *testing.T) {
	err := New("boom")
	if err.Code() != CodeUnknown {
		t.Fatalf("Code() = %v, want CodeUnknown", err.Code())
	}
	if err.Severity() != SeverityMedium {
		t.Fatalf("Severity() = %v, want SeverityMedium", err.Severity())
	}
	if err.Error() != "boom" {
		t.Fatalf("Error() = %q, want boom", err.Error())
	}
}

func TestWrapNilReturnsNil(t *testing.T) {
	if err := Wrap(nil, "wrapping nothing"); err != nil {
		t.Fatalf("Wrap(nil, ...) = %v, want nil", err)
	}
}

func TestWrapPlainErrorGetsUnknownCode(t *testing.T) {
	base := errors.New("underlying failure")
	wrapped := Wrap(base, "context")
	if wrapped.Code() != CodeUnknown {
		t.Fatalf("Code() = %v, want CodeUnknown", wrapped.Code())
	}
	if wrapped.Error() != "context: underlying failure" {
		t.Fatalf("Error() = %q", wrapped.Error())
	}
	if !errors.Is(wrapped, base) {
		t.Fatal("errors.Is(wrapped, base) = false, want true")
	}
}

func TestWrapFerrInheritsCodeAndSeverity(t *testing.T) {
	base := New("device gone").WithCode(CodeDeviceNotFound)
	wrapped := Wrap(base, "open failed")
	if wrapped.Code() != CodeDeviceNotFound {
		t.Fatalf("Code() = %v, want CodeDeviceNotFound", wrapped.Code())
	}
	if wrapped.Severity() != CodeDeviceNotFound.Severity() {
		t.Fatalf("Severity() = %v, want %v", wrapped.Severity(), CodeDeviceNotFound.Severity())
	}
}

func TestWithCodeDerivesSeverityOnlyWhenUnset(t *testing.T) {
	err := New("aborted").WithSeverity(SeverityCritical).WithCode(CodeCaptureAborted)
	if err.Severity() != SeverityCritical {
		t.Fatalf("Severity() = %v, want SeverityCritical (explicit override preserved)", err.Severity())
	}

	err2 := New("aborted").WithCode(CodeCaptureAborted)
	if err2.Severity() != SeverityHigh {
		t.Fatalf("Severity() = %v, want SeverityHigh (derived from code)", err2.Severity())
	}
}

func TestWithDetailAndWithOperation(t *testing.T) {
	err := New("failed").WithOperation("audio.Open").WithDetail("device", "built-in mic")
	if err.Operation() != "audio.Open" {
		t.Fatalf("Operation() = %q, want audio.Open", err.Operation())
	}
	details := err.Details()
	if details["device"] != "built-in mic" {
		t.Fatalf("Details()[device] = %v, want built-in mic", details["device"])
	}
}

func TestDetailsReturnsACopy(t *testing.T) {
	err := New("failed").WithDetail("k", "v")
	details := err.Details()
	details["k"] = "mutated"
	if err.Details()["k"] != "v" {
		t.Fatal("Details() leaked its internal map to the caller")
	}
}

func TestCodeTransientClassification(t *testing.T) {
	if !CodeCaptureFailed.Transient() {
		t.Fatal("CodeCaptureFailed.Transient() = false, want true")
	}
	if CodeDeviceNotFound.Transient() {
		t.Fatal("CodeDeviceNotFound.Transient() = true, want false")
	}
}

func TestGetCodeUnwrapsChain(t *testing.T) {
	base := New("root cause").WithCode(CodeQueueFull)
	err := Wrap(base, "outer")
	if GetCode(err) != CodeQueueFull {
		t.Fatalf("GetCode() = %v, want CodeQueueFull", GetCode(err))
	}
	if GetCode(errors.New("plain")) != CodeUnknown {
		t.Fatal("GetCode() on a plain error should return CodeUnknown")
	}
}

func TestIsTransientFollowsCode(t *testing.T) {
	err := New("dropped batch").WithCode(CodeAecFailure)
	if !IsTransient(err) {
		t.Fatal("IsTransient() = false, want true for CodeAecFailure")
	}
}

func TestStackTraceIsCaptured(t *testing.T) {
	err := New("boom")
	if len(err.StackTrace()) == 0 {
		t.Fatal("StackTrace() is empty, want at least one frame")
	}
}
