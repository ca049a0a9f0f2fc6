// Package hotkey implements the global push-to-talk key observer. Only
// the macOS backend is functional; Windows and Linux backends are
// stubs. Grounded on golang.design/x/hotkey usage for global key
// capture, plus a macOS-only cgo permission shim grounded on
// original_source/src-service/src/hotkey/macos.rs's
// AXIsProcessTrusted check, which the third-party library does not
// expose on its own.
package hotkey

// KeyCode enumerates the PTT-eligible keys.
type KeyCode int

const (
	KeyRightOption KeyCode = iota
	KeyLeftOption
	KeyRightControl
	KeyLeftControl
	KeyRightShift
	KeyLeftShift
	KeyCapsLock
	KeyF13
	KeyF14
	KeyF15
	KeyF16
	KeyF17
	KeyF18
	KeyF19
	KeyF20
)

func (k KeyCode) String() string {
	names := map[KeyCode]string{
		KeyRightOption: "right_option", KeyLeftOption: "left_option",
		KeyRightControl: "right_control", KeyLeftControl: "left_control",
		KeyRightShift: "right_shift", KeyLeftShift: "left_shift",
		KeyCapsLock: "caps_lock",
		KeyF13: "f13", KeyF14: "f14", KeyF15: "f15", KeyF16: "f16",
		KeyF17: "f17", KeyF18: "f18", KeyF19: "f19", KeyF20: "f20",
	}
	if n, ok := names[k]; ok {
		return n
	}
	return "unknown"
}

// DefaultKey is the default PTT key.
const DefaultKey = KeyRightOption

// EventKind is what try_recv() may report.
type EventKind int

const (
	EventPressed EventKind = iota
	EventReleased
)

// RunState is the backend state machine.
type RunState int

const (
	StateStopped RunState = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s RunState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// Status is the PttStatus, surfaced to the GUI.
type Status struct {
	Mode      string
	Key       KeyCode
	IsActive  bool
	Available bool
	Error     string
}

// Backend is the uniform hotkey observer contract.
type Backend interface {
	Start(key KeyCode) error
	Stop() error
	TryRecv() (EventKind, bool)
	Status() Status
}
