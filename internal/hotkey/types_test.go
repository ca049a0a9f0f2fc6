package hotkey

import "testing"

func TestKeyCodeStringKnownAndUnknown(t *testing.T) {
	if got := KeyCapsLock.String(); got != "caps_lock" {
		t.Fatalf("KeyCapsLock.String() = %q, want caps_lock", got)
	}
	if got := KeyCode(999).String(); got != "unknown" {
		t.Fatalf("KeyCode(999).String() = %q, want unknown", got)
	}
}

func TestRunStateStringCoversAllStates(t *testing.T) {
	cases := map[RunState]string{
		StateStopped:  "stopped",
		StateStarting: "starting",
		StateRunning:  "running",
		StateStopping: "stopping",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Fatalf("%v.String() = %q, want %q", state, got, want)
		}
	}
}

func TestDefaultKeyIsRightOption(t *testing.T) {
	if DefaultKey != KeyRightOption {
		t.Fatalf("DefaultKey = %v, want KeyRightOption", DefaultKey)
	}
}
