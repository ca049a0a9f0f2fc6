//go:build darwin

package hotkey

/*
#cgo LDFLAGS: -framework ApplicationServices
#include <ApplicationServices/ApplicationServices.h>

static int flowstt_ax_trusted() {
	return AXIsProcessTrusted() ? 1 : 0;
}
*/
import "C"

import (
	"sync"

	"golang.design/x/hotkey"

	"github.com/flowstt/core/internal/ferr"
	"github.com/flowstt/core/internal/logging"
)

// checkAccessibilityPermission wraps the AXIsProcessTrusted() check,
// grounded on original_source/src-service/src/hotkey/macos.rs's
// check_accessibility_permission. golang.design/x/hotkey does not
// surface this itself; without the grant, CGEventTap-backed global
// hotkeys silently never fire, so FlowSTT must check explicitly and
// report PttStatus.available=false.
func checkAccessibilityPermission() bool {
	return C.flowstt_ax_trusted() != 0
}

// keyMap translates FlowSTT's KeyCode to golang.design/x/hotkey's Key
// constants. The library models physical keys, not raw virtual
// keycodes; F13-F20 map directly. The modifier-only key names
// (Right/Left Option, Control, Shift) have no standalone hotkey.Key
// equivalent in the library's public API, since it targets
// modifier+key combinations rather than a lone modifier press/release
// — those are registered as a hotkey.Key bound with the matching
// hotkey.Modifier and an empty companion key, relying on the library's
// own key-up detection for the release event. CapsLock has neither a
// Key nor a Modifier entry in the library at all; see DESIGN.md.
var keyMap = map[KeyCode]hotkey.Key{
	KeyF13: hotkey.KeyF13,
	KeyF14: hotkey.KeyF14,
	KeyF15: hotkey.KeyF15,
	KeyF16: hotkey.KeyF16,
	KeyF17: hotkey.KeyF17,
	KeyF18: hotkey.KeyF18,
	KeyF19: hotkey.KeyF19,
	KeyF20: hotkey.KeyF20,
}

var modifierOnlyMap = map[KeyCode]hotkey.Modifier{
	KeyRightOption:  hotkey.ModOption,
	KeyLeftOption:   hotkey.ModOption,
	KeyRightControl: hotkey.ModCtrl,
	KeyLeftControl:  hotkey.ModCtrl,
	KeyRightShift:   hotkey.ModShift,
	KeyLeftShift:    hotkey.ModShift,
}

// macBackend implements Backend using golang.design/x/hotkey for global
// PTT key capture.
type macBackend struct {
	mu     sync.Mutex
	state  RunState
	key    KeyCode
	hk     *hotkey.Hotkey
	events chan EventKind
	status Status
}

// NewBackend returns the macOS hotkey backend.
func NewBackend(log *logging.Logger) Backend {
	return &macBackend{events: make(chan EventKind, 16), state: StateStopped}
}

func (b *macBackend) Start(key KeyCode) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateStopped {
		return ferr.New("hotkey backend must be stopped before restarting").
			WithCode(ferr.CodeInvalidState).WithOperation("hotkey.Start")
	}
	b.state = StateStarting

	if !checkAccessibilityPermission() {
		b.state = StateStopped
		b.status = Status{Mode: "ptt", Key: key, Available: false, Error: "accessibility permission required"}
		return ferr.New("accessibility permission required").
			WithCode(ferr.CodePermissionDenied).WithOperation("hotkey.Start")
	}

	var hk *hotkey.Hotkey
	if k, ok := keyMap[key]; ok {
		hk = hotkey.New([]hotkey.Modifier{}, k)
	} else if mod, ok := modifierOnlyMap[key]; ok {
		hk = hotkey.New([]hotkey.Modifier{mod}, hotkey.Key(0))
	} else {
		b.state = StateStopped
		return ferr.New("unsupported key code").WithCode(ferr.CodeNotImplemented).
			WithOperation("hotkey.Start").WithDetail("key", key.String())
	}

	if err := hk.Register(); err != nil {
		b.state = StateStopped
		return ferr.Wrap(err, "register hotkey failed").WithCode(ferr.CodeCaptureFailed)
	}

	b.hk = hk
	b.key = key
	b.state = StateRunning
	b.status = Status{Mode: "ptt", Key: key, Available: true, IsActive: false}

	go b.runLoop(hk)
	return nil
}

func (b *macBackend) runLoop(hk *hotkey.Hotkey) {
	for {
		select {
		case _, ok := <-hk.Keydown():
			if !ok {
				return
			}
			b.mu.Lock()
			b.status.IsActive = true
			b.mu.Unlock()
			b.emit(EventPressed)
		case _, ok := <-hk.Keyup():
			if !ok {
				return
			}
			b.mu.Lock()
			b.status.IsActive = false
			b.mu.Unlock()
			b.emit(EventReleased)
		}
	}
}

func (b *macBackend) emit(kind EventKind) {
	select {
	case b.events <- kind:
	default:
	}
}

func (b *macBackend) Stop() error {
	b.mu.Lock()
	if b.state == StateStopped {
		b.mu.Unlock()
		return nil
	}
	b.state = StateStopping
	hk := b.hk
	b.mu.Unlock()

	if hk != nil {
		hk.Unregister()
	}

	b.mu.Lock()
	b.hk = nil
	b.state = StateStopped
	b.status.IsActive = false
	b.mu.Unlock()
	return nil
}

func (b *macBackend) TryRecv() (EventKind, bool) {
	select {
	case e := <-b.events:
		return e, true
	default:
		return 0, false
	}
}

func (b *macBackend) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}
