//go:build !darwin

package hotkey

import (
	"github.com/flowstt/core/internal/ferr"
	"github.com/flowstt/core/internal/logging"
)

// stubBackend implements Backend for Windows and Linux, which return
// "not implemented" from Start and no events from TryRecv rather than
// a real global key observer.
type stubBackend struct {
	status Status
}

// NewBackend returns the non-macOS stub hotkey backend.
func NewBackend(log *logging.Logger) Backend {
	return &stubBackend{}
}

func (b *stubBackend) Start(key KeyCode) error {
	b.status = Status{Mode: "ptt", Key: key, Available: false, Error: "not implemented on this platform"}
	return ferr.New("hotkey backend not implemented on this platform").
		WithCode(ferr.CodeNotImplemented).WithOperation("hotkey.Start")
}

func (b *stubBackend) Stop() error { return nil }

func (b *stubBackend) TryRecv() (EventKind, bool) { return 0, false }

func (b *stubBackend) Status() Status { return b.status }
