package audio

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flowstt/core/internal/ferr"
	"github.com/flowstt/core/internal/logging"
)

// Backend is the uniform, per-OS capture interface. Exactly one Backend
// implementation is compiled in per build target (Linux/Windows/macOS),
// selected at build time by file name suffix rather than a dynamic
// plugin mechanism.
type Backend interface {
	ListInputDevices() ([]Device, error)
	ListSystemDevices() ([]Device, error)
	// StartCaptureSources opens up to two concurrent sources. Either id
	// may be empty to mean "no source of that role". If both are empty
	// the call is a no-op success.
	StartCaptureSources(primaryID, secondaryID string) error
	StopCapture() error
	// TryRecv returns the next available sample batch, or ok=false if
	// none is pending. Non-blocking, matching the capture callback's
	// discipline.
	TryRecv() (StreamSamples, bool)
	SampleRate() int
	// CaptureError returns and clears the first persistent capture
	// error raised by a running source's capture thread since the last
	// call, or nil if none. Polled by the audio loop once per tick.
	CaptureError() error
}

// sourceRole distinguishes the two capture slots a backend may run.
type sourceRole int

const (
	rolePrimary sourceRole = iota
	roleSecondary
)

// channelCapacity is sized for >=200ms of stereo 48kHz audio per
// source, expressed in AudioFrame units (each ~10ms); excess drops the
// oldest. Both sources share one channel, so 2*32 gives ~320ms of
// headroom per source with two sources running.
const channelCapacity = 2 * 32

// sourceHandle tracks one running capture thread's lifecycle, shared by
// every per-OS backend implementation.
type sourceHandle struct {
	role       sourceRole
	device     Device
	cancel     context.CancelFunc
	done       chan struct{}
	resampler  *Resampler

	// captureErr is set once by captureLoop, from its own goroutine,
	// when it gives up on a source after too many consecutive read
	// errors and exits; CaptureError polls and clears it from the
	// audio-loop thread.
	captureErr atomic.Pointer[ferr.Error]
}

// baseBackend factors out the state and channel plumbing common to all
// per-OS backends: the bounded output channel, running-source tracking,
// and drop-oldest publish semantics. Per-OS files embed this and supply
// only device enumeration and the actual capture-thread bodies.
type baseBackend struct {
	mu      sync.Mutex
	out     chan StreamSamples
	sources map[sourceRole]*sourceHandle
	log     *logging.Logger
}

func newBaseBackend(log *logging.Logger) baseBackend {
	return baseBackend{
		out:     make(chan StreamSamples, channelCapacity),
		sources: make(map[sourceRole]*sourceHandle),
		log:     log,
	}
}

// publish delivers a batch non-blocking, dropping the oldest queued
// batch to make room if the channel is full ().
func (b *baseBackend) publish(s StreamSamples) {
	for {
		select {
		case b.out <- s:
			return
		default:
		}
		select {
		case <-b.out:
		default:
		}
	}
}

func (b *baseBackend) TryRecv() (StreamSamples, bool) {
	select {
	case s := <-b.out:
		return s, true
	default:
		return StreamSamples{}, false
	}
}

func (b *baseBackend) SampleRate() int { return TargetSampleRate }

// CaptureError implements Backend.CaptureError.
func (b *baseBackend) CaptureError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, h := range b.sources {
		if e := h.captureErr.Swap(nil); e != nil {
			return e
		}
	}
	return nil
}

// stopSource cancels and joins a single running source, with a 2s
// deadline per the cancellation rule; a leaked thread is
// logged and the handle abandoned rather than blocking forever.
func (b *baseBackend) stopSource(h *sourceHandle) {
	if h == nil {
		return
	}
	h.cancel()
	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		b.log.Error("capture thread did not join before deadline",
			"role", h.role, "device", h.device.ID)
	}
}

// stopAll stops every running source and clears tracking. Idempotent:
// calling it twice is a no-op the second time.
func (b *baseBackend) stopAll() {
	b.mu.Lock()
	handles := b.sources
	b.sources = make(map[sourceRole]*sourceHandle)
	b.mu.Unlock()

	for _, h := range handles {
		b.stopSource(h)
	}
}

// noSuchSource is returned by per-OS enumeration lookups.
func noSuchSource(id string) error {
	return ferr.New("device not found").
		WithCode(ferr.CodeDeviceNotFound).
		WithOperation("audio.StartCaptureSources").
		WithDetail("device_id", id)
}
