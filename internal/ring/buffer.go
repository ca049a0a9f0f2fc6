// Package ring implements the mono 16 kHz sample ring buffer that backs
// segment capture. It generalizes an accumulate-then-drain ring buffer
// that addresses slots by a live/free byte count into absolute
// monotonic write-index addressing for an arena-free design: segment
// cursors are pure u64 ranges, never handles into the buffer's physical
// storage.
package ring

import "github.com/flowstt/core/internal/ferr"

// DefaultCapacity is 30 s at 16 kHz mono, the default.
const DefaultCapacity = 30 * 16000

// Buffer is a fixed-capacity mono f32 ring addressed by an absolute,
// ever-increasing write index. Exactly one writer is permitted; readers
// are expected to be serialized through the same thread as the writer
// (the audio loop), so no internal locking is performed — this matches
// the invariant precisely.
type Buffer struct {
	data     []float32
	writeAbs uint64
}

// New creates a buffer with the given capacity in samples. Capacity must
// be positive; NewDefault is preferred for the standard default.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{data: make([]float32, capacity)}
}

// NewDefault creates a buffer at the 30 s / 16 kHz default capacity.
func NewDefault() *Buffer { return New(DefaultCapacity) }

// Cap returns the buffer's fixed capacity in samples.
func (b *Buffer) Cap() int { return len(b.data) }

// Position returns the current absolute write index (count of samples
// ever written).
func (b *Buffer) Position() uint64 { return b.writeAbs }

// Write appends samples, advancing the absolute write index. Samples
// beyond the ring's capacity simply overwrite older data; callers that
// need overflow-avoidance behavior (the overflow split) must
// check IsApproachingOverflow themselves before writing.
func (b *Buffer) Write(samples []float32) {
	n := len(b.data)
	for _, s := range samples {
		b.data[int(b.writeAbs%uint64(n))] = s
		b.writeAbs++
	}
}

// ReadRange copies out samples in the absolute half-open range
// [begin, end). It returns a RingBufferOverwritten error if begin has
// already been overwritten, i.e. begin < writeAbs - capacity.
func (b *Buffer) ReadRange(begin, end uint64) ([]float32, error) {
	if end < begin {
		return nil, ferr.New("invalid range: end before begin").
			WithCode(ferr.CodeInvalidState).WithOperation("ring.ReadRange")
	}
	n := uint64(len(b.data))
	if b.writeAbs > n && begin < b.writeAbs-n {
		return nil, ferr.New("read range overwritten").
			WithCode(ferr.CodeRingBufferOverwritten).
			WithOperation("ring.ReadRange").
			WithDetail("begin", begin).
			WithDetail("writeAbs", b.writeAbs).
			WithDetail("capacity", n)
	}
	if end > b.writeAbs {
		end = b.writeAbs
	}
	if end <= begin {
		return []float32{}, nil
	}
	out := make([]float32, end-begin)
	for i := range out {
		idx := (begin + uint64(i)) % n
		out[i] = b.data[idx]
	}
	return out, nil
}

// OldestValidIndex returns the smallest absolute index that has not yet
// been overwritten.
func (b *Buffer) OldestValidIndex() uint64 {
	n := uint64(len(b.data))
	if b.writeAbs <= n {
		return 0
	}
	return b.writeAbs - n
}

// ClampToOldest clamps an absolute index to OldestValidIndex
// (write_abs − N once the buffer has wrapped), used when computing a
// lookback start near the buffer's tail. It leaves no margin above
// that index: a start clamped here is the slot the next write
// overwrites.
func (b *Buffer) ClampToOldest(idx uint64) uint64 {
	oldest := b.OldestValidIndex()
	if idx < oldest {
		return oldest
	}
	return idx
}

// IsApproachingOverflow reports whether continuing to write would risk
// overwriting startAbs before it can be finalized, i.e.
// (writeAbs - startAbs) >= threshold * capacity. threshold is normally
// 0.9.
func (b *Buffer) IsApproachingOverflow(startAbs uint64, threshold float64) bool {
	if b.writeAbs < startAbs {
		return false
	}
	span := float64(b.writeAbs - startAbs)
	return span >= threshold*float64(len(b.data))
}
