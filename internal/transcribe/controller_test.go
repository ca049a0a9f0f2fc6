package transcribe

import (
	"testing"

	"github.com/flowstt/core/internal/logging"
	"github.com/flowstt/core/internal/ring"
)

func newTestController(capacity int) (*Controller, *ring.Buffer) {
	buf := ring.New(capacity)
	c := New(buf, logging.New("test"))
	p := DefaultParams()
	p.MinSegmentMS = 0
	p.MinSegmentRMS = 0
	c.SetParams(p)
	return c, buf
}

func toneSamples(n int, amp float32) []float32 {
	s := make([]float32, n)
	for i := range s {
		if i%2 == 0 {
			s[i] = amp
		} else {
			s[i] = -amp
		}
	}
	return s
}

func TestAutomaticModeEmitsSegmentOnSpeechEnded(t *testing.T) {
	c, buf := newTestController(160000)
	c.SetMode(ModeAutomatic)
	c.SetEnabled(true)

	buf.Write(toneSamples(1600, 0.5)) // 100ms priming

	var got Segment
	c.OnSegmentReady(func(s Segment) { got = s })

	c.OnSpeechStarted()
	buf.Write(toneSamples(16000, 0.5)) // 1s of speech
	c.OnSpeechEnded()

	if got.ID == "" {
		t.Fatalf("expected a segment to be emitted")
	}
	if got.Reason != ReasonSpeechEnded {
		t.Fatalf("reason = %v, want ReasonSpeechEnded", got.Reason)
	}
	if len(got.Samples) == 0 {
		t.Fatalf("expected non-empty samples")
	}
}

func TestPushToTalkModeIgnoresAutomaticTriggers(t *testing.T) {
	c, buf := newTestController(160000)
	c.SetMode(ModePushToTalk)
	c.SetEnabled(true)
	buf.Write(toneSamples(1600, 0.5))

	called := false
	c.OnSegmentReady(func(s Segment) { called = true })

	c.OnSpeechStarted()
	buf.Write(toneSamples(1600, 0.5))
	c.OnSpeechEnded()

	if called {
		t.Fatalf("automatic-mode triggers must be ignored in PushToTalk mode")
	}

	c.OnPTTPressed()
	buf.Write(toneSamples(1600, 0.5))
	c.OnPTTReleased()

	if !called {
		t.Fatalf("expected PTT press/release to emit a segment")
	}
}

func TestSetModeRejectedWhileActive(t *testing.T) {
	c, buf := newTestController(160000)
	c.SetMode(ModeAutomatic)
	c.SetEnabled(true)
	buf.Write(toneSamples(1600, 0.5))

	c.OnSpeechStarted()
	if err := c.SetMode(ModePushToTalk); err == nil {
		t.Fatalf("expected SetMode to be rejected while transcribe is active")
	}
}

func TestDisablingDropsInProgressCursorWithoutEmitting(t *testing.T) {
	c, buf := newTestController(160000)
	c.SetMode(ModeAutomatic)
	c.SetEnabled(true)
	buf.Write(toneSamples(1600, 0.5))

	called := false
	c.OnSegmentReady(func(s Segment) { called = true })

	c.OnSpeechStarted()
	c.SetEnabled(false)
	c.SetEnabled(true)
	c.OnSpeechEnded() // no cursor open, should be a no-op

	if called {
		t.Fatalf("expected no segment: cursor should have been dropped on disable")
	}
}

func TestOpenCursorRefinesStartUsingLookbackHistory(t *testing.T) {
	c, buf := newTestController(160000)
	c.SetMode(ModeAutomatic)
	c.SetEnabled(true)

	// 420ms of silence followed by 40ms of real energy right up to the
	// trigger; the refiner should find that 40ms run and use it instead
	// of the full 200ms VAD lookback window.
	for i := 0; i < 46; i++ {
		buf.Write(toneSamples(160, 0.5)) // 10ms block at 16kHz mono
		rmsDB := -80.0
		if i >= 42 {
			rmsDB = -20.0
		}
		c.OnRingBufferWrite(true, rmsDB)
	}

	posBefore := buf.Position()
	c.OnSpeechStarted()

	wantStart := posBefore - uint64(40*16)
	if c.cursor.StartAbs != wantStart {
		t.Fatalf("cursor.StartAbs = %d, want %d (40ms refined lookback)", c.cursor.StartAbs, wantStart)
	}
}

func TestOpenCursorUsesZeroLookbackWhenHistoryIsAllSilence(t *testing.T) {
	c, buf := newTestController(160000)
	c.SetMode(ModePushToTalk)
	c.SetEnabled(true)

	for i := 0; i < 20; i++ {
		buf.Write(toneSamples(160, 0.5))
		c.OnRingBufferWrite(true, -80.0)
	}

	posBefore := buf.Position()
	c.OnPTTPressed()

	if c.cursor.StartAbs != posBefore {
		t.Fatalf("cursor.StartAbs = %d, want %d (no energy found in the lookback window)", c.cursor.StartAbs, posBefore)
	}
}

func TestOverflowSplitReopensContinuationCursor(t *testing.T) {
	c, buf := newTestController(4000) // small buffer forces overflow quickly
	c.SetMode(ModeAutomatic)
	c.SetEnabled(true)

	var segments []Segment
	c.OnSegmentReady(func(s Segment) { segments = append(segments, s) })

	c.OnSpeechStarted()
	for i := 0; i < 10; i++ {
		buf.Write(toneSamples(800, 0.5))
		c.OnRingBufferWrite(true, 0.0)
	}
	c.OnSpeechEnded()

	if len(segments) < 2 {
		t.Fatalf("expected at least one overflow split, got %d segments", len(segments))
	}
	for _, s := range segments[:len(segments)-1] {
		if s.Reason != ReasonOverflowSplit {
			t.Fatalf("expected intermediate segments to have ReasonOverflowSplit, got %v", s.Reason)
		}
	}
}
