package mixer

import (
	"testing"

	"github.com/flowstt/core/internal/audio"
	"github.com/flowstt/core/internal/logging"
)

func TestDrainOnlyEmitsCompleteFrames(t *testing.T) {
	m := New(logging.New("test"))
	m.FeedMic(audio.StreamSamples{Samples: make([]float32, audio.SamplesPerAudioFrame+10)})

	out := m.Drain()
	if len(out) != 1 {
		t.Fatalf("expected exactly one complete frame, got %d", len(out))
	}
	if len(out[0]) != audio.SamplesPerAudioFrame {
		t.Fatalf("frame length = %d, want %d", len(out[0]), audio.SamplesPerAudioFrame)
	}
}

func TestSingleSourceIsUnityPassthrough(t *testing.T) {
	m := New(logging.New("test"))
	samples := make([]float32, audio.SamplesPerAudioFrame)
	for i := range samples {
		samples[i] = 0.25
	}
	m.FeedMic(audio.StreamSamples{Samples: samples})

	out := m.Drain()
	if len(out) != 1 {
		t.Fatalf("expected one frame, got %d", len(out))
	}
	for i, v := range out[0] {
		if v != 0.25 {
			t.Fatalf("sample %d = %v, want unity passthrough 0.25", i, v)
		}
	}
}

func TestDrainWithholdsBoundaryUntilGraceWindowElapses(t *testing.T) {
	m := New(logging.New("test"))
	mic := make([]float32, audio.SamplesPerAudioFrame)
	loop := make([]float32, audio.SamplesPerAudioFrame)
	m.FeedMic(audio.StreamSamples{Samples: mic})
	m.FeedLoopback(audio.StreamSamples{Samples: loop})
	if out := m.Drain(); len(out) != 1 {
		t.Fatalf("expected one frame from the initial feed, got %d", len(out))
	}

	// loopback stops delivering; mic keeps going. Immediately after the
	// dropout, still well inside the grace window, Drain must withhold
	// the boundary rather than zero-fill early.
	m.FeedMic(audio.StreamSamples{Samples: mic})
	if out := m.Drain(); len(out) != 0 {
		t.Fatalf("expected Drain to withhold the boundary inside the grace window, got %d frames", len(out))
	}

	// force the grace window to have elapsed without touching wall time
	m.loopSilentMS = missingStreamZeroFillMS
	m.FeedMic(audio.StreamSamples{Samples: mic})
	out := m.Drain()
	if len(out) != 2 {
		t.Fatalf("expected the withheld boundary plus the new one once the grace window elapsed, got %d", len(out))
	}
}

func TestMixedModeSoftClipsWithinRange(t *testing.T) {
	m := New(logging.New("test"))
	m.SetMode(ModeMixed)
	mic := make([]float32, audio.SamplesPerAudioFrame)
	loop := make([]float32, audio.SamplesPerAudioFrame)
	for i := range mic {
		mic[i] = 1.0
		loop[i] = 1.0
	}
	m.FeedMic(audio.StreamSamples{Samples: mic})
	m.FeedLoopback(audio.StreamSamples{Samples: loop})

	out := m.Drain()
	if len(out) != 1 {
		t.Fatalf("expected one frame, got %d", len(out))
	}
	for _, v := range out[0] {
		if v <= -1 || v >= 1 {
			t.Fatalf("soft-clipped sample %v out of (-1, 1) range", v)
		}
	}
}
