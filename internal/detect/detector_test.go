package detect

import (
	"math"
	"testing"
)

func toneBlock(freq float64, sr, n int, amp float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sr)))
	}
	return out
}

func TestClassifyVoicedTone(t *testing.T) {
	cfg := DefaultConfig()
	sr := 16000
	block := toneBlock(800, sr, sr/100, 0.1) // -20dB-ish, low zcr at 800Hz/16kHz
	f := ComputeFeatures(block, sr)
	class := Classify(f, cfg)
	if class != ClassVoiced {
		t.Fatalf("Classify(800Hz tone) = %v, want ClassVoiced (features=%+v)", class, f)
	}
}

func TestClassifySilenceIsNone(t *testing.T) {
	cfg := DefaultConfig()
	block := make([]float32, 160)
	f := ComputeFeatures(block, 16000)
	if class := Classify(f, cfg); class != ClassNone {
		t.Fatalf("Classify(silence) = %v, want ClassNone", class)
	}
}

func TestTrackerEmitsOneStartEndPairForSustainedSpeech(t *testing.T) {
	cfg := DefaultConfig()
	tr := NewTracker(cfg)

	const blockMS = 10
	starts, ends := 0, 0

	// 200ms of voiced classification: onset (100ms) then speech.
	for i := 0; i < 20; i++ {
		ev, _ := tr.Update(ClassVoiced, false, blockMS)
		if ev == EventSpeechStarted {
			starts++
		}
	}
	// hold window (300ms) of silence to end speech.
	for i := 0; i < 30; i++ {
		ev, _ := tr.Update(ClassNone, false, blockMS)
		if ev == EventSpeechEnded {
			ends++
		}
	}

	if starts != 1 {
		t.Fatalf("starts = %d, want 1", starts)
	}
	if ends != 1 {
		t.Fatalf("ends = %d, want 1", ends)
	}
}

func TestTrackerHoldingResumesWithoutNewStart(t *testing.T) {
	cfg := DefaultConfig()
	tr := NewTracker(cfg)

	for i := 0; i < 20; i++ {
		tr.Update(ClassVoiced, false, 10)
	}
	// brief dip well under hold_ms
	for i := 0; i < 10; i++ {
		tr.Update(ClassNone, false, 10)
	}
	ev, _ := tr.Update(ClassVoiced, false, 10)
	if ev == EventSpeechStarted {
		t.Fatalf("resuming within hold window should not re-trigger speech-started")
	}
	if tr.State().State != StateSpeech {
		t.Fatalf("state = %v, want StateSpeech after resuming within hold window", tr.State().State)
	}
}

func TestTrackerTransientDuringOnsetResetsImmediately(t *testing.T) {
	cfg := DefaultConfig()
	tr := NewTracker(cfg)

	tr.Update(ClassVoiced, false, 10)
	if tr.State().State != StateOnset {
		t.Fatalf("expected onset state after first voiced block")
	}
	ev, _ := tr.Update(ClassNone, true, 10)
	if ev != EventNone {
		t.Fatalf("unexpected event on transient reset: %v", ev)
	}
	if tr.State().State != StateSilence {
		t.Fatalf("state = %v, want StateSilence after transient reset", tr.State().State)
	}
}
