package viz

import "testing"

func TestDownsampleWaveformCapsPointCount(t *testing.T) {
	samples := make([]float32, 4800)
	out := downsampleWaveform(samples, maxWaveformPoints)
	if len(out) > maxWaveformPoints {
		t.Fatalf("len(out) = %d, exceeds cap %d", len(out), maxWaveformPoints)
	}
}

func TestDownsampleWaveformShortBatchPassesThrough(t *testing.T) {
	samples := []float32{1, 2, 3}
	out := downsampleWaveform(samples, maxWaveformPoints)
	if len(out) != len(samples) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(samples))
	}
}

func TestProcessorEmitsSpectrogramOnlyWhenFFTBufferFills(t *testing.T) {
	p := NewProcessor(48000)

	short := p.Process(make([]float32, 100))
	if short.Spectrogram != nil {
		t.Fatalf("expected nil spectrogram before FFT buffer fills")
	}

	full := p.Process(make([]float32, FFTSize))
	if full.Spectrogram == nil {
		t.Fatalf("expected non-nil spectrogram once FFT buffer fills")
	}
}

func TestMagnitudeToColorStaysWithinLUT(t *testing.T) {
	c := magnitudeToColor(-1)
	if c != lut[0] {
		t.Fatalf("expected clamp to LUT[0] for negative input")
	}
	c = magnitudeToColor(2)
	if c != lut[lutSize-1] {
		t.Fatalf("expected clamp to LUT[max] for >1 input")
	}
}
