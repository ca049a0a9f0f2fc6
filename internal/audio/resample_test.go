package audio

import "testing"

func TestResamplerUnityRatioIsIdentity(t *testing.T) {
	r := NewResampler(48000, 48000, 2)
	in := []float32{0.1, 0.2, 0.3, 0.4}
	out := r.Process(in)
	if len(out) != len(in) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], in[i])
		}
	}
}

func TestResamplerDownsampleShrinksLength(t *testing.T) {
	r := NewResampler(48000, 16000, 1)
	in := make([]float32, 480)
	for i := range in {
		in[i] = 1.0
	}
	out := r.Process(in)
	if len(out) == 0 {
		t.Fatalf("expected non-empty output")
	}
	if len(out) >= len(in) {
		t.Fatalf("len(out) = %d, want fewer frames than input (%d)", len(out), len(in))
	}
}

func TestMonoStereoRoundTrip(t *testing.T) {
	mono := []float32{0.5, -0.5, 0.25}
	stereo := MonoToStereo(mono)
	if len(stereo) != len(mono)*2 {
		t.Fatalf("len(stereo) = %d, want %d", len(stereo), len(mono)*2)
	}
	back := StereoToMono(stereo)
	for i := range mono {
		if back[i] != mono[i] {
			t.Fatalf("round-trip[%d] = %v, want %v", i, back[i], mono[i])
		}
	}
}
