package detect

import "testing"

func TestNewCoarseClampsInvalidMode(t *testing.T) {
	for _, mode := range []int{-1, 4, 100} {
		c, err := NewCoarse(mode)
		if err != nil {
			t.Fatalf("NewCoarse(%d) = %v, want a clamped valid mode instead of an error", mode, err)
		}
		if c.frameSize != 160 {
			t.Fatalf("frameSize = %d, want 160 (10ms at 16kHz)", c.frameSize)
		}
	}
}

func TestNewCoarseAcceptsValidModes(t *testing.T) {
	for mode := 0; mode <= 3; mode++ {
		if _, err := NewCoarse(mode); err != nil {
			t.Fatalf("NewCoarse(%d) = %v, want nil", mode, err)
		}
	}
}

func TestActiveOnSilentBlockReturnsNoError(t *testing.T) {
	c, err := NewCoarse(3)
	if err != nil {
		t.Fatalf("NewCoarse: %v", err)
	}
	block := make([]float32, c.frameSize)
	if _, err := c.Active(block); err != nil {
		t.Fatalf("Active() on a silent block returned an error: %v", err)
	}
}

func TestActiveClampsOutOfRangeSamples(t *testing.T) {
	c, err := NewCoarse(3)
	if err != nil {
		t.Fatalf("NewCoarse: %v", err)
	}
	block := make([]float32, c.frameSize)
	for i := range block {
		block[i] = 5.0
	}
	if _, err := c.Active(block); err != nil {
		t.Fatalf("Active() on an out-of-range block returned an error: %v", err)
	}
}

func TestActiveHandlesShortBlock(t *testing.T) {
	c, err := NewCoarse(3)
	if err != nil {
		t.Fatalf("NewCoarse: %v", err)
	}
	block := make([]float32, c.frameSize/2)
	if _, err := c.Active(block); err != nil {
		t.Fatalf("Active() on a short block returned an error: %v", err)
	}
}
