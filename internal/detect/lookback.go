package detect

import "math"

// LookbackRefiner maintains a short, more-sensitive secondary energy
// history purely to refine a fixed lookback start backward to the true
// onset of energy, supplementing the constant-offset lookback. Grounded
// on original_source/src-service/src/processor.rs's
// find_lookback_start, which scans a small ring of recent RMS values at
// a lower threshold than the main classifier. It can only move a
// candidate start earlier within the caller-supplied window, never
// later and never past the window bound.
type LookbackRefiner struct {
	rmsDB      []float64
	writePos   int
	blockMS    int
	threshold  float64
}

// NewLookbackRefiner builds a refiner covering windowMS of history at
// the given per-block duration, using thresholdDB (more sensitive than
// the main voiced threshold, per the original's -55dB) to mark a block
// as "has energy".
func NewLookbackRefiner(windowMS, blockMS int, thresholdDB float64) *LookbackRefiner {
	n := windowMS / blockMS
	if n < 1 {
		n = 1
	}
	history := make([]float64, n)
	for i := range history {
		history[i] = math.Inf(-1) // not yet written: no energy
	}
	return &LookbackRefiner{
		rmsDB:     history,
		blockMS:   blockMS,
		threshold: thresholdDB,
	}
}

// Push records one block's RMS(dB) measurement.
func (r *LookbackRefiner) Push(rmsDB float64) {
	r.rmsDB[r.writePos] = rmsDB
	r.writePos = (r.writePos + 1) % len(r.rmsDB)
}

// RefineBackMS scans history newest-to-oldest and returns how many
// milliseconds earlier than "now" true energy onset appears to begin,
// capped at maxBackMS (the caller's fixed lookback window). Returns 0
// if no earlier onset is found within the window.
func (r *LookbackRefiner) RefineBackMS(maxBackMS int) int {
	maxBlocks := maxBackMS / r.blockMS
	if maxBlocks > len(r.rmsDB) {
		maxBlocks = len(r.rmsDB)
	}

	back := 0
	for i := 1; i <= maxBlocks; i++ {
		idx := (r.writePos - i + len(r.rmsDB)*2) % len(r.rmsDB)
		if r.rmsDB[idx] > r.threshold {
			back = i * r.blockMS
		} else if back > 0 {
			// energy run ended going further back; stop extending
			break
		}
	}
	return back
}
