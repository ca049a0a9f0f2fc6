package mixer

// AEC is a frame-synchronous adaptive echo canceller standing in for a
// third-generation acoustic echo canceller. No AEC library of any kind
// appears anywhere in the retrieved example corpus; this NLMS
// (normalized least-mean-squares) adaptive filter is a deliberate,
// documented stdlib fallback — see DESIGN.md. It follows a
// render-then-capture calling discipline: AnalyzeRender must be called
// before ProcessCapture for the same frame time.
type AEC struct {
	weights   []float64
	history   []float64 // circular buffer of past render samples, one per weight tap
	writePos  int
	stepSize  float64
	regEps    float64
}

// tapCount covers roughly 10ms of echo tail at 48kHz per channel
// (interleaved stereo, so 2x the mono tap count).
const tapCount = 480 * 2

// NewAEC constructs an AEC with a fixed tap count and a conservative
// NLMS step size chosen to converge without instability on typical
// room-echo delay spreads.
func NewAEC() *AEC {
	return &AEC{
		weights:  make([]float64, tapCount),
		history:  make([]float64, tapCount),
		stepSize: 0.5,
		regEps:   1e-6,
	}
}

// AnalyzeRender feeds the reference (loopback) signal for a frame into
// the adaptive filter's history buffer. Must precede ProcessCapture for
// the same frame per the render-first ordering.
func (a *AEC) AnalyzeRender(render []float32) {
	for _, s := range render {
		a.history[a.writePos] = float64(s)
		a.writePos = (a.writePos + 1) % len(a.history)
	}
}

// ProcessCapture removes the estimated echo from a capture (mic) frame
// using the render history most recently supplied via AnalyzeRender,
// then adapts the filter weights against the residual (NLMS update).
func (a *AEC) ProcessCapture(capture []float32) []float32 {
	out := make([]float32, len(capture))
	n := len(a.history)

	for i, mic := range capture {
		// Estimate the echo as a weighted sum over the tap window ending
		// at the current write position.
		estimate := 0.0
		energy := a.regEps
		for t := 0; t < len(a.weights); t++ {
			idx := (a.writePos - 1 - t + n) % n
			h := a.history[idx]
			estimate += a.weights[t] * h
			energy += h * h
		}

		residual := float64(mic) - estimate
		out[i] = float32(residual)

		// NLMS weight update, normalized by tap-window energy.
		mu := a.stepSize / energy
		for t := 0; t < len(a.weights); t++ {
			idx := (a.writePos - 1 - t + n) % n
			a.weights[t] += mu * residual * a.history[idx]
		}
	}
	return out
}

// Reset clears adaptive state, used when capture restarts after a
// source change so stale echo-path estimates don't leak in.
func (a *AEC) Reset() {
	for i := range a.weights {
		a.weights[i] = 0
	}
	for i := range a.history {
		a.history[i] = 0
	}
	a.writePos = 0
}
