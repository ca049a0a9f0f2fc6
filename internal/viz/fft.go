// Package viz implements the visualization processor: peak-downsampled
// waveform plus a Hann-windowed, log-binned, colormapped FFT column. No
// FFT library of any kind appears anywhere in the retrieved example
// corpus; the radix-2 FFT below is a deliberate, documented stdlib
// fallback — see DESIGN.md.
package viz

import "math"

// FFTSize is the default: 512-point FFT.
const FFTSize = 512

// fft computes an in-place iterative radix-2 Cooley-Tukey FFT. len(re)
// must be a power of two; im is the imaginary component, initially all
// zero for a real-valued input signal.
func fft(re, im []float64) {
	n := len(re)
	// bit-reversal permutation
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j &^= bit
		}
		j |= bit
		if i < j {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
	}

	for length := 2; length <= n; length <<= 1 {
		ang := -2 * math.Pi / float64(length)
		wr, wi := math.Cos(ang), math.Sin(ang)
		for i := 0; i < n; i += length {
			curWr, curWi := 1.0, 0.0
			for j := 0; j < length/2; j++ {
				uRe, uIm := re[i+j], im[i+j]
				vRe := re[i+j+length/2]*curWr - im[i+j+length/2]*curWi
				vIm := re[i+j+length/2]*curWi + im[i+j+length/2]*curWr

				re[i+j] = uRe + vRe
				im[i+j] = uIm + vIm
				re[i+j+length/2] = uRe - vRe
				im[i+j+length/2] = uIm - vIm

				nextWr := curWr*wr - curWi*wi
				curWi = curWr*wi + curWi*wr
				curWr = nextWr
			}
		}
	}
}

// hannWindow returns a precomputed Hann window of length n, computed
// once and reused across every FFT call (: "compute
// magnitude spectrum with a Hann window").
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// magnitudeSpectrum applies the Hann window to a real-valued block of
// exactly FFTSize samples and returns the FFTSize/2+1 magnitude bins.
func magnitudeSpectrum(block []float32, window []float64) []float64 {
	re := make([]float64, FFTSize)
	im := make([]float64, FFTSize)
	for i := 0; i < FFTSize && i < len(block); i++ {
		re[i] = float64(block[i]) * window[i]
	}
	fft(re, im)

	mags := make([]float64, FFTSize/2+1)
	for i := range mags {
		mags[i] = math.Hypot(re[i], im[i])
	}
	return mags
}
