package viz

import "math"

// NumBins is the default: 256 log-spaced spectrogram bins.
const NumBins = 256

// SpectrogramColumn is one column of the scrolling spectrogram: 256
// RGB triples, one per log-spaced frequency bin.
type SpectrogramColumn struct {
	Colors [NumBins]RGB
}

// Payload is the VisualizationPayload. Spectrogram is nil on
// waveform-only batches (the FFT buffer hasn't filled yet).
type Payload struct {
	Waveform    []float32
	Spectrogram *SpectrogramColumn
}

const maxWaveformPoints = 128

// Processor accumulates incoming mono-mixed 48kHz samples, emitting a
// downsampled waveform on every batch and a spectrogram column whenever
// its internal FFT buffer fills. One Processor lives on the audio-loop
// thread per the ownership model.
type Processor struct {
	window   []float64
	fftBuf   []float32
	sr       int
}

// NewProcessor builds a processor for mono audio at sample rate sr.
func NewProcessor(sr int) *Processor {
	return &Processor{window: hannWindow(FFTSize), sr: sr}
}

// Process consumes one batch of mono samples and returns the resulting
// visualization payload.
func (p *Processor) Process(batch []float32) Payload {
	payload := Payload{Waveform: downsampleWaveform(batch, maxWaveformPoints)}

	p.fftBuf = append(p.fftBuf, batch...)
	if len(p.fftBuf) >= FFTSize {
		block := p.fftBuf[:FFTSize]
		p.fftBuf = p.fftBuf[FFTSize:]

		mags := magnitudeSpectrum(block, p.window)
		payload.Spectrogram = p.buildColumn(mags)
	}

	return payload
}

// downsampleWaveform peak-detects amplitude envelopes down to at most
// maxPoints samples.
func downsampleWaveform(samples []float32, maxPoints int) []float32 {
	if len(samples) <= maxPoints {
		out := make([]float32, len(samples))
		copy(out, samples)
		return out
	}
	bucket := (len(samples) + maxPoints - 1) / maxPoints
	if bucket < 1 {
		bucket = 1
	}
	out := make([]float32, 0, maxPoints)
	for i := 0; i < len(samples); i += bucket {
		end := i + bucket
		if end > len(samples) {
			end = len(samples)
		}
		peak := float32(0)
		for _, s := range samples[i:end] {
			if abs32(s) > peak {
				peak = abs32(s)
			}
		}
		out = append(out, peak)
	}
	return out
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// buildColumn maps the linear-frequency magnitude bins into 256
// log-spaced bins spanning 20Hz-24kHz, then through the fixed color LUT.
func (p *Processor) buildColumn(mags []float64) *SpectrogramColumn {
	col := &SpectrogramColumn{}

	const minFreq, maxFreq = 20.0, 24000.0
	logMin, logMax := math.Log(minFreq), math.Log(maxFreq)

	var peak float64
	for _, m := range mags {
		if m > peak {
			peak = m
		}
	}
	if peak == 0 {
		peak = 1
	}

	nyquist := float64(p.sr) / 2
	for bin := 0; bin < NumBins; bin++ {
		frac := float64(bin) / float64(NumBins-1)
		freq := math.Exp(logMin + frac*(logMax-logMin))
		if freq > nyquist {
			freq = nyquist
		}
		mag := p.magnitudeAtFreq(mags, freq, nyquist)
		col.Colors[bin] = magnitudeToColor(mag / peak)
	}
	return col
}

// magnitudeAtFreq linearly interpolates between the two nearest FFT
// bins for a target frequency, matching the original's
// get_magnitude_for_pixel bin-averaging/interpolation approach.
func (p *Processor) magnitudeAtFreq(mags []float64, freq, nyquist float64) float64 {
	if nyquist == 0 {
		return 0
	}
	pos := freq / nyquist * float64(len(mags)-1)
	lo := int(math.Floor(pos))
	if lo < 0 {
		lo = 0
	}
	if lo >= len(mags)-1 {
		return mags[len(mags)-1]
	}
	frac := pos - float64(lo)
	return mags[lo]*(1-frac) + mags[lo+1]*frac
}
