package audio

// Resampler maps an arbitrary source rate to TargetSampleRate using
// linear interpolation, preserving interleaving and fractional phase
// across calls so buffer boundaries do not introduce discontinuities.
// This is the C1 component; deliberately coarse per spec:
// downstream consumers are either visualization (tolerant) or Whisper
// (robust to small spectral artifacts).
type Resampler struct {
	srcHz, dstHz int
	channels     int
	phase        float64 // fractional position into the source stream
	tail         []float32 // last input frame per channel, for interpolation across calls
}

// NewResampler builds a resampler for the given source rate, target
// rate, and channel count. If srcHz == dstHz, Process returns a copy of
// its input with no interpolation (ratio 1.0 short-circuit).
func NewResampler(srcHz, dstHz, channels int) *Resampler {
	return &Resampler{srcHz: srcHz, dstHz: dstHz, channels: channels}
}

// Process resamples an interleaved buffer of complete frames. Output
// length is approximately len(in)/channels * dst/src frames.
func (r *Resampler) Process(in []float32) []float32 {
	if r.channels <= 0 || len(in) == 0 {
		return nil
	}
	if r.srcHz == r.dstHz {
		out := make([]float32, len(in))
		copy(out, in)
		return out
	}

	inFrames := len(in) / r.channels
	ratio := float64(r.srcHz) / float64(r.dstHz)

	// Prepend the carried-over tail frame (if any) so interpolation is
	// continuous across call boundaries: with a tail, position 0 is the
	// tail frame and position i+1 is in[i].
	offset := 0
	if r.tail != nil {
		offset = 1
	}

	var out []float32
	pos := r.phase
	for {
		frameIdx := int(pos)
		if frameIdx >= inFrames-1+offset {
			break
		}
		frac := pos - float64(frameIdx)

		for ch := 0; ch < r.channels; ch++ {
			var a float32
			if frameIdx < offset {
				a = r.tail[ch]
			} else {
				a = in[(frameIdx-offset)*r.channels+ch]
			}
			b := in[(frameIdx+1-offset)*r.channels+ch]
			out = append(out, a+float32(frac)*(b-a))
		}
		pos += ratio
	}

	// Carry remaining phase and last frame forward.
	consumedFrames := 0
	if inFrames > 0 {
		consumedFrames = inFrames - 1 + offset
	}
	r.phase = pos - float64(consumedFrames)
	if r.phase < 0 {
		r.phase = 0
	}
	if inFrames > 0 {
		last := make([]float32, r.channels)
		copy(last, in[(inFrames-1)*r.channels:inFrames*r.channels])
		r.tail = last
	}

	return out
}

// Reset clears interpolation state, used when a source is stopped and
// restarted to avoid stitching unrelated audio together.
func (r *Resampler) Reset() {
	r.phase = 0
	r.tail = nil
}

// MonoToStereo duplicates a mono interleaved buffer into stereo, per
// the "mono -> stereo duplicates the single channel" rule.
func MonoToStereo(mono []float32) []float32 {
	out := make([]float32, len(mono)*2)
	for i, s := range mono {
		out[2*i] = s
		out[2*i+1] = s
	}
	return out
}

// StereoToMono averages a stereo interleaved buffer down to mono,
// used on the path from the mixer's 48kHz stereo output down to the
// 16kHz mono ring buffer feed (the data-flow path (a)).
func StereoToMono(stereo []float32) []float32 {
	n := len(stereo) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = (stereo[2*i] + stereo[2*i+1]) / 2
	}
	return out
}
