// Package mixer implements the frame-aligned audio mixer: AEC3-style
// echo cancellation followed by mode-dependent combine/soft-clip,
// operating strictly on 10ms/480-frame stereo boundaries. Grounded on
// the accumulate-then-drain buffering style of a single-writer audio
// ring buffer, restructured around a dual-stream, frame-synchronous
// contract.
package mixer

import (
	"math"
	"time"

	"github.com/flowstt/core/internal/audio"
	"github.com/flowstt/core/internal/logging"
)

// RecordingMode selects how mic and system audio combine.
type RecordingMode int

const (
	ModeMixed RecordingMode = iota
	ModeEchoCancel
)

// catchUpDropMS and missingStreamZeroFillMS control rate-mismatch and
// stream-dropout handling.
const (
	catchUpDropMS         = 60
	missingStreamZeroFillMS = 500
)

// Mixer accumulates per-stream samples and emits complete stereo
// AudioFrames after AEC and combine. It is owned exclusively by the
// audio-loop thread; no internal locking.
type Mixer struct {
	log *logging.Logger
	aec *AEC

	aecEnabled bool
	mode       RecordingMode

	micBuf  []float32
	loopBuf []float32

	micPresent  bool
	loopPresent bool

	micSilentMS  int
	loopSilentMS int
	micFedSinceDrain  bool
	loopFedSinceDrain bool
	lastDrainAt time.Time
}

// New creates a mixer. aecEnabled and mode are plain fields: the
// audio-loop thread is the only caller of SetAECEnabled/SetMode, so no
// synchronization is needed here (internal/loop routes GUI-issued
// changes through a command channel drained once per tick).
func New(log *logging.Logger) *Mixer {
	return &Mixer{
		log: log,
		aec: NewAEC(),
		mode: ModeMixed,
	}
}

func (m *Mixer) SetAECEnabled(v bool)         { m.aecEnabled = v }
func (m *Mixer) SetMode(mode RecordingMode)   { m.mode = mode }

// FeedMic appends a mic (capture) batch to the internal buffer.
func (m *Mixer) FeedMic(s audio.StreamSamples) {
	m.micBuf = append(m.micBuf, s.Samples...)
	m.micPresent = true
	m.micSilentMS = 0
	m.micFedSinceDrain = true
}

// FeedLoopback appends a system-audio (render/loopback) batch.
func (m *Mixer) FeedLoopback(s audio.StreamSamples) {
	m.loopBuf = append(m.loopBuf, s.Samples...)
	m.loopPresent = true
	m.loopSilentMS = 0
	m.loopFedSinceDrain = true
}

// advanceSilence accumulates wall-clock time since the last Drain call
// into micSilentMS/loopSilentMS for whichever stream wasn't fed in the
// meantime, so Drain can tell a genuine >500ms dropout from an ordinary
// gap between two FeedMic/FeedLoopback calls in the same tick.
func (m *Mixer) advanceSilence() {
	now := time.Now()
	if m.lastDrainAt.IsZero() {
		m.lastDrainAt = now
		m.micFedSinceDrain = false
		m.loopFedSinceDrain = false
		return
	}
	deltaMS := int(now.Sub(m.lastDrainAt).Milliseconds())
	m.lastDrainAt = now
	if m.micPresent && !m.micFedSinceDrain {
		m.micSilentMS += deltaMS
	}
	if m.loopPresent && !m.loopFedSinceDrain {
		m.loopSilentMS += deltaMS
	}
	m.micFedSinceDrain = false
	m.loopFedSinceDrain = false
}

// Drain processes every complete 480-frame stereo boundary currently
// buffered and returns the resulting mixed stereo frames, one
// audio.SamplesPerAudioFrame chunk per output frame. It never emits a
// partial frame (the AudioFrame invariant). A stream that has gone
// quiet is not zero-filled until it has been silent for at least
// missingStreamZeroFillMS; before that, Drain simply waits for it to
// catch up rather than emitting a boundary early.
func (m *Mixer) Drain() [][]float32 {
	m.advanceSilence()
	m.realign()

	var out [][]float32
	for len(m.micBuf) >= audio.SamplesPerAudioFrame || len(m.loopBuf) >= audio.SamplesPerAudioFrame {
		haveMic := len(m.micBuf) >= audio.SamplesPerAudioFrame
		haveLoop := len(m.loopBuf) >= audio.SamplesPerAudioFrame

		if !haveMic && m.micPresent && m.micSilentMS < missingStreamZeroFillMS {
			break
		}
		if !haveLoop && m.loopPresent && m.loopSilentMS < missingStreamZeroFillMS {
			break
		}

		var micFrame, loopFrame []float32

		if haveMic {
			micFrame = m.micBuf[:audio.SamplesPerAudioFrame]
			m.micBuf = m.micBuf[audio.SamplesPerAudioFrame:]
		} else if m.micPresent {
			// mic has been silent past the grace window; zero-fill to keep AEC aligned
			micFrame = make([]float32, audio.SamplesPerAudioFrame)
		}

		if haveLoop {
			loopFrame = m.loopBuf[:audio.SamplesPerAudioFrame]
			m.loopBuf = m.loopBuf[audio.SamplesPerAudioFrame:]
		} else if m.loopPresent {
			loopFrame = make([]float32, audio.SamplesPerAudioFrame)
		}

		out = append(out, m.combine(micFrame, loopFrame))
	}
	return out
}

// realign implements the 60ms catch-up drop rule: if one
// stream has accumulated more than 60ms beyond the other, the oldest
// frames of the faster stream are dropped to resynchronize.
func (m *Mixer) realign() {
	const maxLeadSamples = catchUpDropMS * audio.TargetSampleRate / 1000 * audio.TargetChannels
	if len(m.micBuf)-len(m.loopBuf) > maxLeadSamples && m.loopPresent {
		drop := len(m.micBuf) - len(m.loopBuf) - maxLeadSamples
		drop -= drop % audio.SamplesPerAudioFrame
		if drop > 0 && drop <= len(m.micBuf) {
			m.micBuf = m.micBuf[drop:]
		}
	}
	if len(m.loopBuf)-len(m.micBuf) > maxLeadSamples && m.micPresent {
		drop := len(m.loopBuf) - len(m.micBuf) - maxLeadSamples
		drop -= drop % audio.SamplesPerAudioFrame
		if drop > 0 && drop <= len(m.loopBuf) {
			m.loopBuf = m.loopBuf[drop:]
		}
	}
}

// combine applies AEC (render stream analyzed first, then capture
// processed against it) and then the mode-dependent combine policy for
// a single complete stereo frame.
func (m *Mixer) combine(mic, loop []float32) []float32 {
	haveLoop := len(loop) > 0 && m.loopPresent
	haveMic := len(mic) > 0 && m.micPresent

	var micEC []float32
	if haveMic {
		if m.aecEnabled && haveLoop {
			m.aec.AnalyzeRender(loop)
			micEC = m.aec.ProcessCapture(mic)
		} else {
			micEC = mic
		}
	}

	switch {
	case haveMic && haveLoop:
		if m.mode == ModeEchoCancel {
			return micEC
		}
		return softClipMix(micEC, loop)
	case haveMic:
		return mic
	case haveLoop:
		return loop
	default:
		return make([]float32, audio.SamplesPerAudioFrame)
	}
}

// softClipMix implements the Mixed combine policy:
// out[i] = tanh(0.95 * (mic_ec[i] + loop[i])).
func softClipMix(mic, loop []float32) []float32 {
	out := make([]float32, len(mic))
	for i := range out {
		out[i] = float32(math.Tanh(0.95 * float64(mic[i]+loop[i])))
	}
	return out
}
