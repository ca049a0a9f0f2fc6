package transcribe

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/flowstt/core/internal/detect"
	"github.com/flowstt/core/internal/ferr"
	"github.com/flowstt/core/internal/logging"
	"github.com/flowstt/core/internal/ring"
)

// Lookback refinement constants: a secondary, more sensitive energy
// history that openCursor scans to place a cursor's start. The start
// moves back from "now" only as far as that history shows recent
// energy, never more than VADLookbackMS/PTTLookbackMS; with no energy
// found the cursor opens at "now", with no lookback at all.
const (
	lookbackWindowMS    = 200
	lookbackBlockMS     = 10
	lookbackThresholdDB = -55
)

// Params carries the atomically-swappable controller thresholds.
type Params struct {
	VADLookbackMS     int
	PTTLookbackMS     int
	OverflowThreshold float64 // fraction of ring capacity, default 0.9
	RecordingsDir     string
	MinSegmentMS      int     // supplemented feature: validity gating
	MinSegmentRMS     float64
	MaxSegmentMS      int // word-break watch threshold
	WordBreakGraceMS  int
}

// DefaultParams reproduces the original engine's threshold defaults
// (original_source/transcribe_state.rs) plus the extra validity-gating
// and word-break parameters this implementation adds.
func DefaultParams() Params {
	return Params{
		VADLookbackMS:     200,
		PTTLookbackMS:     100,
		OverflowThreshold: 0.9,
		RecordingsDir:     "",
		MinSegmentMS:      500,
		MinSegmentRMS:     0.01,
		MaxSegmentMS:      4000,
		WordBreakGraceMS:  750,
	}
}

// Controller owns at most one Cursor and is driven by ring-buffer
// writes, speech-detector transitions, PTT events, and GUI commands.
// It lives exclusively on the audio-loop thread.
type Controller struct {
	log    *logging.Logger
	buf    *ring.Buffer
	params Params
	mode   TranscriptionMode

	enabled bool
	cursor  *Cursor
	seq     int

	// word-break watch state (supplemented feature)
	speechRunStartAbs  uint64
	watchingBreak      bool
	breakGraceStartAbs uint64

	lookback *detect.LookbackRefiner

	onSegmentReady func(Segment)
	onDiagnostic   func(Diagnostic)
}

// New creates a controller bound to a ring buffer.
func New(buf *ring.Buffer, log *logging.Logger) *Controller {
	return &Controller{
		buf:      buf,
		params:   DefaultParams(),
		log:      log,
		lookback: detect.NewLookbackRefiner(lookbackWindowMS, lookbackBlockMS, lookbackThresholdDB),
	}
}

func (c *Controller) SetParams(p Params) { c.params = p }
func (c *Controller) OnSegmentReady(f func(Segment)) { c.onSegmentReady = f }
func (c *Controller) OnDiagnostic(f func(Diagnostic)) { c.onDiagnostic = f }

// SetEnabled implements the enable/disable rule: disabling
// drops any in-progress cursor without extracting a segment;
// re-enabling starts fresh.
func (c *Controller) SetEnabled(enabled bool) {
	if c.enabled && !enabled && c.cursor != nil {
		c.diag("cursor_dropped", "transcribe disabled with segment in progress")
		c.cursor = nil
	}
	c.enabled = enabled
}

func (c *Controller) Enabled() bool { return c.enabled }

// SetMode implements the mode-change policy: rejected while
// transcribe is active.
func (c *Controller) SetMode(mode TranscriptionMode) error {
	if c.enabled {
		return ferr.New("cannot change transcription mode while active").
			WithCode(ferr.CodeInvalidState).WithOperation("transcribe.SetMode")
	}
	c.mode = mode
	return nil
}

func (c *Controller) Mode() TranscriptionMode { return c.mode }

// OnSpeechStarted handles the Automatic-mode VAD trigger.
func (c *Controller) OnSpeechStarted() {
	if !c.enabled || c.mode != ModeAutomatic {
		return
	}
	c.openCursor(OriginVAD, c.params.VADLookbackMS)
	c.speechRunStartAbs = c.buf.Position()
	c.watchingBreak = false
}

// OnSpeechEnded handles the Automatic-mode VAD trigger.
func (c *Controller) OnSpeechEnded() {
	if !c.enabled || c.mode != ModeAutomatic || c.cursor == nil {
		return
	}
	c.finalize(c.buf.Position(), ReasonSpeechEnded)
}

// OnPTTPressed handles the PushToTalk-mode hotkey trigger. Ignored
// when transcribe is disabled.
func (c *Controller) OnPTTPressed() {
	if !c.enabled || c.mode != ModePushToTalk {
		return
	}
	c.openCursor(OriginPTT, c.params.PTTLookbackMS)
}

// OnPTTReleased handles the PushToTalk-mode hotkey trigger.
func (c *Controller) OnPTTReleased() {
	if !c.enabled || c.mode != ModePushToTalk || c.cursor == nil {
		return
	}
	c.finalize(c.buf.Position(), ReasonPTTReleased)
}

// openCursor opens a cursor at "now" moved earlier by c.lookback, which
// scans its more sensitive energy history back up to lookbackMS to find
// where speech actually began. start_abs always lands in
// [pos-lookbackMS, pos]: never later than pos, never earlier than the
// refiner's own window bound.
func (c *Controller) openCursor(origin CursorOrigin, lookbackMS int) {
	if c.cursor != nil {
		return // exactly one cursor may exist at a time
	}
	pos := c.buf.Position()
	refineMS := c.lookback.RefineBackMS(lookbackMS)
	backSamples := uint64(refineMS * 16) // 16 samples/ms at 16kHz
	start := uint64(0)
	if pos > backSamples {
		start = pos - backSamples
	}
	start = c.buf.ClampToOldest(start)
	c.cursor = &Cursor{StartAbs: start, Origin: origin, CreatedAt: time.Now()}
}

// OnRingBufferWrite must be called by the audio loop after every ring
// buffer write, giving the controller a chance to detect overflow risk
// and the word-break watch window (the overflow split plus
// the supplemented word-break feature). blockRMSDB is the just-written
// block's RMS in dB, pushed into the lookback refiner unconditionally
// so its history stays warm even while no cursor is open.
func (c *Controller) OnRingBufferWrite(coarseSpeechActive bool, blockRMSDB float64) {
	c.lookback.Push(blockRMSDB)

	if c.cursor == nil {
		return
	}
	pos := c.buf.Position()

	if c.buf.IsApproachingOverflow(c.cursor.StartAbs, c.params.OverflowThreshold) {
		c.overflowSplit(pos)
		return
	}

	if c.mode != ModeAutomatic || c.params.MaxSegmentMS <= 0 {
		return
	}
	runMS := int((pos - c.speechRunStartAbs) / 16)
	if !c.watchingBreak && runMS >= c.params.MaxSegmentMS {
		c.watchingBreak = true
		c.breakGraceStartAbs = pos
	}
	if c.watchingBreak {
		if !coarseSpeechActive {
			origin := c.cursor.Origin
			c.finalize(pos, ReasonWordBreak)
			c.cursor = &Cursor{StartAbs: pos, Origin: origin, CreatedAt: time.Now()}
			c.speechRunStartAbs = pos
			c.watchingBreak = false
			return
		}
		graceMS := int((pos - c.breakGraceStartAbs) / 16)
		if graceMS >= c.params.WordBreakGraceMS {
			origin := c.cursor.Origin
			c.finalize(pos, ReasonWordBreak)
			c.cursor = &Cursor{StartAbs: pos, Origin: origin, CreatedAt: time.Now()}
			c.speechRunStartAbs = pos
			c.watchingBreak = false
		}
	}
}

// overflowSplit implements the overflow-split policy
// exactly: finalize at write_abs, then reopen a continuation cursor at
// write_abs with no lookback, preserving the segment's mode origin.
func (c *Controller) overflowSplit(pos uint64) {
	origin := c.cursor.Origin
	c.finalize(pos, ReasonOverflowSplit)
	c.cursor = &Cursor{StartAbs: pos, Origin: origin, CreatedAt: time.Now()}
}

// finalize extracts [cursor.StartAbs, end) from the ring buffer,
// validates it, writes a WAV, and hands it to onSegmentReady, per
// the finalization contract plus the supplemented validity
// gate from original_source/transcribe_state.rs.
func (c *Controller) finalize(end uint64, reason FinalizeReason) {
	cursor := c.cursor
	c.cursor = nil
	if cursor == nil || end <= cursor.StartAbs {
		return
	}

	samples, err := c.buf.ReadRange(cursor.StartAbs, end)
	if err != nil {
		c.diag("segment_lost", "ring buffer read failed: "+err.Error())
		return
	}

	durationMS := len(samples) * 1000 / 16000
	if durationMS < c.params.MinSegmentMS || rms(samples) < c.params.MinSegmentRMS {
		c.diag("segment_dropped", "segment below validity threshold")
		return
	}

	c.seq++
	seg := Segment{
		ID:         uuid.NewString(),
		StartAbs:   cursor.StartAbs,
		EndAbs:     end,
		Samples:    samples,
		SampleRate: 16000,
		Reason:     reason,
	}

	if c.params.RecordingsDir != "" {
		path, err := RecordingPath(c.params.RecordingsDir, time.Now(), c.seq)
		if err == nil {
			if err := WriteWAV(path, samples, seg.SampleRate); err == nil {
				seg.WAVPath = path
			} else {
				c.diag("wav_write_failed", err.Error())
			}
		} else {
			c.diag("wav_write_failed", err.Error())
		}
	}

	if c.onSegmentReady != nil {
		c.onSegmentReady(seg)
	}
}

func rms(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func (c *Controller) diag(kind, msg string) {
	if c.onDiagnostic != nil {
		c.onDiagnostic(Diagnostic{Kind: kind, Message: msg})
	}
	c.log.Warn("transcribe diagnostic", "kind", kind, "message", msg)
}
