package detect

// Event is emitted by Tracker.Update on a state transition that the
// controller (C8) or GUI must react to.
type Event int

const (
	EventNone Event = iota
	EventSpeechStarted
	EventSpeechEnded
)

// SpeechState is the current classification and hysteresis progress
// for the audio-loop thread's speech state machine.
type SpeechState struct {
	State          State
	OnsetAccumMS   int
	HoldAccumMS    int
	Classification Classification
}

// Tracker implements the hysteresis state machine on top of
// per-block Classify results. One Tracker instance lives on the
// audio-loop thread for the lifetime of a capture session.
type Tracker struct {
	cfg   Config
	state SpeechState

	onsetMode      Classification // which mode opened the current onset
	sinceLastClass int            // ms since last non-None classification, for onset grace
	durationMS     int            // ms elapsed since speech-started, for speech-ended duration
}

// NewTracker creates a tracker with the given configuration. SetConfig
// may be called at any time to atomically swap thresholds without
// resetting in-progress state.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{cfg: cfg}
}

func (t *Tracker) SetConfig(cfg Config) { t.cfg = cfg }

func (t *Tracker) State() SpeechState { return t.state }

// Update advances the state machine by one 10ms block's classification
// result and returns any resulting Event plus the elapsed speech
// duration in ms (valid only when the event is EventSpeechEnded).
// transient marks blocks that tripped the transient-reject rule, which
// resets onset accumulators immediately, bypassing onset grace.
func (t *Tracker) Update(class Classification, transient bool, blockMS int) (Event, int) {
	t.state.Classification = class

	switch t.state.State {
	case StateSilence:
		if class != ClassNone {
			t.state.State = StateOnset
			t.onsetMode = class
			t.state.OnsetAccumMS = blockMS
			t.sinceLastClass = 0
		}
		return EventNone, 0

	case StateOnset:
		if class == ClassNone {
			if transient {
				t.state.State = StateSilence
				t.state.OnsetAccumMS = 0
				t.sinceLastClass = 0
				return EventNone, 0
			}
			t.sinceLastClass += blockMS
			if t.sinceLastClass > t.cfg.OnsetGraceMS {
				t.state.State = StateSilence
				t.state.OnsetAccumMS = 0
				return EventNone, 0
			}
			// within grace: accumulator holds, do not advance or reset
			return EventNone, 0
		}
		t.sinceLastClass = 0
		if class != t.onsetMode {
			// mode flip during onset restarts the onset window under the
			// new mode's threshold, matching the per-mode onset windows.
			t.onsetMode = class
			t.state.OnsetAccumMS = 0
		}
		t.state.OnsetAccumMS += blockMS
		window := t.cfg.VoicedOnsetMS
		if t.onsetMode == ClassWhisper {
			window = t.cfg.WhisperOnsetMS
		}
		if t.state.OnsetAccumMS >= window {
			t.state.State = StateSpeech
			t.durationMS = t.state.OnsetAccumMS
			t.state.OnsetAccumMS = 0
			return EventSpeechStarted, 0
		}
		return EventNone, 0

	case StateSpeech:
		t.durationMS += blockMS
		if class == ClassNone {
			t.state.State = StateHolding
			t.state.HoldAccumMS = blockMS
		}
		// mode flip (voiced<->whisper) while in Speech is allowed
		// without interruption.
		return EventNone, 0

	case StateHolding:
		t.durationMS += blockMS
		if class != ClassNone {
			t.state.State = StateSpeech
			t.state.HoldAccumMS = 0
			return EventNone, 0
		}
		t.state.HoldAccumMS += blockMS
		if t.state.HoldAccumMS >= t.cfg.HoldMS {
			t.state.State = StateSilence
			t.state.HoldAccumMS = 0
			duration := t.durationMS
			t.durationMS = 0
			return EventSpeechEnded, duration
		}
		return EventNone, 0
	}

	return EventNone, 0
}

// Reset returns the tracker to Silence, discarding all accumulators.
// Used when transcribe is disabled and re-enabled ().
func (t *Tracker) Reset() {
	t.state = SpeechState{}
	t.onsetMode = ClassNone
	t.sinceLastClass = 0
	t.durationMS = 0
}
