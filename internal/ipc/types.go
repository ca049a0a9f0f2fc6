// Package ipc implements the GUI-facing interface: a
// request/response HTTP API plus a push event stream, both served over
// a single net/http.ServeMux the way a settings web server serves its
// settings UI, with the event stream upgraded to
// github.com/gorilla/websocket rather than polling.
package ipc

import (
	"github.com/flowstt/core/internal/audio"
	"github.com/flowstt/core/internal/hotkey"
	"github.com/flowstt/core/internal/mixer"
	"github.com/flowstt/core/internal/transcribe"
)

// DeviceInfo mirrors the Device return type for
// list_all_sources.
type DeviceInfo struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Kind audio.Kind `json:"kind"`
}

// SetSourcesRequest is set_sources's request body. Either field may be
// empty to mean "no source of this role".
type SetSourcesRequest struct {
	PrimaryID   string `json:"primaryId"`
	SecondaryID string `json:"secondaryId"`
}

// SetTranscribeEnabledRequest is set_transcribe_enabled's body.
type SetTranscribeEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// SetRecordingModeRequest is set_recording_mode's body.
type SetRecordingModeRequest struct {
	Mode mixer.RecordingMode `json:"mode"`
}

// SetAECEnabledRequest is set_aec_enabled's body.
type SetAECEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// SetTranscriptionModeRequest is set_transcription_mode's body.
type SetTranscriptionModeRequest struct {
	Mode transcribe.TranscriptionMode `json:"mode"`
}

// SetPTTKeyRequest is set_ptt_key's body.
type SetPTTKeyRequest struct {
	Key hotkey.KeyCode `json:"key"`
}

// PTTStatus is get_ptt_status's response. State is StateRunning while
// the key is held and StateStopped otherwise (internal/loop derives it
// from the hotkey Status's IsActive). The hotkey Status's Mode and
// Error text are not carried.
type PTTStatus struct {
	Available bool          `json:"available"`
	State     hotkey.RunState `json:"state"`
	Key       hotkey.KeyCode  `json:"key"`
}

// ModelStatus is check_model_status's response.
type ModelStatus struct {
	Available bool   `json:"available"`
	Path      string `json:"path"`
}

// ErrorResponse is the JSON body written on any handler error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// EventKind names the events the Hub can push to a connected GUI.
type EventKind string

const (
	EventVisualizationData         EventKind = "visualization-data"
	EventSpeechStarted             EventKind = "speech-started"
	EventSpeechEnded               EventKind = "speech-ended"
	EventPTTPressed                EventKind = "ptt-pressed"
	EventPTTReleased               EventKind = "ptt-released"
	EventCaptureStateChanged       EventKind = "capture-state-changed"
	EventTranscriptionComplete     EventKind = "transcription-complete"
	EventTranscriptionError        EventKind = "transcription-error"
	EventTranscriptionModeChanged  EventKind = "transcription-mode-changed"
	EventDiagnostic                EventKind = "diagnostic"
)

// Event is the envelope pushed to every connected GUI client.
type Event struct {
	Kind    EventKind `json:"kind"`
	Payload any       `json:"payload,omitempty"`
}

// SpeechStartedPayload carries 's
// speech-started{duration_ms=null} — duration is always null/omitted
// at start, filled in only on speech-ended.
type SpeechStartedPayload struct {
	Origin string `json:"origin"`
}

type SpeechEndedPayload struct {
	DurationMS int `json:"durationMs"`
}

type CaptureStateChangedPayload struct {
	Capturing bool   `json:"capturing"`
	Error     string `json:"error,omitempty"`
}

type TranscriptionCompletePayload struct {
	SegmentID string `json:"segmentId"`
	Text      string `json:"text"`
}

type TranscriptionErrorPayload struct {
	SegmentID string `json:"segmentId"`
	Message   string `json:"msg"`
}

type TranscriptionModeChangedPayload struct {
	Mode transcribe.TranscriptionMode `json:"mode"`
}

type VisualizationDataPayload struct {
	Waveform    []float32 `json:"waveform"`
	Spectrogram []byte    `json:"spectrogram,omitempty"`
}

type DiagnosticPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
