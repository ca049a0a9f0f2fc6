// Package loop wires the single "audio loop" thread: it owns the
// mixer, detector, ring buffer, and segment controller, and polls the
// capture backend and hotkey backend on a fixed tick, so that the
// mixer, detector, ring buffer, and controller are only ever touched
// from one goroutine while the transcription worker runs on its own.
// Grounded on the ticking select loop pattern common to single-thread
// realtime audio pipelines, which drive downstream classification and
// dispatch off one goroutine reading capture callbacks.
package loop

import (
	"context"
	"os"
	"time"

	"github.com/flowstt/core/internal/audio"
	"github.com/flowstt/core/internal/config"
	"github.com/flowstt/core/internal/detect"
	"github.com/flowstt/core/internal/ferr"
	"github.com/flowstt/core/internal/history"
	"github.com/flowstt/core/internal/hotkey"
	"github.com/flowstt/core/internal/ipc"
	"github.com/flowstt/core/internal/logging"
	"github.com/flowstt/core/internal/mixer"
	"github.com/flowstt/core/internal/ring"
	"github.com/flowstt/core/internal/transcribe"
	"github.com/flowstt/core/internal/viz"
)

const tickInterval = 10 * time.Millisecond

// Orchestrator implements ipc.Controller and runs the audio loop. It
// is the single owner of every component that must be thread-confined
// to the audio loop.
type Orchestrator struct {
	log *logging.Logger

	snapshot *config.Snapshot
	backend  audio.Backend
	hotkeyBE hotkey.Backend
	mixer    *mixer.Mixer
	tracker  *detect.Tracker
	coarse   *detect.Coarse
	buf      *ring.Buffer
	ctrl     *transcribe.Controller
	worker   *transcribe.Worker
	vizProc  *viz.Processor
	hub      *ipc.Hub
	hist     *history.Store
	toMono16 *audio.Resampler

	primaryID   string
	secondaryID string

	cmdCh  chan loopCommand
	stopCh chan struct{}
	doneCh chan struct{}
}

// loopCommand carries a GUI-issued configuration change onto the audio
// loop thread. Every field the mixer and controller expose setters for
// is otherwise plain, unsynchronized state read every tick, so
// ipc.Server's HTTP handler goroutines must never call those setters
// directly; they queue a loopCommand instead and block on done until
// the loop's own goroutine has run it.
type loopCommand struct {
	fn   func() error
	done chan error
}

// Deps bundles everything an Orchestrator needs but does not itself
// construct, so main.go stays a thin wiring layer.
type Deps struct {
	Log      *logging.Logger
	Snapshot *config.Snapshot
	Backend  audio.Backend
	HotkeyBE hotkey.Backend
	Hub      *ipc.Hub
	History  *history.Store
	Worker   *transcribe.Worker
}

// New builds an Orchestrator from the current config snapshot.
func New(d Deps) *Orchestrator {
	cfg := d.Snapshot.Load()

	buf := ring.New(cfg.Controller.RingBufferSeconds * 16000)
	ctrl := transcribe.New(buf, d.Log.With(logging.F("component", "controller")))
	ctrl.SetParams(transcribe.Params{
		VADLookbackMS:     cfg.Controller.VADLookbackMS,
		PTTLookbackMS:     cfg.Controller.PTTLookbackMS,
		OverflowThreshold: cfg.Controller.OverflowThreshold,
		RecordingsDir:     cfg.Controller.RecordingsDir,
		MinSegmentMS:      transcribe.DefaultParams().MinSegmentMS,
		MinSegmentRMS:     transcribe.DefaultParams().MinSegmentRMS,
		MaxSegmentMS:      transcribe.DefaultParams().MaxSegmentMS,
		WordBreakGraceMS:  transcribe.DefaultParams().WordBreakGraceMS,
	})
	ctrl.SetMode(cfg.Controller.Mode())
	ctrl.SetEnabled(cfg.Controller.TranscribeEnabled)

	m := mixer.New(d.Log.With(logging.F("component", "mixer")))
	m.SetAECEnabled(cfg.Mixer.AECEnabled)
	m.SetMode(cfg.Mixer.RecordingMode())

	o := &Orchestrator{
		log:         d.Log,
		snapshot:    d.Snapshot,
		backend:     d.Backend,
		hotkeyBE:    d.HotkeyBE,
		mixer:       m,
		tracker:     detect.NewTracker(cfg.Detector),
		coarse:      newCoarseOrNil(d.Log),
		buf:         buf,
		ctrl:        ctrl,
		worker:      d.Worker,
		vizProc:     viz.NewProcessor(audio.TargetSampleRate),
		hub:         d.Hub,
		hist:        d.History,
		toMono16:    audio.NewResampler(audio.TargetSampleRate, 16000, 1),
		primaryID:   cfg.Sources.PrimaryID,
		secondaryID: cfg.Sources.SecondaryID,
		cmdCh:       make(chan loopCommand, 16),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}

	ctrl.OnSegmentReady(o.onSegmentReady)
	ctrl.OnDiagnostic(o.onDiagnostic)

	return o
}

// newCoarseOrNil builds the supplementary webrtcvad-backed detector
// that drives the word-break watch's speech-active signal. Its absence
// is non-fatal: the word-break watch falls back to always treating the
// run as still-speaking, so the word-break split then happens only when
// the WordBreakGraceMS grace period runs out, unless the hysteresis
// tracker's speech-ended finalizes the segment first.
func newCoarseOrNil(log *logging.Logger) *detect.Coarse {
	c, err := detect.NewCoarse(2)
	if err != nil {
		log.Warn("coarse VAD unavailable, word-break watch degrades to threshold-only", "error", err.Error())
		return nil
	}
	return c
}

// Start launches the audio loop goroutine and, if configured, opens
// the initial capture sources and hotkey backend.
func (o *Orchestrator) Start() error {
	if o.primaryID != "" || o.secondaryID != "" {
		if err := o.backend.StartCaptureSources(o.primaryID, o.secondaryID); err != nil {
			return err
		}
	}
	if o.hotkeyBE != nil {
		if err := o.hotkeyBE.Start(o.snapshot.Load().PTTKey()); err != nil {
			o.log.Warn("push-to-talk hotkey unavailable", "error", err.Error())
		}
	}
	go o.run()
	return nil
}

// Stop halts the loop, the capture backend, and the worker, in that
// order. Idempotent.
func (o *Orchestrator) Stop() {
	select {
	case <-o.stopCh:
		return
	default:
		close(o.stopCh)
	}
	<-o.doneCh
	o.backend.StopCapture()
	if o.hotkeyBE != nil {
		o.hotkeyBE.Stop()
	}
	if o.worker != nil {
		o.worker.Stop()
	}
}

func (o *Orchestrator) run() {
	defer close(o.doneCh)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-o.stopCh:
			return
		case <-ticker.C:
			o.tick()
		}
	}
}

// execute queues fn to run on the audio loop's own goroutine and blocks
// until it has, returning fn's result. Used by every setter that
// touches mixer/controller state so those fields stay thread-confined
// to the loop despite being called from ipc.Server's HTTP handler
// goroutines.
func (o *Orchestrator) execute(fn func() error) error {
	done := make(chan error, 1)
	select {
	case o.cmdCh <- loopCommand{fn: fn, done: done}:
	case <-o.stopCh:
		return ferr.New("orchestrator stopped").WithCode(ferr.CodeInvalidState).WithOperation("loop.execute")
	}
	select {
	case err := <-done:
		return err
	case <-o.stopCh:
		return ferr.New("orchestrator stopped").WithCode(ferr.CodeInvalidState).WithOperation("loop.execute")
	}
}

// drainCommands runs every queued loopCommand before the tick touches
// the mixer/controller, so a GUI-issued change takes effect no later
// than the very frame it was requested in.
func (o *Orchestrator) drainCommands() {
	for {
		select {
		case cmd := <-o.cmdCh:
			cmd.done <- cmd.fn()
		default:
			return
		}
	}
}

// tick drains everything the backend and hotkey have queued since the
// last tick: capture -> mixer -> 48kHz mono -> viz, then the 16kHz
// downsample -> ring buffer -> controller -> detector, and finally
// the hotkey events.
func (o *Orchestrator) tick() {
	o.drainCommands()
	o.checkCaptureError()

	for {
		s, ok := o.backend.TryRecv()
		if !ok {
			break
		}
		if s.IsLoopback {
			o.mixer.FeedLoopback(s)
		} else {
			o.mixer.FeedMic(s)
		}
	}

	detectCfg := o.snapshot.Load().Detector

	for _, stereoFrame := range o.mixer.Drain() {
		mono48 := audio.StereoToMono(stereoFrame)
		mono16 := o.toMono16.Process(mono48)

		payload := o.vizProc.Process(mono48)
		var spec []byte
		if payload.Spectrogram != nil {
			spec = make([]byte, 0, len(payload.Spectrogram.Colors)*3)
			for _, c := range payload.Spectrogram.Colors {
				spec = append(spec, c.R, c.G, c.B)
			}
		}
		o.hub.Publish(ipc.Event{
			Kind:    ipc.EventVisualizationData,
			Payload: ipc.VisualizationDataPayload{Waveform: payload.Waveform, Spectrogram: spec},
		})

		if len(mono16) == 0 {
			continue
		}

		o.buf.Write(mono16)
		feats := detect.ComputeFeatures(mono16, 16000)
		o.ctrl.OnRingBufferWrite(o.coarseSpeechActive(mono16), feats.RMSdB)

		class := detect.Classify(feats, detectCfg)
		transient := detect.IsTransient(feats, detectCfg)
		blockMS := len(mono16) * 1000 / 16000
		ev, durationMS := o.tracker.Update(class, transient, blockMS)
		o.handleTrackerEvent(ev, durationMS)
	}

	if o.hotkeyBE != nil {
		for {
			evKind, ok := o.hotkeyBE.TryRecv()
			if !ok {
				break
			}
			o.handleHotkeyEvent(evKind)
		}
	}
}

// checkCaptureError polls the backend once per tick for a capture
// thread that gave up after too many consecutive read errors, and
// republishes it as a capture-state-changed event with its error
// detail so the GUI can surface it; the audio loop keeps running on
// whatever source, if any, is still alive.
func (o *Orchestrator) checkCaptureError() {
	err := o.backend.CaptureError()
	if err == nil {
		return
	}
	o.log.LogError("capture thread aborted", err)
	o.hub.Publish(ipc.Event{
		Kind:    ipc.EventCaptureStateChanged,
		Payload: ipc.CaptureStateChangedPayload{Capturing: false, Error: err.Error()},
	})
}

// coarseSpeechActive answers the word-break watch's question ("is the
// speaker still going, or did they pause?") using the webrtcvad
// supplement rather than the mandated hysteresis tracker, since the
// tracker's own Hold state is exactly the multi-hundred-ms lag the
// word-break watch needs to see through.
func (o *Orchestrator) coarseSpeechActive(mono16 []float32) bool {
	if o.coarse == nil {
		return true
	}
	active, err := o.coarse.Active(mono16)
	if err != nil {
		return true
	}
	return active
}

func (o *Orchestrator) handleTrackerEvent(ev detect.Event, durationMS int) {
	switch ev {
	case detect.EventSpeechStarted:
		o.ctrl.OnSpeechStarted()
		o.hub.Publish(ipc.Event{Kind: ipc.EventSpeechStarted, Payload: ipc.SpeechStartedPayload{Origin: "vad"}})
	case detect.EventSpeechEnded:
		o.ctrl.OnSpeechEnded()
		o.hub.Publish(ipc.Event{Kind: ipc.EventSpeechEnded, Payload: ipc.SpeechEndedPayload{DurationMS: durationMS}})
	}
}

func (o *Orchestrator) handleHotkeyEvent(ev hotkey.EventKind) {
	switch ev {
	case hotkey.EventPressed:
		o.ctrl.OnPTTPressed()
		o.hub.Publish(ipc.Event{Kind: ipc.EventPTTPressed})
	case hotkey.EventReleased:
		o.ctrl.OnPTTReleased()
		o.hub.Publish(ipc.Event{Kind: ipc.EventPTTReleased})
	}
}

func (o *Orchestrator) onSegmentReady(seg transcribe.Segment) {
	if o.worker == nil {
		o.log.Warn("segment ready but no transcription worker configured, discarding", "segment_id", seg.ID)
		return
	}
	o.worker.Enqueue(seg)
}

func (o *Orchestrator) onDiagnostic(d transcribe.Diagnostic) {
	o.hub.Publish(ipc.Event{Kind: ipc.EventDiagnostic, Payload: ipc.DiagnosticPayload{Kind: d.Kind, Message: d.Message}})
}

// OnTranscriptionResult is the logic behind the worker's onResult
// callback, which cmd/flowsttd/cmd/serve.go registers; it lives here so
// serve.go stays a thin wire-up.
func (o *Orchestrator) OnTranscriptionResult(r transcribe.TranscriptionResult) {
	if r.Err != nil {
		o.hub.Publish(ipc.Event{
			Kind: ipc.EventTranscriptionError,
			Payload: ipc.TranscriptionErrorPayload{SegmentID: r.Segment.ID, Message: r.Err.Error()},
		})
		return
	}
	o.hub.Publish(ipc.Event{
		Kind: ipc.EventTranscriptionComplete,
		Payload: ipc.TranscriptionCompletePayload{SegmentID: r.Segment.ID, Text: r.Text},
	})
	if o.hist != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		origin := "vad"
		if r.Segment.Reason == transcribe.ReasonPTTReleased {
			origin = "ptt"
		}
		if err := o.hist.Record(ctx, r.Segment, r.Text, origin); err != nil {
			o.log.LogError("failed to record transcription history", err)
		}
	}
}

// --- ipc.Controller implementation ---

func (o *Orchestrator) ListAllSources() []ipc.DeviceInfo {
	var out []ipc.DeviceInfo
	if inputs, err := o.backend.ListInputDevices(); err == nil {
		for _, d := range inputs {
			out = append(out, ipc.DeviceInfo{ID: d.ID, Name: d.Name, Kind: d.Kind})
		}
	}
	if systems, err := o.backend.ListSystemDevices(); err == nil {
		for _, d := range systems {
			out = append(out, ipc.DeviceInfo{ID: d.ID, Name: d.Name, Kind: d.Kind})
		}
	}
	return out
}

func (o *Orchestrator) SetSources(primaryID, secondaryID string) error {
	o.backend.StopCapture()
	if err := o.backend.StartCaptureSources(primaryID, secondaryID); err != nil {
		return err
	}
	o.primaryID, o.secondaryID = primaryID, secondaryID
	o.hub.Publish(ipc.Event{Kind: ipc.EventCaptureStateChanged, Payload: ipc.CaptureStateChangedPayload{Capturing: primaryID != "" || secondaryID != ""}})
	return nil
}

// SetTranscribeEnabled is called from ipc.Server's HTTP handler
// goroutines; it queues the change onto the audio loop rather than
// touching the controller directly, since Controller.enabled/cursor are
// otherwise read and mutated every tick with no locking.
func (o *Orchestrator) SetTranscribeEnabled(enabled bool) {
	o.execute(func() error {
		o.ctrl.SetEnabled(enabled)
		return nil
	})
}

// SetRecordingMode is called from ipc.Server's HTTP handler goroutines;
// it queues the change onto the audio loop rather than touching the
// mixer directly, since Mixer.mode is otherwise read every tick with no
// locking.
func (o *Orchestrator) SetRecordingMode(mode mixer.RecordingMode) error {
	return o.execute(func() error {
		if mode == mixer.ModeEchoCancel && (o.primaryID == "" || o.secondaryID == "") {
			return ferr.New("echo cancel requires two active sources").
				WithCode(ferr.CodeInvalidState).WithOperation("loop.SetRecordingMode")
		}
		o.mixer.SetMode(mode)
		return nil
	})
}

// SetAECEnabled is called from ipc.Server's HTTP handler goroutines; it
// queues the change onto the audio loop rather than touching the mixer
// directly, since Mixer.aecEnabled is otherwise read every tick with no
// locking.
func (o *Orchestrator) SetAECEnabled(enabled bool) {
	o.execute(func() error {
		o.mixer.SetAECEnabled(enabled)
		return nil
	})
}

// SetTranscriptionMode is called from ipc.Server's HTTP handler
// goroutines; it queues the change onto the audio loop rather than
// touching the controller directly, since Controller.mode is otherwise
// read every tick with no locking.
func (o *Orchestrator) SetTranscriptionMode(mode transcribe.TranscriptionMode) error {
	return o.execute(func() error {
		return o.ctrl.SetMode(mode)
	})
}

func (o *Orchestrator) SetPTTKey(key hotkey.KeyCode) error {
	if o.hotkeyBE == nil {
		return ferr.New("no hotkey backend configured").WithCode(ferr.CodeNotImplemented)
	}
	o.hotkeyBE.Stop()
	return o.hotkeyBE.Start(key)
}

func (o *Orchestrator) PTTStatus() ipc.PTTStatus {
	if o.hotkeyBE == nil {
		return ipc.PTTStatus{Available: false}
	}
	st := o.hotkeyBE.Status()
	return ipc.PTTStatus{Available: st.Available, State: stateFromStatus(st), Key: st.Key}
}

func stateFromStatus(st hotkey.Status) hotkey.RunState {
	if st.IsActive {
		return hotkey.StateRunning
	}
	return hotkey.StateStopped
}

func (o *Orchestrator) CheckModelStatus() ipc.ModelStatus {
	cfg := o.snapshot.Load()
	path := cfg.Transcription.ModelPath
	if path == "" {
		return ipc.ModelStatus{Available: false}
	}
	_, err := os.Stat(path)
	return ipc.ModelStatus{Available: err == nil, Path: path}
}

func (o *Orchestrator) AppReady() {
	o.log.Info("gui connected")
}

func (o *Orchestrator) AppDisconnect() {
	o.log.Info("gui disconnected, stopping capture")
	o.backend.StopCapture()
}
