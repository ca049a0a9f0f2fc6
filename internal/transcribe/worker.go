package transcribe

import (
	"context"
	"time"

	"github.com/flowstt/core/internal/ferr"
	"github.com/flowstt/core/internal/logging"
)

// TranscriptionResult is the worker's output for one completed segment,
// the transcription-complete/transcription-error events
// collapsed into a single struct with an Err field.
type TranscriptionResult struct {
	Segment Segment
	Text    string
	Err     error
}

const queueCapacity = 32

// transcriber is the seam Worker depends on, narrowed to the one
// method the worker needs. *Engine satisfies it; tests substitute a
// fake to avoid shelling out to a real whisper binary.
type transcriber interface {
	TranscribeFile(ctx context.Context, path string) (string, error)
}

// Worker is a single-threaded FIFO consumer that invokes the external
// Whisper engine synchronously per segment, never in parallel, driven
// by a single background goroutine reading from one channel.
type Worker struct {
	log     *logging.Logger
	engine  transcriber
	queue   chan Segment
	results func(TranscriptionResult)
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWorker loads the engine context once, per the "engine
// context is loaded once at worker start". A missing/invalid model
// surfaces immediately from NewWorker rather than crashing later.
func NewWorker(modelPath, language string, log *logging.Logger, onResult func(TranscriptionResult)) (*Worker, error) {
	engine, err := NewEngine(modelPath, language)
	if err != nil {
		return nil, err
	}
	return newWorker(engine, log, onResult), nil
}

func newWorker(engine transcriber, log *logging.Logger, onResult func(TranscriptionResult)) *Worker {
	return &Worker{
		log:     log,
		engine:  engine,
		queue:   make(chan Segment, queueCapacity),
		results: onResult,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start spawns the single consumer goroutine.
func (w *Worker) Start() {
	go w.run()
}

// enqueueBlockDuration bounds how long Enqueue waits for room before
// falling back to drop-oldest, per : "block the audio loop
// for up to 50 ms then drop the oldest queued segment and insert the
// new one".
const enqueueBlockDuration = 50 * time.Millisecond

// Enqueue submits a finalized segment onto the bounded transcription
// queue. If the queue is full it blocks the caller (the audio loop)
// for up to enqueueBlockDuration; if still full afterward, it drops
// the oldest queued segment and inserts the new one, preferring
// recency, and reports queue_full for the dropped segment.
func (w *Worker) Enqueue(seg Segment) {
	select {
	case w.queue <- seg:
		return
	default:
	}

	timer := time.NewTimer(enqueueBlockDuration)
	defer timer.Stop()
	select {
	case w.queue <- seg:
		return
	case <-timer.C:
	}

	select {
	case dropped := <-w.queue:
		w.log.Warn("transcription queue full, dropping oldest segment", "segment_id", dropped.ID)
		if w.results != nil {
			w.results(TranscriptionResult{
				Segment: dropped,
				Err: ferr.New("transcription queue full").
					WithCode(ferr.CodeQueueFull).WithOperation("transcribe.Worker.Enqueue"),
			})
		}
	default:
	}

	select {
	case w.queue <- seg:
	default:
		w.log.Warn("transcription queue full after drop, discarding new segment", "segment_id", seg.ID)
	}
}

func (w *Worker) run() {
	defer close(w.doneCh)
	for {
		select {
		case <-w.stopCh:
			return
		case seg, ok := <-w.queue:
			if !ok {
				return
			}
			w.process(seg)
		}
	}
}

// process invokes the engine synchronously and reports the outcome.
// A failed invocation never aborts the worker: it emits
// transcription-error and continues to the next segment.
func (w *Worker) process(seg Segment) {
	if seg.WAVPath == "" {
		w.report(seg, "", ferr.New("segment has no WAV file to transcribe").
			WithCode(ferr.CodeTranscriptionFailed).WithOperation("transcribe.Worker.process"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	text, err := w.engine.TranscribeFile(ctx, seg.WAVPath)
	if err != nil {
		w.log.LogError("transcription failed", err)
		w.report(seg, "", err)
		return
	}
	w.report(seg, text, nil)
}

func (w *Worker) report(seg Segment, text string, err error) {
	if w.results != nil {
		w.results(TranscriptionResult{Segment: seg, Text: text, Err: err})
	}
}

// Stop signals the consumer to exit after its current segment and
// blocks until it has.
func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.doneCh
}
