package audio

import (
	"context"

	"github.com/gordonklaus/portaudio"

	"github.com/flowstt/core/internal/ferr"
	"github.com/flowstt/core/internal/logging"
)

// portaudioEngine holds the parts of a Backend shared by every per-OS
// implementation: all three OSes capture through
// github.com/gordonklaus/portaudio and differ only in how they classify
// enumerated devices into Input vs. System kind (classifyDevice,
// supplied per-OS). True native loopback mechanisms (Core Audio
// Taps/ScreenCaptureKit, WASAPI loopback mode, PipeWire monitor-port
// negotiation) have no Go bindings anywhere in the retrieved corpus;
// see DESIGN.md for the documented simplification.
type portaudioEngine struct {
	baseBackend
	classify func(*portaudio.DeviceInfo) Kind
}

func newPortaudioEngine(log *logging.Logger, classify func(*portaudio.DeviceInfo) Kind) *portaudioEngine {
	return &portaudioEngine{baseBackend: newBaseBackend(log), classify: classify}
}

func (e *portaudioEngine) listDevices(want Kind) ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, ferr.Wrap(err, "portaudio init failed").WithCode(ferr.CodeDeviceOpenFailed)
	}
	defer portaudio.Terminate()

	devs, err := portaudio.Devices()
	if err != nil {
		return nil, ferr.Wrap(err, "enumerate devices failed").WithCode(ferr.CodeDeviceOpenFailed)
	}

	var out []Device
	for _, d := range devs {
		if d.MaxInputChannels <= 0 {
			continue
		}
		if e.classify(d) != want {
			continue
		}
		out = append(out, Device{ID: d.Name, Name: d.Name, Kind: want})
	}
	return out, nil
}

func (e *portaudioEngine) ListInputDevices() ([]Device, error)  { return e.listDevices(KindInput) }
func (e *portaudioEngine) ListSystemDevices() ([]Device, error) { return e.listDevices(KindSystem) }

func (e *portaudioEngine) findByName(name string) (*portaudio.DeviceInfo, error) {
	devs, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, d := range devs {
		if d.Name == name && d.MaxInputChannels > 0 {
			return d, nil
		}
	}
	return nil, noSuchSource(name)
}

// StartCaptureSources opens up to two concurrent capture threads. An
// empty id for both means a no-op success.
func (e *portaudioEngine) StartCaptureSources(primaryID, secondaryID string) error {
	if primaryID == "" && secondaryID == "" {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return ferr.Wrap(err, "portaudio init failed").WithCode(ferr.CodeDeviceOpenFailed)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if primaryID != "" {
		if err := e.startOne(rolePrimary, primaryID); err != nil {
			return err
		}
	}
	if secondaryID != "" {
		if err := e.startOne(roleSecondary, secondaryID); err != nil {
			return err
		}
	}
	return nil
}

func (e *portaudioEngine) startOne(role sourceRole, id string) error {
	dev, err := e.findByName(id)
	if err != nil {
		return err
	}
	isLoopback := e.classify(dev) == KindSystem

	const framesPerBuffer = 480 // 10ms @ 48kHz
	channels := 1
	if dev.MaxInputChannels >= 2 {
		channels = 2
	}
	sampleRate := dev.DefaultSampleRate
	if sampleRate <= 0 {
		sampleRate = float64(TargetSampleRate)
	}

	buf := make([]float32, framesPerBuffer*channels)
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: channels,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      sampleRate,
		FramesPerBuffer: framesPerBuffer,
	}
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return ferr.Wrap(err, "open audio stream failed").
			WithCode(ferr.CodeDeviceOpenFailed).WithDetail("device", id)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return ferr.Wrap(err, "start audio stream failed").WithCode(ferr.CodeCaptureFailed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	handle := &sourceHandle{
		role:      role,
		device:    Device{ID: dev.Name, Name: dev.Name, Kind: e.classify(dev)},
		cancel:    cancel,
		done:      make(chan struct{}),
		resampler: NewResampler(int(sampleRate), TargetSampleRate, channels),
	}
	e.sources[role] = handle

	go e.captureLoop(ctx, stream, buf, channels, isLoopback, handle)
	return nil
}

// maxConsecutiveReadErrors bounds how many back-to-back stream.Read
// failures are tolerated as transient (device buffer underrun, brief
// driver hiccup) before the source is declared persistently broken.
const maxConsecutiveReadErrors = 20

// captureLoop runs on its own OS thread. The only work here is reading
// the callback buffer, converting to stereo f32 at 48kHz, and
// enqueueing: no logging, no allocation beyond the necessary per-batch
// copy, to respect the real-time discipline the callback needs.
// Persistent read errors (maxConsecutiveReadErrors in a row) exit the
// loop, record the failure on handle.captureErr, and close the
// handle's done channel; a single or occasional Read error is treated
// as transient and the loop just retries on the next iteration.
// Polling captureErr and raising capture-state-changed is the audio
// loop's job, not the callback's.
func (e *portaudioEngine) captureLoop(ctx context.Context, stream *portaudio.Stream, buf []float32, channels int, isLoopback bool, handle *sourceHandle) {
	defer close(handle.done)
	defer stream.Stop()
	defer stream.Close()

	consecutiveErrors := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := stream.Read(); err != nil {
			consecutiveErrors++
			if consecutiveErrors >= maxConsecutiveReadErrors {
				handle.captureErr.Store(ferr.Wrap(err, "capture stream read failed repeatedly").
					WithCode(ferr.CodeCaptureAborted).
					WithOperation("audio.captureLoop").
					WithDetail("device", handle.device.ID).
					WithDetail("consecutive_errors", consecutiveErrors))
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
				continue
			}
		}
		consecutiveErrors = 0

		frame := make([]float32, len(buf))
		copy(frame, buf)

		var stereo []float32
		if channels == 1 {
			stereo = MonoToStereo(frame)
		} else {
			stereo = frame
		}
		resampled := handle.resampler.Process(stereo)
		if len(resampled) == 0 {
			continue
		}

		e.publish(StreamSamples{
			Samples:    resampled,
			SourceRate: TargetSampleRate,
			IsLoopback: isLoopback,
		})
	}
}

func (e *portaudioEngine) StopCapture() error {
	e.stopAll()
	portaudio.Terminate()
	return nil
}
