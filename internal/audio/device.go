// Package audio implements FlowSTT's multi-source capture backend and
// its resampler. It generalizes a single-stream
// github.com/gordonklaus/portaudio wrapper, which opened a single
// default mono input stream, into a device-enumerating, dual-source,
// stereo 48 kHz backend with per-OS loopback classification.
package audio

// Kind distinguishes microphone-class sources from loopback/monitor
// sources.
type Kind int

const (
	KindInput Kind = iota
	KindSystem
)

func (k Kind) String() string {
	if k == KindSystem {
		return "system"
	}
	return "input"
}

// Device is a platform-opaque capture source descriptor. ID is unique
// per enumeration pass but is not guaranteed stable across enumerations.
type Device struct {
	ID   string
	Name string
	Kind Kind
}

// TargetSampleRate is the fixed rate all backends normalize to before
// publishing samples.
const TargetSampleRate = 48000

// TargetChannels is the fixed channel count all backends normalize to.
const TargetChannels = 2

// StreamSamples is a single capture-thread -> mixer message. Channels
// are always TargetChannels, interleaved.
type StreamSamples struct {
	Samples    []float32
	SourceRate int
	IsLoopback bool
}

// AudioFrame is the mixer's fixed processing granularity: 10ms @ 48kHz
// stereo = 480 frames = 960 interleaved float32 samples ().
const (
	FrameDurationMS  = 10
	FramesPerAudioFrame = TargetSampleRate * FrameDurationMS / 1000 // 480
	SamplesPerAudioFrame = FramesPerAudioFrame * TargetChannels     // 960
)
