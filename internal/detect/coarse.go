package detect

import (
	webrtcvad "github.com/maxhawkins/go-webrtcvad"

	"github.com/flowstt/core/internal/ferr"
)

// Coarse wraps github.com/maxhawkins/go-webrtcvad as a supplementary
// signal alongside the RMS/ZCR/centroid classifier. It never
// participates in the classification precedence or the hysteresis
// state machine; its only use is driving the word-break segmentation
// supplement. Adapted from a webrtcvad
// wrapper pattern, trimmed to the 16kHz-only path FlowSTT needs.
type Coarse struct {
	vad        *webrtcvad.VAD
	sampleRate int
	frameSize  int
}

// NewCoarse constructs a coarse detector at the given aggressiveness
// mode (0-3, WebRTC VAD convention) for 16kHz mono audio.
func NewCoarse(mode int) (*Coarse, error) {
	if mode < 0 || mode > 3 {
		mode = 2
	}
	v, err := webrtcvad.New()
	if err != nil {
		return nil, ferr.Wrap(err, "create webrtc vad failed").WithCode(ferr.CodeCaptureFailed)
	}
	if err := v.SetMode(mode); err != nil {
		return nil, ferr.Wrap(err, "set webrtc vad mode failed").WithCode(ferr.CodeInvalidState)
	}
	const sr = 16000
	return &Coarse{vad: v, sampleRate: sr, frameSize: sr / 100}, nil
}

// Active reports whether a 10ms mono 16kHz block contains speech per
// WebRTC's coarse energy/spectral heuristic.
func (c *Coarse) Active(block []float32) (bool, error) {
	frame := make([]int16, c.frameSize)
	n := len(block)
	if n > c.frameSize {
		n = c.frameSize
	}
	for i := 0; i < n; i++ {
		s := block[i]
		if s > 1 {
			s = 1
		}
		if s < -1 {
			s = -1
		}
		frame[i] = int16(s * 32767)
	}

	bytes := make([]byte, len(frame)*2)
	for i, s := range frame {
		bytes[i*2] = byte(s)
		bytes[i*2+1] = byte(s >> 8)
	}
	active, err := c.vad.Process(c.sampleRate, bytes)
	if err != nil {
		return false, ferr.Wrap(err, "webrtc vad process failed").WithCode(ferr.CodeCaptureFailed)
	}
	return active, nil
}
