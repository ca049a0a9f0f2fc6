//go:build darwin

package audio

import (
	"strings"

	"github.com/gordonklaus/portaudio"

	"github.com/flowstt/core/internal/logging"
)

// NewBackend returns the macOS capture backend. True system-audio
// capture on macOS goes through Core Audio Taps (macOS >= 14.2) or
// ScreenCaptureKit (12.3-14.1), both of which require dedicated
// CoreAudio/AVFoundation bindings not present anywhere in the retrieved
// corpus. FlowSTT classifies PortAudio-visible aggregate/loopback
// devices (as commonly installed via BlackHole or a Multi-Output
// aggregate device) as System; genuinely tap-free capture of arbitrary
// process output is out of reach without the native binding. See
// DESIGN.md.
func NewBackend(log *logging.Logger) Backend {
	return newPortaudioEngine(log, classifyDarwinDevice)
}

func classifyDarwinDevice(d *portaudio.DeviceInfo) Kind {
	name := strings.ToLower(d.Name)
	if strings.Contains(name, "blackhole") || strings.Contains(name, "loopback") ||
		strings.Contains(name, "aggregate") || strings.Contains(name, "soundflower") {
		return KindSystem
	}
	return KindInput
}
