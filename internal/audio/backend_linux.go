//go:build linux

package audio

import (
	"strings"

	"github.com/gordonklaus/portaudio"

	"github.com/flowstt/core/internal/logging"
)

// NewBackend returns the Linux capture backend. PipeWire (and its ALSA
// compatibility layer, which is what PortAudio talks to) exposes a
// sink's monitor as a regular input-capable device named with a
// ".monitor" suffix; sinks' monitor ports classify as System and
// sources as Input, approximated here with a name-based heuristic
// rather than a native PipeWire node-graph binding (see DESIGN.md).
func NewBackend(log *logging.Logger) Backend {
	return newPortaudioEngine(log, classifyLinuxDevice)
}

func classifyLinuxDevice(d *portaudio.DeviceInfo) Kind {
	name := strings.ToLower(d.Name)
	if strings.HasSuffix(name, ".monitor") || strings.Contains(name, "monitor of") {
		return KindSystem
	}
	return KindInput
}
