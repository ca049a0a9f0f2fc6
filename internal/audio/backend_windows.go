//go:build windows

package audio

import (
	"strings"

	"github.com/gordonklaus/portaudio"

	"github.com/flowstt/core/internal/logging"
)

// NewBackend returns the Windows capture backend. It does not open
// WASAPI loopback mode itself: PortAudio's WASAPI host API surfaces
// loopback-capable render devices as input-capable devices whose name
// PortAudio suffixes with "(loopback)", and this heuristic classifies
// those (and "Stereo Mix") as System and everything else
// input-capable as Input. A native WASAPI binding that
// opens loopback via IAudioClient::Initialize(AUDCLNT_STREAMFLAGS_LOOPBACK)
// directly would remove this naming dependency; see DESIGN.md.
func NewBackend(log *logging.Logger) Backend {
	return newPortaudioEngine(log, classifyWindowsDevice)
}

func classifyWindowsDevice(d *portaudio.DeviceInfo) Kind {
	name := strings.ToLower(d.Name)
	if strings.Contains(name, "loopback") || strings.Contains(name, "stereo mix") {
		return KindSystem
	}
	return KindInput
}
