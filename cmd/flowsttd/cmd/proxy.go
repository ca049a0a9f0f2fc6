package cmd

import (
	"github.com/flowstt/core/internal/hotkey"
	"github.com/flowstt/core/internal/ipc"
	"github.com/flowstt/core/internal/loop"
	"github.com/flowstt/core/internal/mixer"
	"github.com/flowstt/core/internal/transcribe"
)

// controllerProxy satisfies ipc.Controller before the real
// *loop.Orchestrator exists, breaking the construction-order cycle
// between the IPC server (needs a Controller) and the orchestrator
// (needs the server's Hub). It is never called before orch is set:
// the server only starts accepting connections after runServe wires
// everything together.
type controllerProxy struct {
	orch *loop.Orchestrator
}

func (p *controllerProxy) ListAllSources() []ipc.DeviceInfo { return p.orch.ListAllSources() }
func (p *controllerProxy) SetSources(primaryID, secondaryID string) error {
	return p.orch.SetSources(primaryID, secondaryID)
}
func (p *controllerProxy) SetTranscribeEnabled(enabled bool) { p.orch.SetTranscribeEnabled(enabled) }
func (p *controllerProxy) SetRecordingMode(mode mixer.RecordingMode) error {
	return p.orch.SetRecordingMode(mode)
}
func (p *controllerProxy) SetAECEnabled(enabled bool) { p.orch.SetAECEnabled(enabled) }
func (p *controllerProxy) SetTranscriptionMode(mode transcribe.TranscriptionMode) error {
	return p.orch.SetTranscriptionMode(mode)
}
func (p *controllerProxy) SetPTTKey(key hotkey.KeyCode) error { return p.orch.SetPTTKey(key) }
func (p *controllerProxy) PTTStatus() ipc.PTTStatus            { return p.orch.PTTStatus() }
func (p *controllerProxy) CheckModelStatus() ipc.ModelStatus   { return p.orch.CheckModelStatus() }
func (p *controllerProxy) AppReady()                           { p.orch.AppReady() }
func (p *controllerProxy) AppDisconnect()                      { p.orch.AppDisconnect() }
