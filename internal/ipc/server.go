package ipc

import (
	"encoding/json"
	"net/http"

	"github.com/flowstt/core/internal/ferr"
	"github.com/flowstt/core/internal/hotkey"
	"github.com/flowstt/core/internal/logging"
	"github.com/flowstt/core/internal/mixer"
	"github.com/flowstt/core/internal/transcribe"
)

// Controller is the seam between the GUI-facing HTTP surface and the
// audio-loop orchestration (internal/loop). It exposes exactly the
// request/response operations the GUI needs; the server never touches
// audio data directly, since the GUI thread issues commands only.
type Controller interface {
	ListAllSources() []DeviceInfo
	SetSources(primaryID, secondaryID string) error
	SetTranscribeEnabled(enabled bool)
	SetRecordingMode(mode mixer.RecordingMode) error
	SetAECEnabled(enabled bool)
	SetTranscriptionMode(mode transcribe.TranscriptionMode) error
	SetPTTKey(key hotkey.KeyCode) error
	PTTStatus() PTTStatus
	CheckModelStatus() ModelStatus
	AppReady()
	AppDisconnect()
}

// Server implements the GUI IPC surface: a net/http.ServeMux
// of JSON request/response endpoints, grounded on 
// ui.WebSettingsServer (settings_web.go), plus a websocket event
// stream at /events pushing the Hub's broadcasts.
type Server struct {
	log        *logging.Logger
	controller Controller
	hub        *Hub
	httpServer *http.Server
}

// NewServer builds the mux but does not start listening; call
// ListenAndServe.
func NewServer(controller Controller, log *logging.Logger) *Server {
	s := &Server{log: log, controller: controller, hub: newHub(log)}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/sources", s.handleListAllSources)
	mux.HandleFunc("/api/sources/set", s.handleSetSources)
	mux.HandleFunc("/api/transcribe/enabled", s.handleSetTranscribeEnabled)
	mux.HandleFunc("/api/recording-mode", s.handleSetRecordingMode)
	mux.HandleFunc("/api/aec", s.handleSetAECEnabled)
	mux.HandleFunc("/api/transcription-mode", s.handleSetTranscriptionMode)
	mux.HandleFunc("/api/ptt/key", s.handleSetPTTKey)
	mux.HandleFunc("/api/ptt/status", s.handleGetPTTStatus)
	mux.HandleFunc("/api/model-status", s.handleCheckModelStatus)
	mux.HandleFunc("/api/app-ready", s.handleAppReady)
	mux.HandleFunc("/api/app-disconnect", s.handleAppDisconnect)
	mux.HandleFunc("/events", s.hub.handleWebSocket)

	s.httpServer = &http.Server{Handler: mux}
	return s
}

// Hub returns the event hub so audio-loop callbacks can Publish onto
// it without a further layer of indirection.
func (s *Server) Hub() *Hub { return s.hub }

// ListenAndServe binds addr (e.g. "127.0.0.1:0") and serves until
// Shutdown/Close.
func (s *Server) ListenAndServe(addr string) error {
	s.httpServer.Addr = addr
	return s.httpServer.ListenAndServe()
}

func (s *Server) Close() error {
	return s.httpServer.Close()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := ferr.GetCode(err)
	switch code {
	case ferr.CodeInvalidState, ferr.CodeValidationFailed:
		status = http.StatusBadRequest
	case ferr.CodeDeviceNotFound:
		status = http.StatusNotFound
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: err.Error(), Code: string(code)})
}

func (s *Server) handleListAllSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.controller.ListAllSources())
}

func (s *Server) handleSetSources(w http.ResponseWriter, r *http.Request) {
	var req SetSourcesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.controller.SetSources(req.PrimaryID, req.SecondaryID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

func (s *Server) handleSetTranscribeEnabled(w http.ResponseWriter, r *http.Request) {
	var req SetTranscribeEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.controller.SetTranscribeEnabled(req.Enabled)
	writeJSON(w, map[string]bool{"ok": true})
}

func (s *Server) handleSetRecordingMode(w http.ResponseWriter, r *http.Request) {
	var req SetRecordingModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.controller.SetRecordingMode(req.Mode); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

func (s *Server) handleSetAECEnabled(w http.ResponseWriter, r *http.Request) {
	var req SetAECEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.controller.SetAECEnabled(req.Enabled)
	writeJSON(w, map[string]bool{"ok": true})
}

func (s *Server) handleSetTranscriptionMode(w http.ResponseWriter, r *http.Request) {
	var req SetTranscriptionModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.controller.SetTranscriptionMode(req.Mode); err != nil {
		writeError(w, err)
		return
	}
	s.hub.Publish(Event{Kind: EventTranscriptionModeChanged, Payload: TranscriptionModeChangedPayload{Mode: req.Mode}})
	writeJSON(w, map[string]bool{"ok": true})
}

func (s *Server) handleSetPTTKey(w http.ResponseWriter, r *http.Request) {
	var req SetPTTKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.controller.SetPTTKey(req.Key); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

func (s *Server) handleGetPTTStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.controller.PTTStatus())
}

func (s *Server) handleCheckModelStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.controller.CheckModelStatus())
}

func (s *Server) handleAppReady(w http.ResponseWriter, r *http.Request) {
	s.controller.AppReady()
	writeJSON(w, map[string]bool{"ok": true})
}

func (s *Server) handleAppDisconnect(w http.ResponseWriter, r *http.Request) {
	s.controller.AppDisconnect()
	writeJSON(w, map[string]bool{"ok": true})
}
