package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/flowstt/core/internal/ferr"
	"github.com/flowstt/core/internal/hotkey"
	"github.com/flowstt/core/internal/mixer"
	"github.com/flowstt/core/internal/transcribe"
)

func TestDefaultProducesLoadableConfig(t *testing.T) {
	cfg := Default()
	if cfg.General.LogLevel != "info" {
		t.Fatalf("LogLevel = %q, want info", cfg.General.LogLevel)
	}
	if cfg.Controller.RingBufferSeconds != 30 {
		t.Fatalf("RingBufferSeconds = %d, want 30", cfg.Controller.RingBufferSeconds)
	}
	if cfg.Mixer.RecordingMode() != mixer.ModeMixed {
		t.Fatalf("RecordingMode = %v, want ModeMixed", cfg.Mixer.RecordingMode())
	}
}

func TestMixerConfigRecordingModeEchoCancel(t *testing.T) {
	cfg := MixerConfig{Mode: "echo_cancel"}
	if cfg.RecordingMode() != mixer.ModeEchoCancel {
		t.Fatalf("RecordingMode() = %v, want ModeEchoCancel", cfg.RecordingMode())
	}
}

func TestControllerConfigModePushToTalk(t *testing.T) {
	cfg := ControllerConfig{TranscriptionMode: "push_to_talk"}
	if cfg.Mode() != transcribe.ModePushToTalk {
		t.Fatalf("Mode() = %v, want ModePushToTalk", cfg.Mode())
	}
}

func TestControllerConfigModeDefaultsToAutomatic(t *testing.T) {
	cfg := ControllerConfig{TranscriptionMode: "bogus"}
	if cfg.Mode() != transcribe.ModeAutomatic {
		t.Fatalf("Mode() = %v, want ModeAutomatic", cfg.Mode())
	}
}

func TestPTTKeyFallsBackToDefaultOnUnknownName(t *testing.T) {
	cfg := Config{Hotkey: HotkeyConfig{Key: "not_a_real_key"}}
	if cfg.PTTKey() != hotkey.DefaultKey {
		t.Fatalf("PTTKey() = %v, want %v", cfg.PTTKey(), hotkey.DefaultKey)
	}
}

func TestLoadTOMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[general]
log_level = "debug"
listen_addr = "127.0.0.1:9999"

[mixer]
mode = "echo_cancel"
aec_enabled = false
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.General.LogLevel)
	}
	if cfg.General.ListenAddr != "127.0.0.1:9999" {
		t.Fatalf("ListenAddr = %q, want 127.0.0.1:9999", cfg.General.ListenAddr)
	}
	if cfg.Mixer.AECEnabled {
		t.Fatalf("AECEnabled = true, want false")
	}
}

func TestLoadYAMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "general:\n  log_level: warn\ncontroller:\n  transcribe_enabled: true\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.LogLevel != "warn" {
		t.Fatalf("LogLevel = %q, want warn", cfg.General.LogLevel)
	}
	if !cfg.Controller.TranscribeEnabled {
		t.Fatalf("TranscribeEnabled = false, want true")
	}
}

func TestLoadMissingFileReturnsConfigError(t *testing.T) {
	_, err := Load("/nonexistent/path/config.toml")
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
	if code := ferr.GetCode(err); code != ferr.CodeConfigError {
		t.Fatalf("GetCode(err) = %v, want CodeConfigError", code)
	}
}
