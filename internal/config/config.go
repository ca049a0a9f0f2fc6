// Package config loads and hot-reloads FlowSTT's configuration,
// grounded on foundation/core/config (TOML primary via BurntSushi/toml,
// YAML alternate via gopkg.in/yaml.v3) and upgraded to fsnotify-based
// reload (see SPEC_FULL.md's AMBIENT STACK section for the rationale).
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/flowstt/core/internal/detect"
	"github.com/flowstt/core/internal/ferr"
	"github.com/flowstt/core/internal/hotkey"
	"github.com/flowstt/core/internal/mixer"
	"github.com/flowstt/core/internal/transcribe"
)

// Format selects the on-disk config syntax.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

// Sources selects the active capture devices by platform-opaque id.
type Sources struct {
	PrimaryID   string `toml:"primary_id" yaml:"primary_id"`
	SecondaryID string `toml:"secondary_id" yaml:"secondary_id"`
}

// MixerConfig mirrors the RecordingMode plus AEC toggle.
type MixerConfig struct {
	Mode       string `toml:"mode" yaml:"mode"` // "mixed" | "echo_cancel"
	AECEnabled bool   `toml:"aec_enabled" yaml:"aec_enabled"`
}

func (m MixerConfig) RecordingMode() mixer.RecordingMode {
	if strings.EqualFold(m.Mode, "echo_cancel") {
		return mixer.ModeEchoCancel
	}
	return mixer.ModeMixed
}

// ControllerConfig covers the lookback/ring-buffer/overflow
// parameters.
type ControllerConfig struct {
	RingBufferSeconds  int     `toml:"ring_buffer_seconds" yaml:"ring_buffer_seconds"`
	OverflowThreshold  float64 `toml:"overflow_threshold" yaml:"overflow_threshold"`
	VADLookbackMS      int     `toml:"vad_lookback_ms" yaml:"vad_lookback_ms"`
	PTTLookbackMS      int     `toml:"ptt_lookback_ms" yaml:"ptt_lookback_ms"`
	RecordingsDir      string  `toml:"recordings_dir" yaml:"recordings_dir"`
	TranscribeEnabled  bool    `toml:"transcribe_enabled" yaml:"transcribe_enabled"`
	TranscriptionMode  string  `toml:"transcription_mode" yaml:"transcription_mode"` // "automatic" | "push_to_talk"
}

func (c ControllerConfig) Mode() transcribe.TranscriptionMode {
	if strings.EqualFold(c.TranscriptionMode, "push_to_talk") {
		return transcribe.ModePushToTalk
	}
	return transcribe.ModeAutomatic
}

// HotkeyConfig names the configured PTT key.
type HotkeyConfig struct {
	Key string `toml:"key" yaml:"key"`
}

// TranscriptionConfig points at the external Whisper engine.
type TranscriptionConfig struct {
	ModelPath string `toml:"model_path" yaml:"model_path"`
	BinaryPath string `toml:"binary_path" yaml:"binary_path"`
	Language  string `toml:"language" yaml:"language"`
}

// GeneralConfig covers process-wide ambient settings.
type GeneralConfig struct {
	LogLevel string `toml:"log_level" yaml:"log_level"`
	ListenAddr string `toml:"listen_addr" yaml:"listen_addr"`
	HistoryDBPath string `toml:"history_db_path" yaml:"history_db_path"`
}

// Config is the full FlowSTT configuration tree.
type Config struct {
	General       GeneralConfig        `toml:"general" yaml:"general"`
	Sources       Sources              `toml:"sources" yaml:"sources"`
	Mixer         MixerConfig          `toml:"mixer" yaml:"mixer"`
	Detector      detect.Config        `toml:"detector" yaml:"detector"`
	Controller    ControllerConfig     `toml:"controller" yaml:"controller"`
	Hotkey        HotkeyConfig         `toml:"hotkey" yaml:"hotkey"`
	Transcription TranscriptionConfig  `toml:"transcription" yaml:"transcription"`
}

// keyNames maps config strings to hotkey.KeyCode, the inverse of
// hotkey.KeyCode.String().
var keyNames = map[string]hotkey.KeyCode{
	"right_option": hotkey.KeyRightOption, "left_option": hotkey.KeyLeftOption,
	"right_control": hotkey.KeyRightControl, "left_control": hotkey.KeyLeftControl,
	"right_shift": hotkey.KeyRightShift, "left_shift": hotkey.KeyLeftShift,
	"caps_lock": hotkey.KeyCapsLock,
	"f13": hotkey.KeyF13, "f14": hotkey.KeyF14, "f15": hotkey.KeyF15, "f16": hotkey.KeyF16,
	"f17": hotkey.KeyF17, "f18": hotkey.KeyF18, "f19": hotkey.KeyF19, "f20": hotkey.KeyF20,
}

func (c Config) PTTKey() hotkey.KeyCode {
	if k, ok := keyNames[c.Hotkey.Key]; ok {
		return k
	}
	return hotkey.DefaultKey
}

// Default returns the default parameter table plus reasonable
// ambient defaults.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		General: GeneralConfig{
			LogLevel:      "info",
			ListenAddr:    "127.0.0.1:0",
			HistoryDBPath: filepath.Join(home, ".flowstt", "history.db"),
		},
		Mixer: MixerConfig{Mode: "mixed", AECEnabled: true},
		Detector: detect.DefaultConfig(),
		Controller: ControllerConfig{
			RingBufferSeconds: 30,
			OverflowThreshold: 0.9,
			VADLookbackMS:     200,
			PTTLookbackMS:     100,
			RecordingsDir:     filepath.Join(home, "Documents", "Recordings"),
			TranscriptionMode: "automatic",
		},
		Hotkey: HotkeyConfig{Key: hotkey.DefaultKey.String()},
		Transcription: TranscriptionConfig{
			Language: "en",
		},
	}
}

// Load reads a config file, dispatching on its extension (.toml/.tml
// vs .yaml/.yml), matching foundation/core/config's Format detection.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, ferr.Wrap(err, "read config file failed").
			WithCode(ferr.CodeConfigError).WithOperation("config.Load").
			WithDetail("path", path)
	}

	format := detectFormat(path)
	if format == FormatYAML {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, ferr.Wrap(err, "parse yaml config failed").
				WithCode(ferr.CodeConfigError).WithOperation("config.Load")
		}
		return cfg, nil
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return cfg, ferr.Wrap(err, "parse toml config failed").
			WithCode(ferr.CodeConfigError).WithOperation("config.Load")
	}
	return cfg, nil
}

func detectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}
