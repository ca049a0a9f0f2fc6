package transcribe

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/flowstt/core/internal/ferr"
)

// Engine is FlowSTT's external Whisper binding: mono f32 @ 16kHz in,
// UTF-8 text out. It shells out to a whisper.cpp CLI binary rather than
// binding whisper.cpp natively via cgo.
type Engine struct {
	binaryPath string
	modelPath  string
	language   string
}

// NewEngine locates the whisper CLI binary and verifies the model file
// exists. The model is "loaded" implicitly by the CLI on each
// invocation; the "engine context is loaded once at worker
// start" is honored at the Engine level: NewEngine is called exactly
// once by the worker, and a missing/invalid model surfaces here rather
// than being silently retried per segment.
func NewEngine(modelPath, language string) (*Engine, error) {
	bin := findWhisperBinary()
	if bin == "" {
		return nil, ferr.New("whisper binary not found").
			WithCode(ferr.CodeModelMissing).WithOperation("transcribe.NewEngine")
	}
	if modelPath == "" {
		return nil, ferr.New("model path is required").
			WithCode(ferr.CodeModelMissing).WithOperation("transcribe.NewEngine")
	}
	if _, err := os.Stat(modelPath); err != nil {
		return nil, ferr.Wrap(err, "model file not found").
			WithCode(ferr.CodeModelMissing).WithOperation("transcribe.NewEngine").
			WithDetail("path", modelPath)
	}
	if language == "" {
		language = "en"
	}
	return &Engine{binaryPath: bin, modelPath: modelPath, language: language}, nil
}

func findWhisperBinary() string {
	if p, err := exec.LookPath("whisper-cli"); err == nil {
		return p
	}
	if p, err := exec.LookPath("whisper"); err == nil {
		return p
	}
	for _, loc := range []string{
		"/opt/homebrew/bin/whisper-cli",
		"/usr/local/bin/whisper-cli",
		"/usr/local/bin/whisper",
		"/usr/bin/whisper",
	} {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// TranscribeFile invokes the CLI synchronously against a WAV file
// already on disk (the controller has already written one per segment).
func (e *Engine) TranscribeFile(ctx context.Context, path string) (string, error) {
	args := []string{
		"--model", e.modelPath,
		"--language", e.language,
		"--no-prints",
		"--output-txt",
		"--output-file", "-",
		path,
	}
	cmd := exec.CommandContext(ctx, e.binaryPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", ferr.Wrap(err, "whisper invocation failed").
			WithCode(ferr.CodeTranscriptionFailed).
			WithDetail("stderr", stderr.String())
	}
	return strings.TrimSpace(stdout.String()), nil
}
