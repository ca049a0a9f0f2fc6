package transcribe

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/flowstt/core/internal/ferr"
)

// WriteWAV writes 16-bit PCM mono WAV at a fixed PCM16 mono 16kHz
// format, matching what the Whisper CLI expects on its input path.
func WriteWAV(path string, samples []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return ferr.Wrap(err, "create wav file failed").
			WithCode(ferr.CodeIOFailed).WithDetail("path", path)
	}
	defer f.Close()

	const bitsPerSample = 16
	const numChannels = 1
	byteRate := sampleRate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8
	dataSize := len(samples) * 2

	write := func(v any) {
		binary.Write(f, binary.LittleEndian, v)
	}

	f.WriteString("RIFF")
	write(uint32(36 + dataSize))
	f.WriteString("WAVE")
	f.WriteString("fmt ")
	write(uint32(16))
	write(uint16(1)) // PCM
	write(uint16(numChannels))
	write(uint32(sampleRate))
	write(uint32(byteRate))
	write(uint16(blockAlign))
	write(uint16(bitsPerSample))
	f.WriteString("data")
	write(uint32(dataSize))

	for _, s := range samples {
		if s > 1 {
			s = 1
		}
		if s < -1 {
			s = -1
		}
		write(int16(s * 32767))
	}
	return nil
}

// GenerateFilename builds 's
// segment-YYYYMMDD-HHMMSS-NNN.wav filename pattern.
func GenerateFilename(t time.Time, seq int) string {
	return fmt.Sprintf("segment-%s-%03d.wav", t.Format("20060102-150405"), seq)
}

// RecordingPath joins the configured recordings directory with a
// generated filename, creating the directory if needed.
func RecordingPath(dir string, t time.Time, seq int) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", ferr.Wrap(err, "create recordings dir failed").WithCode(ferr.CodeIOFailed)
	}
	return filepath.Join(dir, GenerateFilename(t, seq)), nil
}
