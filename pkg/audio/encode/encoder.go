// ABOUTME: Encoder interface and selection export helpers
// ABOUTME: Writes a sample range of a buffer to a WAV or AIFF file
package encode

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Resonate-Protocol/waveview/pkg/audio"
)

// ErrEmptyRange is returned when the range to save holds no samples
var ErrEmptyRange = errors.New("empty sample range")

// Encoder writes interleaved 16-bit samples to a seekable stream
type Encoder interface {
	// Encode writes a complete file; it finalizes the header before returning
	Encode(w io.WriteSeeker, samples []int16, sampleRate, channels int) error

	// Format returns the short format name (wav, aiff)
	Format() string
}

// EncodeError reports a failure to write an output file
type EncodeError struct {
	Path   string
	Format string
	Err    error
}

func (e *EncodeError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("encode %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("encode %s (%s): %v", e.Path, e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

var encoders = map[string]Encoder{
	".wav":  WAV{},
	".aif":  AIFF{},
	".aiff": AIFF{},
}

// ForPath returns the encoder registered for the file's extension
func ForPath(path string) (Encoder, bool) {
	e, ok := encoders[strings.ToLower(filepath.Ext(path))]
	return e, ok
}

// RangePath names the export of frames [start, end) of source, placed next
// to it as WAV
func RangePath(source string, buf *audio.Buffer, start, end int) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	name := fmt.Sprintf("%s_%d-%dms.wav", base, buf.FrameToMs(start), buf.FrameToMs(end))
	return filepath.Join(filepath.Dir(source), name)
}

// SaveRange writes frames [start, end) of buf to path. The range is clamped
// to the buffer.
func SaveRange(path string, buf *audio.Buffer, start, end int) error {
	enc, ok := ForPath(path)
	if !ok {
		return &EncodeError{Path: path, Err: fmt.Errorf("unsupported output format: %s", filepath.Ext(path))}
	}

	start, end, err := buf.ClampRange(start, end)
	if err != nil {
		log.Printf("Export range clamped: %v", err)
	}
	if start >= end {
		return &EncodeError{Path: path, Format: enc.Format(), Err: ErrEmptyRange}
	}

	f, err := os.Create(path)
	if err != nil {
		return &EncodeError{Path: path, Format: enc.Format(), Err: err}
	}

	if err := enc.Encode(f, buf.Slice(start, end), buf.SampleRate, buf.Channels); err != nil {
		_ = f.Close()
		return &EncodeError{Path: path, Format: enc.Format(), Err: err}
	}
	if err := f.Close(); err != nil {
		return &EncodeError{Path: path, Format: enc.Format(), Err: err}
	}

	log.Printf("Saved %s: %s (frames %d-%d)", enc.Format(), filepath.Base(path), start, end)
	return nil
}
