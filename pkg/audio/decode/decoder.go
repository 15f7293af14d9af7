// ABOUTME: Decoder interface definition and file loader
// ABOUTME: Picks a format decoder by extension and wraps failures in DecodeError
package decode

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Resonate-Protocol/waveview/pkg/audio"
)

// Decoder decodes a whole audio file into a Buffer
type Decoder interface {
	// Decode reads the complete stream
	Decode(r io.ReadSeeker) (*audio.Buffer, error)

	// Format returns the short format name used in errors and logs
	Format() string
}

// DecodeError reports an unreadable or unsupported audio file
type DecodeError struct {
	Path   string
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("decode %s (%s): %v", e.Path, e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

var decoders = map[string]Decoder{
	".wav":  WAV{},
	".aif":  AIFF{},
	".aiff": AIFF{},
	".mp3":  MP3{},
	".flac": FLAC{},
	".ogg":  Vorbis{},
}

// ForPath returns the decoder registered for the file's extension
func ForPath(path string) (Decoder, bool) {
	d, ok := decoders[strings.ToLower(filepath.Ext(path))]
	return d, ok
}

// Supported lists the accepted file extensions
func Supported() []string {
	return []string{".wav", ".aif", ".aiff", ".mp3", ".flac", ".ogg"}
}

// Load decodes the file at path
func Load(path string) (*audio.Buffer, error) {
	dec, ok := ForPath(path)
	if !ok {
		return nil, &DecodeError{
			Path: path,
			Err: fmt.Errorf("unsupported audio format: %s (supported: %s)",
				filepath.Ext(path), strings.Join(Supported(), ", ")),
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Format: dec.Format(), Err: err}
	}
	defer f.Close()

	buf, err := dec.Decode(f)
	if err != nil {
		return nil, &DecodeError{Path: path, Format: dec.Format(), Err: err}
	}

	log.Printf("Loaded %s: %s (sample rate: %d Hz, channels: %d, frames: %d, duration: %v)",
		dec.Format(), filepath.Base(path), buf.SampleRate, buf.Channels, buf.TotalSamples(), buf.Duration())

	return buf, nil
}
