// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes a whole MP3 file to 16-bit stereo samples
package decode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"

	"github.com/Resonate-Protocol/waveview/pkg/audio"
)

// MP3 decodes MPEG-1/2 layer III files
type MP3 struct{}

func (MP3) Format() string { return "mp3" }

// Decode reads the whole stream. go-mp3 always outputs 16-bit stereo.
func (MP3) Decode(r io.ReadSeeker) (*audio.Buffer, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	data, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode error: %w", err)
	}

	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}

	return audio.NewBuffer(samples, decoder.SampleRate(), 2)
}
