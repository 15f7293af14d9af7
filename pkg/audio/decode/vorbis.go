// ABOUTME: Ogg Vorbis audio decoder
// ABOUTME: Decodes a whole Ogg Vorbis file to 16-bit samples
package decode

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/Resonate-Protocol/waveview/pkg/audio"
)

// Vorbis decodes Ogg Vorbis files
type Vorbis struct{}

func (Vorbis) Format() string { return "ogg" }

func (Vorbis) Decode(r io.ReadSeeker) (*audio.Buffer, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ogg vorbis: %w", err)
	}

	samples := make([]int16, len(data))
	for i, v := range data {
		samples[i] = audio.FloatToInt16(v)
	}

	return audio.NewBuffer(samples, format.SampleRate, format.Channels)
}
