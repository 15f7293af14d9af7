// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes a whole FLAC file frame by frame with mewkiz/flac
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"

	"github.com/Resonate-Protocol/waveview/pkg/audio"
)

// FLAC decodes native FLAC files
type FLAC struct{}

func (FLAC) Format() string { return "flac" }

// Decode parses every frame and interleaves the subframes
func (FLAC) Decode(r io.ReadSeeker) (*audio.Buffer, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	bitDepth := int(info.BitsPerSample)

	samples := make([]int16, 0, int(info.NSamples)*channels)
	for {
		frame, err := stream.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("flac frame error: %w", err)
		}

		for i := 0; i < int(frame.BlockSize); i++ {
			for ch := 0; ch < channels; ch++ {
				samples = append(samples, audio.ScaleToInt16(frame.Subframes[ch].Samples[i], bitDepth))
			}
		}
	}

	return audio.NewBuffer(samples, int(info.SampleRate), channels)
}
