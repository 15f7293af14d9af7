// ABOUTME: WAV and AIFF decoders built on go-audio
// ABOUTME: Converts go-audio integer PCM buffers of any bit depth to 16-bit
package decode

import (
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/aiff"
	"github.com/go-audio/wav"

	"github.com/Resonate-Protocol/waveview/pkg/audio"
)

var (
	ErrNotWavFile  = errors.New("not a valid WAV file")
	ErrNotAiffFile = errors.New("not a valid AIFF file")
	ErrNotPCM      = errors.New("only integer PCM is supported")
)

const wavFormatPCM = 1

// WAV decodes RIFF/WAVE files
type WAV struct{}

func (WAV) Format() string { return "wav" }

// Decode reads the whole WAV data chunk
func (WAV) Decode(r io.ReadSeeker) (*audio.Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrNotWavFile
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w (wav format tag %d)", ErrNotPCM, dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read wav samples: %w", err)
	}

	// 8-bit WAV is stored unsigned
	return fromIntBuffer(buf, buf.SourceBitDepth == 8)
}

// AIFF decodes AIFF files
type AIFF struct{}

func (AIFF) Format() string { return "aiff" }

// Decode reads the whole AIFF sound data chunk
func (AIFF) Decode(r io.ReadSeeker) (*audio.Buffer, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read aiff samples: %w", err)
	}

	return fromIntBuffer(buf, false)
}

// fromIntBuffer scales go-audio samples to 16-bit
func fromIntBuffer(buf *goaudio.IntBuffer, unsigned bool) (*audio.Buffer, error) {
	if buf == nil || buf.Format == nil {
		return nil, errors.New("missing PCM format")
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		if unsigned {
			v -= 128
		}
		samples[i] = audio.ScaleToInt16(int32(v), bitDepth)
	}

	return audio.NewBuffer(samples, buf.Format.SampleRate, buf.Format.NumChannels)
}
