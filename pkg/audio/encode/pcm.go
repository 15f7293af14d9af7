// ABOUTME: PCM file encoders for WAV and AIFF
// ABOUTME: Wraps the go-audio encoders around interleaved 16-bit samples
package encode

import (
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/aiff"
	"github.com/go-audio/wav"
)

const (
	bitDepth     = 16
	wavFormatPCM = 1
)

// WAV encodes RIFF/WAVE files
type WAV struct{}

func (WAV) Format() string { return "wav" }

// Encode writes a 16-bit PCM WAV file
func (WAV) Encode(w io.WriteSeeker, samples []int16, sampleRate, channels int) error {
	enc := wav.NewEncoder(w, sampleRate, bitDepth, channels, wavFormatPCM)
	if err := enc.Write(intBuffer(samples, sampleRate, channels)); err != nil {
		return err
	}
	return enc.Close()
}

// AIFF encodes AIFF files
type AIFF struct{}

func (AIFF) Format() string { return "aiff" }

// Encode writes a 16-bit AIFF file
func (AIFF) Encode(w io.WriteSeeker, samples []int16, sampleRate, channels int) error {
	enc := aiff.NewEncoder(w, sampleRate, bitDepth, channels)
	if err := enc.Write(intBuffer(samples, sampleRate, channels)); err != nil {
		return err
	}
	return enc.Close()
}

func intBuffer(samples []int16, sampleRate, channels int) *goaudio.IntBuffer {
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	return &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
}
