// ABOUTME: Audio type definitions
// ABOUTME: Defines the immutable decoded buffer and sample conversions
package audio

import (
	"fmt"
	"time"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Buffer holds a fully decoded recording as interleaved 16-bit PCM.
// It is created once by a decoder and never mutated afterwards.
type Buffer struct {
	Samples    []int16 // interleaved, Channels values per frame
	SampleRate int
	Channels   int
}

// NewBuffer validates the format and returns a Buffer
func NewBuffer(samples []int16, sampleRate, channels int) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", channels)
	}

	// Drop a trailing partial frame
	samples = samples[:len(samples)-len(samples)%channels]

	return &Buffer{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   channels,
	}, nil
}

// TotalSamples returns the number of frames (sample indices) in the buffer
func (b *Buffer) TotalSamples() int {
	if b.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Duration returns the playing time of the whole buffer
func (b *Buffer) Duration() time.Duration {
	return time.Duration(b.FrameToMs(b.TotalSamples())) * time.Millisecond
}

// FrameToMs converts a sample index to whole milliseconds
func (b *Buffer) FrameToMs(frame int) int64 {
	return int64(frame) * 1000 / int64(b.SampleRate)
}

// MsToFrame converts milliseconds to a sample index (not clamped)
func (b *Buffer) MsToFrame(ms int64) int {
	return int(ms * int64(b.SampleRate) / 1000)
}

// ClampFrame limits a sample index to [0, TotalSamples]
func (b *Buffer) ClampFrame(frame int) int {
	if frame < 0 {
		return 0
	}
	if total := b.TotalSamples(); frame > total {
		return total
	}
	return frame
}

// ClampRange limits [start, end) to the buffer. The clamped values are always
// usable; the error only reports that clamping took place.
func (b *Buffer) ClampRange(start, end int) (int, int, error) {
	cs, ce := b.ClampFrame(start), b.ClampFrame(end)
	if cs > ce {
		cs = ce
	}
	if cs != start || ce != end {
		return cs, ce, &InvalidRangeError{Start: start, End: end, Total: b.TotalSamples()}
	}
	return cs, ce, nil
}

// Slice returns the interleaved samples for frames [start, end).
// The result shares memory with the buffer and must not be modified.
func (b *Buffer) Slice(start, end int) []int16 {
	start, end, _ = b.ClampRange(start, end)
	return b.Samples[start*b.Channels : end*b.Channels]
}

// Peak is the amplitude envelope of one rendering bucket
type Peak struct {
	Min int16
	Max int16
}

// Peaks splits frames [start, end) into buckets and returns the min/max
// sample of each bucket across all channels. Buckets past the end of the
// buffer are left at zero.
func (b *Buffer) Peaks(start, end, buckets int) []Peak {
	if buckets <= 0 {
		return nil
	}
	peaks := make([]Peak, buckets)
	span := end - start
	if span <= 0 {
		return peaks
	}

	total := b.TotalSamples()
	for i := range peaks {
		from := start + i*span/buckets
		to := start + (i+1)*span/buckets
		if to == from {
			to = from + 1
		}
		if from < 0 {
			from = 0
		}
		if to > total {
			to = total
		}
		if from >= to {
			continue
		}

		lo, hi := int16(32767), int16(-32768)
		for _, s := range b.Samples[from*b.Channels : to*b.Channels] {
			if s < lo {
				lo = s
			}
			if s > hi {
				hi = s
			}
		}
		peaks[i] = Peak{Min: lo, Max: hi}
	}

	return peaks
}

// SampleToInt16 converts a 24-bit sample to int16
func SampleToInt16(sample int32) int16 {
	if sample > Max24Bit {
		sample = Max24Bit
	}
	if sample < Min24Bit {
		sample = Min24Bit
	}
	return int16(sample >> 8)
}

// ScaleToInt16 converts a signed sample of the given bit depth to 16-bit
func ScaleToInt16(sample int32, bitDepth int) int16 {
	switch {
	case bitDepth == 8:
		return int16(sample << 8)
	case bitDepth <= 16:
		return int16(sample)
	case bitDepth == 24:
		return SampleToInt16(sample)
	default:
		return int16(sample >> (bitDepth - 16))
	}
}

// FloatToInt16 converts a [-1, 1] float sample to 16-bit with clipping
func FloatToInt16(sample float32) int16 {
	if sample >= 1 {
		return 32767
	}
	if sample <= -1 {
		return -32768
	}
	return int16(sample * 32767)
}
