// ABOUTME: Linear resampler for playing a buffer on a device with another rate
// ABOUTME: Converts whole interleaved int16 slices between sample rates
package resample

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
	}
}

// Passthrough reports whether the rates match and Resample returns its input
func (r *Resampler) Passthrough() bool {
	return r.inputRate == r.outputRate
}

// OutputFrames returns how many frames Resample produces for inputFrames
func (r *Resampler) OutputFrames(inputFrames int) int {
	if inputFrames <= 0 {
		return 0
	}
	return int(float64(inputFrames) / r.ratio)
}

// Resample converts interleaved samples at inputRate into a new slice at
// outputRate. The last input frame is held for positions past the end.
func (r *Resampler) Resample(input []int16) []int16 {
	if r.Passthrough() || r.channels <= 0 {
		return input
	}

	inputFrames := len(input) / r.channels
	outputFrames := r.OutputFrames(inputFrames)
	output := make([]int16, outputFrames*r.channels)

	for outIdx := 0; outIdx < outputFrames; outIdx++ {
		pos := float64(outIdx) * r.ratio
		idx := int(pos)
		frac := pos - float64(idx)

		next := idx + 1
		if next >= inputFrames {
			next = inputFrames - 1
		}

		for ch := 0; ch < r.channels; ch++ {
			s1 := float64(input[idx*r.channels+ch])
			s2 := float64(input[next*r.channels+ch])
			output[outIdx*r.channels+ch] = int16(s1*(1.0-frac) + s2*frac)
		}
	}

	return output
}
