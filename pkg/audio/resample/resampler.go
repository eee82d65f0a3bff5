// ABOUTME: Linear resampler for converting float audio between sample rates
// ABOUTME: Carries the last input frame across chunks so the output has no seams
package resample

import "math"

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64   // read position in input frames, 0 = carried frame when primed
	last       []float32 // final frame of the previous chunk
	primed     bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	if channels <= 0 {
		channels = 1
	}
	ratio := 1.0
	if inputRate > 0 && outputRate > 0 {
		ratio = float64(inputRate) / float64(outputRate)
	}

	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      ratio,
		last:       make([]float32, channels),
	}
}

// Resample converts interleaved input at inputRate into interleaved output
// at outputRate and returns the number of output samples written. Size
// output with OutputSamplesNeeded; input that does not fit is dropped.
func (r *Resampler) Resample(input, output []float32) int {
	ch := r.channels
	inFrames := len(input) / ch
	if inFrames == 0 {
		return 0
	}
	outFrames := len(output) / ch

	offset := 0
	if r.primed {
		offset = 1
	}
	total := inFrames + offset

	out := 0
	for out < outFrames {
		idx := int(r.position)
		if idx+1 >= total {
			break
		}

		frac := float32(r.position - float64(idx))
		for c := 0; c < ch; c++ {
			a := r.at(input, idx-offset, c)
			b := r.at(input, idx+1-offset, c)
			output[out*ch+c] = a + (b-a)*frac
		}

		out++
		r.position += r.ratio
	}

	copy(r.last, input[(inFrames-1)*ch:inFrames*ch])
	r.primed = true

	// Re-base so index 0 is the frame just carried over
	r.position -= float64(total - 1)
	if r.position < 0 {
		r.position = 0
	}

	return out * ch
}

func (r *Resampler) at(input []float32, frame, c int) float32 {
	if frame < 0 {
		return r.last[c]
	}
	return input[frame*r.channels+c]
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0
	r.primed = false
	clear(r.last)
}

// Ratio returns input frames consumed per output frame
func (r *Resampler) Ratio() float64 {
	return r.ratio
}

// OutputSamplesNeeded returns an upper bound on the output samples produced from inputSamples
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples/r.channels + 1
	outputFrames := int(math.Ceil(float64(inputFrames)/r.ratio)) + 1
	return outputFrames * r.channels
}

// InputSamplesNeeded estimates the input samples needed to produce outputSamples
func (r *Resampler) InputSamplesNeeded(outputSamples int) int {
	outputFrames := outputSamples / r.channels
	inputFrames := int(math.Ceil(float64(outputFrames) * r.ratio))
	return inputFrames * r.channels
}
