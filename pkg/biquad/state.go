// ABOUTME: Per-channel biquad filter memory and sample processing
// ABOUTME: Direct Form I recursion, buffer processing and boundary cross-fade
package biquad

import "math"

// denormalLimit flushes decaying state to exact zero
const denormalLimit = 1e-30

// State is the Direct Form I memory of one channel
type State struct {
	X1, X2 float64 // previous inputs
	Y1, Y2 float64 // previous outputs
}

// Reset clears the filter memory
func (s *State) Reset() {
	*s = State{}
}

// ProcessSample filters one sample and advances the state
func ProcessSample(s *State, c Coefficients, x float64) float64 {
	y := c.B0*x + c.B1*s.X1 + c.B2*s.X2 - c.A1*s.Y1 - c.A2*s.Y2
	s.X2, s.X1 = s.X1, x
	s.Y2, s.Y1 = s.Y1, y
	return y
}

// ProcessBuffer filters samples in place. Zero-alloc.
func ProcessBuffer(s *State, c Coefficients, samples []float32) {
	b0, b1, b2 := c.B0, c.B1, c.B2
	a1, a2 := c.A1, c.A2
	x1, x2, y1, y2 := s.X1, s.X2, s.Y1, s.Y2

	for i, v := range samples {
		x := float64(v)
		y := b0*x + b1*x1 + b2*x2 - a1*y1 - a2*y2
		x2, x1 = x1, x
		y2, y1 = y1, y
		samples[i] = float32(y)
	}

	s.X1, s.X2 = flush(x1), flush(x2)
	s.Y1, s.Y2 = flush(y1), flush(y2)
}

func (s *State) flush() {
	s.X1, s.X2 = flush(s.X1), flush(s.X2)
	s.Y1, s.Y2 = flush(s.Y1), flush(s.Y2)
}

// Crossfade filters samples in place with next while fading out the output
// of old over the first n samples. cur is the running state for next; prev
// must hold the state as it was before the coefficient change and is
// advanced with old. Past sample n only next contributes.
func Crossfade(cur, prev *State, next, old Coefficients, samples []float32, n int) {
	if n > len(samples) {
		n = len(samples)
	}
	if n <= 0 {
		ProcessBuffer(cur, next, samples)
		return
	}

	step := 1 / float64(n+1)
	for i := 0; i < n; i++ {
		x := float64(samples[i])
		yNew := ProcessSample(cur, next, x)
		yOld := ProcessSample(prev, old, x)
		w := float64(i+1) * step
		samples[i] = float32(yOld + (yNew-yOld)*w)
	}
	prev.flush()

	// also flushes cur when the fade covered the whole buffer
	ProcessBuffer(cur, next, samples[n:])
}

func flush(v float64) float64 {
	if math.Abs(v) < denormalLimit {
		return 0
	}
	return v
}
