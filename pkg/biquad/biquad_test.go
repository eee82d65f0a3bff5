// ABOUTME: Tests for biquad design and processing
// ABOUTME: Covers DC gain, stability, idempotence, zero input and cross-fade
package biquad

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-dsp/dsp/filter/design"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLowpassUnityDCGain(t *testing.T) {
	tests := []struct {
		sampleRate float64
		corner     float64
	}{
		{44100, 1000},
		{48000, 20},
		{48000, 23000},
		{96000, 5000},
		{8000, 3000},
	}

	for _, tt := range tests {
		c := Lowpass(tt.sampleRate, tt.corner)
		require.True(t, Stable(c), "unstable at %v/%v", tt.sampleRate, tt.corner)
		assert.InDelta(t, 1.0, DCGain(c), 1e-9, "DC gain at %v/%v", tt.sampleRate, tt.corner)
	}
}

func TestLowpassSteadyStateConvergesToOne(t *testing.T) {
	c := Lowpass(44100, 1000)
	var st State

	var y float64
	for i := 0; i < 4000; i++ {
		y = ProcessSample(&st, c, 1.0)
	}

	assert.InDelta(t, 1.0, y, 1e-6)
}

func TestHighpassBlocksDC(t *testing.T) {
	c := Design(48000, 200, HighPass)
	require.True(t, Stable(c))
	assert.InDelta(t, 0.0, DCGain(c), 1e-9)
	assert.InDelta(t, 0.0, c.MagnitudeDB(20000, 48000), 0.1)
}

func TestMinus3dBAtCorner(t *testing.T) {
	c := Lowpass(48000, 2000)
	assert.InDelta(t, -3.01, c.MagnitudeDB(2000, 48000), 0.05)

	h := c.Response(2000, 48000)
	assert.InDelta(t, c.MagnitudeSquared(2000, 48000), real(h)*real(h)+imag(h)*imag(h), 1e-9)
}

func TestDesignUsesButterworthQ(t *testing.T) {
	assert.Equal(t, design.Lowpass(1000, Q, 44100), Lowpass(44100, 1000))
	assert.Equal(t, design.Highpass(250, Q, 48000), Design(48000, 250, HighPass))
}

func TestDesignOutOfRangeReturnsIdentity(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate float64
		corner     float64
	}{
		{"zero corner", 44100, 0},
		{"negative corner", 44100, -5},
		{"at nyquist", 44100, 22050},
		{"above nyquist", 44100, 30000},
		{"zero rate", 0, 1000},
		{"nan corner", 44100, math.NaN()},
		{"inf rate", math.Inf(1), 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, Identity, Lowpass(tt.sampleRate, tt.corner))
			assert.False(t, InRange(tt.sampleRate, tt.corner))
		})
	}
}

func TestDesignIsBitIdentical(t *testing.T) {
	a := Lowpass(44100, 1234.5)
	b := Lowpass(44100, 1234.5)

	assert.Equal(t, math.Float64bits(a.B0), math.Float64bits(b.B0))
	assert.Equal(t, math.Float64bits(a.B1), math.Float64bits(b.B1))
	assert.Equal(t, math.Float64bits(a.B2), math.Float64bits(b.B2))
	assert.Equal(t, math.Float64bits(a.A1), math.Float64bits(b.A1))
	assert.Equal(t, math.Float64bits(a.A2), math.Float64bits(b.A2))
}

func TestClampFrequency(t *testing.T) {
	assert.Equal(t, MinFrequency, ClampFrequency(1, 44100))
	assert.Equal(t, 22050*MaxNyquistFraction, ClampFrequency(40000, 44100))
	assert.Equal(t, 22050*MaxNyquistFraction, ClampFrequency(math.NaN(), 44100))
	assert.Equal(t, 1000.0, ClampFrequency(1000, 44100))
	// Unknown rate leaves the value alone
	assert.Equal(t, 5.0, ClampFrequency(5, 0))

	// Tiny rates still yield a usable corner
	f := ClampFrequency(100, 16)
	assert.True(t, InRange(16, f), "clamped %v not in range", f)
}

func TestParseType(t *testing.T) {
	lp, err := ParseType("LP")
	require.NoError(t, err)
	assert.Equal(t, LowPass, lp)

	hp, err := ParseType("highpass")
	require.NoError(t, err)
	assert.Equal(t, HighPass, hp)
	assert.Equal(t, "highpass", hp.String())

	_, err = ParseType("bandpass")
	assert.Error(t, err)
}

func TestZeroInputZeroOutput(t *testing.T) {
	coeffs := []Coefficients{
		Lowpass(44100, 1000),
		Design(48000, 300, HighPass),
		{B0: 0.3, B1: -0.2, B2: 0.1, A1: -0.5, A2: 0.25},
	}

	for _, c := range coeffs {
		var st State
		samples := make([]float32, 256)
		ProcessBuffer(&st, c, samples)
		for i, s := range samples {
			require.Zero(t, s, "sample %d", i)
		}
		assert.Equal(t, State{}, st)
	}
}

func TestImpulseResponseDecays(t *testing.T) {
	c := Lowpass(44100, 1000)
	var st State

	samples := make([]float32, 32)
	samples[0] = 1
	ProcessBuffer(&st, c, samples)

	peak := 0
	for i, s := range samples {
		v := float64(s)
		require.False(t, math.IsNaN(v) || math.IsInf(v, 0), "sample %d not finite", i)
		require.LessOrEqual(t, math.Abs(v), 1.0)
		if s > samples[peak] {
			peak = i
		}
	}

	require.Greater(t, peak, 0, "peak should follow the impulse")
	require.Less(t, peak, len(samples)-1)
	for i := peak + 1; i < len(samples); i++ {
		assert.LessOrEqual(t, samples[i], samples[i-1], "response rising again at %d", i)
	}
}

func TestProcessBufferMatchesProcessSample(t *testing.T) {
	c := Lowpass(48000, 3000)
	input := []float32{0.5, -0.25, 1, 0, 0.75, -1, 0.1, 0.2}

	var ref State
	expected := make([]float64, len(input))
	for i, x := range input {
		expected[i] = ProcessSample(&ref, c, float64(x))
	}

	var st State
	got := append([]float32(nil), input...)
	ProcessBuffer(&st, c, got)

	for i := range got {
		assert.InDelta(t, expected[i], float64(got[i]), 1e-6)
	}
	assert.InDelta(t, ref.Y1, st.Y1, 1e-12)
}

func TestProcessBufferNoAllocs(t *testing.T) {
	c := Lowpass(48000, 1000)
	var st State
	samples := make([]float32, 512)

	allocs := testing.AllocsPerRun(100, func() {
		ProcessBuffer(&st, c, samples)
	})
	assert.Zero(t, allocs)
}

func TestCrossfadeWithSameCoefficientsIsPlainFiltering(t *testing.T) {
	c := Lowpass(44100, 800)
	input := []float32{1, 0.5, -0.5, 0.25, 0, 0, 0.1, -0.3, 0.7, 0.2}

	warm := State{X1: 0.2, X2: -0.1, Y1: 0.3, Y2: 0.1}

	ref := warm
	expected := append([]float32(nil), input...)
	ProcessBuffer(&ref, c, expected)

	cur, prev := warm, warm
	got := append([]float32(nil), input...)
	Crossfade(&cur, &prev, c, c, got, 4)

	for i := range got {
		assert.InDelta(t, expected[i], got[i], 1e-6, "sample %d", i)
	}
}

func TestCrossfadeEndsOnNewCoefficients(t *testing.T) {
	old := Lowpass(44100, 500)
	next := Lowpass(44100, 5000)
	input := make([]float32, 64)
	for i := range input {
		input[i] = float32(math.Sin(float64(i) * 0.3))
	}

	warm := State{X1: 0.1, Y1: 0.05}

	ref := warm
	expected := append([]float32(nil), input...)
	ProcessBuffer(&ref, next, expected)

	cur, prev := warm, warm
	got := append([]float32(nil), input...)
	Crossfade(&cur, &prev, next, old, got, 16)

	for i := 16; i < len(got); i++ {
		assert.InDelta(t, expected[i], got[i], 1e-6, "sample %d", i)
	}
	// The first sample is mostly the old filter's output
	oldFirst := ProcessSample(&State{X1: 0.1, Y1: 0.05}, old, float64(input[0]))
	assert.InDelta(t, oldFirst, float64(got[0]), math.Abs(float64(expected[0])-oldFirst)/2+1e-6)
}

func TestCrossfadeLongerThanBuffer(t *testing.T) {
	c := Lowpass(44100, 1000)
	var cur, prev State
	samples := []float32{1, 0, 0}

	assert.NotPanics(t, func() {
		Crossfade(&cur, &prev, c, Identity, samples, 100)
	})
}

func TestCrossfadeFlushesDenormals(t *testing.T) {
	decay := Coefficients{B0: 1, A1: -0.5}
	cur := State{Y1: 1e-35, Y2: 1e-36}
	prev := State{Y1: 1e-35, X1: 1e-40}

	samples := make([]float32, 8)
	Crossfade(&cur, &prev, decay, decay, samples, len(samples))

	assert.Equal(t, State{}, cur)
	assert.Equal(t, State{}, prev)
}
