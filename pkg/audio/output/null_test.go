// ABOUTME: Tests for the headless output
// ABOUTME: Verifies pacing, frame sizes and shutdown
package output

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullImplementsOutput(t *testing.T) {
	var _ Output = (*Null)(nil)
	var _ Output = (*Oto)(nil)
}

func TestNullRendersFixedBlocks(t *testing.T) {
	out := NewNull(5 * time.Millisecond)

	var calls atomic.Int64
	var size atomic.Int64
	require.NoError(t, out.Open(48000, 2, RendererFunc(func(dst []float32) {
		size.Store(int64(len(dst)))
		calls.Add(1)
	})))

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
	require.NoError(t, out.Close())

	assert.Equal(t, int64(240*2), size.Load())
	assert.Equal(t, uint64(calls.Load())*240, out.Frames())

	// No renders after Close
	after := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, calls.Load())
}

func TestNullOpenTwice(t *testing.T) {
	out := NewNull(0)
	r := RendererFunc(func([]float32) {})

	require.NoError(t, out.Open(8000, 1, r))
	defer out.Close()
	assert.ErrorIs(t, out.Open(8000, 1, r), ErrAlreadyOpen)
}

func TestNullCloseWithoutOpen(t *testing.T) {
	assert.NoError(t, NewNull(0).Close())
}
