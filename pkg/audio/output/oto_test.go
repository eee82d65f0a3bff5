//go:build !headless

// ABOUTME: Tests for the Oto reader path
// ABOUTME: Exercises sample encoding without opening a device
package output

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOtoReadSilenceWithoutRenderer(t *testing.T) {
	o := NewOto(0)

	p := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	n, err := o.Read(p)
	assert.NoError(t, err)
	assert.Equal(t, len(p), n)
	assert.Equal(t, make([]byte, 8), p)
}

func TestOtoReadEncodesFloat32LE(t *testing.T) {
	o := NewOto(0)
	o.renderer.Store(&rendererSlot{r: RendererFunc(func(dst []float32) {
		for i := range dst {
			dst[i] = float32(i) * 0.25
		}
	})})

	// Larger than the initial scratch buffer, with a trailing partial sample
	p := make([]byte, 4*5000+2)
	n, err := o.Read(p)
	assert.NoError(t, err)
	assert.Equal(t, len(p), n)

	for i := 0; i < 5000; i++ {
		got := math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
		if got != float32(i)*0.25 {
			t.Fatalf("sample %d: got %v", i, got)
		}
	}
	assert.Equal(t, []byte{0, 0}, p[len(p)-2:])
}
