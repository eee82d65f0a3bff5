// ABOUTME: Tests for the tap controller
// ABOUTME: Verifies clamping, publication, asset locking and host attachment
package tap

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/Sendspin/filterplay/pkg/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	format audio.Format
	tap    audio.TapFunc
	calls  int
}

func (h *fakeHost) RegisterTap(fn audio.TapFunc) {
	h.tap = fn
	h.calls++
}

func (h *fakeHost) Format() audio.Format {
	return h.format
}

func TestControllerDefaults(t *testing.T) {
	c := NewController(Config{AssetURL: "file:///tmp/song.flac"})

	assert.Equal(t, "file:///tmp/song.flac", c.AssetURL())
	assert.False(t, c.FilterEnabled())
	assert.Equal(t, DefaultCornerFrequency, c.FilterCornerFrequency())
	assert.Equal(t, UnityGain, c.VolumeGain())
	assert.Equal(t, 48000.0, c.SampleRate())
	assert.NotEmpty(t, c.ID())

	p, _ := c.exchange.Latest()
	assert.Equal(t, DefaultParams(), p)
}

func TestControllerInitialParamsClamped(t *testing.T) {
	c := NewController(Config{
		SampleRate: 44100,
		Initial:    &Params{Enabled: true, CornerFrequency: 50000, Gain: 10},
	})

	assert.True(t, c.FilterEnabled())
	assert.InDelta(t, 22050*0.99, c.FilterCornerFrequency(), 1e-9)
	assert.Equal(t, MaxGain, c.VolumeGain())
}

func TestControllerCornerClamping(t *testing.T) {
	c := NewController(Config{SampleRate: 48000})

	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"in range", 2500, 2500},
		{"below minimum", 1, MinCornerFrequency},
		{"negative", -100, MinCornerFrequency},
		{"above nyquist", 30000, 24000 * 0.99},
		{"infinite", math.Inf(1), 24000 * 0.99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.SetFilterCornerFrequency(tt.in)
			assert.InDelta(t, tt.want, c.FilterCornerFrequency(), 1e-9)

			p, _ := c.exchange.Latest()
			assert.InDelta(t, tt.want, p.CornerFrequency, 1e-9)
		})
	}
}

func TestControllerNaNKeepsPrevious(t *testing.T) {
	c := NewController(Config{})
	c.SetFilterCornerFrequency(800)
	c.SetVolumeGain(0.25)

	c.SetFilterCornerFrequency(math.NaN())
	c.SetVolumeGain(math.NaN())

	assert.Equal(t, 800.0, c.FilterCornerFrequency())
	assert.Equal(t, 0.25, c.VolumeGain())
}

func TestControllerGainClamping(t *testing.T) {
	c := NewController(Config{})

	c.SetVolumeGain(-1)
	assert.Equal(t, 0.0, c.VolumeGain())

	c.SetVolumeGain(100)
	assert.Equal(t, MaxGain, c.VolumeGain())

	c.SetVolumeGain(0.5)
	assert.Equal(t, 0.5, c.VolumeGain())
}

func TestControllerSetPublishesOneTuple(t *testing.T) {
	var changes []Params
	c := NewController(Config{OnChange: func(p Params) {
		changes = append(changes, p)
	}})

	_, before := c.exchange.Latest()
	applied := c.Set(Params{Enabled: true, CornerFrequency: 5, Gain: 9})
	p, after := c.exchange.Latest()

	assert.Equal(t, before+1, after)
	assert.Equal(t, Params{Enabled: true, CornerFrequency: MinCornerFrequency, Gain: MaxGain}, applied)
	assert.Equal(t, applied, p)
	require.Len(t, changes, 1)
	assert.Equal(t, applied, changes[0])
}

func TestControllerSetterPublishesCombinedTuple(t *testing.T) {
	c := NewController(Config{})
	c.SetFilterCornerFrequency(600)
	c.SetVolumeGain(2)
	c.SetFilterEnabled(true)

	p, seq := c.exchange.Latest()
	assert.Equal(t, Params{Enabled: true, CornerFrequency: 600, Gain: 2}, p)
	assert.Equal(t, uint64(3), seq)
}

func TestControllerAttach(t *testing.T) {
	host := &fakeHost{format: audio.Format{SampleRate: 22050, Channels: 2}}
	c := NewController(Config{AssetURL: "a.mp3"})
	c.SetFilterCornerFrequency(20000)

	require.NoError(t, c.Attach(host))
	assert.True(t, c.Attached())
	assert.Equal(t, 1, host.calls)
	require.NotNil(t, host.tap)

	// Frequency re-clamped for the host rate
	assert.InDelta(t, 11025*0.99, c.FilterCornerFrequency(), 1e-9)

	// Second attach is rejected
	err := c.Attach(host)
	assert.True(t, errors.Is(err, ErrPlaybackActive))
	assert.Equal(t, 1, host.calls)

	// Registered tap is the processor
	c.SetVolumeGain(0.5)
	buf := newTestBuffer(22050, []float32{1, 1}, []float32{1, 1})
	host.tap(buf)
	assert.Equal(t, []float32{0.5, 0.5}, buf.Samples[0])
	assert.Equal(t, uint64(1), c.Stats().Buffers)
}

func TestControllerAttachNilHost(t *testing.T) {
	c := NewController(Config{})
	assert.ErrorIs(t, c.Attach(nil), ErrNilHost)
	assert.False(t, c.Attached())
}

func TestControllerAssetLockedWhileAttached(t *testing.T) {
	c := NewController(Config{AssetURL: "a.wav"})
	require.NoError(t, c.SetAssetURL("b.wav"))

	require.NoError(t, c.Attach(&fakeHost{format: audio.Format{SampleRate: 48000, Channels: 2}}))

	err := c.SetAssetURL("c.wav")
	assert.ErrorIs(t, err, ErrPlaybackActive)
	assert.Equal(t, "b.wav", c.AssetURL())

	c.Detach()
	require.NoError(t, c.SetAssetURL("c.wav"))
	assert.Equal(t, "c.wav", c.AssetURL())
}

func TestControllerConcurrentSetters(t *testing.T) {
	c := NewController(Config{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.SetFilterEnabled(j%2 == 0)
				c.SetFilterCornerFrequency(float64(100 + i*10 + j))
				c.SetVolumeGain(float64(j) / 100)
			}
		}(i)
	}
	wg.Wait()

	p, seq := c.exchange.Latest()
	assert.Equal(t, uint64(8*100*3), seq)
	assert.Equal(t, c.Params(), p)
}

func TestControllerOnChangeDropsOvertakenTuples(t *testing.T) {
	var got []Params
	c := NewController(Config{OnChange: func(p Params) {
		got = append(got, p)
	}})

	newer := Params{Enabled: true, CornerFrequency: 2000, Gain: 1}
	older := Params{Enabled: false, CornerFrequency: 500, Gain: 1}

	// the newer publication is reported before the older one catches up
	c.notify(newer, 2)
	c.notify(older, 1)
	c.notify(older, 2)

	assert.Equal(t, []Params{newer}, got)
}

func TestControllerOnChangeEndsOnLatest(t *testing.T) {
	var mu sync.Mutex
	var last Params
	calls := 0
	c := NewController(Config{OnChange: func(p Params) {
		mu.Lock()
		last = p
		calls++
		mu.Unlock()
	}})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.Set(Params{Enabled: j%2 == 0, CornerFrequency: float64(200 + i*50 + j), Gain: 1})
			}
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, c.Params(), last)
	assert.LessOrEqual(t, calls, 8*200)
	assert.Positive(t, calls)
}
