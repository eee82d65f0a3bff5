// ABOUTME: Render-side filter and gain stage
// ABOUTME: Applies the latest parameters to each buffer in place without allocating
package tap

import (
	"sync/atomic"

	"github.com/Sendspin/filterplay/pkg/audio"
	"github.com/Sendspin/filterplay/pkg/biquad"
)

const (
	// DefaultCrossfadeFrames is the blend length after a coefficient change
	DefaultCrossfadeFrames = 64

	// DefaultMaxChannels is the number of channel states allocated up front
	DefaultMaxChannels = 8
)

// ProcessorConfig holds processor configuration
type ProcessorConfig struct {
	// FilterType selects the section response (default: low-pass)
	FilterType biquad.Type

	// CrossfadeFrames is the blend length after a coefficient change.
	// 0 selects DefaultCrossfadeFrames, negative disables blending.
	CrossfadeFrames int

	// MaxChannels pre-allocates state for this many channels (default: 8)
	MaxChannels int
}

// ProcessorStats contains render-side counters
type ProcessorStats struct {
	Buffers            uint64
	Frames             uint64
	CoefficientUpdates uint64
	Resets             uint64
	ShapeChanges       uint64
}

// Processor runs on the render goroutine. Process must not be called
// concurrently with itself; Stats may be called from anywhere.
type Processor struct {
	exchange  *Exchange
	kind      biquad.Type
	crossfade int

	states []biquad.State
	fade   []biquad.State

	channels   int
	sampleRate int
	corner     float64
	coeffs     biquad.Coefficients
	primed     bool
	active     bool

	buffers      atomic.Uint64
	frames       atomic.Uint64
	coeffUpdates atomic.Uint64
	resets       atomic.Uint64
	shapeChanges atomic.Uint64
}

// NewProcessor creates a processor reading parameters from exchange
func NewProcessor(exchange *Exchange, config ProcessorConfig) *Processor {
	if config.CrossfadeFrames == 0 {
		config.CrossfadeFrames = DefaultCrossfadeFrames
	}
	if config.CrossfadeFrames < 0 {
		config.CrossfadeFrames = 0
	}
	if config.MaxChannels <= 0 {
		config.MaxChannels = DefaultMaxChannels
	}

	return &Processor{
		exchange:  exchange,
		kind:      config.FilterType,
		crossfade: config.CrossfadeFrames,
		states:    make([]biquad.State, 0, config.MaxChannels),
		fade:      make([]biquad.State, 0, config.MaxChannels),
		coeffs:    biquad.Identity,
	}
}

// Process applies the filter and gain to buf in place
func (p *Processor) Process(buf *audio.Buffer) {
	if buf == nil {
		return
	}
	params, _ := p.exchange.Latest()

	channels, frames := shape(buf)
	p.buffers.Add(1)
	if channels == 0 || frames == 0 {
		return
	}

	if buf.Discontinuity || channels != p.channels {
		p.reshape(channels)
	}

	rate := buf.Format.SampleRate
	if rate != p.sampleRate {
		p.resetStates()
		p.sampleRate = rate
		p.primed = false
		p.active = false
	}

	old := p.coeffs
	blend := false
	corner := biquad.ClampFrequency(params.CornerFrequency, float64(rate))
	if !p.primed || corner != p.corner {
		next := biquad.Design(float64(rate), corner, p.kind)
		blend = p.primed && p.active && params.Enabled && p.crossfade > 0 && next != old
		p.coeffs = next
		p.corner = corner
		p.primed = true
		p.coeffUpdates.Add(1)
	}

	for ch := 0; ch < channels; ch++ {
		samples := buf.Samples[ch][:frames]
		switch {
		case !params.Enabled:
			p.states[ch].Reset()
		case blend:
			p.fade[ch] = p.states[ch]
			biquad.Crossfade(&p.states[ch], &p.fade[ch], p.coeffs, old, samples, p.crossfade)
		default:
			biquad.ProcessBuffer(&p.states[ch], p.coeffs, samples)
		}
	}

	if gain := clampGain(params.Gain, UnityGain); gain != UnityGain {
		g := float32(gain)
		for ch := 0; ch < channels; ch++ {
			samples := buf.Samples[ch][:frames]
			for i := range samples {
				samples[i] *= g
			}
		}
	}

	if p.active && !params.Enabled {
		p.resets.Add(1)
	}
	p.active = params.Enabled
	p.frames.Add(uint64(frames))
}

// Stats returns a snapshot of the render counters
func (p *Processor) Stats() ProcessorStats {
	return ProcessorStats{
		Buffers:            p.buffers.Load(),
		Frames:             p.frames.Load(),
		CoefficientUpdates: p.coeffUpdates.Load(),
		Resets:             p.resets.Load(),
		ShapeChanges:       p.shapeChanges.Load(),
	}
}

// reshape sizes the state slices for channels and clears them. Storage only
// grows when channels exceeds the pre-allocated capacity.
func (p *Processor) reshape(channels int) {
	if channels != p.channels {
		p.shapeChanges.Add(1)
	}
	if channels > cap(p.states) {
		p.states = make([]biquad.State, channels)
		p.fade = make([]biquad.State, channels)
	}
	p.states = p.states[:channels]
	p.fade = p.fade[:channels]
	p.channels = channels
	p.resetStates()
	p.active = false
	p.resets.Add(1)
}

func (p *Processor) resetStates() {
	clear(p.states)
	clear(p.fade)
}

// shape returns the channel and frame counts actually backed by buf
func shape(buf *audio.Buffer) (int, int) {
	channels := buf.Format.Channels
	if channels > len(buf.Samples) {
		channels = len(buf.Samples)
	}
	if channels <= 0 || buf.Frames <= 0 {
		return 0, 0
	}

	frames := buf.Frames
	for ch := 0; ch < channels; ch++ {
		if n := len(buf.Samples[ch]); n < frames {
			frames = n
		}
	}
	return channels, frames
}
