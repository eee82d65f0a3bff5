// ABOUTME: Control-side API for the filter tap
// ABOUTME: Validates property writes and publishes them to the render processor
package tap

import (
	"fmt"
	"sync"

	"github.com/Sendspin/filterplay/pkg/audio"
	"github.com/Sendspin/filterplay/pkg/biquad"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Host is the media pipeline the tap attaches to
type Host interface {
	// RegisterTap installs fn as the per-buffer callback on the render path
	RegisterTap(fn audio.TapFunc)

	// Format returns the format of the buffers passed to the tap
	Format() audio.Format
}

// Config holds controller configuration
type Config struct {
	// AssetURL is the asset to play
	AssetURL string

	// SampleRate bounds the corner frequency until a host is attached (default: 48000)
	SampleRate int

	// FilterType selects the section response (default: low-pass)
	FilterType biquad.Type

	// CrossfadeFrames is passed to the processor (0: default, negative: off)
	CrossfadeFrames int

	// MaxChannels is passed to the processor (default: 8)
	MaxChannels int

	// Initial overrides DefaultParams
	Initial *Params

	// OnChange is called after published changes, outside the parameter
	// lock. Calls are serialised and never go back in time: a change that
	// was overtaken by a newer publication is not reported. OnChange must
	// not call the controller's setters.
	OnChange func(Params)
}

// Controller owns the user-facing properties. Setters may be called from
// any goroutine; the render side only sees published tuples.
type Controller struct {
	id     string
	config Config
	log    *logrus.Entry

	mu         sync.Mutex
	assetURL   string
	params     Params
	sampleRate float64
	attached   bool

	exchange  *Exchange
	processor *Processor

	notifyMu sync.Mutex
	notified uint64 // seq of the last tuple passed to OnChange
}

// NewController creates a controller with the given configuration
func NewController(config Config) *Controller {
	if config.SampleRate <= 0 {
		config.SampleRate = 48000
	}

	id := uuid.New().String()
	rate := float64(config.SampleRate)

	params := DefaultParams()
	if config.Initial != nil {
		params.Enabled = config.Initial.Enabled
		params.CornerFrequency = clampCorner(config.Initial.CornerFrequency, params.CornerFrequency, rate)
		params.Gain = clampGain(config.Initial.Gain, params.Gain)
	}

	exchange := NewExchange(params)
	c := &Controller{
		id:         id,
		config:     config,
		log:        logrus.WithFields(logrus.Fields{"component": "tap", "session": id}),
		assetURL:   config.AssetURL,
		params:     params,
		sampleRate: rate,
		exchange:   exchange,
		processor: NewProcessor(exchange, ProcessorConfig{
			FilterType:      config.FilterType,
			CrossfadeFrames: config.CrossfadeFrames,
			MaxChannels:     config.MaxChannels,
		}),
	}

	c.log.WithFields(logrus.Fields{
		"enabled":   params.Enabled,
		"frequency": params.CornerFrequency,
		"gain":      params.Gain,
		"type":      config.FilterType,
	}).Debug("Tap controller created")

	return c
}

// ID returns the session identifier of this controller
func (c *Controller) ID() string {
	return c.id
}

// AssetURL returns the asset to play
func (c *Controller) AssetURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.assetURL
}

// SetAssetURL changes the asset. It fails once the tap is attached.
func (c *Controller) SetAssetURL(url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attached {
		return fmt.Errorf("failed to set asset %q: %w", url, ErrPlaybackActive)
	}
	c.assetURL = url
	return nil
}

// Params returns the last published tuple
func (c *Controller) Params() Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// FilterEnabled reports whether the filter is on
func (c *Controller) FilterEnabled() bool {
	return c.Params().Enabled
}

// SetFilterEnabled turns the filter on or off
func (c *Controller) SetFilterEnabled(enabled bool) {
	c.update(func(p *Params) {
		p.Enabled = enabled
	})
}

// FilterCornerFrequency returns the corner frequency in Hz
func (c *Controller) FilterCornerFrequency() float64 {
	return c.Params().CornerFrequency
}

// SetFilterCornerFrequency sets the corner frequency, clamped to
// [MinCornerFrequency, 0.99*Nyquist]. NaN is ignored.
func (c *Controller) SetFilterCornerFrequency(hz float64) {
	c.update(func(p *Params) {
		p.CornerFrequency = hz
	})
}

// VolumeGain returns the linear post-filter gain
func (c *Controller) VolumeGain() float64 {
	return c.Params().Gain
}

// SetVolumeGain sets the linear gain, clamped to [0, MaxGain]. NaN is ignored.
func (c *Controller) SetVolumeGain(gain float64) {
	c.update(func(p *Params) {
		p.Gain = gain
	})
}

// Set applies all three fields in one publication and returns the clamped
// tuple that was published.
func (c *Controller) Set(next Params) Params {
	return c.update(func(p *Params) {
		*p = next
	})
}

// Attach registers the processor on host and clamps the corner frequency
// to the host's sample rate.
func (c *Controller) Attach(host Host) error {
	if host == nil {
		return ErrNilHost
	}

	format := host.Format()

	c.mu.Lock()
	if c.attached {
		c.mu.Unlock()
		return fmt.Errorf("failed to attach: %w", ErrPlaybackActive)
	}
	c.attached = true
	if format.SampleRate > 0 {
		c.sampleRate = float64(format.SampleRate)
	}
	params := c.params
	params.CornerFrequency = clampCorner(params.CornerFrequency, params.CornerFrequency, c.sampleRate)
	c.params = params
	seq := c.exchange.Publish(params)
	c.mu.Unlock()

	host.RegisterTap(c.processor.Process)

	c.log.WithFields(logrus.Fields{
		"sample_rate": format.SampleRate,
		"channels":    format.Channels,
		"frequency":   params.CornerFrequency,
	}).Info("Tap attached")

	c.notify(params, seq)
	return nil
}

// Detach marks playback as stopped so the asset can be changed again. The
// host must no longer call the tap.
func (c *Controller) Detach() {
	c.mu.Lock()
	c.attached = false
	c.mu.Unlock()

	c.log.Info("Tap detached")
}

// Attached reports whether a host is running the tap
func (c *Controller) Attached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attached
}

// SampleRate returns the rate used for clamping
func (c *Controller) SampleRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sampleRate
}

// Processor returns the render-side processor
func (c *Controller) Processor() *Processor {
	return c.processor
}

// Stats returns the processor counters
func (c *Controller) Stats() ProcessorStats {
	return c.processor.Stats()
}

func (c *Controller) update(mutate func(*Params)) Params {
	c.mu.Lock()
	prev := c.params
	next := prev
	mutate(&next)
	next.CornerFrequency = clampCorner(next.CornerFrequency, prev.CornerFrequency, c.sampleRate)
	next.Gain = clampGain(next.Gain, prev.Gain)
	c.params = next
	seq := c.exchange.Publish(next)
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{
		"enabled":   next.Enabled,
		"frequency": next.CornerFrequency,
		"gain":      next.Gain,
		"seq":       seq,
	}).Debug("Tap parameters published")

	c.notify(next, seq)
	return next
}

// notify reports a publication unless a newer one was already reported
func (c *Controller) notify(p Params, seq uint64) {
	if c.config.OnChange == nil {
		return
	}

	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	if seq <= c.notified {
		return
	}
	c.notified = seq
	c.config.OnChange(p)
}
