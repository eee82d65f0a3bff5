//go:build !headless

// ABOUTME: Oto-based audio output implementation
// ABOUTME: Float32 player whose Read pulls from the renderer without locking
package output

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"
)

// oto allows a single context per process
var (
	otoMu       sync.Mutex
	otoCtx      *oto.Context
	otoRate     int
	otoChannels int
)

// rendererSlot boxes the interface for atomic.Pointer
type rendererSlot struct {
	r Renderer
}

// Oto output implementation using oto library
type Oto struct {
	mu         sync.Mutex // only for setup/control operations
	player     *oto.Player
	bufferSize time.Duration

	renderer atomic.Pointer[rendererSlot]
	scratch  []float32
}

// NewOto creates a new Oto output. bufferSize is the device buffer length;
// zero lets oto choose.
func NewOto(bufferSize time.Duration) *Oto {
	return &Oto{
		bufferSize: bufferSize,
		scratch:    make([]float32, 4096),
	}
}

// Open initializes the device and starts playback
func (o *Oto) Open(sampleRate, channels int, r Renderer) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		return ErrAlreadyOpen
	}

	ctx, err := sharedContext(sampleRate, channels, o.bufferSize)
	if err != nil {
		return err
	}

	o.renderer.Store(&rendererSlot{r: r})
	o.player = ctx.NewPlayer(o)
	o.player.Play()

	logrus.WithFields(logrus.Fields{
		"sample_rate": sampleRate,
		"channels":    channels,
		"buffer":      o.bufferSize,
	}).Info("Audio output initialized")

	return nil
}

func sharedContext(sampleRate, channels int, bufferSize time.Duration) (*oto.Context, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		if otoRate != sampleRate || otoChannels != channels {
			return nil, fmt.Errorf("oto context already running at %dHz %dch, cannot reopen at %dHz %dch",
				otoRate, otoChannels, sampleRate, channels)
		}
		return otoCtx, nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	otoCtx = ctx
	otoRate = sampleRate
	otoChannels = channels
	return ctx, nil
}

// Read is called by oto on its audio goroutine
func (o *Oto) Read(p []byte) (int, error) {
	slot := o.renderer.Load()
	if slot == nil {
		clear(p)
		return len(p), nil
	}

	n := len(p) / 4
	if len(o.scratch) < n {
		// Only happens if oto asks for more than the initial estimate
		o.scratch = make([]float32, n)
	}
	samples := o.scratch[:n]
	slot.r.Render(samples)

	for i, s := range samples {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	clear(p[n*4:])
	return len(p), nil
}

// Close stops playback. The shared oto context stays alive for reuse.
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.renderer.Store(nil)
	if o.player == nil {
		return nil
	}

	err := o.player.Close()
	o.player = nil
	if err != nil {
		return fmt.Errorf("failed to close player: %w", err)
	}
	return nil
}
