// ABOUTME: Host media pipeline between a decoder and an audio output
// ABOUTME: Decodes ahead into a buffer pool and renders it through the tap
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sendspin/filterplay/pkg/audio"
	"github.com/Sendspin/filterplay/pkg/audio/decode"
	"github.com/Sendspin/filterplay/pkg/audio/output"
	"github.com/Sendspin/filterplay/pkg/audio/resample"
	"github.com/sirupsen/logrus"
)

const (
	DefaultFramesPerBuffer = 512
	DefaultQueueDepth      = 8

	// consecutive empty reads treated as end of stream
	maxZeroReads = 100
)

// Config holds pipeline configuration
type Config struct {
	// FramesPerBuffer is the tap block size (default: 512)
	FramesPerBuffer int

	// QueueDepth is the number of decoded buffers kept ahead (default: 8)
	QueueDepth int

	// OutputRate is the device sample rate; zero uses the asset rate
	OutputRate int

	// Loop restarts the asset at end of stream
	Loop bool

	// OnError is called for decode errors
	OnError func(error)

	// OnEnd is called once the last buffer has been rendered
	OnEnd func()
}

// Stats tracks pipeline metrics
type Stats struct {
	Buffers   uint64
	Underruns uint64
	Frames    uint64
	Position  time.Duration
	Queued    int
}

// Pipeline feeds decoded buffers to an output and calls the registered tap
// once per buffer on the output's render goroutine.
type Pipeline struct {
	config    Config
	source    decode.Source
	output    output.Output
	format    audio.Format
	resampler *resample.Resampler

	free  chan *audio.Buffer
	ready chan *audio.Buffer
	tap   atomic.Pointer[audio.TapFunc]

	// render goroutine only
	current *audio.Buffer
	offset  int

	buffers   atomic.Uint64
	underruns atomic.Uint64
	frames    atomic.Uint64
	position  atomic.Int64
	eof       atomic.Bool
	finished  atomic.Bool
	done      chan struct{}
	primed    chan struct{}

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a pipeline reading from src and playing through out
func New(src decode.Source, out output.Output, config Config) *Pipeline {
	if config.FramesPerBuffer <= 0 {
		config.FramesPerBuffer = DefaultFramesPerBuffer
	}
	if config.QueueDepth <= 0 {
		config.QueueDepth = DefaultQueueDepth
	}

	srcFormat := src.Format()
	format := srcFormat
	if config.OutputRate > 0 {
		format.SampleRate = config.OutputRate
	}

	p := &Pipeline{
		config: config,
		source: src,
		output: out,
		format: format,
		free:   make(chan *audio.Buffer, config.QueueDepth+1),
		ready:  make(chan *audio.Buffer, config.QueueDepth),
		done:   make(chan struct{}),
		primed: make(chan struct{}),
	}

	if format.SampleRate != srcFormat.SampleRate {
		p.resampler = resample.New(srcFormat.SampleRate, format.SampleRate, format.Channels)
	}

	// one extra so the render side can hold a buffer while the queue is full
	for i := 0; i < config.QueueDepth+1; i++ {
		p.free <- audio.NewBuffer(format, config.FramesPerBuffer)
	}

	return p
}

// RegisterTap installs fn as the processing tap. It may be called at any
// time; the render goroutine picks it up on the next buffer.
func (p *Pipeline) RegisterTap(fn audio.TapFunc) {
	if fn == nil {
		p.tap.Store(nil)
		return
	}
	p.tap.Store(&fn)
}

// Format returns the format of buffers handed to the tap
func (p *Pipeline) Format() audio.Format {
	return p.format
}

// Start begins decoding, waits for the queue to fill and opens the output
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return ErrAlreadyStarted
	}
	if p.format.Channels <= 0 || p.format.SampleRate <= 0 {
		return fmt.Errorf("%w: %d Hz %d channels", ErrInvalidFormat, p.format.SampleRate, p.format.Channels)
	}

	feedCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.started = true

	p.wg.Add(1)
	go p.feed(feedCtx)

	select {
	case <-p.primed:
	case <-ctx.Done():
		p.shutdown()
		return ctx.Err()
	}

	if err := p.output.Open(p.format.SampleRate, p.format.Channels, p); err != nil {
		p.shutdown()
		return fmt.Errorf("failed to open output: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"sample_rate": p.format.SampleRate,
		"channels":    p.format.Channels,
		"frames":      p.config.FramesPerBuffer,
		"queue":       p.config.QueueDepth,
		"resampling":  p.resampler != nil,
	}).Info("Pipeline started")

	return nil
}

// Stop halts decoding and closes the output
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return nil
	}

	err := p.output.Close()
	p.shutdown()
	p.finish()

	logrus.WithField("buffers", p.buffers.Load()).Info("Pipeline stopped")

	if err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	return nil
}

func (p *Pipeline) shutdown() {
	p.cancel()
	p.wg.Wait()
	p.started = false
}

// Done is closed when playback reaches the end of the asset or Stop is called
func (p *Pipeline) Done() <-chan struct{} {
	return p.done
}

// Stats returns pipeline statistics
func (p *Pipeline) Stats() Stats {
	return Stats{
		Buffers:   p.buffers.Load(),
		Underruns: p.underruns.Load(),
		Frames:    p.frames.Load(),
		Position:  time.Duration(p.position.Load()),
		Queued:    len(p.ready),
	}
}

// Render fills dst with interleaved samples. It never blocks: when no
// decoded buffer is ready the remainder of dst is silence.
func (p *Pipeline) Render(dst []float32) {
	channels := p.format.Channels
	total := len(dst) / channels
	written := 0

	for written < total {
		if p.current == nil {
			select {
			case buf := <-p.ready:
				if fn := p.tap.Load(); fn != nil {
					(*fn)(buf)
				}
				p.current = buf
				p.offset = 0
				p.buffers.Add(1)
				p.position.Store(int64(buf.Position))
			default:
				clear(dst[written*channels:])
				if p.eof.Load() {
					if len(p.ready) == 0 {
						p.finish()
					}
				} else {
					p.underruns.Add(1)
				}
				p.frames.Add(uint64(written))
				return
			}
		}

		n := p.current.InterleaveFrom(p.offset, dst[written*channels:])
		p.offset += n
		written += n

		if p.offset >= p.current.Frames {
			select {
			case p.free <- p.current:
			default:
			}
			p.current = nil
		}
	}

	clear(dst[total*channels:])
	p.frames.Add(uint64(written))
}

func (p *Pipeline) finish() {
	if p.finished.CompareAndSwap(false, true) {
		close(p.done)
	}
}

// feed decodes the asset into pooled buffers until the end of the stream
// or cancellation.
func (p *Pipeline) feed(ctx context.Context) {
	defer p.wg.Done()

	channels := p.format.Channels
	block := p.config.FramesPerBuffer * channels

	read := make([]float32, block)
	var resampled []float32
	if p.resampler != nil {
		resampled = make([]float32, p.resampler.OutputSamplesNeeded(block))
	}
	pending := make([]float32, 0, block+max(len(read), len(resampled)))

	var (
		emitted       int
		zeroReads     int
		passSamples   int
		discontinuity = true
		primed        bool
	)

	prime := func() {
		if !primed {
			primed = true
			close(p.primed)
		}
	}
	defer prime()

	for {
		eof := false
		for len(pending) < block && !eof {
			if ctx.Err() != nil {
				return
			}

			n, err := p.source.ReadSamples(read)
			n -= n % channels
			if n > 0 {
				zeroReads = 0
				passSamples += n
				data := read[:n]
				if p.resampler != nil {
					m := p.resampler.Resample(data, resampled)
					data = resampled[:m]
				}
				pending = append(pending, data...)
			} else if err == nil {
				zeroReads++
			}

			if err == nil && zeroReads < maxZeroReads {
				continue
			}
			if err != nil && !errors.Is(err, io.EOF) {
				p.reportError(fmt.Errorf("decode failed: %w", err))
				eof = true
				continue
			}

			zeroReads = 0
			if !p.config.Loop || passSamples == 0 || !p.rewind() {
				eof = true
				continue
			}
			passSamples = 0
			discontinuity = true
		}

		for len(pending) >= block || (eof && len(pending) > 0) {
			var buf *audio.Buffer
			select {
			case buf = <-p.free:
			case <-ctx.Done():
				return
			}

			buf.Reset()
			n := buf.Deinterleave(pending)
			buf.Format = p.format
			buf.Position = p.format.Duration(emitted)
			buf.Discontinuity = discontinuity
			discontinuity = false
			emitted += n
			pending = pending[:copy(pending, pending[n*channels:])]

			select {
			case p.ready <- buf:
			case <-ctx.Done():
				return
			}

			if len(p.ready) == cap(p.ready) {
				prime()
			}
		}

		if eof {
			p.eof.Store(true)
			prime()
			logrus.WithField("frames", emitted).Debug("Pipeline reached end of stream")
			break
		}
	}

	select {
	case <-p.done:
		if p.config.OnEnd != nil && ctx.Err() == nil {
			p.config.OnEnd()
		}
	case <-ctx.Done():
	}
}

// rewind restarts a looping source. It reports false when the source
// cannot be restarted.
func (p *Pipeline) rewind() bool {
	r, ok := p.source.(decode.Rewinder)
	if !ok {
		p.reportError(fmt.Errorf("cannot loop: %w", decode.ErrNotSeekable))
		return false
	}
	if err := r.Rewind(); err != nil {
		p.reportError(fmt.Errorf("failed to rewind: %w", err))
		return false
	}
	if p.resampler != nil {
		p.resampler.Reset()
	}
	logrus.Debug("Pipeline looped")
	return true
}

func (p *Pipeline) reportError(err error) {
	logrus.WithError(err).Warn("Pipeline error")
	if p.config.OnError != nil {
		p.config.OnError(err)
	}
}
