// ABOUTME: Headless output that renders on a timer
// ABOUTME: Keeps real-time pacing without an audio device
package output

import (
	"sync"
	"sync/atomic"
	"time"
)

// Null pulls audio at the device rate and discards it
type Null struct {
	period time.Duration

	mu     sync.Mutex
	stop   chan struct{}
	done   chan struct{}
	frames atomic.Uint64
}

// NewNull creates a headless output rendering every period (default 10ms)
func NewNull(period time.Duration) *Null {
	if period <= 0 {
		period = 10 * time.Millisecond
	}
	return &Null{period: period}
}

// Open starts the render loop
func (n *Null) Open(sampleRate, channels int, r Renderer) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.stop != nil {
		return ErrAlreadyOpen
	}

	framesPerTick := int(int64(sampleRate) * int64(n.period) / int64(time.Second))
	if framesPerTick <= 0 {
		framesPerTick = 1
	}

	n.stop = make(chan struct{})
	n.done = make(chan struct{})
	go n.loop(r, make([]float32, framesPerTick*channels), framesPerTick, n.stop, n.done)
	return nil
}

func (n *Null) loop(r Renderer, buf []float32, frames int, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(n.period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.Render(buf)
			n.frames.Add(uint64(frames))
		}
	}
}

// Frames returns the number of frames rendered so far
func (n *Null) Frames() uint64 {
	return n.frames.Load()
}

// Close stops the render loop and waits for it to exit
func (n *Null) Close() error {
	n.mu.Lock()
	stop, done := n.stop, n.done
	n.stop, n.done = nil, nil
	n.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	return nil
}
