// ABOUTME: Output wrapper that tees rendered audio into an encoder
// ABOUTME: Copies on the device thread and encodes on a writer goroutine
package output

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Sendspin/filterplay/pkg/audio/encode"
	"github.com/sirupsen/logrus"
)

// recorderQueue is the number of device buffers that can wait for the encoder
const recorderQueue = 32

// EncoderFactory creates the encoder once the device format is known
type EncoderFactory func(sampleRate, channels int) (encode.Encoder, error)

// Recorder plays through inner and records exactly what the device was
// given. Buffers are dropped, never waited for, when the encoder falls behind.
type Recorder struct {
	inner      Output
	newEncoder EncoderFactory

	mu     sync.Mutex
	enc    encode.Encoder
	free   chan []float32
	filled chan []float32
	stop   chan struct{}
	done   chan struct{}
	err    error

	frames   atomic.Uint64
	dropped  atomic.Uint64
	channels int
}

// NewRecorder wraps inner so every rendered buffer is also encoded
func NewRecorder(inner Output, newEncoder EncoderFactory) *Recorder {
	return &Recorder{inner: inner, newEncoder: newEncoder}
}

// Open creates the encoder and opens the inner output
func (rec *Recorder) Open(sampleRate, channels int, r Renderer) error {
	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.enc != nil {
		return ErrAlreadyOpen
	}

	enc, err := rec.newEncoder(sampleRate, channels)
	if err != nil {
		return fmt.Errorf("failed to create recording: %w", err)
	}

	rec.enc = enc
	rec.channels = channels
	rec.err = nil
	rec.free = make(chan []float32, recorderQueue)
	rec.filled = make(chan []float32, recorderQueue)
	for i := 0; i < recorderQueue; i++ {
		rec.free <- nil
	}
	rec.stop = make(chan struct{})
	rec.done = make(chan struct{})

	go rec.writeLoop(enc, rec.free, rec.filled, rec.stop, rec.done)

	free, filled := rec.free, rec.filled
	err = rec.inner.Open(sampleRate, channels, RendererFunc(func(dst []float32) {
		r.Render(dst)
		rec.capture(dst, free, filled)
	}))
	if err != nil {
		close(rec.stop)
		<-rec.done
		enc.Close()
		rec.enc = nil
		return err
	}

	logrus.WithFields(logrus.Fields{
		"rate":     sampleRate,
		"channels": channels,
	}).Info("Recording started")
	return nil
}

// capture runs on the device thread. A pool buffer grows at most once to
// the device buffer size.
func (rec *Recorder) capture(dst []float32, free <-chan []float32, filled chan<- []float32) {
	var buf []float32
	select {
	case buf = <-free:
	default:
		rec.dropped.Add(1)
		return
	}

	buf = append(buf[:0], dst...)
	// filled has room for every pool buffer
	filled <- buf
}

func (rec *Recorder) writeLoop(enc encode.Encoder, free chan<- []float32, filled <-chan []float32, stop, done chan struct{}) {
	defer close(done)

	write := func(buf []float32) {
		if rec.err == nil {
			if err := enc.Encode(buf); err != nil {
				rec.err = err
				logrus.WithError(err).Error("Recording failed, further audio is discarded")
			}
		}
		if rec.channels > 0 {
			rec.frames.Add(uint64(len(buf) / rec.channels))
		}
		free <- buf
	}

	for {
		select {
		case buf := <-filled:
			write(buf)
		case <-stop:
			for {
				select {
				case buf := <-filled:
					write(buf)
				default:
					return
				}
			}
		}
	}
}

// Frames returns the number of frames handed to the encoder
func (rec *Recorder) Frames() uint64 {
	return rec.frames.Load()
}

// Dropped returns the number of device buffers that were not recorded
func (rec *Recorder) Dropped() uint64 {
	return rec.dropped.Load()
}

// Close stops the inner output, flushes pending buffers and finalizes the file
func (rec *Recorder) Close() error {
	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.enc == nil {
		return nil
	}

	innerErr := rec.inner.Close()

	close(rec.stop)
	<-rec.done

	encErr := rec.enc.Close()
	writeErr := rec.err
	rec.enc = nil

	logrus.WithFields(logrus.Fields{
		"frames":  rec.frames.Load(),
		"dropped": rec.dropped.Load(),
	}).Info("Recording finished")

	return errors.Join(innerErr, writeErr, encErr)
}
