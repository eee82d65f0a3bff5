// ABOUTME: Entry point for the filterplay player
// ABOUTME: Parses CLI flags and wires decoder, pipeline, tap, output and control surfaces
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sendspin/filterplay/internal/discovery"
	"github.com/Sendspin/filterplay/internal/remote"
	"github.com/Sendspin/filterplay/internal/ui"
	"github.com/Sendspin/filterplay/internal/version"
	"github.com/Sendspin/filterplay/pkg/audio"
	"github.com/Sendspin/filterplay/pkg/audio/decode"
	"github.com/Sendspin/filterplay/pkg/audio/encode"
	"github.com/Sendspin/filterplay/pkg/audio/output"
	"github.com/Sendspin/filterplay/pkg/biquad"
	"github.com/Sendspin/filterplay/pkg/pipeline"
	"github.com/Sendspin/filterplay/pkg/tap"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

var (
	asset       = flag.String("asset", "", "Asset to play: path, file://, http(s):// URL or tone:<hz> (default: 440 Hz tone)")
	filterOn    = flag.Bool("filter", false, "Start with the filter enabled")
	freq        = flag.Float64("freq", tap.DefaultCornerFrequency, "Filter corner frequency in Hz")
	gain        = flag.Float64("gain", tap.UnityGain, "Linear output gain (0-4)")
	filterType  = flag.String("filter-type", "lowpass", "Filter response: lowpass or highpass")
	crossfade   = flag.Int("crossfade", 0, "Coefficient crossfade length in frames (0: default, -1: off)")
	frames      = flag.Int("frames", pipeline.DefaultFramesPerBuffer, "Frames per processing buffer")
	deviceRate  = flag.Int("device-rate", 0, "Output sample rate in Hz (0: asset rate)")
	bufferMs    = flag.Int("buffer-ms", 0, "Device buffer length in milliseconds (0: driver default)")
	loop        = flag.Bool("loop", false, "Restart the asset when it ends")
	record      = flag.String("record", "", "Also write the rendered output to a .wav, .aiff or .pcm file")
	controlPort = flag.Int("control-port", 8930, "Websocket control port (0: disabled)")
	advertise   = flag.Bool("advertise", true, "Advertise the control surface over mDNS")
	name        = flag.String("name", "", "Player friendly name (default: hostname-filterplay)")
	logFile     = flag.String("log-file", "filterplay.log", "Log file path")
	logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	noAudio     = flag.Bool("no-audio", false, "Render to a paced null sink instead of the audio device")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		logrus.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		logrus.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		logrus.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("invalid log level: %v", err)
	}
	logrus.SetLevel(level)

	ft, err := biquad.ParseType(*filterType)
	if err != nil {
		logrus.Fatalf("invalid filter type: %v", err)
	}

	playerName := *name
	if playerName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		playerName = fmt.Sprintf("%s-filterplay", hostname)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logrus.WithFields(logrus.Fields{
		"version": version.Version,
		"name":    playerName,
		"asset":   *asset,
	}).Info("Starting filterplay")

	src, err := decode.OpenContext(ctx, *asset)
	if err != nil {
		logrus.Fatalf("Failed to open asset: %v", err)
	}
	defer src.Close()

	meta := src.Metadata()

	var out output.Output
	if *noAudio {
		out = output.NewNull(0)
	} else {
		out = output.NewOto(time.Duration(*bufferMs) * time.Millisecond)
	}

	var recorder *output.Recorder
	if *record != "" {
		path := *record
		recorder = output.NewRecorder(out, func(sampleRate, channels int) (encode.Encoder, error) {
			return encode.Create(path, audio.Format{
				SampleRate: sampleRate,
				Channels:   channels,
				BitDepth:   16,
			})
		})
		out = recorder
	}

	// TUI setup
	var tuiProg *tea.Program
	var filterCtrl *ui.FilterControl

	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	ended := make(chan struct{})
	pipe := pipeline.New(src, out, pipeline.Config{
		FramesPerBuffer: *frames,
		OutputRate:      *deviceRate,
		Loop:            *loop,
		OnError: func(err error) {
			logrus.WithError(err).Error("Playback error")
		},
		OnEnd: func() {
			close(ended)
		},
	})

	var srv *remote.Server
	ctl := tap.NewController(tap.Config{
		AssetURL:        *asset,
		SampleRate:      pipe.Format().SampleRate,
		FilterType:      ft,
		CrossfadeFrames: *crossfade,
		Initial: &tap.Params{
			Enabled:         *filterOn,
			CornerFrequency: *freq,
			Gain:            *gain,
		},
		OnChange: func(p tap.Params) {
			updateTUI(ui.StatusMsg{Params: &p})
			if srv != nil {
				srv.Broadcast(p)
			}
		},
	})

	var controlAddr string
	if *controlPort > 0 {
		srv = remote.NewServer(ctl, remote.Config{Port: *controlPort})
		if err := srv.Start(); err != nil {
			logrus.Fatalf("Failed to start control server: %v", err)
		}
		controlAddr = fmt.Sprintf("ws://%s:%d%s", playerName, srv.Port(), srv.Path())
	}

	var disc *discovery.Manager
	if srv != nil && *advertise {
		disc = discovery.NewManager(discovery.Config{
			ServiceName: playerName,
			Port:        srv.Port(),
			Path:        srv.Path(),
			PlayerID:    ctl.ID(),
		})
		if err := disc.Advertise(); err != nil {
			logrus.WithError(err).Warn("Failed to start mDNS advertisement")
		}
	}

	if useTUI {
		filterCtrl = ui.NewFilterControl()
		tuiProg = ui.Run(filterCtrl, ctl.Params(), ft)
		go func() {
			if _, err := tuiProg.Run(); err != nil {
				logrus.WithError(err).Error("TUI failed")
			}
		}()
		go handleFilterControl(ctl, filterCtrl)
	}

	if err := ctl.Attach(pipe); err != nil {
		logrus.Fatalf("Failed to attach filter: %v", err)
	}

	if err := pipe.Start(ctx); err != nil {
		logrus.Fatalf("Failed to start playback: %v", err)
	}

	format := pipe.Format()
	params := ctl.Params()
	updateTUI(ui.StatusMsg{
		Params:      &params,
		AssetURL:    *asset,
		Title:       meta.Title,
		Artist:      meta.Artist,
		Codec:       format.Codec,
		SampleRate:  format.SampleRate,
		Channels:    format.Channels,
		ControlAddr: controlAddr,
	})

	if tuiProg != nil {
		go statsUpdateLoop(ctx, pipe, ctl, updateTUI)
	}

	// Wait for quit signal from TUI or OS, or the end of the asset
	var quit <-chan ui.QuitMsg
	if filterCtrl != nil {
		quit = filterCtrl.Quit
	}

	select {
	case <-quit:
		logrus.Info("Received quit signal from TUI")
	case <-ctx.Done():
		logrus.Info("Shutdown signal received")
	case <-ended:
		logrus.Info("Playback finished")
	}

	if err := pipe.Stop(); err != nil {
		logrus.WithError(err).Warn("Error stopping playback")
	}
	ctl.Detach()

	if disc != nil {
		disc.Stop()
	}
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Stop(shutdownCtx); err != nil {
			logrus.WithError(err).Warn("Error stopping control server")
		}
		cancel()
	}
	if tuiProg != nil {
		tuiProg.Quit()
	}

	stats := ctl.Stats()
	logrus.WithFields(logrus.Fields{
		"buffers":             stats.Buffers,
		"coefficient_updates": stats.CoefficientUpdates,
		"underruns":           pipe.Stats().Underruns,
	}).Info("Player stopped")

	if recorder != nil && recorder.Dropped() > 0 {
		logrus.WithField("dropped", recorder.Dropped()).Warn("Recording is missing buffers")
	}
}

// handleFilterControl applies key presses from the TUI to the controller
func handleFilterControl(ctl *tap.Controller, filterCtrl *ui.FilterControl) {
	for msg := range filterCtrl.Changes {
		logrus.WithFields(logrus.Fields{
			"enabled":   msg.Params.Enabled,
			"frequency": msg.Params.CornerFrequency,
			"gain":      msg.Params.Gain,
		}).Debug("Filter change from TUI")
		ctl.Set(msg.Params)
	}
}

// statsUpdateLoop periodically updates TUI with playback statistics
func statsUpdateLoop(ctx context.Context, pipe *pipeline.Pipeline, ctl *tap.Controller, updateTUI func(ui.StatusMsg)) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-pipe.Done():
			return
		case <-ticker.C:
			ps := pipe.Stats()
			ts := ctl.Stats()
			updateTUI(ui.StatusMsg{
				Stats: &ui.Stats{
					Buffers:            ps.Buffers,
					Underruns:          ps.Underruns,
					CoefficientUpdates: ts.CoefficientUpdates,
					Resets:             ts.Resets,
					Position:           ps.Position,
					Queued:             ps.Queued,
				},
			})
		}
	}
}
