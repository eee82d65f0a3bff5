// ABOUTME: Command-line remote for a running filterplay player
// ABOUTME: Discovers or dials a player, applies one change and prints its state
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Sendspin/filterplay/internal/discovery"
	"github.com/Sendspin/filterplay/internal/remote"
	"github.com/sirupsen/logrus"
)

var (
	addr     = flag.String("addr", "", "Player address host:port or ws:// URL (default: discover via mDNS)")
	player   = flag.String("player", "", "Name of the player to pick when discovering")
	timeout  = flag.Duration("timeout", 3*time.Second, "Discovery and request timeout")
	enable   = flag.Bool("enable", false, "Enable the filter")
	disable  = flag.Bool("disable", false, "Disable the filter")
	freq     = flag.Float64("freq", 0, "Set the corner frequency in Hz")
	gain     = flag.Float64("gain", 0, "Set the linear gain (0-4)")
	watch    = flag.Bool("watch", false, "Keep printing state changes until interrupted")
	list     = flag.Bool("list", false, "List players found via mDNS and exit")
	jsonOut  = flag.Bool("json", false, "Print state as JSON")
	logLevel = flag.String("log-level", "warn", "Log level")
)

func main() {
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		fatalf("invalid log level: %v", err)
	}
	logrus.SetLevel(level)

	if *enable && *disable {
		fatalf("-enable and -disable are mutually exclusive")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *list {
		players, err := discovery.Lookup(ctx, *timeout)
		if err != nil {
			fatalf("discovery failed: %v", err)
		}
		for _, p := range players {
			fmt.Printf("%-30s %s\n", p.Name, p.URL())
		}
		return
	}

	target := *addr
	if target == "" {
		target, err = discover(ctx)
		if err != nil {
			fatalf("%v", err)
		}
	}

	c, err := remote.Dial(ctx, target)
	if err != nil {
		fatalf("failed to connect to %s: %v", target, err)
	}
	defer c.Close()

	update, changed := buildUpdate()

	var state remote.Message
	if changed {
		state, err = c.Set(ctx, update)
	} else {
		state, err = c.Get(ctx)
	}
	if err != nil {
		fatalf("request failed: %v", err)
	}
	printState(state)

	if *watch {
		if err := c.Watch(context.Background(), printState); err != nil {
			fatalf("%v", err)
		}
	}
}

// buildUpdate collects the flags the user actually passed
func buildUpdate() (remote.Message, bool) {
	var enabled *bool
	var frequency, level *float64

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "enable":
			v := *enable
			enabled = &v
		case "disable":
			v := !*disable
			enabled = &v
		case "freq":
			frequency = freq
		case "gain":
			level = gain
		}
	})

	changed := enabled != nil || frequency != nil || level != nil
	return remote.SetMessage(enabled, frequency, level), changed
}

func discover(ctx context.Context) (string, error) {
	players, err := discovery.Lookup(ctx, *timeout)
	if err != nil {
		return "", fmt.Errorf("discovery failed: %w", err)
	}

	for _, p := range players {
		if *player == "" || p.Name == *player {
			logrus.WithFields(logrus.Fields{"name": p.Name, "url": p.URL()}).Info("Using discovered player")
			return p.URL(), nil
		}
	}

	if *player != "" {
		return "", fmt.Errorf("player %q not found", *player)
	}
	return "", fmt.Errorf("no players found after %s", *timeout)
}

func printState(m remote.Message) {
	if *jsonOut {
		data, _ := json.Marshal(m)
		fmt.Println(string(data))
		return
	}

	p := m.Params()
	status := "off"
	if p.Enabled {
		status = "on"
	}
	fmt.Printf("filter %-3s  corner %8.1f Hz  gain %.2f", status, p.CornerFrequency, p.Gain)
	if m.Asset != "" {
		fmt.Printf("  asset %s", m.Asset)
	}
	fmt.Println()
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "filterplay-ctl: "+format+"\n", args...)
	os.Exit(1)
}
