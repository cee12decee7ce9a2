// cmd/sma2mqtt/main.go
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/sma2mqtt/internal/config"
	"github.com/tamzrod/sma2mqtt/internal/poller"
	"github.com/tamzrod/sma2mqtt/internal/publisher"
	"github.com/tamzrod/sma2mqtt/internal/status"
)

const version = "1.2.0"

func main() {
	if len(os.Args) < 2 {
		os.Stderr.WriteString("usage: sma2mqtt <config.yaml>\n")
		os.Exit(1)
	}

	boot := zerolog.New(os.Stderr).With().Timestamp().Logger()

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(os.Args[1])
	if err != nil {
		boot.Fatal().Err(err).Msg("config load failed")
	}
	if err := config.Validate(cfg); err != nil {
		boot.Fatal().Err(err).Msg("config validation failed")
	}
	config.Normalize(cfg)

	log := newLogger(cfg.Bridge.Log)
	log.Info().Str("version", version).Msg("sma2mqtt starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --------------------
	// MQTT publisher
	// --------------------

	pub, err := publisher.Build(cfg.Bridge, log.With().Str("component", "publisher").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("publisher build failed")
	}

	if err := pub.PublishVersion(version); err != nil {
		log.Warn().Err(err).Msg("version publish failed")
	}

	// --------------------
	// Poller pipelines
	// --------------------

	runner, err := poller.Build(cfg.Bridge, log.With().Str("component", "poller").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("poller build failed")
	}

	out := make(chan poller.PollResult)
	go runner.Run(ctx, out)

	// --------------------
	// Orchestrator: delivery + availability + discovery
	// --------------------

	trackers := make(map[string]*status.Tracker, len(cfg.Bridge.Inverters))
	for _, ic := range cfg.Bridge.Inverters {
		trackers[ic.ID] = &status.Tracker{}
	}

	for {
		select {
		case <-ctx.Done():
			shutdown(runner, pub, log)
			return

		case res := <-out:
			handle(res, pub, trackers[res.Inverter], log)
		}
	}
}

// handle delivers one poll result: availability edge first, then
// discovery, then the data itself.
func handle(res poller.PollResult, pub *publisher.Publisher, tr *status.Tracker, log zerolog.Logger) {
	if res.Err != nil {
		log.Error().Str("inverter", res.Inverter).Err(res.Err).Msg("poll cycle failed")
		if st, changed := tr.Update(false); changed {
			if err := pub.PublishInverterStatus(res.Inverter, st); err != nil {
				log.Warn().Str("inverter", res.Inverter).Err(err).Msg("availability publish failed")
			}
		}
		return
	}

	if st, changed := tr.Update(true); changed {
		if err := pub.PublishInverterStatus(res.Inverter, st); err != nil {
			log.Warn().Str("inverter", res.Inverter).Err(err).Msg("availability publish failed")
		}
	}

	if err := pub.Announce(res); err != nil {
		log.Warn().Str("inverter", res.Inverter).Err(err).Msg("discovery publish failed")
	}

	if err := pub.PublishResult(res); err != nil {
		log.Error().Str("inverter", res.Inverter).Err(err).Msg("publish failed")
		return
	}

	log.Debug().
		Str("inverter", res.Inverter).
		Int("measurements", len(res.Readings)).
		Uint64("cycle", res.Counter).
		Msg("published")
}

// shutdown runs the orderly exit: retract discovery configs if configured,
// flip the bridge status to offline, release connections.
func shutdown(runner *poller.Runner, pub *publisher.Publisher, log zerolog.Logger) {
	log.Info().Msg("shutting down")

	if err := pub.ClearDiscovery(); err != nil {
		log.Warn().Err(err).Msg("discovery clear failed")
	}
	pub.Close()

	if err := runner.Close(); err != nil {
		log.Warn().Err(err).Msg("inverter close failed")
	}
}

func newLogger(lc config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(lc.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var w io.Writer = os.Stderr
	if lc.Pretty {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
