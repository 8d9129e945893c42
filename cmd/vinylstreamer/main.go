package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/henrikbla/vinylstreamer-shazam/internal/capture"
	"github.com/henrikbla/vinylstreamer-shazam/internal/config"
	"github.com/henrikbla/vinylstreamer-shazam/internal/cover"
	"github.com/henrikbla/vinylstreamer-shazam/internal/icecast"
	"github.com/henrikbla/vinylstreamer-shazam/internal/monitor"
	"github.com/henrikbla/vinylstreamer-shazam/internal/override"
	"github.com/henrikbla/vinylstreamer-shazam/internal/recognizer"
	"github.com/henrikbla/vinylstreamer-shazam/internal/stream"
)

func main() {
	logger := log.New(os.Stdout, "vinylstreamer ", log.LstdFlags|log.Lmsgprefix)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if info, err := stream.Probe(ctx, cfg.StreamURL); err != nil {
		logger.Printf("stream not reachable yet: %v", err)
	} else {
		logger.Printf("monitoring %s (%s)", cfg.StreamURL, info)
	}

	collaborators := monitor.Collaborators{
		Listeners:  icecast.NewStats(cfg.StatsURL, logger),
		Sampler:    capture.NewSampler(cfg.CaptureCommand, cfg.StreamURL, cfg.CaptureSeconds),
		Recognizer: recognizer.NewClient(cfg.RecognizerURL, logger),
		Cover:      cover.NewPublisher(cfg.CoverLocalPath),
		Metadata:   icecast.NewMetadata(cfg.AdminURL, cfg.Mount, cfg.AdminUser, cfg.AdminPassword),
		Probe: func(ctx context.Context) (stream.Info, error) {
			return stream.Probe(ctx, cfg.StreamURL)
		},
	}

	if cfg.OverrideFile != "" {
		store, err := override.NewStore(cfg.OverrideFile, cfg.OverrideDebounce, logger)
		if err != nil {
			logger.Fatalf("initialise override store: %v", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Printf("error closing override store: %v", err)
			}
		}()
		collaborators.Override = store
	}

	settings := monitor.Settings{
		CoverPublicURL: cfg.CoverPublicURL,
		PollInterval:   cfg.PollInterval,
		IdleInterval:   cfg.IdleInterval,
		SettleDelay:    cfg.SettleDelay,
	}

	monitor.New(settings, collaborators, logger).Run(ctx)
	logger.Println("shutdown complete")
}
