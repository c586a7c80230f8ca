package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/UppaJung/hardy-har/internal/adapters/devtools"
	"github.com/UppaJung/hardy-har/internal/adapters/ndjson"
	"github.com/UppaJung/hardy-har/internal/builder"
	cfgpkg "github.com/UppaJung/hardy-har/internal/infrastructure/config"
	obs "github.com/UppaJung/hardy-har/internal/infrastructure/observability"
)

func main() {
	cfg := cfgpkg.FromEnv()

	logger := obs.NewLogger(cfg.LogLevel)
	logger.Info().Str("version", obs.Version).Msg("starting hardy-har")

	metrics := obs.NewMetrics()

	b := builder.New(builder.Options{
		IncludeResourcesFromDiskCache: cfg.IncludeDiskCache,
		IncludeTextFromResponseBody:   cfg.IncludeResponseBodies,
		MimicChromeHAR:                cfg.MimicChromeHAR,
		RedactSensitive:               cfg.RedactSensitive,
	}, logger, metrics)

	var err error
	if cfg.DevToolsURL != "" {
		err = captureLive(cfg, b, logger)
	} else {
		err = replayFile(cfg, b, logger)
	}
	if err != nil {
		logger.Error().Err(err).Msg("capture failed")
		os.Exit(1)
	}

	if err := writeArchive(cfg.OutputFile, b); err != nil {
		logger.Error().Err(err).Msg("write archive failed")
		os.Exit(1)
	}
	logger.Info().Msg("hardy-har finished")
}

// captureLive streams events from a running browser until interrupted or
// the browser disconnects; whatever accumulated becomes the archive.
func captureLive(cfg cfgpkg.Config, b *builder.Builder, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := devtools.Dial(ctx, cfg.DevToolsURL, b, devtools.Options{
		FetchResponseBodies: cfg.IncludeResponseBodies,
		BodyMaxBytes:        cfg.BodyMaxBytes,
	}, logger)
	if err != nil {
		return err
	}
	logger.Info().Msg("capturing; interrupt to finish")
	if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func replayFile(cfg cfgpkg.Config, b *builder.Builder, logger zerolog.Logger) error {
	in := os.Stdin
	if cfg.InputFile != "" && cfg.InputFile != "-" {
		f, err := os.Open(cfg.InputFile)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	return ndjson.Replay(in, b, logger)
}

func writeArchive(path string, b *builder.Builder) error {
	out := os.Stdout
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(b.HAR())
}
