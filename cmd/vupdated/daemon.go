package main

import (
	"context"

	"codeberg.org/mutker/vupdated/internal/daemon"
	"codeberg.org/mutker/vupdated/internal/dial"
	"codeberg.org/mutker/vupdated/internal/errors"
	"codeberg.org/mutker/vupdated/internal/history"
	"codeberg.org/mutker/vupdated/internal/logger"
	"codeberg.org/mutker/vupdated/internal/pid"
	"codeberg.org/mutker/vupdated/internal/telemetry"
)

func runDaemon(ctx context.Context, cc *commandContext) error {
	errFactory := errors.New()

	source := cc.source()
	cfg, err := source.Load()
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.Log.Level, logger.IsService()); err != nil {
		return err
	}

	lock, err := pid.Acquire(pid.DefaultPath())
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn().Err(err).Msg("failed to release pid file")
		}
	}()

	rec, err := history.NewService(cfg.HistoryConfig())
	if err != nil {
		return errFactory.Wrap(errors.ErrInitApp, err)
	}
	defer func() {
		if err := rec.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close value history")
		}
	}()

	metrics := telemetry.New()
	d := daemon.New(source,
		daemon.WithObserver(dial.Observers{metrics, history.NewObserver(rec)}),
		daemon.WithTelemetry(metrics),
	)

	logger.Info().
		Str("config", cc.configPath).
		Str("server", cfg.Server.Address).
		Int("dials", len(cfg.Dials)).
		Msg("starting daemon")

	if err := d.Run(ctx, cfg); err != nil {
		err = errFactory.Wrap(errors.ErrMainLoop, err)
		logger.ErrorWithCode(err).Msg("daemon failed")
		return err
	}

	logger.Info().Msg("daemon stopped")

	return nil
}
