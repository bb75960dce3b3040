package main

import (
	"context"

	"codeberg.org/mutker/vupdated/internal/config"
	"codeberg.org/mutker/vupdated/internal/errors"
	"codeberg.org/mutker/vupdated/internal/logger"
	"codeberg.org/mutker/vupdated/internal/sensor"
	"github.com/spf13/cobra"
)

func newGenerateCommand(cc *commandContext) *cobra.Command {
	valid := make([]string, 0, len(sensor.All()))
	for _, m := range sensor.All() {
		valid = append(valid, m.String())
	}

	return &cobra.Command{
		Use:     "generate-config [metrics...]",
		Aliases: []string{"gen-config"},
		Short:   "Write a config file assigning metrics to the connected dials",
		Long: `Discover the connected dials and assign the given metrics to them in order.
Without arguments the metrics are cpu-load, mem, cpu-temp and swap. If there are
more metrics than dials, only the first ones are written.`,
		ValidArgs: valid,
		Args:      cobra.OnlyValidArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return generateConfig(cmd.Context(), cc, args)
		},
	}
}

func generateConfig(ctx context.Context, cc *commandContext, args []string) error {
	errFactory := errors.New()

	metrics := sensor.DefaultMetrics
	if len(args) > 0 {
		metrics = make([]sensor.Metric, 0, len(args))
		for _, arg := range args {
			m, err := sensor.ParseMetric(arg)
			if err != nil {
				return errFactory.Wrap(errors.ErrGenerate, err)
			}
			metrics = append(metrics, m)
		}
	}

	cfg, api, err := newClient(cc)
	if err != nil {
		return errFactory.Wrap(errors.ErrGenerate, err)
	}

	dials, err := statuses(ctx, api)
	if err != nil {
		return errFactory.Wrap(errors.ErrGenerate, err)
	}

	if len(dials) < len(metrics) {
		skipped := make([]string, 0, len(metrics)-len(dials))
		for _, m := range metrics[len(dials):] {
			skipped = append(skipped, m.String())
		}
		logger.Warn().
			Int("dials", len(dials)).
			Strs("skipped", skipped).
			Msg("not enough dials available to display all requested metrics")
	}

	for i, m := range metrics {
		if i >= len(dials) {
			break
		}
		logger.Info().Int("index", dials[i].Index).Str("metric", m.String()).Msg("assigning dial")
	}

	cfg.Dials = config.Generate(dials, metrics).Dials
	if err := cfg.Write(cc.configPath); err != nil {
		return errFactory.Wrap(errors.ErrGenerate, err)
	}

	logger.Info().Str("path", cc.configPath).Int("dials", len(cfg.Dials)).Msg("wrote config")

	return nil
}
