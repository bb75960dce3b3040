package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"codeberg.org/mutker/vupdated/internal/errors"
	"codeberg.org/mutker/vupdated/internal/history"
	"codeberg.org/mutker/vupdated/internal/logger"
	"codeberg.org/mutker/vupdated/internal/vu"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newListCommand(cc *commandContext) *cobra.Command {
	var details bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the connected dials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listDials(cmd.Context(), cc, cmd.OutOrStdout(), details)
		},
	}
	cmd.Flags().BoolVarP(&details, "details", "d", false, "Query the status of every dial")

	return cmd
}

func listDials(ctx context.Context, cc *commandContext, out io.Writer, details bool) error {
	errFactory := errors.New()

	cfg, api, err := newClient(cc)
	if err != nil {
		return err
	}

	dials, err := api.ListDials(ctx)
	if err != nil {
		return errFactory.Wrap(errors.ErrListDials, err)
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleRounded)

	if !details {
		tw.AppendHeader(table.Row{"UID", "Name", "Value", "Backlight", "Image"})
		for _, d := range dials {
			tw.AppendRow(table.Row{d.UID, d.Name, percent(d.Value), rgb(d.Backlight), d.ImageFile})
		}
		tw.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})
		tw.Render()
		return nil
	}

	var latest map[string]history.Sample
	if cfg.History.Enabled {
		latest = latestSamples(ctx, cfg.HistoryConfig())
	}

	var statusErr error
	failures := errors.NewMultiError("failed to get the status of some dials", len(dials))

	tw.AppendHeader(table.Row{"Index", "UID", "Name", "Value", "Backlight", "Easing", "Firmware", "Hardware", "Last recorded"})
	for _, d := range dials {
		st, err := api.Status(ctx, d.UID)
		if err != nil {
			if agg := failures.Push(errFactory.Wrapf(errors.ErrListDials, err, "dial %s", d.UID)); agg != nil {
				statusErr = agg
			}
			tw.AppendRow(table.Row{"?", d.UID, d.Name, percent(d.Value), rgb(d.Backlight), "", "", "", ""})
			continue
		}

		tw.AppendRow(table.Row{
			st.Index,
			st.UID,
			st.Name,
			percent(st.Value),
			rgb(st.Backlight),
			easing(st.Easing.DialPeriod, st.Easing.DialStep),
			st.FirmwareVersion,
			st.HardwareVersion,
			lastRecorded(latest, st.Name),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	tw.Render()

	if statusErr == nil {
		statusErr = failures.ErrorOrNil()
	}

	return statusErr
}

func latestSamples(ctx context.Context, cfg history.Config) map[string]history.Sample {
	rec, err := history.NewService(cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to open value history")
		return nil
	}
	defer rec.Close()

	latest, err := rec.Latest(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to read value history")
		return nil
	}

	return latest
}

func lastRecorded(latest map[string]history.Sample, name string) string {
	s, ok := latest[name]
	if !ok {
		return ""
	}

	return fmt.Sprintf("%d%% at %s", s.Value, s.Timestamp.Local().Format(time.DateTime))
}

func percent(v int) string {
	return fmt.Sprintf("%d%%", v)
}

func rgb(c vu.RGB) string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.Red, c.Green, c.Blue)
}
