package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"codeberg.org/mutker/vupdated/internal/errors"
	"codeberg.org/mutker/vupdated/internal/history"
	"codeberg.org/mutker/vupdated/internal/vu"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type statusOptions struct {
	uid   string
	index int
	byUID bool
}

func newStatusCommand(cc *commandContext) *cobra.Command {
	var opts statusOptions

	cmd := &cobra.Command{
		Use:   "status (--dial UID | --index N)",
		Short: "Show the detailed status of one dial",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.byUID = cmd.Flags().Changed("dial")
			return showStatus(cmd.Context(), cc, cmd.OutOrStdout(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.uid, "dial", "", "UID of the dial")
	flags.IntVar(&opts.index, "index", 0, "Index of the dial")

	cmd.MarkFlagsMutuallyExclusive("dial", "index")
	cmd.MarkFlagsOneRequired("dial", "index")

	return cmd
}

func showStatus(ctx context.Context, cc *commandContext, out io.Writer, opts statusOptions) error {
	cfg, api, err := newClient(cc)
	if err != nil {
		return err
	}

	id, err := selectDial(ctx, api, opts.uid, opts.index, opts.byUID)
	if err != nil {
		return err
	}

	st, err := api.Status(ctx, id)
	if err != nil {
		return errors.New().Wrapf(errors.ErrDialStatus, err, "failed to get status for %s", id)
	}

	var latest map[string]history.Sample
	if cfg.History.Enabled {
		latest = latestSamples(ctx, cfg.HistoryConfig())
	}

	renderStatus(out, st, lastRecorded(latest, st.Name))

	return nil
}

func renderStatus(out io.Writer, st vu.Status, recorded string) {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(st.UID.String())

	tw.AppendRows([]table.Row{
		{"Index", st.Index},
		{"Name", st.Name},
		{"Value", percent(st.Value)},
		{"Backlight", rgb(st.Backlight)},
		{"RGBW", fmt.Sprintf("%d, %d, %d, %d", st.RGBW[0], st.RGBW[1], st.RGBW[2], st.RGBW[3])},
		{"Dial easing", easing(st.Easing.DialPeriod, st.Easing.DialStep)},
		{"Backlight easing", easing(st.Easing.BacklightPeriod, st.Easing.BacklightStep)},
		{"Image", st.ImageFile},
	})
	tw.AppendSeparator()
	tw.AppendRows([]table.Row{
		{"Firmware", st.FirmwareVersion},
		{"Firmware hash", st.FirmwareHash},
		{"Hardware", st.HardwareVersion},
		{"Protocol", st.ProtocolVersion},
	})
	tw.AppendSeparator()
	tw.AppendRows([]table.Row{
		{"Update deadline", fmt.Sprintf("%.1fs", st.UpdateDeadline)},
		{"Pending", pending(st)},
		{"Last recorded", recorded},
	})

	tw.Render()
}

func easing(periodMs, step int) string {
	return fmt.Sprintf("%dms/%d%%", periodMs, step)
}

// pending lists the changes the server has not yet sent to the dial.
func pending(st vu.Status) string {
	var changes []string
	if st.ValueChanged {
		changes = append(changes, "value")
	}
	if st.BacklightChanged {
		changes = append(changes, "backlight")
	}
	if st.ImageChanged {
		changes = append(changes, "image")
	}
	if len(changes) == 0 {
		return "none"
	}

	return strings.Join(changes, ", ")
}
