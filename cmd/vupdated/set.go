package main

import (
	"context"

	"codeberg.org/mutker/vupdated/internal/errors"
	"codeberg.org/mutker/vupdated/internal/logger"
	"codeberg.org/mutker/vupdated/internal/vu"
	"github.com/spf13/cobra"
)

type setOptions struct {
	uid              string
	index            int
	value            int
	red, green, blue int

	byUID    bool
	setValue bool

	// Channels given on the command line. The others keep the dial's
	// current backlight.
	setRed, setGreen, setBlue bool
}

func (o setOptions) setBacklight() bool {
	return o.setRed || o.setGreen || o.setBlue
}

func newSetCommand(cc *commandContext) *cobra.Command {
	var opts setOptions

	cmd := &cobra.Command{
		Use:   "set (--dial UID | --index N) [--value V] [--red R] [--green G] [--blue B]",
		Short: "Set the value or backlight of one dial",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			opts.byUID = flags.Changed("dial")
			opts.setValue = flags.Changed("value")
			opts.setRed = flags.Changed("red")
			opts.setGreen = flags.Changed("green")
			opts.setBlue = flags.Changed("blue")
			return setDial(cmd.Context(), cc, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.uid, "dial", "", "UID of the dial")
	flags.IntVar(&opts.index, "index", 0, "Index of the dial")
	flags.IntVar(&opts.value, "value", 0, "Needle position in percent")
	flags.IntVar(&opts.red, "red", 0, "Backlight red channel in percent")
	flags.IntVar(&opts.green, "green", 0, "Backlight green channel in percent")
	flags.IntVar(&opts.blue, "blue", 0, "Backlight blue channel in percent")

	cmd.MarkFlagsMutuallyExclusive("dial", "index")
	cmd.MarkFlagsOneRequired("dial", "index")
	cmd.MarkFlagsOneRequired("value", "red", "green", "blue")

	return cmd
}

func setDial(ctx context.Context, cc *commandContext, opts setOptions) error {
	errFactory := errors.New()

	_, api, err := newClient(cc)
	if err != nil {
		return err
	}

	var value vu.Percent
	if opts.setValue {
		if value, err = vu.NewPercent(opts.value); err != nil {
			return errFactory.Wrap(errors.ErrInvalidArgument, err)
		}
	}

	id, err := selectDial(ctx, api, opts.uid, opts.index, opts.byUID)
	if err != nil {
		return err
	}
	d := vu.NewDial(api, id)

	if opts.setValue {
		if err := d.Set(ctx, value); err != nil {
			return errFactory.Wrapf(errors.ErrSetDial, err, "failed to set %s to %s", id, value)
		}
		logger.Info().Str("uid", id.String()).Str("value", value.String()).Msg("dial value set")
	}

	if opts.setBacklight() {
		backlight, err := mergeBacklight(ctx, api, id, opts)
		if err != nil {
			return err
		}
		if err := d.SetBacklight(ctx, backlight); err != nil {
			return errFactory.Wrapf(errors.ErrSetDial, err, "failed to set backlight of %s to %s", id, backlight)
		}
		logger.Info().Str("uid", id.String()).Str("backlight", backlight.String()).Msg("dial backlight set")
	}

	return nil
}

// mergeBacklight builds the backlight from the given channels, taking the
// rest from the dial's current backlight.
func mergeBacklight(ctx context.Context, api vu.API, id vu.DeviceID, opts setOptions) (vu.Backlight, error) {
	errFactory := errors.New()

	red, green, blue := opts.red, opts.green, opts.blue
	if !opts.setRed || !opts.setGreen || !opts.setBlue {
		st, err := api.Status(ctx, id)
		if err != nil {
			return vu.Backlight{}, errFactory.Wrapf(errors.ErrDialStatus, err, "failed to read current backlight of %s", id)
		}
		if !opts.setRed {
			red = st.Backlight.Red
		}
		if !opts.setGreen {
			green = st.Backlight.Green
		}
		if !opts.setBlue {
			blue = st.Backlight.Blue
		}
	}

	backlight, err := vu.NewBacklight(red, green, blue)
	if err != nil {
		return vu.Backlight{}, errFactory.Wrap(errors.ErrInvalidArgument, err)
	}

	return backlight, nil
}
