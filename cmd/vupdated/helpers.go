package main

import (
	"context"
	"fmt"

	"codeberg.org/mutker/vupdated/internal/config"
	"codeberg.org/mutker/vupdated/internal/daemon"
	"codeberg.org/mutker/vupdated/internal/errors"
	"codeberg.org/mutker/vupdated/internal/vu"
)

func newClient(cc *commandContext) (*config.Config, vu.API, error) {
	cfg, err := cc.loadOrDefault()
	if err != nil {
		return nil, nil, err
	}

	api, err := daemon.NewClient(cfg.Server)
	if err != nil {
		return nil, nil, err
	}

	return cfg, api, nil
}

// statuses returns the status of every connected dial, in list order.
func statuses(ctx context.Context, api vu.API) ([]vu.Status, error) {
	errFactory := errors.New()

	dials, err := api.ListDials(ctx)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrListDials, err)
	}

	out := make([]vu.Status, 0, len(dials))
	for _, info := range dials {
		st, err := api.Status(ctx, info.UID)
		if err != nil {
			return nil, errFactory.Wrapf(errors.ErrListDials, err, "failed to get status for %s", info.UID)
		}
		out = append(out, st)
	}

	return out, nil
}

func dialByIndex(ctx context.Context, api vu.API, index int) (vu.DeviceID, error) {
	errFactory := errors.New()

	all, err := statuses(ctx, api)
	if err != nil {
		return "", errFactory.Wrap(errors.ErrSelectDial, err)
	}

	for _, st := range all {
		if st.Index == index {
			return st.UID, nil
		}
	}

	return "", errFactory.WithMessage(errors.ErrSelectDial, fmt.Sprintf("no dial found for index %d", index))
}

// selectDial resolves the dial named by --dial or --index.
func selectDial(ctx context.Context, api vu.API, uid string, index int, byUID bool) (vu.DeviceID, error) {
	if byUID {
		return vu.DeviceID(uid), nil
	}

	return dialByIndex(ctx, api, index)
}
