package daemon

import (
	"context"

	"codeberg.org/mutker/vupdated/internal/errors"
	"codeberg.org/mutker/vupdated/internal/retry"
	"codeberg.org/mutker/vupdated/internal/vu"
)

// discover maps the index of every connected dial to its UID. Both the list
// and each status request go through policy.
func discover(ctx context.Context, api vu.API, policy *retry.Policy) (map[int]vu.DeviceID, error) {
	errFactory := errors.New()

	dials, err := retry.Value(ctx, policy, "list", api.ListDials)
	if err != nil {
		return nil, errFactory.Wrapf(ErrDiscover, err, "failed to list dials")
	}

	byIndex := make(map[int]vu.DeviceID, len(dials))
	for _, info := range dials {
		status, err := retry.Value(ctx, policy, "status", func(ctx context.Context) (vu.Status, error) {
			return api.Status(ctx, info.UID)
		})
		if err != nil {
			return nil, errFactory.Wrapf(ErrDiscover, err, "failed to get status for %s", info.UID)
		}
		byIndex[status.Index] = info.UID
	}

	return byIndex, nil
}
