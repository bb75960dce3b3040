//go:build linux

package hotplug

import (
	"context"

	"codeberg.org/mutker/vupdated/internal/errors"
	"github.com/pilebones/go-udev/netlink"
)

// Serve listens for udev events until ctx is done. A failed service restart
// is fatal.
func (w *Watcher) Serve(ctx context.Context) error {
	errFactory := errors.New()

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return errFactory.Wrap(ErrConnect, err)
	}
	defer conn.Close()

	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	quit := conn.Monitor(queue, errs, matcher())
	defer close(quit)

	w.log.Info().Msg("starting hotplug event watcher")

	for {
		select {
		case <-ctx.Done():
			return nil
		case uevent := <-queue:
			if err := w.handleEvent(ctx, string(uevent.Action), uevent.KObj); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		case err := <-errs:
			w.log.Error().Err(err).Msg("failed to receive udev event")
		}
	}
}

func matcher() netlink.Matcher {
	action := actions
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": subsystem,
		},
	})

	return rules
}
