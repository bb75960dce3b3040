//go:build !linux

package hotplug

import (
	"context"

	"codeberg.org/mutker/vupdated/internal/errors"
)

// Serve reports that hotplug is not available on this platform.
func (w *Watcher) Serve(context.Context) error {
	return errors.New().WithMessage(errors.ErrUnsupported, "hotplug requires udev")
}
