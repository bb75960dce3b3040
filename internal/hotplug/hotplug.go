// Package hotplug pauses the dial managers while the VU hub is unplugged and
// restarts the VU-Server service when it comes back.
package hotplug

import (
	"context"
	"os/exec"
	"strings"

	"codeberg.org/mutker/vupdated/internal/errors"
	"codeberg.org/mutker/vupdated/internal/logger"
	"codeberg.org/mutker/vupdated/internal/pause"
)

const (
	// DefaultService is the systemd unit of the VU-Server.
	DefaultService = "VU-Server.service"

	subsystem = "usb-serial"
	actions   = "add|remove|bind|unbind|change"
)

// Restarter restarts a service unit.
type Restarter interface {
	Restart(ctx context.Context, unit string) error
}

// Systemctl restarts units through systemctl(1).
type Systemctl struct{}

func (Systemctl) Restart(ctx context.Context, unit string) error {
	errFactory := errors.New()

	out, err := exec.CommandContext(ctx, "systemctl", "restart", unit).CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return errFactory.Wrapf(ErrRestart, err, "failed to restart %s", unit)
		}
		return errFactory.Wrapf(ErrRestart, err, "failed to restart %s: %s", unit, msg)
	}

	return nil
}

// Watcher writes the pause signal from udev events for USB serial devices.
type Watcher struct {
	service   string
	running   *pause.Sender
	restarter Restarter
	log       logger.Logger
}

type Option func(*Watcher)

// WithRestarter replaces the systemctl restarter.
func WithRestarter(r Restarter) Option {
	return func(w *Watcher) {
		w.restarter = r
	}
}

func New(service string, running *pause.Sender, opts ...Option) *Watcher {
	if service == "" {
		service = DefaultService
	}

	w := &Watcher{
		service:   service,
		running:   running,
		restarter: Systemctl{},
		log:       logger.With("hotplug").With("service", service),
	}
	for _, opt := range opts {
		opt(w)
	}

	return w
}

func (*Watcher) String() string {
	return "hotplug-watcher"
}

// handleEvent reacts to one uevent action. A failed restart is returned and
// leaves the dials paused.
func (w *Watcher) handleEvent(ctx context.Context, action, devpath string) error {
	w.log.Debug().Str("action", action).Str("devpath", devpath).Msg("saw a hotplug event")

	switch action {
	case "remove", "unbind":
		w.log.Info().Str("devpath", devpath).Msg("USB serial device removed, pausing dials")
		w.running.Set(false)
	case "add", "bind", "change":
		w.log.Info().Str("devpath", devpath).Msg("USB serial device attached, restarting VU-Server")
		if err := w.restarter.Restart(ctx, w.service); err != nil {
			return err
		}
		w.log.Info().Msg("VU-Server restarted, resuming dials")
		w.running.Set(true)
	}

	return nil
}
