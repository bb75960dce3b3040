package dial

import (
	"context"
	"sync/atomic"
	"time"

	"codeberg.org/mutker/vupdated/internal/errors"
	"codeberg.org/mutker/vupdated/internal/logger"
	"codeberg.org/mutker/vupdated/internal/pause"
	"codeberg.org/mutker/vupdated/internal/retry"
	"codeberg.org/mutker/vupdated/internal/sensor"
	"codeberg.org/mutker/vupdated/internal/vu"
)

// DefaultSensorFailureLimit is the number of consecutive sensor failures
// after which a Manager gives up.
const DefaultSensorFailureLimit = 4

// State is the lifecycle phase of a Manager.
type State int32

const (
	Configuring State = iota
	Polling
	Paused
	Terminated
)

func (s State) String() string {
	switch s {
	case Configuring:
		return "configuring"
	case Polling:
		return "polling"
	case Paused:
		return "paused"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Settings is the resolved configuration of one dial.
type Settings struct {
	Name            string
	Metric          sensor.Metric
	UpdateInterval  time.Duration
	DialEasing      *vu.Easing
	BacklightEasing *vu.Easing
	Backlight       vu.Backlight
}

// Manager keeps one dial showing one metric.
type Manager struct {
	settings     Settings
	device       Device
	sampler      sensor.Sampler
	running      pause.Receiver
	policy       *retry.Policy
	observer     Observer
	failureLimit int
	log          logger.Logger
	state        atomic.Int32
}

type Option func(*Manager)

func WithObserver(o Observer) Option {
	return func(m *Manager) {
		m.observer = o
	}
}

// WithSensorFailureLimit overrides DefaultSensorFailureLimit.
func WithSensorFailureLimit(n int) Option {
	return func(m *Manager) {
		m.failureLimit = n
	}
}

func NewManager(
	settings Settings,
	device Device,
	sampler sensor.Sampler,
	running pause.Receiver,
	policy *retry.Policy,
	opts ...Option,
) *Manager {
	m := &Manager{
		settings:     settings,
		device:       device,
		sampler:      sampler,
		running:      running,
		observer:     NopObserver{},
		failureLimit: DefaultSensorFailureLimit,
		log: logger.With("dial").
			With("dial", settings.Name).
			With("uid", device.ID().String()),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.policy = policy.With(retry.WithNotify(func(op string, err error, next time.Duration) {
		m.log.Warn().Err(err).Str("op", op).Dur("retry_in", next).Msg("request failed, retrying")
		m.observer.Retried(m.settings.Name, op, err)
	}))

	return m
}

func (m *Manager) Name() string {
	return m.settings.Name
}

func (m *Manager) State() State {
	return State(m.state.Load())
}

func (m *Manager) setState(s State) {
	m.state.Store(int32(s))
}

// Run configures the dial and then updates it until ctx is done, in which
// case it returns nil, or until an unrecoverable error occurs.
func (m *Manager) Run(ctx context.Context) error {
	defer m.setState(Terminated)

	m.setState(Configuring)
	if err := m.configure(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	err := m.poll(ctx)
	if ctx.Err() != nil {
		return nil
	}

	return err
}

func (m *Manager) configure(ctx context.Context) error {
	errFactory := errors.New()
	s := m.settings

	m.log.Info().Str("metric", s.Metric.String()).Msg("configuring dial")

	if err := m.policy.Do(ctx, "set dial name", func(ctx context.Context) error {
		return m.device.SetName(ctx, s.Name)
	}); err != nil {
		return errFactory.Wrapf(ErrConfigure, err, "failed to set name for dial %s", s.Name)
	}

	if s.DialEasing != nil {
		easing := *s.DialEasing
		if err := m.policy.Do(ctx, "set dial easing", func(ctx context.Context) error {
			return m.device.SetDialEasing(ctx, easing)
		}); err != nil {
			return errFactory.Wrapf(ErrConfigure, err, "failed to set dial easing for %s", s.Name)
		}
	}

	if s.BacklightEasing != nil {
		easing := *s.BacklightEasing
		if err := m.policy.Do(ctx, "set backlight easing", func(ctx context.Context) error {
			return m.device.SetBacklightEasing(ctx, easing)
		}); err != nil {
			return errFactory.Wrapf(ErrConfigure, err, "failed to set backlight easing for %s", s.Name)
		}
	}

	if err := m.setBacklight(ctx); err != nil {
		return errFactory.Wrapf(ErrConfigure, err, "failed to set backlight for %s", s.Name)
	}

	if file, img, ok := s.Metric.Icon(); ok {
		if err := m.policy.Do(ctx, "set dial image", func(ctx context.Context) error {
			return m.device.SetImage(ctx, file, img, false)
		}); err != nil {
			return errFactory.Wrapf(ErrConfigure, err, "failed to set image for %s", s.Name)
		}
	}

	return nil
}

func (m *Manager) setBacklight(ctx context.Context) error {
	m.log.Debug().Str("backlight", m.settings.Backlight.String()).Msg("setting dial backlight")

	return m.policy.Do(ctx, "set dial backlight", func(ctx context.Context) error {
		return m.device.SetBacklight(ctx, m.settings.Backlight)
	})
}

func (m *Manager) poll(ctx context.Context) error {
	errFactory := errors.New()
	s := m.settings
	failures := errors.NewMultiError("too many consecutive sensor failures for "+s.Name, m.failureLimit)

	ticker := time.NewTicker(s.UpdateInterval)
	defer ticker.Stop()

	wait := func() bool {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			return true
		}
	}

	m.setState(Polling)
	m.log.Info().Dur("interval", s.UpdateInterval).Msg("dial configured, starting updates")

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if !m.running.Running() {
			if err := m.pause(ctx); err != nil {
				return err
			}
		}

		reading, err := m.sampler.Sample(ctx, s.Metric, s.UpdateInterval)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.log.Warn().Err(err).Str("metric", s.Metric.String()).Msg("failed to read metric")
			m.observer.SensorFailed(s.Name, s.Metric, err)
			if agg := failures.Push(err); agg != nil {
				return errFactory.Wrap(ErrSensorStreak, agg)
			}
			if !wait() {
				return ctx.Err()
			}
			continue
		}

		value, err := reading.Percent()
		if err != nil {
			return errFactory.Wrapf(ErrInvalidReading, err, "invalid %s reading for %s", s.Metric, s.Name)
		}
		m.log.Debug().Str("reading", reading.String()).Int("value", value.Value()).Msg("sampled metric")

		if err := m.policy.Do(ctx, "set value", func(ctx context.Context) error {
			return m.device.Set(ctx, value)
		}); err != nil {
			return errFactory.Wrapf(ErrSetValue, err, "failed to set value for %s to %s", s.Name, value)
		}
		failures.Clear()
		m.observer.ValuePushed(s.Name, s.Metric, value, time.Now())

		if !s.Metric.SamplesOverInterval() && !wait() {
			return ctx.Err()
		}
	}
}

// pause blocks until updates may resume and then restores the backlight,
// which VU-Server forgets across restarts.
func (m *Manager) pause(ctx context.Context) error {
	m.setState(Paused)
	m.observer.Paused(m.settings.Name, true)
	m.log.Info().Msg("dial updates paused, waiting to restart")

	if err := m.running.WaitRunning(ctx); err != nil {
		return err
	}

	m.log.Info().Msg("dial updates resumed")
	if err := m.setBacklight(ctx); err != nil {
		return errors.New().Wrapf(ErrResume, err, "failed to restore backlight for %s", m.settings.Name)
	}
	m.observer.Paused(m.settings.Name, false)
	m.setState(Polling)

	return nil
}
