// Package daemon runs one dial manager per configured dial and rebuilds the
// whole set on reload.
package daemon

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"codeberg.org/mutker/vupdated/internal/config"
	"codeberg.org/mutker/vupdated/internal/dial"
	"codeberg.org/mutker/vupdated/internal/errors"
	"codeberg.org/mutker/vupdated/internal/hotplug"
	"codeberg.org/mutker/vupdated/internal/logger"
	"codeberg.org/mutker/vupdated/internal/pause"
	"codeberg.org/mutker/vupdated/internal/retry"
	"codeberg.org/mutker/vupdated/internal/sensor"
	"codeberg.org/mutker/vupdated/internal/signals"
	"codeberg.org/mutker/vupdated/internal/telemetry"
	"codeberg.org/mutker/vupdated/internal/vu"
	"github.com/thejerf/suture/v4"
)

const (
	DefaultShutdownTimeout = 10 * time.Second

	resultsBuffer = 16
)

// ClientFactory builds the VU-Server client for a [server] section.
type ClientFactory func(cfg config.ServerConfig) (vu.API, error)

// NewClient is the ClientFactory used outside of tests.
func NewClient(cfg config.ServerConfig) (vu.API, error) {
	return vu.NewClient(vu.Config{
		Address:           cfg.Address,
		APIKey:            cfg.APIKey,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
}

// Daemon supervises the dial managers.
type Daemon struct {
	source          config.Source
	newClient       ClientFactory
	sampler         sensor.Sampler
	observer        dial.Observer
	collector       telemetry.Collector
	restarter       hotplug.Restarter
	signals         <-chan signals.Action
	shutdownTimeout time.Duration
	log             logger.Logger

	pauser  *pause.Sender
	running pause.Receiver

	sup      *suture.Supervisor
	results  chan outcome
	gen      uint64
	genToken suture.ServiceToken
	hasGen   bool
	managers atomic.Int32
}

type Option func(*Daemon)

func WithClientFactory(f ClientFactory) Option {
	return func(d *Daemon) {
		d.newClient = f
	}
}

func WithSampler(s sensor.Sampler) Option {
	return func(d *Daemon) {
		d.sampler = s
	}
}

// WithObserver receives the events of every dial manager.
func WithObserver(o dial.Observer) Option {
	return func(d *Daemon) {
		d.observer = o
	}
}

// WithTelemetry counts reloads and managers in c and serves it when
// telemetry.listen is set.
func WithTelemetry(c telemetry.Collector) Option {
	return func(d *Daemon) {
		d.collector = c
	}
}

// WithRestarter replaces the systemctl restarter of the hotplug watcher.
func WithRestarter(r hotplug.Restarter) Option {
	return func(d *Daemon) {
		d.restarter = r
	}
}

// WithSignals replaces the process signal listener.
func WithSignals(ch <-chan signals.Action) Option {
	return func(d *Daemon) {
		d.signals = ch
	}
}

func WithShutdownTimeout(timeout time.Duration) Option {
	return func(d *Daemon) {
		d.shutdownTimeout = timeout
	}
}

// New returns a daemon that reloads its configuration from source.
func New(source config.Source, opts ...Option) *Daemon {
	d := &Daemon{
		source:          source,
		newClient:       NewClient,
		observer:        dial.NopObserver{},
		shutdownTimeout: DefaultShutdownTimeout,
		log:             logger.With("daemon"),
		results:         make(chan outcome, resultsBuffer),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.sampler == nil {
		d.sampler = sensor.NewHost()
	}

	d.pauser, d.running = pause.New()
	d.sup = newSupervisor("vupdated", d.shutdownTimeout)

	return d
}

// Managers returns the number of dial managers in the current set.
func (d *Daemon) Managers() int {
	return int(d.managers.Load())
}

// Spawn discovers the connected dials and adds a manager for every config
// entry whose index matches one of them. Entries without a dial are skipped
// with a warning; it is an error if none match.
func (d *Daemon) Spawn(ctx context.Context, cfg *config.Config) error {
	errFactory := errors.New()

	specs, err := cfg.DialSpecs()
	if err != nil {
		return errFactory.Wrap(errors.ErrSpawnDials, err)
	}

	api, err := d.newClient(cfg.Server)
	if err != nil {
		return errFactory.Wrap(ErrClient, err)
	}

	policy := retry.New(cfg.RetryConfig(), retry.WithClassifier(vu.IsPermanent))
	discovery := policy.With(retry.WithNotify(func(op string, err error, next time.Duration) {
		d.log.Warn().Err(err).Str("op", op).Dur("retry_in", next).Msg("dial discovery failed, retrying")
	}))

	byIndex, err := discover(ctx, api, discovery)
	if err != nil {
		return errFactory.Wrap(errors.ErrSpawnDials, err)
	}
	if len(byIndex) < len(specs) {
		d.log.Warn().
			Int("dials", len(byIndex)).
			Int("configured", len(specs)).
			Msg("not enough dials connected for every configured metric")
	}

	d.gen++
	gen := newSupervisor(fmt.Sprintf("dials-%d", d.gen), d.shutdownTimeout)

	spawned := 0
	for _, spec := range specs {
		id, ok := byIndex[spec.Index]
		if !ok {
			d.log.Warn().Msgf("no dial found for index %d, skipping %s", spec.Index, spec.Settings.Name)
			continue
		}
		delete(byIndex, spec.Index)

		m := dial.NewManager(spec.Settings, vu.NewDial(api, id), d.sampler, d.running, policy,
			dial.WithObserver(d.observer))
		gen.Add(&task{
			name:    fmt.Sprintf("dial %q", m.Name()),
			gen:     d.gen,
			code:    errors.ErrDialFailed,
			fn:      m.Run,
			results: d.results,
		})
		d.log.Info().
			Str("dial", spec.Settings.Name).
			Str("uid", id.String()).
			Int("index", spec.Index).
			Str("metric", spec.Settings.Metric.String()).
			Msg("spawned dial manager")
		spawned++
	}

	if spawned == 0 {
		return errFactory.New(errors.ErrNoDials)
	}

	d.genToken = d.sup.Add(gen)
	d.hasGen = true
	d.managers.Store(int32(spawned))
	if d.collector != nil {
		d.collector.SetManagers(spawned)
	}

	return nil
}

// Run spawns the managers for cfg and supervises them until a shutdown
// signal, ctx is done, or a manager fails. A reload signal stops every
// manager and spawns a new set from the reloaded configuration.
func (d *Daemon) Run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	supDone := d.sup.ServeBackground(ctx)
	defer func() {
		cancel()
		<-supDone
		d.pauser.Close()
	}()

	sigs := d.signals
	if sigs == nil {
		sigs = signals.Notify(ctx)
	}

	if err := d.startServices(cfg); err != nil {
		return err
	}

	stopped, err := d.spawnUntilShutdown(ctx, sigs, cfg)
	if stopped || err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case action, ok := <-sigs:
			if !ok {
				return nil
			}
			switch action {
			case signals.Reload:
				d.log.Info().Msg("received reload signal, reloading config")
				stopped, err := d.reload(ctx, sigs)
				if stopped || err != nil {
					return err
				}
			case signals.Shutdown:
				d.log.Info().Msg("received shutdown signal, shutting down")
				return nil
			}

		case out := <-d.results:
			if d.stale(out) {
				continue
			}
			return out.err
		}
	}
}

// stale reports whether out comes from a dial set that a reload replaced.
func (d *Daemon) stale(out outcome) bool {
	if out.gen == 0 || out.gen == d.gen {
		return false
	}

	d.log.Warn().Err(out.err).Str("task", out.name).Uint64("generation", out.gen).
		Msg("ignoring result of a stopped dial set")

	return true
}

// reload stops the current managers and spawns a set from the reloaded
// configuration. stopped reports that a shutdown arrived while spawning.
func (d *Daemon) reload(ctx context.Context, sigs <-chan signals.Action) (stopped bool, err error) {
	errFactory := errors.New()

	d.stopDials()

	cfg, err := d.source.Load()
	if err != nil {
		return false, errFactory.Wrap(errors.ErrReload, err)
	}

	stopped, err = d.spawnUntilShutdown(ctx, sigs, cfg)
	if stopped {
		return true, nil
	}
	if err != nil {
		return false, errFactory.Wrap(errors.ErrReload, err)
	}

	if d.collector != nil {
		d.collector.Reloaded()
	}
	d.log.Info().Int("managers", d.Managers()).Msg("config reloaded")

	return false, nil
}

// spawnUntilShutdown runs Spawn while watching sigs. A shutdown signal or
// the end of ctx cancels discovery and reports stopped with a nil error.
// Reload signals that arrive while spawning are dropped.
func (d *Daemon) spawnUntilShutdown(ctx context.Context, sigs <-chan signals.Action, cfg *config.Config) (stopped bool, err error) {
	spawnCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- d.Spawn(spawnCtx, cfg)
	}()

	for {
		select {
		case err := <-done:
			if err != nil && ctx.Err() != nil {
				return true, nil
			}
			return false, err

		case <-ctx.Done():
			cancel()
			<-done
			return true, nil

		case action, ok := <-sigs:
			if ok && action == signals.Reload {
				d.log.Warn().Msg("received reload signal while spawning dial managers, ignoring")
				continue
			}
			d.log.Info().Msg("received shutdown signal while spawning dial managers, shutting down")
			cancel()
			<-done
			return true, nil
		}
	}
}

// stopDials removes the current manager set and waits for it to stop.
func (d *Daemon) stopDials() {
	if !d.hasGen {
		return
	}

	if err := d.sup.RemoveAndWait(d.genToken, d.shutdownTimeout); err != nil {
		d.log.Warn().Err(err).Msg("dial managers did not stop cleanly")
	}
	d.hasGen = false
	d.managers.Store(0)
	if d.collector != nil {
		d.collector.SetManagers(0)
	}
}

// startServices adds the hotplug watcher and the telemetry server. They
// outlive reloads.
func (d *Daemon) startServices(cfg *config.Config) error {
	if cfg.Hotplug.Enabled {
		var opts []hotplug.Option
		if d.restarter != nil {
			opts = append(opts, hotplug.WithRestarter(d.restarter))
		}
		w := hotplug.New(cfg.Hotplug.Service, d.pauser, opts...)
		d.sup.Add(&task{
			name:    w.String(),
			code:    errors.ErrHotplug,
			fn:      w.Serve,
			results: d.results,
		})
	}

	if d.collector != nil && cfg.Telemetry.Listen != "" {
		tcfg := telemetry.DefaultConfig()
		tcfg.Listen = cfg.Telemetry.Listen
		if err := tcfg.Validate(); err != nil {
			return err
		}
		d.sup.Add(telemetry.NewServer(tcfg, d.collector))
		d.log.Info().Str("listen", tcfg.Listen).Msg("serving telemetry")
	}

	return nil
}
