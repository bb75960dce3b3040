package daemon_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/mutker/vupdated/internal/config"
	"codeberg.org/mutker/vupdated/internal/daemon"
	"codeberg.org/mutker/vupdated/internal/dial"
	"codeberg.org/mutker/vupdated/internal/errors"
	"codeberg.org/mutker/vupdated/internal/logger"
	"codeberg.org/mutker/vupdated/internal/sensor"
	"codeberg.org/mutker/vupdated/internal/signals"
	"codeberg.org/mutker/vupdated/internal/vu"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tick = 20 * time.Millisecond

type fakeAPI struct {
	mu       sync.Mutex
	order    []vu.DeviceID
	indexes  map[vu.DeviceID]int
	names    map[vu.DeviceID]string
	sets     map[vu.DeviceID][]int
	listErrs int
	lists    int
	setErr   error
}

func newFakeAPI(dials map[vu.DeviceID]int) *fakeAPI {
	api := &fakeAPI{
		indexes: dials,
		names:   map[vu.DeviceID]string{},
		sets:    map[vu.DeviceID][]int{},
	}
	for id := range dials {
		api.order = append(api.order, id)
	}
	return api
}

func (a *fakeAPI) factory(config.ServerConfig) (vu.API, error) {
	return a, nil
}

func (a *fakeAPI) ListDials(context.Context) ([]vu.DialInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lists++
	if a.listErrs > 0 {
		a.listErrs--
		return nil, errors.New().New(vu.ErrTransport)
	}
	infos := make([]vu.DialInfo, 0, len(a.order))
	for _, id := range a.order {
		infos = append(infos, vu.DialInfo{UID: id})
	}
	return infos, nil
}

func (a *fakeAPI) Status(_ context.Context, id vu.DeviceID) (vu.Status, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return vu.Status{UID: id, Index: a.indexes[id]}, nil
}

func (a *fakeAPI) SetName(_ context.Context, id vu.DeviceID, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.names[id] = name
	return nil
}

func (a *fakeAPI) SetValue(_ context.Context, id vu.DeviceID, value vu.Percent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.setErr != nil {
		return a.setErr
	}
	a.sets[id] = append(a.sets[id], value.Value())
	return nil
}

func (*fakeAPI) SetBacklight(context.Context, vu.DeviceID, vu.Backlight) error { return nil }
func (*fakeAPI) SetDialEasing(context.Context, vu.DeviceID, vu.Easing) error   { return nil }
func (*fakeAPI) SetBacklightEasing(context.Context, vu.DeviceID, vu.Easing) error {
	return nil
}

func (*fakeAPI) SetImage(context.Context, vu.DeviceID, string, []byte, bool) error {
	return nil
}

func (a *fakeAPI) failLists(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listErrs = n
}

func (a *fakeAPI) Name(id vu.DeviceID) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.names[id]
}

func (a *fakeAPI) Sets(id vu.DeviceID) []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]int(nil), a.sets[id]...)
}

// stubSampler reports 42% memory usage.
type stubSampler struct {
	calls atomic.Int32
}

func (s *stubSampler) Sample(_ context.Context, m sensor.Metric, _ time.Duration) (sensor.Reading, error) {
	s.calls.Add(1)
	return sensor.Usage(m, 58, 100), nil
}

type fakeSource struct {
	mu  sync.Mutex
	cfg *config.Config
	err error
}

func (s *fakeSource) Load() (*config.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg, s.err
}

type fakeCollector struct {
	reloads  atomic.Int32
	managers atomic.Int32
}

func (c *fakeCollector) Reloaded()           { c.reloads.Add(1) }
func (c *fakeCollector) SetManagers(n int)   { c.managers.Store(int32(n)) }
func (*fakeCollector) Handler() http.Handler { return http.NotFoundHandler() }

func testConfig(dials map[string]int) *config.Config {
	cfg := config.Default()
	cfg.Retries.InitialBackoff = config.Duration{Duration: time.Millisecond}
	cfg.Retries.MaxBackoff = config.Duration{Duration: 5 * time.Millisecond}
	cfg.Retries.MaxElapsedTime = config.Duration{Duration: 100 * time.Millisecond}
	for name, index := range dials {
		cfg.Dials[name] = config.DialConfig{
			Index:          index,
			Metric:         "mem",
			UpdateInterval: config.Duration{Duration: tick},
		}
	}
	return cfg
}

type run struct {
	sigs chan signals.Action
	done chan error
}

func start(t *testing.T, d *daemon.Daemon, sigs chan signals.Action, cfg *config.Config) *run {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	r := &run{sigs: sigs, done: make(chan error, 1)}
	go func() {
		r.done <- d.Run(ctx, cfg)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-r.done:
		case <-time.After(5 * time.Second):
			t.Error("daemon did not stop")
		}
	})
	return r
}

func (r *run) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-r.done:
		r.done <- err
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not return")
		return nil
	}
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.SetOutput(zerolog.LevelWriterAdapter{Writer: &buf})
	t.Cleanup(func() {
		logger.SetOutput(zerolog.LevelWriterAdapter{Writer: io.Discard})
	})
	return &buf
}

func warnings(t *testing.T, buf *bytes.Buffer) []string {
	t.Helper()
	var out []string
	for _, raw := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var line map[string]any
		require.NoError(t, json.Unmarshal(raw, &line))
		if line["level"] == "warn" {
			out = append(out, line["message"].(string))
		}
	}
	return out
}

func TestSpawnMatchesDialsByIndex(t *testing.T) {
	buf := captureLogs(t)
	api := newFakeAPI(map[vu.DeviceID]int{"DIAL0": 0, "DIAL2": 2})
	cfg := testConfig(map[string]int{"zero": 0, "one": 1, "two": 2})
	d := daemon.New(&fakeSource{cfg: cfg},
		daemon.WithClientFactory(api.factory),
		daemon.WithSampler(&stubSampler{}))

	require.NoError(t, d.Spawn(context.Background(), cfg))
	assert.Equal(t, 2, d.Managers())
	assert.Contains(t, warnings(t, buf), "no dial found for index 1, skipping one")
}

func TestSpawnWithoutMatchingDialsFails(t *testing.T) {
	api := newFakeAPI(map[vu.DeviceID]int{"DIAL5": 5})
	cfg := testConfig(map[string]int{"zero": 0, "one": 1})
	d := daemon.New(&fakeSource{cfg: cfg},
		daemon.WithClientFactory(api.factory),
		daemon.WithSampler(&stubSampler{}))

	err := d.Spawn(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrNoDials))
	assert.Zero(t, d.Managers())
}

func TestSpawnRetriesDiscovery(t *testing.T) {
	api := newFakeAPI(map[vu.DeviceID]int{"DIAL0": 0})
	api.listErrs = 2
	cfg := testConfig(map[string]int{"zero": 0})
	d := daemon.New(&fakeSource{cfg: cfg},
		daemon.WithClientFactory(api.factory),
		daemon.WithSampler(&stubSampler{}))

	require.NoError(t, d.Spawn(context.Background(), cfg))
	assert.Equal(t, 1, d.Managers())
	assert.Equal(t, 3, api.lists)
}

func TestRunPushesSensorValueEveryTick(t *testing.T) {
	api := newFakeAPI(map[vu.DeviceID]int{"DIAL0": 0})
	sampler := &stubSampler{}
	cfg := testConfig(map[string]int{"Memory Usage": 0})
	sigs := make(chan signals.Action)
	d := daemon.New(&fakeSource{cfg: cfg},
		daemon.WithClientFactory(api.factory),
		daemon.WithSampler(sampler),
		daemon.WithSignals(sigs))

	r := start(t, d, sigs, cfg)

	require.Eventually(t, func() bool {
		return len(api.Sets("DIAL0")) >= 3
	}, 2*time.Second, 5*time.Millisecond)

	sigs <- signals.Shutdown
	require.NoError(t, r.wait(t))

	sets := api.Sets("DIAL0")
	for _, v := range sets {
		assert.Equal(t, 42, v)
	}
	assert.LessOrEqual(t, len(sets), int(sampler.calls.Load()))
	assert.Equal(t, "Memory Usage", api.Name("DIAL0"))
}

func TestReloadReplacesManagers(t *testing.T) {
	api := newFakeAPI(map[vu.DeviceID]int{"DIAL0": 0, "DIAL2": 2})
	initial := testConfig(map[string]int{"first": 0, "second": 2})
	source := &fakeSource{cfg: testConfig(map[string]int{"replacement": 2})}
	collector := &fakeCollector{}
	sigs := make(chan signals.Action)
	d := daemon.New(source,
		daemon.WithClientFactory(api.factory),
		daemon.WithSampler(&stubSampler{}),
		daemon.WithTelemetry(collector),
		daemon.WithSignals(sigs))

	r := start(t, d, sigs, initial)

	require.Eventually(t, func() bool {
		return len(api.Sets("DIAL0")) > 0 && len(api.Sets("DIAL2")) > 0
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, d.Managers())

	sigs <- signals.Reload

	require.Eventually(t, func() bool {
		return api.Name("DIAL2") == "replacement"
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, d.Managers())
	assert.Equal(t, int32(1), collector.reloads.Load())
	assert.Equal(t, int32(1), collector.managers.Load())

	stopped := len(api.Sets("DIAL0"))
	time.Sleep(5 * tick)
	assert.Len(t, api.Sets("DIAL0"), stopped, "manager of the removed dial kept running")
	assert.Equal(t, "first", api.Name("DIAL0"))

	sigs <- signals.Shutdown
	require.NoError(t, r.wait(t))
}

func TestRunFailsWhenManagerFails(t *testing.T) {
	api := newFakeAPI(map[vu.DeviceID]int{"DIAL0": 0})
	api.setErr = errors.New().New(vu.ErrInvalidValue)
	cfg := testConfig(map[string]int{"zero": 0})
	sigs := make(chan signals.Action)
	d := daemon.New(&fakeSource{cfg: cfg},
		daemon.WithClientFactory(api.factory),
		daemon.WithSampler(&stubSampler{}),
		daemon.WithSignals(sigs))

	r := start(t, d, sigs, cfg)

	err := r.wait(t)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrDialFailed))
	assert.True(t, errors.HasCode(err, dial.ErrSetValue))
}

func TestReloadFailureIsFatal(t *testing.T) {
	api := newFakeAPI(map[vu.DeviceID]int{"DIAL0": 0})
	cfg := testConfig(map[string]int{"zero": 0})
	source := &fakeSource{err: errors.New().New(errors.ErrReadConfig)}
	sigs := make(chan signals.Action)
	d := daemon.New(source,
		daemon.WithClientFactory(api.factory),
		daemon.WithSampler(&stubSampler{}),
		daemon.WithSignals(sigs))

	r := start(t, d, sigs, cfg)
	sigs <- signals.Reload

	err := r.wait(t)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReload))
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestShutdownDuringDiscovery(t *testing.T) {
	api := newFakeAPI(map[vu.DeviceID]int{"DIAL0": 0})
	api.failLists(1 << 30)
	cfg := testConfig(map[string]int{"zero": 0})
	cfg.Retries.MaxElapsedTime = config.Duration{Duration: 3 * time.Second}
	sigs := make(chan signals.Action)
	d := daemon.New(&fakeSource{cfg: cfg},
		daemon.WithClientFactory(api.factory),
		daemon.WithSampler(&stubSampler{}),
		daemon.WithSignals(sigs))

	r := start(t, d, sigs, cfg)
	time.Sleep(50 * time.Millisecond)

	began := time.Now()
	sigs <- signals.Shutdown
	require.NoError(t, r.wait(t))
	assert.Less(t, time.Since(began), time.Second)
	assert.Zero(t, d.Managers())
}

func TestShutdownDuringReloadDiscovery(t *testing.T) {
	api := newFakeAPI(map[vu.DeviceID]int{"DIAL0": 0})
	cfg := testConfig(map[string]int{"zero": 0})
	reloaded := testConfig(map[string]int{"zero": 0})
	reloaded.Retries.MaxElapsedTime = config.Duration{Duration: 3 * time.Second}
	sigs := make(chan signals.Action)
	d := daemon.New(&fakeSource{cfg: reloaded},
		daemon.WithClientFactory(api.factory),
		daemon.WithSampler(&stubSampler{}),
		daemon.WithSignals(sigs))

	r := start(t, d, sigs, cfg)
	require.Eventually(t, func() bool {
		return len(api.Sets("DIAL0")) > 0
	}, 2*time.Second, 5*time.Millisecond)

	api.failLists(1 << 30)
	sigs <- signals.Reload
	time.Sleep(50 * time.Millisecond)

	// A second reload while spawning is dropped.
	sigs <- signals.Reload

	began := time.Now()
	sigs <- signals.Shutdown
	require.NoError(t, r.wait(t))
	assert.Less(t, time.Since(began), time.Second)
	assert.Zero(t, d.Managers())
}
