package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"codeberg.org/mutker/vupdated/internal/config"
	"codeberg.org/mutker/vupdated/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDial struct {
	uid   string
	index int
	name  string
}

type fakeVUServer struct {
	mu        sync.Mutex
	dials     []fakeDial
	failUID   string
	values    map[string]string
	backlight map[string]string
}

func newFakeVUServer(t *testing.T, dials ...fakeDial) (*fakeVUServer, string) {
	t.Helper()
	f := &fakeVUServer{
		dials:     dials,
		values:    map[string]string{},
		backlight: map[string]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v0/dial/list", f.list)
	mux.HandleFunc("GET /api/v0/dial/{uid}/status", f.status)
	mux.HandleFunc("GET /api/v0/dial/{uid}/set", f.set)
	mux.HandleFunc("GET /api/v0/dial/{uid}/backlight", f.setBacklight)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return f, srv.URL
}

func reply(w http.ResponseWriter, data string) {
	fmt.Fprintf(w, `{"status":"ok","message":"","data":%s}`, data)
}

func (f *fakeVUServer) list(w http.ResponseWriter, _ *http.Request) {
	var b bytes.Buffer
	b.WriteString("[")
	for i, d := range f.dials {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"uid":%q,"dial_name":%q,"value":10,"backlight":{"red":1,"green":2,"blue":3},"image_file":"img.png"}`,
			d.uid, d.name)
	}
	b.WriteString("]")
	reply(w, b.String())
}

func (f *fakeVUServer) status(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")
	if uid == f.failUID {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"status":"fail","message":"dial offline","data":null}`)
		return
	}
	for _, d := range f.dials {
		if d.uid == uid {
			reply(w, fmt.Sprintf(`{"index":"%d","uid":%q,"dial_name":%q,"value":10,`+
				`"easing":{"dial_step":5,"dial_period":50,"backlight_step":10,"backlight_period":40},`+
				`"fw_version":"1.0","hw_version":"2.0","fw_hash":"abc123","protocol_version":"V1",`+
				`"rgbw":[4,5,6,7],"image_file":"img.png","value_changed":true,"update_deadline":1.5,`+
				`"backlight":{"red":1,"green":2,"blue":3}}`,
				d.index, d.uid, d.name))
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (f *fakeVUServer) set(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.values[r.PathValue("uid")] = r.URL.Query().Get("value")
	f.mu.Unlock()
	reply(w, "null")
}

func (f *fakeVUServer) setBacklight(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f.mu.Lock()
	f.backlight[r.PathValue("uid")] = q.Get("red") + "," + q.Get("green") + "," + q.Get("blue")
	f.mu.Unlock()
	reply(w, "null")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGenerateConfigAssignsMetricsInOrder(t *testing.T) {
	_, url := newFakeVUServer(t,
		fakeDial{uid: "UID0", index: 0, name: "Dial A"},
		fakeDial{uid: "UID1", index: 1, name: "Dial B"},
	)
	path := filepath.Join(t.TempDir(), "vupdated", "config.toml")

	_, err := execute(t, "gen-config", "--config", path, "--server", url, "mem", "swap", "battery")
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, url, cfg.Server.Address)
	require.Len(t, cfg.Dials, 2)

	mem := cfg.Dials["Memory Usage"]
	assert.Equal(t, 0, mem.Index)
	assert.Equal(t, "mem", mem.Metric)
	require.NotNil(t, mem.DialEasing)
	assert.Equal(t, config.EasingConfig{PeriodMs: 50, Step: 5}, *mem.DialEasing)
	require.NotNil(t, mem.BacklightEasing)
	assert.Equal(t, config.EasingConfig{PeriodMs: 40, Step: 10}, *mem.BacklightEasing)

	swap := cfg.Dials["Swap Usage"]
	assert.Equal(t, 1, swap.Index)
	assert.Equal(t, "swap", swap.Metric)

	assert.NotContains(t, cfg.Dials, "Battery Remaining")
}

func TestGenerateConfigRejectsUnknownMetric(t *testing.T) {
	_, url := newFakeVUServer(t, fakeDial{uid: "UID0", index: 0})
	path := filepath.Join(t.TempDir(), "config.toml")

	_, err := execute(t, "generate-config", "--config", path, "--server", url, "gpu-load")
	require.Error(t, err)
	assert.NoFileExists(t, path)
}

func TestListShowsDials(t *testing.T) {
	_, url := newFakeVUServer(t,
		fakeDial{uid: "UID0", index: 0, name: "Dial A"},
		fakeDial{uid: "UID1", index: 1, name: "Dial B"},
	)
	path := filepath.Join(t.TempDir(), "config.toml")

	out, err := execute(t, "list", "--config", path, "--server", url)
	require.NoError(t, err)
	assert.Contains(t, out, "UID0")
	assert.Contains(t, out, "Dial B")
	assert.Contains(t, out, "rgb(1, 2, 3)")
}

func TestListDetailsReportsStatusFailures(t *testing.T) {
	f, url := newFakeVUServer(t,
		fakeDial{uid: "UID0", index: 0, name: "Dial A"},
		fakeDial{uid: "UID1", index: 1, name: "Dial B"},
	)
	f.failUID = "UID1"
	path := filepath.Join(t.TempDir(), "config.toml")

	out, err := execute(t, "list", "--details", "--config", path, "--server", url)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrListDials))
	assert.Contains(t, err.Error(), "UID1")
	assert.Contains(t, out, "UID0")
	assert.Contains(t, out, "UID1")
	assert.Contains(t, out, "1.0")
}

func TestSetByIndex(t *testing.T) {
	f, url := newFakeVUServer(t,
		fakeDial{uid: "UID0", index: 0},
		fakeDial{uid: "UID1", index: 1},
	)
	path := filepath.Join(t.TempDir(), "config.toml")

	_, err := execute(t, "set", "--config", path, "--server", url,
		"--index", "1", "--value", "42", "--red", "10", "--green", "20", "--blue", "30")
	require.NoError(t, err)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, map[string]string{"UID1": "42"}, f.values)
	assert.Equal(t, map[string]string{"UID1": "10,20,30"}, f.backlight)
}

func TestSetByUID(t *testing.T) {
	f, url := newFakeVUServer(t, fakeDial{uid: "UID0", index: 0})
	path := filepath.Join(t.TempDir(), "config.toml")

	_, err := execute(t, "set", "--config", path, "--server", url, "--dial", "UID0", "--value", "7")
	require.NoError(t, err)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, "7", f.values["UID0"])
	assert.Empty(t, f.backlight)
}

func TestSetValidation(t *testing.T) {
	_, url := newFakeVUServer(t, fakeDial{uid: "UID0", index: 0})
	path := filepath.Join(t.TempDir(), "config.toml")

	tests := []struct {
		name string
		args []string
		code errors.ErrorCode
	}{
		{name: "no target", args: []string{"--value", "5"}},
		{name: "both targets", args: []string{"--dial", "UID0", "--index", "0", "--value", "5"}},
		{name: "nothing to set", args: []string{"--dial", "UID0"}},
		{name: "value out of range", args: []string{"--dial", "UID0", "--value", "101"}, code: errors.ErrInvalidArgument},
		{name: "backlight out of range", args: []string{"--dial", "UID0", "--red", "101"}, code: errors.ErrInvalidArgument},
		{name: "unknown index", args: []string{"--index", "3", "--value", "5"}, code: errors.ErrSelectDial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"set", "--config", path, "--server", url}, tt.args...)
			_, err := execute(t, args...)
			require.Error(t, err)
			if tt.code != "" {
				assert.True(t, errors.HasCode(err, tt.code), err.Error())
			}
		})
	}
}

func TestSetSingleBacklightChannels(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "red only", args: []string{"--red", "5"}, want: "5,2,3"},
		{name: "green and blue", args: []string{"--green", "40", "--blue", "60"}, want: "1,40,60"},
		{name: "all channels", args: []string{"--red", "7", "--green", "8", "--blue", "9"}, want: "7,8,9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, url := newFakeVUServer(t, fakeDial{uid: "UID0", index: 0})
			path := filepath.Join(t.TempDir(), "config.toml")

			args := append([]string{"set", "--config", path, "--server", url, "--dial", "UID0"}, tt.args...)
			_, err := execute(t, args...)
			require.NoError(t, err)

			f.mu.Lock()
			defer f.mu.Unlock()
			assert.Equal(t, map[string]string{"UID0": tt.want}, f.backlight)
			assert.Empty(t, f.values)
		})
	}
}

func TestStatusByIndex(t *testing.T) {
	_, url := newFakeVUServer(t,
		fakeDial{uid: "UID0", index: 0, name: "Dial A"},
		fakeDial{uid: "UID1", index: 1, name: "Dial B"},
	)
	path := filepath.Join(t.TempDir(), "config.toml")

	out, err := execute(t, "status", "--config", path, "--server", url, "--index", "1")
	require.NoError(t, err)

	for _, want := range []string{
		"UID1", "Dial B", "10%", "rgb(1, 2, 3)", "4, 5, 6, 7",
		"50ms/5%", "40ms/10%", "img.png",
		"1.0", "abc123", "2.0", "V1", "1.5s",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Dial A")
	assert.Regexp(t, `Pending\s+│\s+value\s`, out)
}

func TestStatusByUIDReportsFailure(t *testing.T) {
	f, url := newFakeVUServer(t, fakeDial{uid: "UID0", index: 0})
	f.failUID = "UID0"
	path := filepath.Join(t.TempDir(), "config.toml")

	_, err := execute(t, "status", "--config", path, "--server", url, "--dial", "UID0")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrDialStatus))
}

func TestStatusRequiresOneTarget(t *testing.T) {
	_, url := newFakeVUServer(t, fakeDial{uid: "UID0", index: 0})
	path := filepath.Join(t.TempDir(), "config.toml")

	_, err := execute(t, "status", "--config", path, "--server", url)
	require.Error(t, err)

	_, err = execute(t, "status", "--config", path, "--server", url, "--dial", "UID0", "--index", "0")
	require.Error(t, err)
}

func TestDaemonFailsWithoutMatchingDials(t *testing.T) {
	_, url := newFakeVUServer(t, fakeDial{uid: "UID0", index: 0})
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	cfg := config.Default()
	cfg.Server.Address = url
	cfg.Dials["Memory Usage"] = config.DialConfig{Index: 5, Metric: "mem"}
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, cfg.Write(path))

	_, err := execute(t, "--config", path)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrMainLoop))
	assert.True(t, errors.HasCode(err, errors.ErrNoDials))
}
