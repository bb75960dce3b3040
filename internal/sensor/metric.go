package sensor

import (
	"embed"
	"fmt"
	"strings"

	"codeberg.org/mutker/vupdated/internal/errors"
)

//go:embed icons/*.png
var icons embed.FS

// Metric is one of the host measurements a dial can display.
type Metric int

const (
	CPULoad Metric = iota
	Memory
	Swap
	CPUTemp
	DiskUsage
	Battery
)

type metricInfo struct {
	key  string
	name string
	icon string
}

var metricTable = [...]metricInfo{
	CPULoad:   {key: "cpu-load", name: "CPU Load", icon: "cpu_load.png"},
	Memory:    {key: "mem", name: "Memory Usage", icon: "mem.png"},
	Swap:      {key: "swap", name: "Swap Usage", icon: "swap.png"},
	CPUTemp:   {key: "cpu-temp", name: "CPU Temperature", icon: "cpu_temp.png"},
	DiskUsage: {key: "disk-usage", name: "Disk Usage", icon: "disk.png"},
	Battery:   {key: "battery", name: "Battery Remaining", icon: "battery.png"},
}

// DefaultMetrics are assigned, in order, when generating a config without
// an explicit metric list.
var DefaultMetrics = []Metric{CPULoad, Memory, CPUTemp, Swap}

// All returns every supported metric.
func All() []Metric {
	out := make([]Metric, len(metricTable))
	for i := range metricTable {
		out[i] = Metric(i)
	}

	return out
}

// ParseMetric resolves a metric from its config spelling.
func ParseMetric(s string) (Metric, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, info := range metricTable {
		if info.key == key {
			return Metric(i), nil
		}
	}

	keys := make([]string, len(metricTable))
	for i, info := range metricTable {
		keys[i] = info.key
	}

	return 0, errors.New().WithMessage(ErrUnknownMetric,
		fmt.Sprintf("unknown metric %q, expected one of: %s", s, strings.Join(keys, ", ")))
}

func (m Metric) valid() bool {
	return m >= 0 && int(m) < len(metricTable)
}

// String returns the config spelling of m.
func (m Metric) String() string {
	if !m.valid() {
		return fmt.Sprintf("metric(%d)", int(m))
	}

	return metricTable[m].key
}

// DisplayName is the default dial name for m.
func (m Metric) DisplayName() string {
	if !m.valid() {
		return m.String()
	}

	return metricTable[m].name
}

// Icon returns the file name and contents of the dial background for m.
func (m Metric) Icon() (string, []byte, bool) {
	if !m.valid() {
		return "", nil, false
	}

	name := metricTable[m].icon
	data, err := icons.ReadFile("icons/" + name)
	if err != nil {
		return "", nil, false
	}

	return name, data, true
}

// SamplesOverInterval reports whether sampling m itself takes the update
// interval, so the caller must not wait again.
func (m Metric) SamplesOverInterval() bool {
	return m == CPULoad
}

func (m Metric) MarshalText() ([]byte, error) {
	if !m.valid() {
		return nil, errors.New().WithData(ErrUnknownMetric, int(m))
	}

	return []byte(m.String()), nil
}

func (m *Metric) UnmarshalText(text []byte) error {
	parsed, err := ParseMetric(string(text))
	if err != nil {
		return err
	}
	*m = parsed

	return nil
}
