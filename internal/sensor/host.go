package sensor

import (
	"context"
	"strings"
	"time"

	"codeberg.org/mutker/vupdated/internal/errors"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/sensors"
)

var cpuSensorKeys = []string{"package", "tctl", "tdie", "coretemp", "k10temp", "cpu"}

// Host samples the local machine.
type Host struct {
	powerSupplyDir string
}

var _ Sampler = (*Host)(nil)

func NewHost() *Host {
	return &Host{powerSupplyDir: defaultPowerSupplyDir}
}

func (h *Host) Sample(ctx context.Context, m Metric, interval time.Duration) (Reading, error) {
	switch m {
	case CPULoad:
		return h.cpuLoad(ctx, interval)
	case Memory:
		return h.memory(ctx)
	case Swap:
		return h.swap(ctx)
	case CPUTemp:
		return h.cpuTemp(ctx)
	case DiskUsage:
		return h.disk(ctx)
	case Battery:
		return h.battery()
	default:
		return Reading{}, errors.New().WithData(ErrUnknownMetric, int(m))
	}
}

func (h *Host) cpuLoad(ctx context.Context, interval time.Duration) (Reading, error) {
	errFactory := errors.New()

	before, err := cpu.TimesWithContext(ctx, false)
	if err != nil || len(before) == 0 {
		return Reading{}, errFactory.Wrapf(ErrReadFailed, err, "failed to start load aggregate measurement")
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return Reading{}, ctx.Err()
	case <-timer.C:
	}

	after, err := cpu.TimesWithContext(ctx, false)
	if err != nil || len(after) == 0 {
		return Reading{}, errFactory.Wrapf(ErrReadFailed, err, "failed to read load aggregate")
	}

	idle := idleTime(after[0]) - idleTime(before[0])
	total := totalTime(after[0]) - totalTime(before[0])

	return Usage(CPULoad, idle, total), nil
}

func idleTime(t cpu.TimesStat) float64 {
	return t.Idle + t.Iowait
}

func totalTime(t cpu.TimesStat) float64 {
	return t.User + t.System + t.Idle + t.Nice + t.Iowait + t.Irq + t.Softirq + t.Steal
}

func (*Host) memory(ctx context.Context) (Reading, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Reading{}, errors.New().Wrapf(ErrReadFailed, err, "failed to read memory usage")
	}

	return Usage(Memory, float64(vm.Available), float64(vm.Total)), nil
}

func (*Host) swap(ctx context.Context) (Reading, error) {
	sw, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return Reading{}, errors.New().Wrapf(ErrReadFailed, err, "failed to read swap usage")
	}

	return Usage(Swap, float64(sw.Free), float64(sw.Total)), nil
}

func (*Host) disk(ctx context.Context) (Reading, error) {
	errFactory := errors.New()

	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return Reading{}, errFactory.Wrapf(ErrReadFailed, err, "failed to read mounts")
	}

	var free, total float64
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		if seen[p.Device] {
			continue
		}
		seen[p.Device] = true

		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			continue
		}
		free += float64(usage.Free)
		total += float64(usage.Total)
	}

	return Usage(DiskUsage, free, total), nil
}

func (*Host) cpuTemp(ctx context.Context) (Reading, error) {
	errFactory := errors.New()

	temps, err := sensors.TemperaturesWithContext(ctx)
	if len(temps) == 0 {
		if err != nil {
			return Reading{}, errFactory.Wrapf(ErrReadFailed, err, "failed to read CPU temp")
		}
		return Reading{}, errFactory.WithMessage(ErrNoSensor, "no temperature sensors found")
	}

	for _, key := range cpuSensorKeys {
		for _, t := range temps {
			if strings.Contains(strings.ToLower(t.SensorKey), key) {
				return Level(CPUTemp, t.Temperature), nil
			}
		}
	}

	return Level(CPUTemp, temps[0].Temperature), nil
}
