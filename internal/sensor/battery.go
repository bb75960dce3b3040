package sensor

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"codeberg.org/mutker/vupdated/internal/errors"
)

const defaultPowerSupplyDir = "/sys/class/power_supply"

// battery averages the charge of every battery the kernel reports.
func (h *Host) battery() (Reading, error) {
	errFactory := errors.New()

	entries, err := os.ReadDir(h.powerSupplyDir)
	if err != nil {
		return Reading{}, errFactory.Wrapf(ErrReadFailed, err, "failed to read battery status")
	}

	var sum float64
	var count int
	for _, e := range entries {
		dir := filepath.Join(h.powerSupplyDir, e.Name())
		kind, err := readTrimmed(filepath.Join(dir, "type"))
		if err != nil || kind != "Battery" {
			continue
		}

		raw, err := readTrimmed(filepath.Join(dir, "capacity"))
		if err != nil {
			continue
		}
		capacity, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		sum += capacity
		count++
	}

	if count == 0 {
		return Reading{}, errFactory.WithMessage(ErrNoSensor, "no battery found")
	}

	return Level(Battery, sum/float64(count)), nil
}

func readTrimmed(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(b)), nil
}
