package dial

import (
	"context"
	"time"

	"codeberg.org/mutker/vupdated/internal/sensor"
	"codeberg.org/mutker/vupdated/internal/vu"
)

// Device is the remote dial a Manager drives.
type Device interface {
	ID() vu.DeviceID
	SetName(ctx context.Context, name string) error
	Set(ctx context.Context, value vu.Percent) error
	SetBacklight(ctx context.Context, backlight vu.Backlight) error
	SetDialEasing(ctx context.Context, easing vu.Easing) error
	SetBacklightEasing(ctx context.Context, easing vu.Easing) error
	SetImage(ctx context.Context, filename string, image []byte, force bool) error
}

// Observer is told about a Manager's activity. Implementations must not
// block.
type Observer interface {
	ValuePushed(name string, metric sensor.Metric, value vu.Percent, at time.Time)
	SensorFailed(name string, metric sensor.Metric, err error)
	Retried(name, op string, err error)
	Paused(name string, paused bool)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) ValuePushed(string, sensor.Metric, vu.Percent, time.Time) {}
func (NopObserver) SensorFailed(string, sensor.Metric, error)                {}
func (NopObserver) Retried(string, string, error)                            {}
func (NopObserver) Paused(string, bool)                                      {}

// Observers fans every event out to each element.
type Observers []Observer

func (o Observers) ValuePushed(name string, metric sensor.Metric, value vu.Percent, at time.Time) {
	for _, obs := range o {
		obs.ValuePushed(name, metric, value, at)
	}
}

func (o Observers) SensorFailed(name string, metric sensor.Metric, err error) {
	for _, obs := range o {
		obs.SensorFailed(name, metric, err)
	}
}

func (o Observers) Retried(name, op string, err error) {
	for _, obs := range o {
		obs.Retried(name, op, err)
	}
}

func (o Observers) Paused(name string, paused bool) {
	for _, obs := range o {
		obs.Paused(name, paused)
	}
}
