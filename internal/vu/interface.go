package vu

import "context"

// API is the set of VU-Server operations used by the daemon and the CLI.
type API interface {
	ListDials(ctx context.Context) ([]DialInfo, error)
	Status(ctx context.Context, id DeviceID) (Status, error)
	SetName(ctx context.Context, id DeviceID, name string) error
	SetValue(ctx context.Context, id DeviceID, value Percent) error
	SetBacklight(ctx context.Context, id DeviceID, backlight Backlight) error
	SetDialEasing(ctx context.Context, id DeviceID, easing Easing) error
	SetBacklightEasing(ctx context.Context, id DeviceID, easing Easing) error
	SetImage(ctx context.Context, id DeviceID, filename string, image []byte, force bool) error
}
