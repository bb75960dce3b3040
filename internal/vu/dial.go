package vu

import "context"

// Dial is a handle to one dial on the server.
type Dial struct {
	id  DeviceID
	api API
}

// NewDial binds id to an API implementation.
func NewDial(api API, id DeviceID) *Dial {
	return &Dial{id: id, api: api}
}

func (d *Dial) ID() DeviceID {
	return d.id
}

func (d *Dial) Status(ctx context.Context) (Status, error) {
	return d.api.Status(ctx, d.id)
}

func (d *Dial) SetName(ctx context.Context, name string) error {
	return d.api.SetName(ctx, d.id, name)
}

func (d *Dial) Set(ctx context.Context, value Percent) error {
	return d.api.SetValue(ctx, d.id, value)
}

func (d *Dial) SetBacklight(ctx context.Context, backlight Backlight) error {
	return d.api.SetBacklight(ctx, d.id, backlight)
}

func (d *Dial) SetDialEasing(ctx context.Context, easing Easing) error {
	return d.api.SetDialEasing(ctx, d.id, easing)
}

func (d *Dial) SetBacklightEasing(ctx context.Context, easing Easing) error {
	return d.api.SetBacklightEasing(ctx, d.id, easing)
}

func (d *Dial) SetImage(ctx context.Context, filename string, image []byte, force bool) error {
	return d.api.SetImage(ctx, d.id, filename, image, force)
}
