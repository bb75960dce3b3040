package vu

import (
	"fmt"
	"time"

	"codeberg.org/mutker/vupdated/internal/errors"
	"github.com/goccy/go-json"
)

// DeviceID is the server-assigned UID of a dial.
type DeviceID string

func (id DeviceID) String() string {
	return string(id)
}

// Percent is a dial value in [0, 100].
type Percent struct {
	value uint8
}

// NewPercent validates v as a dial value.
func NewPercent(v int) (Percent, error) {
	if v < 0 || v > 100 {
		return Percent{}, errors.New().WithMessage(ErrInvalidValue,
			fmt.Sprintf("invalid dial value %d: must be between 0 and 100", v))
	}

	return Percent{value: uint8(v)}, nil
}

// MustPercent is like NewPercent but panics on an invalid value.
func MustPercent(v int) Percent {
	p, err := NewPercent(v)
	if err != nil {
		panic(err)
	}

	return p
}

func (p Percent) Value() int {
	return int(p.value)
}

func (p Percent) String() string {
	return fmt.Sprintf("%d%%", p.value)
}

// Easing controls how fast the needle or backlight moves towards a new
// target: one step of Step percent every Period.
type Easing struct {
	Period time.Duration
	Step   Percent
}

// NewEasing validates an easing from its configured period and step.
func NewEasing(periodMs, step int) (Easing, error) {
	errFactory := errors.New()

	if periodMs <= 0 {
		return Easing{}, errFactory.WithMessage(ErrInvalidEasing,
			fmt.Sprintf("invalid easing period %dms: must be positive", periodMs))
	}

	s, err := NewPercent(step)
	if err != nil {
		return Easing{}, errFactory.Wrap(ErrInvalidEasing, err)
	}

	return Easing{Period: time.Duration(periodMs) * time.Millisecond, Step: s}, nil
}

// Backlight is an RGB color, each channel a Percent.
type Backlight struct {
	red, green, blue Percent
}

// DefaultBacklight is the mid-gray a dial shows unless configured otherwise.
var DefaultBacklight = Backlight{red: Percent{value: 50}, green: Percent{value: 50}, blue: Percent{value: 50}}

// NewBacklight validates the three color channels.
func NewBacklight(red, green, blue int) (Backlight, error) {
	errFactory := errors.New()

	var ch [3]Percent
	for i, v := range [3]int{red, green, blue} {
		p, err := NewPercent(v)
		if err != nil {
			return Backlight{}, errFactory.Wrapf(ErrInvalidBacklight, err,
				"invalid backlight (%d, %d, %d)", red, green, blue)
		}
		ch[i] = p
	}

	return Backlight{red: ch[0], green: ch[1], blue: ch[2]}, nil
}

func (b Backlight) Red() Percent   { return b.red }
func (b Backlight) Green() Percent { return b.green }
func (b Backlight) Blue() Percent  { return b.blue }

func (b Backlight) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", b.red.value, b.green.value, b.blue.value)
}

// RGB is the backlight as reported by the server.
type RGB struct {
	Red   int `json:"red"`
	Green int `json:"green"`
	Blue  int `json:"blue"`
}

// DialInfo is one entry of the dial list.
type DialInfo struct {
	UID       DeviceID `json:"uid"`
	Name      string   `json:"dial_name"`
	Value     int      `json:"value"`
	Backlight RGB      `json:"backlight"`
	ImageFile string   `json:"image_file"`
}

// StatusEasing is the easing currently programmed into a dial.
type StatusEasing struct {
	DialStep        int `json:"dial_step"`
	DialPeriod      int `json:"dial_period"`
	BacklightStep   int `json:"backlight_step"`
	BacklightPeriod int `json:"backlight_period"`
}

// UnmarshalJSON accepts the dial_period_ms and backlight_period_ms keys that
// some server versions report instead of dial_period and backlight_period.
func (e *StatusEasing) UnmarshalJSON(data []byte) error {
	var raw struct {
		DialStep          int  `json:"dial_step"`
		DialPeriod        *int `json:"dial_period"`
		DialPeriodMs      *int `json:"dial_period_ms"`
		BacklightStep     int  `json:"backlight_step"`
		BacklightPeriod   *int `json:"backlight_period"`
		BacklightPeriodMs *int `json:"backlight_period_ms"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*e = StatusEasing{
		DialStep:        raw.DialStep,
		DialPeriod:      firstSet(raw.DialPeriod, raw.DialPeriodMs),
		BacklightStep:   raw.BacklightStep,
		BacklightPeriod: firstSet(raw.BacklightPeriod, raw.BacklightPeriodMs),
	}

	return nil
}

func firstSet(values ...*int) int {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}

	return 0
}

// Status is the detailed state of a single dial.
type Status struct {
	Index            int          `json:"index,string"`
	UID              DeviceID     `json:"uid"`
	Name             string       `json:"dial_name"`
	Value            int          `json:"value"`
	RGBW             [4]int       `json:"rgbw"`
	Easing           StatusEasing `json:"easing"`
	FirmwareHash     string       `json:"fw_hash"`
	FirmwareVersion  string       `json:"fw_version"`
	HardwareVersion  string       `json:"hw_version"`
	ProtocolVersion  string       `json:"protocol_version"`
	Backlight        RGB          `json:"backlight"`
	ImageFile        string       `json:"image_file"`
	UpdateDeadline   float64      `json:"update_deadline"`
	ValueChanged     bool         `json:"value_changed"`
	BacklightChanged bool         `json:"backlight_changed"`
	ImageChanged     bool         `json:"image_changed"`
}
