package vu_test

import (
	"testing"
	"time"

	"codeberg.org/mutker/vupdated/internal/errors"
	"codeberg.org/mutker/vupdated/internal/vu"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentRange(t *testing.T) {
	for v := 0; v <= 100; v++ {
		p, err := vu.NewPercent(v)
		require.NoError(t, err)
		assert.Equal(t, v, p.Value())
	}

	for _, v := range []int{-1, 101, 255, 1000} {
		_, err := vu.NewPercent(v)
		require.Error(t, err, "value %d", v)
		assert.True(t, errors.HasCode(err, vu.ErrInvalidValue))
		assert.True(t, vu.IsPermanent(err))
	}

	assert.Equal(t, "42%", vu.MustPercent(42).String())
	assert.Panics(t, func() { vu.MustPercent(101) })
}

func TestBacklight(t *testing.T) {
	b, err := vu.NewBacklight(10, 20, 30)
	require.NoError(t, err)
	assert.Equal(t, 10, b.Red().Value())
	assert.Equal(t, 20, b.Green().Value())
	assert.Equal(t, 30, b.Blue().Value())

	_, err = vu.NewBacklight(10, 200, 30)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, vu.ErrInvalidBacklight))
	assert.True(t, vu.IsPermanent(err))

	assert.Equal(t, "rgb(50, 50, 50)", vu.DefaultBacklight.String())
}

func TestEasing(t *testing.T) {
	e, err := vu.NewEasing(50, 5)
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, e.Period)
	assert.Equal(t, 5, e.Step.Value())

	_, err = vu.NewEasing(0, 5)
	assert.True(t, errors.HasCode(err, vu.ErrInvalidEasing))

	_, err = vu.NewEasing(50, 101)
	assert.True(t, errors.HasCode(err, vu.ErrInvalidEasing))
}

func TestStatusDecodesStringIndex(t *testing.T) {
	raw := []byte(`{
		"index": "3",
		"uid": "590056000650564139323920",
		"dial_name": "CPU Load",
		"value": 17,
		"rgbw": [50, 50, 50, 0],
		"easing": {"dial_step": 5, "dial_period": 50, "backlight_step": 5, "backlight_period": 50},
		"fw_hash": "?",
		"fw_version": "v1.0",
		"hw_version": "v2",
		"protocol_version": "V1",
		"backlight": {"red": 50, "green": 50, "blue": 50},
		"image_file": "img_590056000650564139323920",
		"update_deadline": 1700000000.5,
		"value_changed": false,
		"backlight_changed": false,
		"image_changed": true
	}`)

	var status vu.Status
	require.NoError(t, json.Unmarshal(raw, &status))
	assert.Equal(t, 3, status.Index)
	assert.Equal(t, vu.DeviceID("590056000650564139323920"), status.UID)
	assert.Equal(t, 50, status.Easing.DialPeriod)
	assert.Equal(t, vu.RGB{Red: 50, Green: 50, Blue: 50}, status.Backlight)
	assert.True(t, status.ImageChanged)
}

func TestStatusEasingAcceptsPeriodAliases(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want vu.StatusEasing
	}{
		{
			name: "canonical keys",
			raw:  `{"dial_step": 5, "dial_period": 50, "backlight_step": 10, "backlight_period": 40}`,
			want: vu.StatusEasing{DialStep: 5, DialPeriod: 50, BacklightStep: 10, BacklightPeriod: 40},
		},
		{
			name: "millisecond keys",
			raw:  `{"dial_step": 2, "dial_period_ms": 75, "backlight_step": 3, "backlight_period_ms": 25}`,
			want: vu.StatusEasing{DialStep: 2, DialPeriod: 75, BacklightStep: 3, BacklightPeriod: 25},
		},
		{
			name: "canonical key wins",
			raw:  `{"dial_period": 50, "dial_period_ms": 75}`,
			want: vu.StatusEasing{DialPeriod: 50},
		},
		{
			name: "missing periods",
			raw:  `{"dial_step": 1}`,
			want: vu.StatusEasing{DialStep: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var status vu.Status
			require.NoError(t, json.Unmarshal([]byte(`{"uid": "UID0", "easing": `+tt.raw+`}`), &status))
			assert.Equal(t, tt.want, status.Easing)
			assert.Equal(t, vu.DeviceID("UID0"), status.UID)
		})
	}
}
