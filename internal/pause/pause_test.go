package pause_test

import (
	"context"
	"testing"
	"time"

	"codeberg.org/mutker/vupdated/internal/errors"
	"codeberg.org/mutker/vupdated/internal/pause"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitiallyRunning(t *testing.T) {
	_, rx := pause.New()
	assert.True(t, rx.Running())
	require.NoError(t, rx.WaitRunning(context.Background()))
}

func TestWaitRunningWakesOnResume(t *testing.T) {
	tx, rx := pause.New()
	tx.Set(false)
	assert.False(t, rx.Running())

	done := make(chan error, 1)
	go func() {
		done <- rx.WaitRunning(context.Background())
	}()

	select {
	case <-done:
		t.Fatal("waiter returned while paused")
	case <-time.After(20 * time.Millisecond):
	}

	tx.Set(true)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter not woken by resume")
	}
}

func TestManyReceivers(t *testing.T) {
	tx, rx := pause.New()
	tx.Set(false)

	const readers = 5
	done := make(chan error, readers)
	for i := 0; i < readers; i++ {
		r := rx
		if i%2 == 0 {
			r = tx.Subscribe()
		}
		go func() {
			done <- r.WaitRunning(context.Background())
		}()
	}

	tx.Set(true)
	for i := 0; i < readers; i++ {
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("not every receiver was woken")
		}
	}
}

func TestWaitRunningHonorsContext(t *testing.T) {
	tx, rx := pause.New()
	tx.Set(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, rx.WaitRunning(ctx), context.DeadlineExceeded)
}

func TestCloseReleasesWaiters(t *testing.T) {
	tx, rx := pause.New()
	tx.Set(false)
	tx.Close()
	tx.Set(true)

	err := rx.WaitRunning(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, pause.ErrClosed))
	assert.False(t, rx.Running())
}
