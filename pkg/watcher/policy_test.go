package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSleep(t *testing.T) {
	start := time.Now()
	require.NoError(t, Sleep(context.Background(), 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, Sleep(ctx, 0), context.Canceled)
	assert.NoError(t, Sleep(context.Background(), 0))
}

func TestFixedInterval_Wait(t *testing.T) {
	var got []time.Duration
	f := &FixedInterval{
		Interval: 3 * time.Second,
		Sleep: func(_ context.Context, d time.Duration) error {
			got = append(got, d)
			return nil
		},
	}

	changed, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, []time.Duration{3 * time.Second}, got)
	assert.Equal(t, "fixed", f.Name())
}

func TestNewEventWaiter_Errors(t *testing.T) {
	_, err := NewEventWaiter(t.TempDir(), 0, 0)
	assert.Error(t, err)

	_, err = NewEventWaiter(filepath.Join(t.TempDir(), "missing"), time.Second, 0)
	assert.Error(t, err)
}

func TestEventWaiter_TimesOut(t *testing.T) {
	w, err := NewEventWaiter(t.TempDir(), 50*time.Millisecond, 0)
	require.NoError(t, err)
	defer w.Close()

	start := time.Now()
	changed, err := w.Wait(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, "event", w.Name())
}

func TestEventWaiter_WakesOnChange(t *testing.T) {
	dir := t.TempDir()
	w, err := NewEventWaiter(dir, 10*time.Second, 10*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(dir, "recovery.jsonlz4"), []byte("x"), 0o600)
	}()

	start := time.Now()
	changed, err := w.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestEventWaiter_Cancelled(t *testing.T) {
	w, err := NewEventWaiter(t.TempDir(), 10*time.Second, 0)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	changed, err := w.Wait(ctx)
	assert.False(t, changed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
