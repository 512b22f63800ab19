package watcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WaitPolicy decides how long the scheduler waits between checks while the
// URL is open. Wait reports whether it returned because the session store's
// directory changed; the result is informational only.
type WaitPolicy interface {
	Wait(ctx context.Context) (changed bool, err error)
	Name() string
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FixedInterval sleeps a constant duration. It is the fallback when no
// change notification is available.
type FixedInterval struct {
	Interval time.Duration
	// Sleep overrides the timer, for tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Wait sleeps for the interval.
func (f *FixedInterval) Wait(ctx context.Context) (bool, error) {
	sleep := f.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	return false, sleep(ctx, f.Interval)
}

// Name returns the policy name.
func (f *FixedInterval) Name() string {
	return "fixed"
}

// EventWaiter blocks on a directory change notification, bounded by
// MaxInterval so a missed event never stalls the watch.
type EventWaiter struct {
	maxInterval time.Duration
	settle      time.Duration
	dir         string
	watcher     *fsnotify.Watcher
}

// NewEventWaiter starts watching dir. Close must be called to release the
// underlying OS handle.
func NewEventWaiter(dir string, maxInterval, settle time.Duration) (*EventWaiter, error) {
	if maxInterval <= 0 {
		return nil, fmt.Errorf("max interval must be positive, got %s", maxInterval)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create directory watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &EventWaiter{
		maxInterval: maxInterval,
		settle:      settle,
		dir:         dir,
		watcher:     w,
	}, nil
}

// Wait returns after the first change in the directory or after MaxInterval,
// whichever comes first. Events queued before the call are discarded so a
// write the previous check already observed does not end the wait early.
func (e *EventWaiter) Wait(ctx context.Context) (bool, error) {
	e.drain()

	timer := time.NewTimer(e.maxInterval)
	defer timer.Stop()

	select {
	case _, ok := <-e.watcher.Events:
		if !ok {
			return false, errWatcherClosed
		}
		// The browser writes a temporary file and renames it into place;
		// give the rename a moment to land before the check reads the file.
		if err := Sleep(ctx, e.settle); err != nil {
			return true, err
		}
		e.drain()
		return true, nil
	case err, ok := <-e.watcher.Errors:
		if !ok {
			return false, errWatcherClosed
		}
		return false, fmt.Errorf("watch %s: %w", e.dir, err)
	case <-timer.C:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Name returns the policy name.
func (e *EventWaiter) Name() string {
	return "event"
}

// Close stops watching the directory.
func (e *EventWaiter) Close() error {
	return e.watcher.Close()
}

func (e *EventWaiter) drain() {
	for {
		select {
		case _, ok := <-e.watcher.Events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

var errWatcherClosed = errors.New("directory watcher closed")
