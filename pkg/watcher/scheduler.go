package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/entrhq/tabwatch/pkg/sessionstore"
)

// Checker performs one poll of the session store.
type Checker interface {
	Poll(ctx context.Context) (sessionstore.Outcome, error)
}

// Logger receives scheduler diagnostics.
type Logger interface {
	Verbosef(format string, args ...interface{})
	Warningf(format string, args ...interface{})
}

// Options tunes the scheduler.
type Options struct {
	// Path of the session-store file, recorded in State.
	Path string

	// InitialDelay gives the browser time to write its first snapshot.
	InitialDelay time.Duration
	// ClosedDelay is the wait before confirming an absent URL.
	ClosedDelay time.Duration

	// MaxUnreadable is how many consecutive decode or parse failures are
	// tolerated before the watch fails. Zero fails on the first one.
	MaxUnreadable int

	// Launch runs once at the start of the Initial phase. A launch error is
	// logged and the watch continues.
	Launch func(ctx context.Context) error

	// OnTransition is called whenever the phase changes.
	OnTransition func(from, to Phase, state State)

	// Sleep overrides the timer used for the initial and closed delays.
	Sleep func(ctx context.Context, d time.Duration) error

	Logger Logger
}

// Scheduler drives repeated checks of the session store until the watched
// tab is confirmed closed. It is not safe for concurrent use; a single
// goroutine calls Run or Step.
type Scheduler struct {
	checker Checker
	policy  WaitPolicy
	opts    Options
	state   State
}

// New creates a Scheduler in PhaseInitial.
func New(checker Checker, policy WaitPolicy, opts Options) *Scheduler {
	if opts.Sleep == nil {
		opts.Sleep = Sleep
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	if opts.MaxUnreadable < 0 {
		opts.MaxUnreadable = 0
	}

	return &Scheduler{
		checker: checker,
		policy:  policy,
		opts:    opts,
		state: State{
			Phase: PhaseInitial,
			Path:  opts.Path,
			Dir:   sessionstore.Dir(opts.Path),
		},
	}
}

// State returns a copy of the current state.
func (s *Scheduler) State() State {
	return s.state
}

// Run steps the scheduler until it terminates or fails. A nil error means
// the tab was confirmed closed.
func (s *Scheduler) Run(ctx context.Context) (State, error) {
	for s.state.Phase != PhaseTerminated {
		if err := s.Step(ctx); err != nil {
			return s.state, err
		}
	}
	return s.state, nil
}

// Step performs the wait and check belonging to the current phase and
// applies the resulting transition. Errors are fatal to the watch.
func (s *Scheduler) Step(ctx context.Context) error {
	switch s.state.Phase {
	case PhaseInitial:
		if s.opts.Launch != nil {
			if err := s.opts.Launch(ctx); err != nil {
				s.opts.Logger.Warningf("browser launch failed: %v", err)
			}
		}
		if err := s.opts.Sleep(ctx, s.opts.InitialDelay); err != nil {
			return err
		}

	case PhasePolling:
		changed, err := s.policy.Wait(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			s.opts.Logger.Warningf("%s wait failed, checking anyway: %v", s.policy.Name(), err)
		}
		if changed {
			s.state.Changes++
		}

	case PhaseClosedPending:
		if err := s.opts.Sleep(ctx, s.opts.ClosedDelay); err != nil {
			return err
		}

	case PhaseTerminated:
		return nil
	}

	return s.check(ctx)
}

func (s *Scheduler) check(ctx context.Context) error {
	outcome, err := s.checker.Poll(ctx)
	s.state.Polls++

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !sessionstore.IsRetryable(err) {
			return fmt.Errorf("poll %d: %w", s.state.Polls, err)
		}

		s.state.Unreadable++
		s.state.TotalUnreadable++
		if s.state.Unreadable > s.opts.MaxUnreadable {
			return fmt.Errorf("poll %d: session store unreadable (%d consecutive): %w",
				s.state.Polls, s.state.Unreadable, err)
		}

		s.opts.Logger.Warningf("poll %d: session store unreadable, retry %d/%d: %v",
			s.state.Polls, s.state.Unreadable, s.opts.MaxUnreadable, err)
		// The browser has been launched; never repeat the Initial phase.
		if s.state.Phase == PhaseInitial {
			s.transition(PhasePolling)
		}
		return nil
	}

	s.state.Unreadable = 0
	s.state.URLPresent = outcome == sessionstore.OutcomePresent
	s.opts.Logger.Verbosef("poll %d: url %s", s.state.Polls, outcome)

	switch {
	case s.state.URLPresent:
		s.transition(PhasePolling)
	case s.state.Phase == PhaseClosedPending:
		s.state.Closed = true
		s.transition(PhaseTerminated)
	default:
		s.transition(PhaseClosedPending)
	}
	return nil
}

func (s *Scheduler) transition(to Phase) {
	from := s.state.Phase
	if from == to {
		return
	}
	s.state.Phase = to
	if s.opts.OnTransition != nil {
		s.opts.OnTransition(from, to, s.state)
	}
}

type nopLogger struct{}

func (nopLogger) Verbosef(string, ...interface{}) {}
func (nopLogger) Warningf(string, ...interface{}) {}
