package watcher

import "fmt"

// Phase is the scheduler's position in its state machine.
type Phase int

const (
	// PhaseInitial is the one-time launch and settle period before the first check.
	PhaseInitial Phase = iota
	// PhasePolling re-checks on the configured wait policy while the URL is open.
	PhasePolling
	// PhaseClosedPending confirms an absent URL with one delayed recheck.
	PhaseClosedPending
	// PhaseTerminated is final.
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseInitial:
		return "initial"
	case PhasePolling:
		return "polling"
	case PhaseClosedPending:
		return "closed-pending"
	case PhaseTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is the scheduler's view of the watch. It is owned by the Scheduler
// and only mutated by Step.
type State struct {
	Phase Phase

	// URLPresent is the last readable poll's result.
	URLPresent bool
	// Closed is set once the scheduler terminates because the tab is gone.
	Closed bool

	// Polls counts every check, readable or not.
	Polls int
	// Changes counts waits that ended on a directory change.
	Changes int
	// Unreadable counts consecutive retryable failures; a readable poll resets it.
	Unreadable int
	// TotalUnreadable counts every retryable failure in the run.
	TotalUnreadable int

	// Path is the session-store file; Dir is the directory watched for changes.
	Path string
	Dir  string
}
