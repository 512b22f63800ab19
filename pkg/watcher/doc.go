// Package watcher decides when the watched tab has been closed.
//
// The Scheduler is a small state machine:
//
//	Initial ──check──▶ Polling ◀──present── ClosedPending
//	   │                 │  ▲                  │
//	   │ absent          │  └──present──┐      │ absent
//	   └────────▶ ClosedPending ◀─absent┘      ▼
//	                                       Terminated
//
// How the scheduler waits between checks in Polling is a WaitPolicy: a
// FixedInterval sleep, or an EventWaiter that wakes on the first change to
// the session store's directory and otherwise after a ceiling.
package watcher
