// Package launcher starts the browser that shows the watched page.
package launcher

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// Launcher starts a browser executable with a URL. The browser is left
// running; the watch never waits on it.
type Launcher struct {
	// Executable is the browser binary.
	Executable string
	// Args are passed before the URL.
	Args []string

	// Stdout and Stderr receive the browser's output. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer

	// Exited, if set, receives the browser's exit error once it ends.
	Exited func(err error)
}

// Launch starts the browser on url and returns once the process exists.
// The context is not bound to the process: cancelling the watch must not
// kill the user's browser.
func (l *Launcher) Launch(_ context.Context, url string) error {
	if l.Executable == "" {
		return fmt.Errorf("browser executable is required")
	}

	args := make([]string, 0, len(l.Args)+1)
	args = append(args, l.Args...)
	args = append(args, url)

	cmd := exec.Command(l.Executable, args...)
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", l.Executable, err)
	}

	// Reap the child so it does not linger as a zombie.
	go func() {
		err := cmd.Wait()
		if l.Exited != nil {
			l.Exited(err)
		}
	}()

	return nil
}
