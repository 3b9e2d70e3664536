// Package notify dispatches failure notifications after a run. The engine
// only sees the Notifier interface; rendering is the notifier's problem.
package notify

import (
	"context"
	"fmt"
	"os/exec"
)

// Notifier delivers a failure summary to the user.
type Notifier interface {
	NotifyFailure(ctx context.Context, summary string) error
}

// Command invokes an external notifier binary (notify-send by default) with
// a fixed title and the failure summary as the body.
type Command struct {
	// Name is the executable to run.
	Name string
	// Args precede the title and summary, e.g. urgency flags.
	Args []string
}

// NewCommand builds a Command notifier for the given executable.
func NewCommand(name string, args ...string) *Command {
	return &Command{Name: name, Args: args}
}

// NotifyFailure runs the notifier command. A missing or failing notifier is
// reported to the caller but must not change the run's outcome.
func (c *Command) NotifyFailure(ctx context.Context, summary string) error {
	args := append(append([]string{}, c.Args...), "calsync: sync failed", summary)
	cmd := exec.CommandContext(ctx, c.Name, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("notify command %s: %w (output: %s)", c.Name, err, out)
	}
	return nil
}

// Nop discards notifications. Used when notify.on_failure is disabled.
type Nop struct{}

func (Nop) NotifyFailure(context.Context, string) error { return nil }
