// Package optimistic runs commands that update local state before the remote
// call and roll it back when the call fails.
package optimistic

import (
	"context"
	"errors"
)

var ErrNoRemote = errors.New("optimistic: command has no remote step")

type Command struct {
	// Apply changes local state. It runs first and must not fail.
	Apply func()
	// Remote performs the server-side change.
	Remote func(ctx context.Context) error
	// Revert undoes Apply. It runs only when Remote fails.
	Revert func()
}

// Run applies cmd locally, calls Remote and reverts on error. The remote
// error is returned unchanged.
func Run(ctx context.Context, cmd Command) error {
	if cmd.Remote == nil {
		return ErrNoRemote
	}
	if cmd.Apply != nil {
		cmd.Apply()
	}
	if err := cmd.Remote(ctx); err != nil {
		if cmd.Revert != nil {
			cmd.Revert()
		}
		return err
	}
	return nil
}
