package commands

import (
	"context"
	"fmt"
)

// StopOptions selects the log, or logs, to stop.
type StopOptions struct {
	// ID of the log to stop; nil addresses the active log.
	ID *int
	// All stops every non-finished log instead.
	All bool
}

// Stop marks the selected log as finished.
func Stop(ctx context.Context, env Env, opts StopOptions) error {
	if opts.All {
		if opts.ID != nil {
			return fmt.Errorf("--all cannot be combined with a log id")
		}
		return env.Client.StopAll(ctx)
	}
	_, err := env.Client.StopLog(ctx, opts.ID)
	return err
}
