package commands

import "context"

// PauseOptions selects the log to pause.
type PauseOptions struct {
	// ID of the log to pause; nil addresses the active log. Only one log
	// can be active at a time, so passing an id merely asserts the active
	// log did not change under the caller.
	ID *int
}

// Pause suspends time tracking on the selected log.
func Pause(ctx context.Context, env Env, opts PauseOptions) error {
	_, err := env.Client.PauseLog(ctx, opts.ID)
	return err
}
