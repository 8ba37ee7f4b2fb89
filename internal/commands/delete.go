package commands

import "context"

// DeleteOptions selects the log to delete.
type DeleteOptions struct {
	// ID of the log to delete; nil addresses the most recent log.
	ID *int
}

// Delete removes the selected log and all its records.
func Delete(ctx context.Context, env Env, opts DeleteOptions) error {
	id := -1
	if opts.ID != nil {
		id = *opts.ID
	}
	return env.Client.DeleteLog(ctx, id)
}
