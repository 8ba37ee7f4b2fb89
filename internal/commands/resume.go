package commands

import "context"

// ResumeOptions selects the log to resume.
type ResumeOptions struct {
	// ID of the log to resume; nil addresses the most recent log.
	ID *int
}

// Resume restarts time tracking on the selected log.
func Resume(ctx context.Context, env Env, opts ResumeOptions) error {
	id := -1
	if opts.ID != nil {
		id = *opts.ID
	}
	_, err := env.Client.ResumeLog(ctx, id)
	return err
}
