package commands

import (
	"context"
	"fmt"
)

// ShowOptions selects the log to print.
type ShowOptions struct {
	// ID of the log to show; nil addresses the active log.
	ID     *int
	Format Format
}

// Show prints a single log.
func Show(ctx context.Context, env Env, opts ShowOptions) error {
	log, err := env.Client.GetLog(ctx, opts.ID)
	if err != nil {
		return err
	}
	if log == nil {
		_, err := fmt.Fprintln(env.Out, "no active log")
		return err
	}
	return printLog(env.Out, opts.Format, *log)
}
