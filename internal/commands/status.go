package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/meTasking/cli/internal/api"
	"github.com/meTasking/cli/internal/model"
)

const defaultWatchInterval = 2 * time.Second

// StatusOptions configures the status command.
type StatusOptions struct {
	// Watch redraws the status until the context is cancelled.
	Watch bool
	// Interval between redraws in watch mode.
	Interval time.Duration
}

// Status prints the active log followed by all non-stopped logs. In watch
// mode the view is redrawn periodically until ctx is cancelled.
func Status(ctx context.Context, env Env, opts StatusOptions) error {
	if !opts.Watch {
		return printStatus(ctx, env)
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = defaultWatchInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		fmt.Fprint(env.Out, "\x1b[2J\x1b[H")
		if err := printStatus(ctx, env); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func printStatus(ctx context.Context, env Env) error {
	fmt.Fprintln(env.Out, "Active logs:")
	active, err := env.Client.ActiveLog(ctx)
	if err != nil {
		return err
	}
	if active != nil {
		fmt.Fprintln(env.Out, active.Summary())
	} else {
		fmt.Fprintln(env.Out, "- None")
	}

	fmt.Fprintln(env.Out, "All non-stopped logs:")
	stopped := false
	return env.Client.EachLog(ctx, api.ListFilter{Stopped: &stopped}, func(log model.WorkLog) error {
		_, err := fmt.Fprintln(env.Out, log.Summary())
		return err
	})
}
