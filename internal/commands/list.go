package commands

import (
	"context"
	"time"

	"github.com/meTasking/cli/internal/api"
	"github.com/meTasking/cli/internal/model"
)

// ListOptions narrows down and formats the listing.
type ListOptions struct {
	Since  *time.Time
	Until  *time.Time
	Flags  []string
	Order  string
	Format Format
}

// List pages through all logs matching the options and prints each one.
func List(ctx context.Context, env Env, opts ListOptions) error {
	filter := api.ListFilter{
		Flags: opts.Flags,
		Order: opts.Order,
		Since: opts.Since,
		Until: opts.Until,
	}
	return env.Client.EachLog(ctx, filter, func(log model.WorkLog) error {
		return printLog(env.Out, opts.Format, log)
	})
}
