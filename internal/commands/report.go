package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/meTasking/cli/internal/api"
	"github.com/meTasking/cli/internal/model"
	"github.com/meTasking/cli/internal/report"
)

// ReportOptions narrows down the logs included in the report.
type ReportOptions struct {
	Since *time.Time
	Until *time.Time
	Flags []string

	// Location buckets records into calendar days; defaults to local time.
	Location *time.Location
}

// Report prints tracked hours per calendar day, zero-filling days without
// finished records, followed by a grand total.
func Report(ctx context.Context, env Env, opts ReportOptions) error {
	location := opts.Location
	if location == nil {
		location = time.Local
	}
	builder := report.NewBuilderIn(location)

	filter := api.ListFilter{
		Flags: opts.Flags,
		Since: opts.Since,
		Until: opts.Until,
	}
	err := env.Client.EachLog(ctx, filter, func(log model.WorkLog) error {
		builder.Add(log)
		return nil
	})
	if err != nil {
		return err
	}

	summary := builder.Summary()
	for _, day := range summary.Days {
		fmt.Fprintf(env.Out, "%s: %s\n", day.Date.Format("2006-01-02"), model.FormatHours(day.Hours))
	}
	fmt.Fprintf(env.Out, "Total: %s\n", model.FormatHours(summary.TotalHours))
	return nil
}
