package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/meTasking/cli/internal/api"
)

// StartOptions carries the attributes of the log to start. Nil fields are
// left for the server to default.
type StartOptions struct {
	Name        *string
	Description *string
	Task        *string
	Category    *string
}

func (o StartOptions) fields() api.LogFields {
	return api.LogFields{
		Name:        o.Name,
		Description: o.Description,
		Task:        o.Task,
		Category:    o.Category,
	}
}

// Start begins a new log and starts tracking time. Any currently active log
// is paused.
func Start(ctx context.Context, env Env, opts StartOptions) error {
	log, err := env.Client.StartLog(ctx, opts.fields())
	if err != nil {
		return err
	}
	if log != nil {
		env.Logger.Debug("log started", zap.Int("id", log.ID))
	}
	return nil
}
