package commands

import (
	"context"

	"go.uber.org/zap"
)

// Next begins a new log and starts tracking time. Any currently active log
// is stopped, not paused.
func Next(ctx context.Context, env Env, opts StartOptions) error {
	log, err := env.Client.NextLog(ctx, opts.fields())
	if err != nil {
		return err
	}
	if log != nil {
		env.Logger.Debug("log started", zap.Int("id", log.ID))
	}
	return nil
}
