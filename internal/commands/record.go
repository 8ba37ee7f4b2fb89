package commands

import "context"

// RecordDelete removes a single tracked record from its log.
func RecordDelete(ctx context.Context, env Env, recordID int) error {
	return env.Client.DeleteRecord(ctx, recordID)
}
