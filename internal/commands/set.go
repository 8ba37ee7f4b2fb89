package commands

import (
	"context"
	"fmt"
)

// SetOptions carries the fields to update on a log.
type SetOptions struct {
	ID          int
	Name        *string
	Description *string
	Task        *string
	Category    *string
}

// Set applies a partial update to a log without opening an editor. Category
// and task references are created on the server when they do not exist yet.
func Set(ctx context.Context, env Env, opts SetOptions) error {
	payload := map[string]any{}
	createCategory := false
	createTask := false

	if opts.Name != nil {
		payload["name"] = *opts.Name
	}
	if opts.Description != nil {
		payload["description"] = *opts.Description
	}
	if opts.Category != nil {
		payload["category"] = *opts.Category
		createCategory = true
	}
	if opts.Task != nil {
		payload["task"] = *opts.Task
		createTask = true
	}

	if len(payload) == 0 {
		return fmt.Errorf("nothing to update, provide at least one field")
	}

	_, err := env.Client.UpdateLog(ctx, opts.ID, payload, createCategory, createTask)
	return err
}
