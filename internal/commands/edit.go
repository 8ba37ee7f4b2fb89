package commands

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"gopkg.in/yaml.v3"

	"github.com/meTasking/cli/internal/model"
)

// EditorFunc opens the given file for interactive editing and returns once
// the user is done.
type EditorFunc func(path string) error

// EditOptions configures the edit round-trip.
type EditOptions struct {
	// ID of the log to edit; nil addresses the active log.
	ID *int
	// Editor command; empty falls back to $EDITOR, then nano.
	Editor string
	// RunEditor overrides the editor invocation, primarily for tests.
	RunEditor EditorFunc
}

// editableLog is the YAML document presented to the user. Category and task
// are flattened to bare names so they can be retyped freely; the server
// recreates missing ones on update.
type editableLog struct {
	ID          int            `yaml:"id"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Category    *string        `yaml:"category"`
	Task        *string        `yaml:"task"`
	Flags       []string       `yaml:"flags"`
	Records     []model.Record `yaml:"records"`
}

// Edit fetches a log, opens it as YAML in an editor, and writes the edited
// version back to the server.
func Edit(ctx context.Context, env Env, opts EditOptions) error {
	log, err := env.Client.GetLog(ctx, opts.ID)
	if err != nil {
		return err
	}
	if log == nil {
		return fmt.Errorf("no active log to edit")
	}

	doc := editableLog{
		ID:          log.ID,
		Name:        log.Name,
		Description: log.Description,
		Flags:       log.Flags,
		Records:     log.Records,
	}
	if log.Category != nil {
		doc.Category = &log.Category.Name
	}
	if log.Task != nil {
		doc.Task = &log.Task.Name
	}

	edited, err := editRoundTrip(doc, opts)
	if err != nil {
		return err
	}

	payload := map[string]any{
		"name":        edited.Name,
		"description": edited.Description,
		"category":    edited.Category,
		"task":        edited.Task,
		"flags":       edited.Flags,
		"records":     edited.Records,
	}

	_, err = env.Client.UpdateLog(ctx, edited.ID, payload, true, true)
	return err
}

// editRoundTrip dumps the document to a temp file, runs the editor on it and
// parses the result back.
func editRoundTrip(doc editableLog, opts EditOptions) (editableLog, error) {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return editableLog{}, fmt.Errorf("encode log: %w", err)
	}

	tmp, err := os.CreateTemp("", "metask-edit-*.yml")
	if err != nil {
		return editableLog{}, fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return editableLog{}, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return editableLog{}, fmt.Errorf("close temp file: %w", err)
	}

	runEditor := opts.RunEditor
	if runEditor == nil {
		runEditor = systemEditor(opts.Editor)
	}
	if err := runEditor(tmp.Name()); err != nil {
		return editableLog{}, fmt.Errorf("run editor: %w", err)
	}

	edited, err := os.ReadFile(tmp.Name())
	if err != nil {
		return editableLog{}, fmt.Errorf("read edited file: %w", err)
	}

	var result editableLog
	if err := yaml.Unmarshal(edited, &result); err != nil {
		return editableLog{}, fmt.Errorf("parse edited log: %w", err)
	}
	return result, nil
}

// systemEditor resolves the editor command and runs it attached to the
// user's terminal.
func systemEditor(editor string) EditorFunc {
	return func(path string) error {
		command := editor
		if command == "" {
			command = os.Getenv("EDITOR")
		}
		if command == "" {
			command = "nano"
		}
		resolved, err := exec.LookPath(command)
		if err != nil {
			return fmt.Errorf("resolve editor %q: %w", command, err)
		}

		cmd := exec.Command(resolved, path)
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd.Run()
	}
}
