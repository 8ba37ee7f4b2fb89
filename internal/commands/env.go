// Package commands implements the metask command set. Each command talks to
// the meTasking server through the shared API client and writes
// human-readable output to Env.Out.
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/meTasking/cli/internal/api"
	"github.com/meTasking/cli/internal/model"
)

// Env carries the dependencies shared by all commands.
type Env struct {
	Client *api.Client
	Logger *zap.Logger
	Out    io.Writer
}

// Format selects how logs are rendered.
type Format string

const (
	// FormatSimple renders one summary line per log.
	FormatSimple Format = "simple"
	// FormatJSON renders each log as a single JSON document.
	FormatJSON Format = "json"
	// FormatYAML renders each log as a single-element YAML list.
	FormatYAML Format = "yaml"
)

// ParseFormat validates a --format flag value.
func ParseFormat(raw string) (Format, error) {
	switch Format(raw) {
	case FormatSimple, FormatJSON, FormatYAML:
		return Format(raw), nil
	default:
		return "", fmt.Errorf("unknown format %q, expected simple, json or yaml", raw)
	}
}

// timeLayouts are the accepted forms for --since and --until values. Layouts
// without a zone are interpreted in local time.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses a user-supplied point in time.
func ParseTime(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", raw)
}

// printLog writes a single log in the requested format.
func printLog(out io.Writer, format Format, log model.WorkLog) error {
	switch format {
	case FormatJSON:
		encoded, err := json.Marshal(log)
		if err != nil {
			return fmt.Errorf("encode log: %w", err)
		}
		_, err = fmt.Fprintln(out, string(encoded))
		return err
	case FormatYAML:
		encoded, err := yaml.Marshal([]model.WorkLog{log})
		if err != nil {
			return fmt.Errorf("encode log: %w", err)
		}
		_, err = fmt.Fprint(out, string(encoded))
		return err
	default:
		_, err := fmt.Fprintln(out, log.Summary())
		return err
	}
}
