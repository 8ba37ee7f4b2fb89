package model

import (
	"fmt"
	"time"
)

// Category groups related work logs.
type Category struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Task is a server-side task a work log may be attached to.
type Task struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Record is a single tracked interval of a work log. End is nil while the
// record is still running.
type Record struct {
	ID    int        `json:"id" yaml:"id"`
	Start time.Time  `json:"start" yaml:"start"`
	End   *time.Time `json:"end" yaml:"end"`
}

// Finished reports whether the record has been closed.
func (r Record) Finished() bool {
	return r.End != nil
}

// Duration returns the tracked time of a finished record and zero for a
// record that is still running.
func (r Record) Duration() time.Duration {
	if r.End == nil {
		return 0
	}
	return r.End.Sub(r.Start)
}

// WorkLog is a working session consisting of tracked records.
type WorkLog struct {
	ID          int       `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Flags       []string  `json:"flags,omitempty" yaml:"flags,omitempty"`
	Category    *Category `json:"category" yaml:"category"`
	Task        *Task     `json:"task" yaml:"task"`
	Records     []Record  `json:"records" yaml:"records"`
}

// Duration sums the tracked time of all finished records.
func (l WorkLog) Duration() time.Duration {
	var total time.Duration
	for _, r := range l.Records {
		total += r.Duration()
	}
	return total
}

// Running reports whether the log has an open record.
func (l WorkLog) Running() bool {
	for _, r := range l.Records {
		if !r.Finished() {
			return true
		}
	}
	return false
}

// TimeRange renders the span from the first record's start to the last
// record's end. It returns an empty string for a log without records and an
// open-ended span while the last record is running.
func (l WorkLog) TimeRange() string {
	if len(l.Records) == 0 {
		return ""
	}
	first := l.Records[0]
	last := l.Records[len(l.Records)-1]
	end := "..."
	if last.End != nil {
		end = last.End.Format(time.RFC3339)
	}
	return fmt.Sprintf("(%s - %s)", first.Start.Format(time.RFC3339), end)
}

// Summary renders the one-line form used by status and list output:
// "id (start - end): name: description".
func (l WorkLog) Summary() string {
	timeRange := l.TimeRange()
	if timeRange != "" {
		timeRange = " " + timeRange
	}
	return fmt.Sprintf("%d%s: %s: %s", l.ID, timeRange, l.Name, l.Description)
}

// HoursPlaceholder is rendered in place of an hour total that is unknown.
const HoursPlaceholder = "---.--"

// FormatHours renders an hour count with two decimal places.
func FormatHours(hours float64) string {
	return fmt.Sprintf("%.2f", hours)
}
