// Package report aggregates tracked time into per-day hour totals.
package report

import (
	"time"

	"github.com/meTasking/cli/internal/model"
)

// DayTotal is the tracked time of a single calendar day.
type DayTotal struct {
	Date  time.Time
	Hours float64
}

// Summary is a contiguous per-day breakdown of tracked time. Days holds one
// entry per calendar day between the first and last observed day, with zero
// hours filled in for days without finished records.
type Summary struct {
	Days       []DayTotal
	TotalHours float64
}

// Builder accumulates logs into a Summary. Records that are still running
// are skipped; a record is attributed to the day it started on, in local
// time.
type Builder struct {
	location *time.Location
	days     map[time.Time]float64
	total    float64
}

// NewBuilder creates a Builder bucketing days in the local time zone.
func NewBuilder() *Builder {
	return NewBuilderIn(time.Local)
}

// NewBuilderIn creates a Builder bucketing days in the given time zone.
func NewBuilderIn(location *time.Location) *Builder {
	return &Builder{
		location: location,
		days:     make(map[time.Time]float64),
	}
}

// Add accumulates all finished records of the given log.
func (b *Builder) Add(log model.WorkLog) {
	for _, record := range log.Records {
		if !record.Finished() {
			continue
		}
		day := truncateToDay(record.Start.In(b.location))
		hours := record.Duration().Hours()
		b.days[day] += hours
		b.total += hours
	}
}

// Summary finalizes the breakdown. An empty Builder yields an empty Summary.
func (b *Builder) Summary() Summary {
	if len(b.days) == 0 {
		return Summary{}
	}

	var minDay, maxDay time.Time
	for day := range b.days {
		if minDay.IsZero() || day.Before(minDay) {
			minDay = day
		}
		if maxDay.IsZero() || day.After(maxDay) {
			maxDay = day
		}
	}

	var days []DayTotal
	for day := minDay; !day.After(maxDay); day = day.AddDate(0, 0, 1) {
		days = append(days, DayTotal{Date: day, Hours: b.days[day]})
	}

	return Summary{Days: days, TotalHours: b.total}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
