package domain

import (
	"fmt"
	"time"
)

// WeeklySummary is the structured synthesis of one project-week.
type WeeklySummary struct {
	WeekSummary     string `json:"week_summary"`
	Accomplishments string `json:"accomplishments"`
	Insights        string `json:"insights"`
	Progress        string `json:"progress"`
	NextWeekFocus   string `json:"next_week_focus"`
}

// WeekKey returns the ISO week key of t, e.g. "2025-W26".
func WeekKey(t time.Time) string {
	y, w := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", y, w)
}

// WeekStart returns the Monday of t's ISO week at midnight.
func WeekStart(t time.Time) time.Time {
	d := DateOnly(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// ParseWeekKey returns the Monday of the ISO week named by key.
func ParseWeekKey(key string) (time.Time, error) {
	var y, w int
	if _, err := fmt.Sscanf(key, "%d-W%d", &y, &w); err != nil {
		return time.Time{}, fmt.Errorf("invalid week key %q: %w", key, err)
	}
	if w < 1 || w > 53 {
		return time.Time{}, fmt.Errorf("invalid week key %q: week out of range", key)
	}
	jan4 := time.Date(y, time.January, 4, 0, 0, 0, 0, time.UTC)
	start := WeekStart(jan4).AddDate(0, 0, (w-1)*7)
	if WeekKey(start) != fmt.Sprintf("%d-W%02d", y, w) {
		return time.Time{}, fmt.Errorf("invalid week key %q: year has no such week", key)
	}
	return start, nil
}

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateLayout is the canonical date format used in file names.
const DateLayout = "2006-01-02"
