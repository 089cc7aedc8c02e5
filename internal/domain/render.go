package domain

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// MaxWeek is the last position of the week slider.
const MaxWeek = 52

// ErrWeekOutOfRange is returned for week values outside 0..MaxWeek.
var ErrWeekOutOfRange = errors.New("week out of range")

// DefaultPalette is the ten-colour qualitative palette used for traces.
var DefaultPalette = []string{
	"#636EFA", "#EF553B", "#00CC96", "#AB63FA", "#FFA15A",
	"#19D3F3", "#FF6692", "#B6E880", "#FF97FF", "#FECB52",
}

// Trace is one subject's path up to the cutoff and its latest known position.
type Trace struct {
	Key      Key       `json:"key"`
	Path     []Point   `json:"path"`
	Last     Point     `json:"last"`
	LastSeen time.Time `json:"last_seen"`
	Color    string    `json:"color"`
}

// Scene is the renderer output: at most one trace per key, in the order keys
// first appear in the table.
type Scene struct {
	Week   int     `json:"week"`
	Traces []Trace `json:"traces"`
}

// Empty reports whether the scene has nothing to draw.
func (s Scene) Empty() bool { return len(s.Traces) == 0 }

// ValidateWeek checks that week is a valid slider position.
func ValidateWeek(week int) error {
	if week < 0 || week > MaxWeek {
		return fmt.Errorf("%w: %d (want 0-%d)", ErrWeekOutOfRange, week, MaxWeek)
	}
	return nil
}

// CutoffDate returns January 1 of year (UTC) plus week*7 days.
func CutoffDate(year, week int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, week*7)
}

// Render builds the scene for the selected keys at the given week. Only fixes
// strictly before each key's cutoff are drawn; keys with no such fixes are
// left out. Colours come from palette by first-seen order and cycle when there
// are more traces than colours. A nil or empty palette uses DefaultPalette.
func Render(t *Table, keys []Key, week int, palette []string) Scene {
	if len(keys) == 0 {
		return Scene{}
	}
	scene := Scene{Week: week}
	if len(palette) == 0 {
		palette = DefaultPalette
	}

	cutoffs := make(map[Key]time.Time, len(keys))
	for _, k := range keys {
		cutoffs[k] = CutoffDate(k.Year, week)
	}

	var order []Key
	groups := make(map[Key][]Record)
	for _, r := range t.records {
		cutoff, ok := cutoffs[r.Key]
		if !ok || !r.Timestamp.Before(cutoff) {
			continue
		}
		if _, seen := groups[r.Key]; !seen {
			order = append(order, r.Key)
		}
		groups[r.Key] = append(groups[r.Key], r)
	}

	scene.Traces = make([]Trace, 0, len(order))
	for i, k := range order {
		rows := groups[k]
		slices.SortStableFunc(rows, func(a, b Record) int {
			return a.Timestamp.Compare(b.Timestamp)
		})

		path := make([]Point, len(rows))
		for j, r := range rows {
			path[j] = r.Point
		}
		last := rows[len(rows)-1]
		scene.Traces = append(scene.Traces, Trace{
			Key:      k,
			Path:     path,
			Last:     last.Point,
			LastSeen: last.Timestamp,
			Color:    palette[i%len(palette)],
		})
	}
	return scene
}
