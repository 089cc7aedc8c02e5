// Package dashboard holds the per-user side of the dashboard: widget layout,
// session selection state, and the event dispatch that maps each control
// change to one pure domain call.
package dashboard

import (
	"fmt"
	"strconv"

	"github.com/couchcryptid/migration-dashboard/internal/config"
	"github.com/couchcryptid/migration-dashboard/internal/domain"
)

// Control ids, shared with the page script.
const (
	ControlYearSlider = "year-slider"
	ControlDropdown   = "individual-dropdown"
	ControlWeekSlider = "timestamp-slider"
)

// Mark is a labelled slider tick.
type Mark struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// RangeSlider describes the year range control.
type RangeSlider struct {
	ID    string `json:"id"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Value [2]int `json:"value"`
	Step  int    `json:"step"`
	Marks []Mark `json:"marks"`
}

// Slider describes the week control.
type Slider struct {
	ID    string `json:"id"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Value int    `json:"value"`
	Step  int    `json:"step"`
	Marks []Mark `json:"marks"`
}

// Dropdown describes the individual selector.
type Dropdown struct {
	ID    string `json:"id"`
	Multi bool   `json:"multi"`
}

// MapView describes the map surface.
type MapView struct {
	Height       int      `json:"height"`
	CountryColor string   `json:"country_color"`
	LegendTitle  string   `json:"legend_title"`
	LineWidth    float64  `json:"line_width"`
	MarkerSize   float64  `json:"marker_size"`
	Palette      []string `json:"palette"`
}

// Layout is everything the page needs to build its widgets.
type Layout struct {
	YearSlider RangeSlider `json:"year_slider"`
	Dropdown   Dropdown    `json:"dropdown"`
	WeekSlider Slider      `json:"week_slider"`
	Map        MapView     `json:"map"`
}

// NewLayout derives widget bounds from the table. The year slider spans the
// table's years with one mark per year present; the week slider runs 0..52,
// defaults to 52, and labels every other week.
func NewLayout(t *domain.Table, style config.Style) Layout {
	lo, hi, _ := t.YearBounds()

	yearMarks := make([]Mark, 0, len(t.Years()))
	for _, y := range t.Years() {
		yearMarks = append(yearMarks, Mark{Value: y, Label: strconv.Itoa(y)})
	}

	var weekMarks []Mark
	for w := 0; w <= domain.MaxWeek; w += 2 {
		weekMarks = append(weekMarks, Mark{Value: w, Label: fmt.Sprintf("Week %d", w+1)})
	}

	return Layout{
		YearSlider: RangeSlider{
			ID:    ControlYearSlider,
			Min:   lo,
			Max:   hi,
			Value: [2]int{lo, hi},
			Step:  1,
			Marks: yearMarks,
		},
		Dropdown: Dropdown{ID: ControlDropdown, Multi: true},
		WeekSlider: Slider{
			ID:    ControlWeekSlider,
			Min:   0,
			Max:   domain.MaxWeek,
			Value: domain.MaxWeek,
			Step:  1,
			Marks: weekMarks,
		},
		Map: MapView{
			Height:       style.MapHeight,
			CountryColor: style.CountryColor,
			LegendTitle:  style.LegendTitle,
			LineWidth:    style.LineWidth,
			MarkerSize:   style.MarkerSize,
			Palette:      style.Palette,
		},
	}
}

// DefaultSelection is the state of a fresh session: full year range, nothing
// selected, week slider at the end of the year.
func (l Layout) DefaultSelection() Selection {
	return Selection{
		YearMin: l.YearSlider.Value[0],
		YearMax: l.YearSlider.Value[1],
		Week:    l.WeekSlider.Value,
	}
}
