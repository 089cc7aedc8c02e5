package domain

import (
	"slices"
	"time"
)

// Point is a WGS-84 longitude/latitude pair.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Record is one GPS fix.
type Record struct {
	Key       Key
	Timestamp time.Time
	Point     Point
}

// Table is the read-only set of fixes loaded at startup. It is safe to share
// across goroutines because nothing mutates it after NewTable returns.
type Table struct {
	records []Record
	years   []int
}

// NewTable copies records into a Table, preserving their order.
func NewTable(records []Record) *Table {
	t := &Table{records: slices.Clone(records)}

	seen := make(map[int]struct{})
	for _, r := range t.records {
		y := r.Timestamp.Year()
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		t.years = append(t.years, y)
	}
	slices.Sort(t.years)
	return t
}

// Len returns the number of records.
func (t *Table) Len() int { return len(t.records) }

// At returns the i-th record in load order.
func (t *Table) At(i int) Record { return t.records[i] }

// Years returns the distinct timestamp years in ascending order.
func (t *Table) Years() []int { return slices.Clone(t.years) }

// YearBounds returns the smallest and largest timestamp year. ok is false for
// an empty table.
func (t *Table) YearBounds() (lo, hi int, ok bool) {
	if len(t.years) == 0 {
		return 0, 0, false
	}
	return t.years[0], t.years[len(t.years)-1], true
}
