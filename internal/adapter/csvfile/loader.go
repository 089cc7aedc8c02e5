// Package csvfile loads tracking fixes from a CSV export into a domain.Table.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/migration-dashboard/internal/domain"
)

// Required column names.
const (
	ColTimestamp = "timestamp"
	ColKey       = "id_year"
	ColLon       = "location-long"
	ColLat       = "location-lat"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// timestampLayouts are tried in order; values without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Load opens path and parses it with Read.
func Load(path string) (*domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tracking csv: %w", err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Read parses a tracking CSV. Any bad row aborts the load with an error naming
// its line and column; a partial table is never returned.
func Read(r io.Reader) (*domain.Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty csv: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	var records []domain.Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := cr.FieldPos(0)

		rec, err := parseRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}

	return domain.NewTable(records), nil
}

type columns struct {
	timestamp, key, lon, lat int
}

func indexColumns(header []string) (columns, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		idx[name] = i
	}

	var missing []string
	get := func(name string) int {
		i, ok := idx[name]
		if !ok {
			missing = append(missing, name)
		}
		return i
	}
	cols := columns{
		timestamp: get(ColTimestamp),
		key:       get(ColKey),
		lon:       get(ColLon),
		lat:       get(ColLat),
	}
	if len(missing) > 0 {
		return columns{}, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return cols, nil
}

func parseRow(row []string, cols columns) (domain.Record, error) {
	ts, err := parseTimestamp(strings.TrimSpace(row[cols.timestamp]))
	if err != nil {
		return domain.Record{}, fmt.Errorf("column %s: %w", ColTimestamp, err)
	}

	key, err := domain.ParseKey(strings.TrimSpace(row[cols.key]))
	if err != nil {
		return domain.Record{}, fmt.Errorf("column %s: %w", ColKey, err)
	}

	lon, err := parseCoord(row[cols.lon], 180)
	if err != nil {
		return domain.Record{}, fmt.Errorf("column %s: %w", ColLon, err)
	}

	lat, err := parseCoord(row[cols.lat], 90)
	if err != nil {
		return domain.Record{}, fmt.Errorf("column %s: %w", ColLat, err)
	}

	return domain.Record{
		Key:       key,
		Timestamp: ts,
		Point:     domain.Point{Lon: lon, Lat: lat},
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

func parseCoord(s string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if v < -limit || v > limit {
		return 0, fmt.Errorf("%g outside [-%g, %g]", v, limit, limit)
	}
	return v, nil
}
