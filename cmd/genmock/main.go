// Command genmock writes a deterministic synthetic migration tracking CSV for
// local runs and demos. Each individual flies from a breeding area towards a
// wintering area once per season, with a fix every one to three days.
//
// Usage:
//
//	go run ./cmd/genmock -out data/migration_mq.csv -individuals 6 -years 2014-2016
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/migration-dashboard/internal/domain"
)

// route is a straight-line corridor between two areas with some lateral jitter.
type route struct {
	from, to domain.Point
}

var routes = []route{
	{from: domain.Point{Lon: 10.5, Lat: 53.2}, to: domain.Point{Lon: 30.1, Lat: -2.0}},
	{from: domain.Point{Lon: 4.8, Lat: 51.9}, to: domain.Point{Lon: -5.6, Lat: 13.4}},
	{from: domain.Point{Lon: 21.0, Lat: 52.2}, to: domain.Point{Lon: 35.5, Lat: 9.0}},
	{from: domain.Point{Lon: -1.6, Lat: 47.2}, to: domain.Point{Lon: -8.0, Lat: 33.5}},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/migration_mq.csv", "output CSV path")
	individuals := flag.Int("individuals", 6, "number of tagged individuals")
	years := flag.String("years", "2014-2016", "inclusive season range, e.g. 2014-2016")
	seed := flag.Uint64("seed", 42, "random seed")
	flag.Parse()

	first, last, err := parseYears(*years)
	if err != nil {
		return err
	}
	if *individuals <= 0 {
		return fmt.Errorf("-individuals must be positive")
	}

	rng := rand.New(rand.NewPCG(*seed, *seed))

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"event-id", "timestamp", "location-long", "location-lat", "individual-local-identifier", "id_year"}); err != nil {
		return err
	}

	var rows, eventID int
	for year := first; year <= last; year++ {
		for n := range *individuals {
			// Not every individual is tracked every season.
			if rng.Float64() < 0.2 {
				continue
			}
			id := fmt.Sprintf("Bird%02d", n+1)
			key := domain.Key{ID: id, Year: year}
			for _, fix := range season(rng, key, routes[n%len(routes)]) {
				eventID++
				rec := []string{
					strconv.Itoa(eventID),
					fix.ts.Format("2006-01-02 15:04:05.000"),
					strconv.FormatFloat(fix.pt.Lon, 'f', 6, 64),
					strconv.FormatFloat(fix.pt.Lat, 'f', 6, 64),
					id,
					key.String(),
				}
				if err := w.Write(rec); err != nil {
					return err
				}
				rows++
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	log.Printf("wrote %d rows for %d individuals over %d-%d to %s", rows, *individuals, first, last, *out)
	return nil
}

type fix struct {
	ts time.Time
	pt domain.Point
}

// season generates the fixes for one key. Departure is between late July and
// early September; the last fixes may spill into the next January.
func season(rng *rand.Rand, key domain.Key, r route) []fix {
	start := time.Date(key.Year, time.July, 20, 0, 0, 0, 0, time.UTC).
		Add(time.Duration(rng.IntN(45*24)) * time.Hour)
	ts := start

	steps := 40 + rng.IntN(30)
	fixes := make([]fix, 0, steps)
	for i := range steps {
		frac := float64(i) / float64(steps-1)
		pt := domain.Point{
			Lon: lerp(r.from.Lon, r.to.Lon, frac) + rng.NormFloat64()*0.8,
			Lat: lerp(r.from.Lat, r.to.Lat, frac) + rng.NormFloat64()*0.5,
		}
		fixes = append(fixes, fix{ts: ts, pt: pt})
		ts = ts.Add(time.Duration(24+rng.IntN(48))*time.Hour + time.Duration(rng.IntN(3600))*time.Second)
	}
	return fixes
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func parseYears(s string) (int, int, error) {
	lo, hi, found := strings.Cut(s, "-")
	if !found {
		hi = lo
	}
	first, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid -years %q", s)
	}
	last, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil || last < first {
		return 0, 0, fmt.Errorf("invalid -years %q", s)
	}
	return first, last, nil
}
