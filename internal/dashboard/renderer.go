package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/couchcryptid/migration-dashboard/internal/domain"
	"github.com/couchcryptid/migration-dashboard/internal/observability"
)

// Renderer binds the shared table to the domain operations and memoises
// scenes. Cached scenes are shared between callers and must be treated as
// read-only.
type Renderer struct {
	table   *domain.Table
	palette []string
	cache   *lru.Cache[string, domain.Scene]
	metrics *observability.Metrics
	logger  *slog.Logger
	ready   atomic.Bool
}

// NewRenderer creates a Renderer over table. palette may be nil for the default.
func NewRenderer(table *domain.Table, palette []string, cacheSize int, metrics *observability.Metrics, logger *slog.Logger) (*Renderer, error) {
	if table == nil {
		return nil, errors.New("renderer requires a table")
	}
	cache, err := lru.New[string, domain.Scene](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("scene cache: %w", err)
	}
	return &Renderer{
		table:   table,
		palette: slices.Clone(palette),
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}, nil
}

// Table returns the shared read-only table.
func (r *Renderer) Table() *domain.Table { return r.table }

// MarkReady flags the renderer as serving. Call it once every collaborator
// that routes traffic to the renderer has been wired.
func (r *Renderer) MarkReady() {
	r.ready.Store(true)
	r.metrics.TableReady.Set(1)
}

// CheckReadiness fails until MarkReady has been called.
func (r *Renderer) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("tracking table not loaded")
	}
	return nil
}

// Options lists the keys selectable for a year interval.
func (r *Renderer) Options(yearMin, yearMax int) []domain.Key {
	return domain.Options(r.table, yearMin, yearMax)
}

// Scene renders keys at week, serving repeats from the cache.
func (r *Renderer) Scene(keys []domain.Key, week int) (domain.Scene, error) {
	if err := domain.ValidateWeek(week); err != nil {
		return domain.Scene{}, err
	}
	if len(keys) == 0 {
		return domain.Scene{}, nil
	}

	ck := cacheKey(keys, week)
	if scene, ok := r.cache.Get(ck); ok {
		r.metrics.SceneCache.WithLabelValues("hit").Inc()
		return scene, nil
	}
	r.metrics.SceneCache.WithLabelValues("miss").Inc()

	start := time.Now()
	scene := domain.Render(r.table, keys, week, r.palette)
	r.metrics.RenderDuration.Observe(time.Since(start).Seconds())
	r.metrics.SceneTraces.Observe(float64(len(scene.Traces)))
	r.logger.Debug("scene rendered", "keys", len(keys), "week", week, "traces", len(scene.Traces))

	r.cache.Add(ck, scene)
	return scene, nil
}

// cacheKey is order- and duplicate-insensitive because Render is.
func cacheKey(keys []domain.Key, week int) string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	slices.Sort(names)
	names = slices.Compact(names)
	return strings.Join(names, ",") + "@" + strconv.Itoa(week)
}
