package dashboard

import (
	"encoding/json"
	"io"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/migration-dashboard/internal/config"
	"github.com/couchcryptid/migration-dashboard/internal/domain"
	"github.com/couchcryptid/migration-dashboard/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testTable() *domain.Table {
	a := domain.Key{ID: "A", Year: 2020}
	b := domain.Key{ID: "B", Year: 2021}
	return domain.NewTable([]domain.Record{
		{Key: a, Timestamp: day(2020, time.January, 1), Point: domain.Point{Lon: 10, Lat: 50}},
		{Key: a, Timestamp: day(2020, time.January, 10), Point: domain.Point{Lon: 11, Lat: 49}},
		{Key: a, Timestamp: day(2020, time.February, 1), Point: domain.Point{Lon: 12, Lat: 48}},
		{Key: b, Timestamp: day(2021, time.March, 3), Point: domain.Point{Lon: -5, Lat: 36}},
	})
}

type fixture struct {
	metrics    *observability.Metrics
	renderer   *Renderer
	dispatcher *Dispatcher
	store      *SessionStore
	clock      *clockwork.FakeClock
	layout     Layout
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	table := testTable()

	r, err := NewRenderer(table, nil, 8, metrics, discardLogger())
	require.NoError(t, err)

	layout := NewLayout(table, config.DefaultStyle())
	clock := clockwork.NewFakeClockAt(day(2024, time.May, 1))
	store, err := NewSessionStore(4, 10*time.Minute, layout.DefaultSelection(), clock, metrics)
	require.NoError(t, err)

	return &fixture{
		metrics:    metrics,
		renderer:   r,
		dispatcher: NewDispatcher(r, metrics, discardLogger()),
		store:      store,
		clock:      clock,
		layout:     layout,
	}
}

func event(t *testing.T, control string, v any) Event {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return Event{Control: control, Value: raw}
}

// --- layout ---

func TestNewLayout(t *testing.T) {
	layout := NewLayout(testTable(), config.DefaultStyle())

	assert.Equal(t, 2020, layout.YearSlider.Min)
	assert.Equal(t, 2021, layout.YearSlider.Max)
	assert.Equal(t, [2]int{2020, 2021}, layout.YearSlider.Value)
	assert.Equal(t, []Mark{{2020, "2020"}, {2021, "2021"}}, layout.YearSlider.Marks)
	assert.Equal(t, 1, layout.YearSlider.Step)

	assert.True(t, layout.Dropdown.Multi)

	assert.Equal(t, 52, layout.WeekSlider.Value)
	assert.Len(t, layout.WeekSlider.Marks, 27)
	assert.Equal(t, Mark{Value: 0, Label: "Week 1"}, layout.WeekSlider.Marks[0])
	assert.Equal(t, Mark{Value: 52, Label: "Week 53"}, layout.WeekSlider.Marks[26])

	assert.Equal(t, 800, layout.Map.Height)
	assert.Equal(t, "#bfbfbf", layout.Map.CountryColor)

	sel := layout.DefaultSelection()
	assert.Equal(t, Selection{YearMin: 2020, YearMax: 2021, Week: 52}, sel)
}

// --- renderer ---

func TestRenderer_SceneCache(t *testing.T) {
	f := newFixture(t)
	a := domain.Key{ID: "A", Year: 2020}
	b := domain.Key{ID: "B", Year: 2021}

	first, err := f.renderer.Scene([]domain.Key{a, b}, 5)
	require.NoError(t, err)
	second, err := f.renderer.Scene([]domain.Key{b, a, a}, 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.SceneCache.WithLabelValues("miss")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.SceneCache.WithLabelValues("hit")), 0)
}

func TestRenderer_RejectsBadWeek(t *testing.T) {
	f := newFixture(t)
	_, err := f.renderer.Scene([]domain.Key{{ID: "A", Year: 2020}}, 60)
	assert.ErrorIs(t, err, domain.ErrWeekOutOfRange)
}

func TestRenderer_EmptySelectionSkipsCache(t *testing.T) {
	f := newFixture(t)
	scene, err := f.renderer.Scene(nil, 10)
	require.NoError(t, err)
	assert.True(t, scene.Empty())
	assert.InDelta(t, 0, testutil.ToFloat64(f.metrics.SceneCache.WithLabelValues("miss")), 0)
}

func TestRenderer_Readiness(t *testing.T) {
	f := newFixture(t)
	require.Error(t, f.renderer.CheckReadiness(context.Background()))
	assert.InDelta(t, 0, testutil.ToFloat64(f.metrics.TableReady), 0)

	f.renderer.MarkReady()
	require.NoError(t, f.renderer.CheckReadiness(context.Background()))
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.TableReady), 0)
}

func TestCacheKey(t *testing.T) {
	a := domain.Key{ID: "A", Year: 2020}
	b := domain.Key{ID: "B", Year: 2021}
	assert.Equal(t, cacheKey([]domain.Key{a, b}, 3), cacheKey([]domain.Key{b, a, b}, 3))
	assert.NotEqual(t, cacheKey([]domain.Key{a}, 3), cacheKey([]domain.Key{a}, 4))
}

// --- sessions ---

func TestSessionStore_CreateAndGet(t *testing.T) {
	f := newFixture(t)

	s := f.store.Create()
	require.NotEmpty(t, s.ID)
	assert.Equal(t, f.layout.DefaultSelection(), s.Selection())

	got, ok := f.store.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.SessionsActive), 0)
}

func TestSessionStore_Expiry(t *testing.T) {
	f := newFixture(t)
	s := f.store.Create()

	f.clock.Advance(9 * time.Minute)
	_, ok := f.store.Get(s.ID)
	require.True(t, ok, "lookup refreshes idle timer")

	f.clock.Advance(9 * time.Minute)
	_, ok = f.store.Get(s.ID)
	require.True(t, ok)

	f.clock.Advance(11 * time.Minute)
	_, ok = f.store.Get(s.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, f.store.Len())
}

func TestSessionStore_CapacityEvictsOldest(t *testing.T) {
	f := newFixture(t)
	first := f.store.Create()
	for range 4 {
		f.store.Create()
	}
	_, ok := f.store.Get(first.ID)
	assert.False(t, ok)
	assert.Equal(t, 4, f.store.Len())
}

func TestSessionStore_GetOrCreate(t *testing.T) {
	f := newFixture(t)

	s, created := f.store.GetOrCreate("")
	assert.True(t, created)

	again, created := f.store.GetOrCreate(s.ID)
	assert.False(t, created)
	assert.Same(t, s, again)

	other, created := f.store.GetOrCreate("no-such-session")
	assert.True(t, created)
	assert.NotEqual(t, s.ID, other.ID)
}

func TestSessionStore_IsolatesSelections(t *testing.T) {
	f := newFixture(t)
	s1 := f.store.Create()
	s2 := f.store.Create()

	_, err := f.dispatcher.Dispatch(s1, event(t, ControlWeekSlider, 3))
	require.NoError(t, err)

	assert.Equal(t, 3, s1.Selection().Week)
	assert.Equal(t, 52, s2.Selection().Week)
}

// --- dispatch ---

func TestDispatch_YearSlider(t *testing.T) {
	f := newFixture(t)
	s := f.store.Create()

	upd, err := f.dispatcher.Dispatch(s, event(t, ControlYearSlider, []int{2021, 2021}))
	require.NoError(t, err)
	assert.Equal(t, ControlYearSlider, upd.Control)
	assert.Equal(t, []domain.Key{{ID: "B", Year: 2021}}, upd.Options)
	assert.Nil(t, upd.Scene)
	assert.Equal(t, 2021, s.Selection().YearMin)

	upd, err = f.dispatcher.Dispatch(s, event(t, ControlYearSlider, []int{1990, 1991}))
	require.NoError(t, err)
	assert.NotNil(t, upd.Options)
	assert.Empty(t, upd.Options)
}

func TestDispatch_YearSliderDeselectsHiddenKeys(t *testing.T) {
	f := newFixture(t)
	s := f.store.Create()
	a := domain.Key{ID: "A", Year: 2020}
	b := domain.Key{ID: "B", Year: 2021}

	_, err := f.dispatcher.Dispatch(s, event(t, ControlDropdown, []string{"A_2020", "B_2021"}))
	require.NoError(t, err)

	upd, err := f.dispatcher.Dispatch(s, event(t, ControlYearSlider, []int{2021, 2021}))
	require.NoError(t, err)
	assert.Equal(t, []domain.Key{b}, upd.Options)
	require.NotNil(t, upd.Scene, "shrinking the selection redraws the map")
	require.Len(t, upd.Scene.Traces, 1)
	assert.Equal(t, b, upd.Scene.Traces[0].Key)
	assert.Equal(t, []domain.Key{b}, s.Selection().Keys)

	upd, err = f.dispatcher.Dispatch(s, event(t, ControlWeekSlider, 52))
	require.NoError(t, err)
	require.Len(t, upd.Scene.Traces, 1)
	assert.Equal(t, b, upd.Scene.Traces[0].Key)

	// Widening the range again does not bring the dropped key back.
	upd, err = f.dispatcher.Dispatch(s, event(t, ControlYearSlider, []int{2020, 2021}))
	require.NoError(t, err)
	assert.Equal(t, []domain.Key{a, b}, upd.Options)
	assert.Nil(t, upd.Scene)
	assert.Equal(t, []domain.Key{b}, s.Selection().Keys)
}

func TestDispatch_DropdownThenWeek(t *testing.T) {
	f := newFixture(t)
	s := f.store.Create()

	upd, err := f.dispatcher.Dispatch(s, event(t, ControlDropdown, []string{"A_2020"}))
	require.NoError(t, err)
	require.NotNil(t, upd.Scene)
	require.Len(t, upd.Scene.Traces, 1)
	assert.Len(t, upd.Scene.Traces[0].Path, 3, "default week 52 shows the whole season")

	upd, err = f.dispatcher.Dispatch(s, event(t, ControlWeekSlider, 1))
	require.NoError(t, err)
	require.Len(t, upd.Scene.Traces, 1)
	assert.Equal(t, []domain.Point{{Lon: 10, Lat: 50}}, upd.Scene.Traces[0].Path)
	assert.Equal(t, Selection{YearMin: 2020, YearMax: 2021, Keys: []domain.Key{{ID: "A", Year: 2020}}, Week: 1}, upd.Selection)
}

func TestDispatch_ClearSelection(t *testing.T) {
	f := newFixture(t)
	s := f.store.Create()

	_, err := f.dispatcher.Dispatch(s, event(t, ControlDropdown, []string{"A_2020"}))
	require.NoError(t, err)

	upd, err := f.dispatcher.Dispatch(s, Event{Control: ControlDropdown, Value: json.RawMessage("null")})
	require.NoError(t, err)
	assert.True(t, upd.Scene.Empty())
	assert.Empty(t, s.Selection().Keys)
}

func TestDispatch_Errors(t *testing.T) {
	f := newFixture(t)
	s := f.store.Create()
	before := s.Selection()

	tests := []struct {
		name string
		ev   Event
		want error
	}{
		{"unknown control", event(t, "zoom", 1), ErrUnknownControl},
		{"year range wrong length", event(t, ControlYearSlider, []int{2020}), ErrBadValue},
		{"year range not numbers", event(t, ControlYearSlider, "2020-2021"), ErrBadValue},
		{"dropdown not a list", event(t, ControlDropdown, 5), ErrBadValue},
		{"malformed key", event(t, ControlDropdown, []string{"A_2020", "oops"}), domain.ErrMalformedKey},
		{"week not integer", event(t, ControlWeekSlider, "five"), ErrBadValue},
		{"week out of range", event(t, ControlWeekSlider, 53), domain.ErrWeekOutOfRange},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.dispatcher.Dispatch(s, tc.ev)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	assert.Equal(t, before, s.Selection(), "failed events leave the selection untouched")
	assert.InDelta(t, float64(len(tests)), testutil.ToFloat64(f.metrics.EventErrors), 0)
}

func TestDispatch_CustomHandler(t *testing.T) {
	f := newFixture(t)
	s := f.store.Create()

	f.dispatcher.Register("reset", func(sel *Selection, _ json.RawMessage) (Update, error) {
		*sel = f.layout.DefaultSelection()
		return Update{}, nil
	})

	_, err := f.dispatcher.Dispatch(s, event(t, ControlWeekSlider, 7))
	require.NoError(t, err)
	_, err = f.dispatcher.Dispatch(s, Event{Control: "reset"})
	require.NoError(t, err)
	assert.Equal(t, 52, s.Selection().Week)
}
