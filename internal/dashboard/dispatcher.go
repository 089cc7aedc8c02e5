package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/migration-dashboard/internal/domain"
	"github.com/couchcryptid/migration-dashboard/internal/observability"
)

var (
	// ErrUnknownControl is returned for events from a control with no handler.
	ErrUnknownControl = errors.New("unknown control")
	// ErrBadValue is returned when an event value has the wrong shape.
	ErrBadValue = errors.New("bad control value")
)

// Event is one control change sent by the page.
type Event struct {
	Control string          `json:"control"`
	Value   json.RawMessage `json:"value"`
}

// Update is the output recomputed for an event. Options is set for a year
// range change and Scene for a selection or week change. A year range change
// that drops selected keys sets both.
type Update struct {
	Control   string
	Selection Selection
	Options   []domain.Key
	Scene     *domain.Scene
}

// Handler applies an event value to sel and computes the affected output.
// sel is a private copy; it is committed to the session only on success.
type Handler func(sel *Selection, value json.RawMessage) (Update, error)

// Dispatcher maps control ids to handlers.
type Dispatcher struct {
	handlers map[string]Handler
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher with the three dashboard controls wired to r.
func NewDispatcher(r *Renderer, metrics *observability.Metrics, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[string]Handler),
		metrics:  metrics,
		logger:   logger,
	}
	d.Register(ControlYearSlider, yearRangeHandler(r))
	d.Register(ControlDropdown, keysHandler(r))
	d.Register(ControlWeekSlider, weekHandler(r))
	return d
}

// Register installs h for control, replacing any previous handler.
func (d *Dispatcher) Register(control string, h Handler) {
	d.handlers[control] = h
}

// Dispatch runs the handler for ev against the session's selection.
func (d *Dispatcher) Dispatch(s *Session, ev Event) (Update, error) {
	h, ok := d.handlers[ev.Control]
	if !ok {
		d.metrics.EventErrors.Inc()
		return Update{}, fmt.Errorf("%w: %q", ErrUnknownControl, ev.Control)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sel := s.selection.clone()
	upd, err := h(&sel, ev.Value)
	if err != nil {
		d.metrics.Events.WithLabelValues(ev.Control, "error").Inc()
		d.metrics.EventErrors.Inc()
		d.logger.Debug("control event rejected", "session", s.ID, "control", ev.Control, "error", err)
		return Update{}, err
	}

	s.selection = sel
	d.metrics.Events.WithLabelValues(ev.Control, "ok").Inc()

	upd.Control = ev.Control
	upd.Selection = sel.clone()
	return upd, nil
}

func yearRangeHandler(r *Renderer) Handler {
	return func(sel *Selection, value json.RawMessage) (Update, error) {
		var years []int
		if err := json.Unmarshal(value, &years); err != nil || len(years) != 2 {
			return Update{}, fmt.Errorf("%w: year range must be [min, max]", ErrBadValue)
		}
		sel.YearMin, sel.YearMax = years[0], years[1]
		opts := r.Options(sel.YearMin, sel.YearMax)
		if opts == nil {
			opts = []domain.Key{}
		}
		upd := Update{Options: opts}

		// Selected keys no longer offered are deselected, as the dropdown does.
		kept := keepOffered(sel.Keys, opts)
		if len(kept) == len(sel.Keys) {
			return upd, nil
		}
		sel.Keys = kept
		scene, err := r.Scene(sel.Keys, sel.Week)
		if err != nil {
			return Update{}, err
		}
		upd.Scene = &scene
		return upd, nil
	}
}

func keepOffered(keys, offered []domain.Key) []domain.Key {
	set := make(map[domain.Key]struct{}, len(offered))
	for _, k := range offered {
		set[k] = struct{}{}
	}
	kept := make([]domain.Key, 0, len(keys))
	for _, k := range keys {
		if _, ok := set[k]; ok {
			kept = append(kept, k)
		}
	}
	return kept
}

func keysHandler(r *Renderer) Handler {
	return func(sel *Selection, value json.RawMessage) (Update, error) {
		var raw []string
		if len(bytes.TrimSpace(value)) > 0 {
			if err := json.Unmarshal(value, &raw); err != nil {
				return Update{}, fmt.Errorf("%w: selection must be a list of keys", ErrBadValue)
			}
		}
		keys, err := domain.ParseKeys(raw)
		if err != nil {
			return Update{}, err
		}
		sel.Keys = keys
		return sceneUpdate(r, sel)
	}
}

func weekHandler(r *Renderer) Handler {
	return func(sel *Selection, value json.RawMessage) (Update, error) {
		var week int
		if err := json.Unmarshal(value, &week); err != nil {
			return Update{}, fmt.Errorf("%w: week must be an integer", ErrBadValue)
		}
		if err := domain.ValidateWeek(week); err != nil {
			return Update{}, err
		}
		sel.Week = week
		return sceneUpdate(r, sel)
	}
}

func sceneUpdate(r *Renderer, sel *Selection) (Update, error) {
	scene, err := r.Scene(sel.Keys, sel.Week)
	if err != nil {
		return Update{}, err
	}
	return Update{Scene: &scene}, nil
}
