package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	geojsonenc "github.com/couchcryptid/migration-dashboard/internal/adapter/geojson"
	"github.com/couchcryptid/migration-dashboard/internal/dashboard"
	"github.com/couchcryptid/migration-dashboard/internal/domain"
)

// SessionCookie names the cookie carrying the dashboard session id.
const SessionCookie = "dashboard_session"

const maxEventBytes = 64 << 10

// eventResponse is the JSON body returned for a dispatched control event.
type eventResponse struct {
	Control   string              `json:"control"`
	Selection dashboard.Selection `json:"selection"`
	Options   []domain.Key        `json:"options"`
	Scene     json.RawMessage     `json:"scene,omitempty"`
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	page, err := web.ReadFile("web/index.html")
	if err != nil {
		s.logger.Error("read embedded page", "error", err)
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page) //nolint:errcheck // client may have gone away
}

func (s *Server) handleLayout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Layout)
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	def := s.deps.Layout.YearSlider.Value
	yearMin, err := intParam(r, "year_min", def[0])
	if err != nil {
		s.badRequest(w, "options", err)
		return
	}
	yearMax, err := intParam(r, "year_max", def[1])
	if err != nil {
		s.badRequest(w, "options", err)
		return
	}

	opts := s.deps.Renderer.Options(yearMin, yearMax)
	if opts == nil {
		opts = []domain.Key{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"options": opts})
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	scene, err := s.sceneFromQuery(r)
	if err != nil {
		s.badRequest(w, "scene", err)
		return
	}
	data, err := geojsonenc.Encode(scene)
	if err != nil {
		s.logger.Error("encode scene", "error", err)
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(data) //nolint:errcheck // client may have gone away
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	scene, err := s.sceneFromQuery(r)
	if err != nil {
		s.badRequest(w, "snapshot", err)
		return
	}

	var buf bytes.Buffer
	if err := s.deps.Snapshot.WritePNG(&buf, scene); err != nil {
		s.logger.Error("render snapshot", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes()) //nolint:errcheck // client may have gone away
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var ev dashboard.Event
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ev); err != nil {
		s.badRequest(w, "events", fmt.Errorf("decode event: %w", err))
		return
	}

	var id string
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}
	sess, created := s.deps.Sessions.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	upd, err := s.deps.Dispatcher.Dispatch(sess, ev)
	if err != nil {
		s.badRequest(w, "events", err)
		return
	}

	resp := eventResponse{
		Control:   upd.Control,
		Selection: upd.Selection,
		Options:   upd.Options,
	}
	if upd.Scene != nil {
		data, err := geojsonenc.Encode(*upd.Scene)
		if err != nil {
			s.logger.Error("encode scene", "error", err)
			http.Error(w, "encode failed", http.StatusInternalServerError)
			return
		}
		resp.Scene = data
	}
	writeJSON(w, http.StatusOK, resp)
}

// sceneFromQuery reads repeated key parameters and week (default 52).
func (s *Server) sceneFromQuery(r *http.Request) (domain.Scene, error) {
	keys, err := domain.ParseKeys(r.URL.Query()["key"])
	if err != nil {
		return domain.Scene{}, err
	}
	week, err := intParam(r, "week", domain.MaxWeek)
	if err != nil {
		return domain.Scene{}, err
	}
	return s.deps.Renderer.Scene(keys, week)
}

func (s *Server) badRequest(w http.ResponseWriter, route string, err error) {
	s.deps.Metrics.BadRequests.WithLabelValues(route).Inc()
	status := http.StatusBadRequest
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		status = http.StatusRequestEntityTooLarge
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, v)
	}
	return n, nil
}
