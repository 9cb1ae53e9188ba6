package server

import (
	"bytes"
	"embed"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"airbnb-dashboard/charts"
	"airbnb-dashboard/crossfilter"
)

//go:embed web/index.html
var webFS embed.FS

var validate = validator.New()

const pageTitle = "Data Dashboard for Boston Airbnb Listings"

type pageData struct {
	Title    string
	Measures []charts.Measure
	Selected string
	Source   string
	Listings int
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	selected := charts.DefaultMeasure().Label
	if m, err := charts.LookupMeasure(r.URL.Query().Get("measure")); err == nil {
		selected = m.Label
	}

	var buf bytes.Buffer
	err := s.page.Execute(&buf, pageData{
		Title:    pageTitle,
		Measures: charts.Measures,
		Selected: selected,
		Source:   s.table.Source,
		Listings: s.table.Len(),
	})
	if err != nil {
		s.logger.Error("[server] Render page: %v", err)
		renderError(w, r, ErrInternal)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) handleMeasures(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, charts.Measures)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.report)
}

func (s *Server) handleScatter(w http.ResponseWriter, r *http.Request) {
	m := charts.DefaultMeasure()
	if label := r.URL.Query().Get("measure"); label != "" {
		var err error
		if m, err = charts.LookupMeasure(label); err != nil {
			renderError(w, r, ErrUnknownMeasure.WithDetails(label))
			return
		}
	}
	render.JSON(w, r, charts.Scatter(s.table, m))
}

func (s *Server) handleBoxplot(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, charts.Boxplot(s.table))
}

// ── Sessions ─────────────────────────────────────────────────────────────

type sessionResponse struct {
	ID        string                `json:"id"`
	Selection crossfilter.Selection `json:"selection"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, state := s.sessions.Create()
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, sessionResponse{ID: id, Selection: state.Snapshot()})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessionState(w, r); !ok {
		return
	}
	s.sessions.Delete(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// sessionState resolves {id} and writes a 404 when it is unknown.
func (s *Server) sessionState(w http.ResponseWriter, r *http.Request) (*crossfilter.State, bool) {
	id := chi.URLParam(r, "id")
	state, err := s.sessions.Get(id)
	if errors.Is(err, crossfilter.ErrSessionNotFound) {
		renderError(w, r, ErrSessionNotFound.WithDetails(id))
		return nil, false
	}
	if err != nil {
		s.logger.Error("[server] Session %s: %v", id, err)
		renderError(w, r, ErrInternal)
		return nil, false
	}
	return state, true
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	state, ok := s.sessionState(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, state.Snapshot())
}

type toggleRequest struct {
	Neighbourhood string `json:"neighbourhood" validate:"required"`
}

// Bind implements render.Binder.
func (t *toggleRequest) Bind(r *http.Request) error {
	return validate.Struct(t)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	state, ok := s.sessionState(w, r)
	if !ok {
		return
	}

	req := &toggleRequest{}
	if err := render.Bind(r, req); err != nil {
		renderError(w, r, ErrInvalidRequest.WithDetails(err.Error()))
		return
	}
	if _, known := s.hoods[req.Neighbourhood]; !known {
		renderError(w, r, ErrUnknownNeighbourhood.WithDetails(req.Neighbourhood))
		return
	}

	s.metrics.toggles.Inc()
	render.JSON(w, r, state.Toggle(req.Neighbourhood))
}

type zoomRequest struct {
	crossfilter.Interval
}

func (z *zoomRequest) Bind(r *http.Request) error {
	return z.Interval.Validate()
}

func (s *Server) handleSetZoom(w http.ResponseWriter, r *http.Request) {
	state, ok := s.sessionState(w, r)
	if !ok {
		return
	}

	req := &zoomRequest{}
	if err := render.Bind(r, req); err != nil {
		if errors.Is(err, crossfilter.ErrInvalidInterval) {
			renderError(w, r, ErrInvalidInterval.WithDetails(err.Error()))
			return
		}
		renderError(w, r, ErrInvalidRequest.WithDetails(err.Error()))
		return
	}

	snap, err := state.SetZoom(req.Interval)
	if err != nil {
		renderError(w, r, ErrInvalidInterval.WithDetails(err.Error()))
		return
	}
	render.JSON(w, r, snap)
}

func (s *Server) handleResetZoom(w http.ResponseWriter, r *http.Request) {
	state, ok := s.sessionState(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, state.ResetZoom())
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	state, ok := s.sessionState(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, state.Clear())
}

func (s *Server) handleLinked(w http.ResponseWriter, r *http.Request) {
	state, ok := s.sessionState(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, charts.Linked(s.table, state.Snapshot()))
}

func (s *Server) handleMedianPNG(w http.ResponseWriter, r *http.Request) {
	state, ok := s.sessionState(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	err := charts.RenderMedianPNG(&buf, s.table, state.Snapshot())
	if errors.Is(err, charts.ErrNoData) {
		renderError(w, r, ErrNoChartData)
		return
	}
	if err != nil {
		s.logger.Error("[server] Median PNG: %v", err)
		renderError(w, r, ErrInternal)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}
