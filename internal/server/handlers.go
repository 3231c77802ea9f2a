package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/robert-malhotra/stac-coverage/pkg/cql2"
	"github.com/robert-malhotra/stac-coverage/pkg/fetch"
	"github.com/robert-malhotra/stac-coverage/pkg/geo"
	"github.com/robert-malhotra/stac-coverage/pkg/index"
	"github.com/robert-malhotra/stac-coverage/pkg/query"
	"github.com/robert-malhotra/stac-coverage/pkg/stac"
	"github.com/robert-malhotra/stac-coverage/pkg/traverse"
)

const maxBodyBytes = 4 << 20

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Kind: kind})
}

// badRequest marks argument errors found by the handlers themselves.
type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func badRequestf(format string, args ...any) error {
	return &badRequest{msg: fmt.Sprintf(format, args...)}
}

// fail maps engine errors onto HTTP statuses.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		br       *badRequest
		geom     *geo.InvalidGeometryError
		fe       *fetch.FetchError
		tooLarge *traverse.CatalogTooLargeError
		bad      *stac.MalformedNodeError
	)
	switch {
	case errors.As(err, &br):
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.As(err, &geom):
		writeError(w, http.StatusBadRequest, "invalid_geometry", err.Error())
	case errors.Is(err, query.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, "invalid_window", err.Error())
	case errors.Is(err, query.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
	case errors.Is(err, geo.ErrUnsupportedGeometry):
		writeError(w, http.StatusBadRequest, "invalid_geometry", err.Error())
	case errors.Is(err, query.ErrNoIndex):
		writeError(w, http.StatusServiceUnavailable, "no_index", err.Error())
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusBadGateway, "catalog_too_large", err.Error())
	case errors.As(err, &fe):
		writeError(w, http.StatusBadGateway, "fetch_"+string(fe.Kind), err.Error())
	case errors.As(err, &bad):
		writeError(w, http.StatusBadGateway, "malformed_root", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "canceled", err.Error())
	default:
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.engine.Current() == nil {
		s.fail(w, r, query.ErrNoIndex)
		return
	}
	s.healthz(w, r)
}

type statusResponse struct {
	Root        string           `json:"root"`
	Ready       bool             `json:"ready"`
	LastRefresh *time.Time       `json:"last_refresh,omitempty"`
	Generation  uint64           `json:"generation,omitempty"`
	Index       *index.Stats     `json:"index,omitempty"`
	Traversal   traverse.Summary `json:"traversal"`
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{Root: s.engine.Root(), Traversal: s.engine.Summary()}
	if idx := s.engine.Current(); idx != nil {
		st := idx.Stats()
		last := s.engine.LastRefresh()
		resp.Ready = true
		resp.LastRefresh = &last
		resp.Generation = idx.Generation()
		resp.Index = &st
	}
	writeJSON(w, http.StatusOK, resp)
}

type metadataResponse struct {
	Date      string           `json:"date"`
	Tolerance int              `json:"tolerance_days"`
	Count     int              `json:"count"`
	Items     []query.ItemView `json:"items"`
}

// metadata handles GET /metadata?lat=&lon=&date=&tolerance=&where=
func (s *Server) metadata(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := floatParam(q.Get("lat"), "lat")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	lon, err := floatParam(q.Get("lon"), "lon")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	date := q.Get("date")
	if date == "" {
		s.fail(w, r, badRequestf("missing required parameter: date"))
		return
	}
	tol := 0
	if v := q.Get("tolerance"); v != "" {
		if tol, err = strconv.Atoi(v); err != nil {
			s.fail(w, r, badRequestf("tolerance: %v", err))
			return
		}
	}
	opts, err := whereOption(q.Get("where"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	items, err := s.engine.Metadata(r.Context(), lat, lon, date, tol, opts...)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, metadataResponse{
		Date:      date,
		Tolerance: tol,
		Count:     len(items),
		Items:     query.NewItemViews(items, geometryOption(q.Get("geometry"))...),
	})
}

// coverageRequest is the POST /coverage body. Area is a GeoJSON object or
// a string holding WKT, GeoJSON or a bbox.
type coverageRequest struct {
	Area     json.RawMessage `json:"area"`
	Start    string          `json:"start"`
	End      string          `json:"end"`
	Where    json.RawMessage `json:"where"`
	Cells    *int            `json:"cells"`
	Geometry bool            `json:"geometry"`
}

// coverageGET handles GET /coverage?area=&start=&end=&where=&cells=
func (s *Server) coverageGET(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	area := q.Get("area")
	if area == "" {
		area = q.Get("bbox")
	}
	opts, err := whereOption(q.Get("where"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if v := q.Get("cells"); v != "" {
		cellOpts, err := s.cellsOption(v)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		opts = append(opts, cellOpts...)
	}
	s.coverage(w, r, area, q.Get("start"), q.Get("end"), opts, geometryOption(q.Get("geometry")))
}

func (s *Server) coveragePOST(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.fail(w, r, badRequestf("read body: %v", err))
		return
	}
	var req coverageRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.fail(w, r, badRequestf("decode body: %v", err))
		return
	}
	area, err := rawString(req.Area)
	if err != nil {
		s.fail(w, r, badRequestf("area: %v", err))
		return
	}
	where, err := rawString(req.Where)
	if err != nil {
		s.fail(w, r, badRequestf("where: %v", err))
		return
	}
	opts, err := whereOption(where)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Cells != nil {
		cellOpts, err := cellsAt(*req.Cells)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		opts = append(opts, cellOpts...)
	}
	view := []query.ViewOption{query.WithoutGeometry()}
	if req.Geometry {
		view = nil
	}
	s.coverage(w, r, area, req.Start, req.End, opts, view)
}

func (s *Server) coverage(w http.ResponseWriter, r *http.Request, area, start, end string, opts []query.QueryOption, view []query.ViewOption) {
	if strings.TrimSpace(area) == "" {
		s.fail(w, r, badRequestf("missing required parameter: area"))
		return
	}
	res, err := s.engine.Coverage(r.Context(), area, start, end, opts...)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res.View(view...))
}

type refreshResponse struct {
	Items      int              `json:"items"`
	Generation uint64           `json:"generation"`
	Traversal  traverse.Summary `json:"traversal"`
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	idx, err := s.engine.Refresh(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{Items: idx.Len(), Generation: idx.Generation(), Traversal: s.engine.Summary()})
}

func floatParam(v, name string) (float64, error) {
	if v == "" {
		return 0, badRequestf("missing required parameter: %s", name)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, badRequestf("%s: %v", name, err)
	}
	return f, nil
}

func whereOption(where string) ([]query.QueryOption, error) {
	if strings.TrimSpace(where) == "" {
		return nil, nil
	}
	f, err := cql2.Compile(where)
	if err != nil {
		return nil, badRequestf("where: %v", err)
	}
	return []query.QueryOption{query.Where(f)}, nil
}

// cellsOption reads a resolution; "true" selects the configured default.
func (s *Server) cellsOption(v string) ([]query.QueryOption, error) {
	if res, err := strconv.Atoi(v); err == nil {
		return cellsAt(res)
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, badRequestf("cells: want a resolution in [0,15] or true, got %q", v)
	}
	if !b {
		return nil, nil
	}
	return cellsAt(s.opts.H3Resolution)
}

func cellsAt(res int) ([]query.QueryOption, error) {
	if res < 0 || res > 15 {
		return nil, badRequestf("cells: resolution %d out of range [0,15]", res)
	}
	return []query.QueryOption{query.WithCells(res)}, nil
}

// geometryOption keeps footprints only when asked.
func geometryOption(v string) []query.ViewOption {
	if b, _ := strconv.ParseBool(v); b {
		return nil
	}
	return []query.ViewOption{query.WithoutGeometry()}
}

// rawString accepts a JSON string or any other JSON value, returned as
// its text.
func rawString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	return string(raw), nil
}
