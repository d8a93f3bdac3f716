// Package api serves place search, object lookup and geometry over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/geoquery/internal/export"
	"github.com/sells-group/geoquery/internal/messages"
	"github.com/sells-group/geoquery/internal/osmgeo"
	"github.com/sells-group/geoquery/pkg/nominatim"
	"github.com/sells-group/geoquery/pkg/overpass"
)

// statusClientClosedRequest is reported when the caller went away before the
// query finished.
const statusClientClosedRequest = 499

// ObjectFinder lists the tagged objects around a point.
type ObjectFinder interface {
	Objects(ctx context.Context, lat, lon float64, n overpass.Notifier) ([]overpass.Element, error)
}

// GeometryLoader fetches the geometry of one element.
type GeometryLoader interface {
	Load(ctx context.Context, elemType overpass.ElementType, id int64, n overpass.Notifier) (*geojson.FeatureCollection, overpass.Target, error)
}

// Deps are the collaborators of the HTTP handlers.
type Deps struct {
	Search         nominatim.Client
	Objects        ObjectFinder
	Geometry       GeometryLoader
	Language       string
	AllowedOrigins []string
}

type server struct {
	deps Deps
}

// NewRouter builds the HTTP handler. Each request's context bounds the
// queries it starts, so a client that disconnects cancels its own query.
func NewRouter(deps Deps) http.Handler {
	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s := &server{deps: deps}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/objects", s.handleObjects)
		r.Get("/geometry/{type}/{id}", s.handleGeometry)
	})

	return r
}

// printer picks the message language: the lang query parameter wins over
// the configured default.
func (s *server) printer(r *http.Request) *messages.Printer {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return messages.New(lang)
	}
	return messages.New(s.deps.Language)
}

type searchResponse struct {
	Results []nominatim.Place `json:"results"`
	Message string            `json:"message,omitempty"`
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	p := s.printer(r)
	places, err := s.deps.Search.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, p, err)
		return
	}
	resp := searchResponse{Results: places}
	if len(places) == 0 {
		resp.Results = []nominatim.Place{}
		resp.Message = p.Text(messages.NoResults)
	}
	writeJSON(w, http.StatusOK, resp)
}

type objectsResponse struct {
	Objects []export.ObjectSummary `json:"objects"`
	Message string                 `json:"message,omitempty"`
}

func (s *server) handleObjects(w http.ResponseWriter, r *http.Request) {
	p := s.printer(r)
	lat, latErr := parseCoord(r.URL.Query().Get("lat"), 90)
	lon, lonErr := parseCoord(r.URL.Query().Get("lon"), 180)
	if latErr != nil || lonErr != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: p.Text(messages.InvalidCoords)})
		return
	}

	elements, err := s.deps.Objects.Objects(r.Context(), lat, lon, requestNotifier(r))
	if err != nil {
		writeError(w, r, p, err)
		return
	}
	resp := objectsResponse{Objects: export.Summaries(elements)}
	if len(elements) == 0 {
		resp.Message = p.Text(messages.NothingFound)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleGeometry(w http.ResponseWriter, r *http.Request) {
	p := s.printer(r)
	elemType, err := overpass.ParseElementType(chi.URLParam(r, "type"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return
	}

	fc, _, err := s.deps.Geometry.Load(r.Context(), elemType, id, requestNotifier(r))
	if err != nil {
		writeError(w, r, p, err)
		return
	}
	data, err := export.MarshalGeoJSON(fc)
	if err != nil {
		writeError(w, r, p, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// requestNotifier logs progress messages tagged with the request id.
func requestNotifier(r *http.Request) overpass.Notifier {
	return overpass.LogNotifier{
		Logger: zap.L().With(zap.String("request_id", middleware.GetReqID(r.Context()))),
	}
}

func parseCoord(raw string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || v < -limit || v > limit {
		return 0, errors.New("coordinate out of range")
	}
	return v, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps query failures to HTTP statuses.
func statusFor(err error) int {
	var hard *overpass.HardError
	switch {
	case errors.Is(err, overpass.ErrTimeoutExceeded), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &hard):
		return http.StatusBadGateway
	case errors.Is(err, overpass.ErrCanceled), errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, nominatim.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, nominatim.ErrFetch), errors.Is(err, nominatim.ErrInvalidCoordinates):
		return http.StatusBadGateway
	case errors.Is(err, nominatim.ErrEmptyQuery),
		errors.Is(err, overpass.ErrEmptyQuery),
		errors.Is(err, overpass.ErrUnresolvableArea):
		return http.StatusBadRequest
	case errors.Is(err, osmgeo.ErrNoGeometry):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, p *messages.Printer, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("api: request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	writeJSON(w, status, errorResponse{Error: p.Describe(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestLogger logs each request with zap once it completes.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
