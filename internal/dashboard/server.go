// Package dashboard serves the flood-risk map API backed by the spatial store.
package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/siamhydro/floodwatch/internal/colormap"
	"github.com/siamhydro/floodwatch/internal/geocode"
	"github.com/siamhydro/floodwatch/internal/model"
)

const regionsCacheKey = "regions"

// RegionSource reads region summaries back from the spatial store.
type RegionSource interface {
	ListRegionSummaries(ctx context.Context, lookback time.Duration) ([]model.RegionSummary, error)
}

// Server exposes the dashboard API. Region reads go through a TTL cache so
// map refreshes do not hammer the database.
type Server struct {
	source    RegionSource
	centroids *geocode.Table
	cache     *gocache.Cache
	lookback  time.Duration
}

// NewServer builds a Server with a read-through cache of the given TTL.
func NewServer(source RegionSource, centroids *geocode.Table, ttl, lookback time.Duration) *Server {
	return &Server{
		source:    source,
		centroids: centroids,
		cache:     gocache.New(ttl, 2*ttl),
		lookback:  lookback,
	}
}

// Router assembles the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/api/regions", s.handleRegions)
	r.Get("/api/provinces", s.handleProvinces)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRegions returns recent region summaries as a colorized GeoJSON
// FeatureCollection.
func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	if cached, ok := s.cache.Get(regionsCacheKey); ok {
		writeGeoJSON(w, cached.([]byte))
		return
	}

	regions, err := s.source.ListRegionSummaries(r.Context(), s.lookback)
	if err != nil {
		zap.L().Error("dashboard: list regions", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "region lookup failed"})
		return
	}

	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(regions))}
	for _, reg := range regions {
		pt := geom.NewPointFlat(geom.XY, []float64{reg.Lon, reg.Lat})
		pt.SetSRID(4326)
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: pt,
			Properties: map[string]any{
				"province":     reg.Province,
				"sample_count": reg.SampleCount,
				"flood_rate":   reg.FloodRate,
				"risk_score":   reg.RiskScore,
				"color":        colormap.Colorize(reg.RiskScore).Hex(),
				"detected_at":  reg.DetectedAt,
			},
		})
	}

	body, err := json.Marshal(fc)
	if err != nil {
		zap.L().Error("dashboard: encode regions", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "encoding failed"})
		return
	}

	s.cache.SetDefault(regionsCacheKey, body)
	writeGeoJSON(w, body)
}

// handleProvinces returns the known province centroids.
func (s *Server) handleProvinces(w http.ResponseWriter, _ *http.Request) {
	names := s.centroids.Provinces()
	type entry struct {
		Province string  `json:"province"`
		Lon      float64 `json:"lon"`
		Lat      float64 `json:"lat"`
	}
	out := make([]entry, 0, len(names))
	for _, name := range names {
		lon, lat, _ := s.centroids.Locate(name)
		out = append(out, entry{Province: name, Lon: lon, Lat: lat})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeGeoJSON(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
