// Package server exposes the aggregation core over JSON HTTP. The
// search endpoint is the single entry point presentation code calls;
// everything else is operational convenience.
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"yardsearch-backend/internal/cache"
	"yardsearch-backend/internal/directory"
	"yardsearch-backend/internal/search"
	"yardsearch-backend/lib/geo"
)

type Service struct {
	scheduler *search.Scheduler
	directory *directory.Service
	cache     *cache.Cache
}

func NewService(scheduler *search.Scheduler, dir *directory.Service, c *cache.Cache) *Service {
	return &Service{
		scheduler: scheduler,
		directory: dir,
		cache:     c,
	}
}

func (s *Service) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/locations", s.handleLocations)
	mux.HandleFunc("POST /api/cache/clear", s.handleCacheClear)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
}

func writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.Warn("failed to encode response body", "err", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Service) handleSearch(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r.URL.Query())
	if err != nil {
		writeJson(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	result := s.scheduler.Search(r.Context(), filters)
	writeJson(w, http.StatusOK, result)
}

func (s *Service) handleLocations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	ctx := r.Context()

	if near := query.Get("near"); near != "" {
		origin, err := parseCoordinate(near)
		if err != nil {
			writeJson(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		radius := 50.0
		if raw := query.Get("radius"); raw != "" {
			radius, err = strconv.ParseFloat(raw, 64)
			if err != nil {
				writeJson(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("invalid radius: %q", raw)})
				return
			}
		}
		writeJson(w, http.StatusOK, s.directory.WithinRadius(ctx, origin, radius))
		return
	}
	if region := query.Get("region"); region != "" {
		writeJson(w, http.StatusOK, s.directory.InRegion(ctx, region))
		return
	}
	if q := query.Get("q"); q != "" {
		writeJson(w, http.StatusOK, s.directory.Match(ctx, q))
		return
	}
	writeJson(w, http.StatusOK, s.directory.List(ctx))
}

func (s *Service) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	if location != "" {
		s.cache.Evict(location)
		slog.Info("evicted branch cache entries", "branch", location)
	} else {
		s.cache.Clear()
		slog.Info("cleared inventory cache")
	}
	writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseFilters(query map[string][]string) (search.SearchFilters, error) {
	filters := search.SearchFilters{}
	get := func(key string) string {
		values := query[key]
		if len(values) == 0 {
			return ""
		}
		return values[0]
	}

	filters.Query = get("q")
	filters.Makes = query["make"]
	filters.Models = query["model"]
	filters.Colors = query["color"]

	var err error
	if raw := get("year_min"); raw != "" {
		filters.YearMin, err = strconv.Atoi(raw)
		if err != nil {
			return filters, fmt.Errorf("invalid year_min: %q", raw)
		}
	}
	if raw := get("year_max"); raw != "" {
		filters.YearMax, err = strconv.Atoi(raw)
		if err != nil {
			return filters, fmt.Errorf("invalid year_max: %q", raw)
		}
	}
	if raw := get("available_from"); raw != "" {
		filters.AvailableFrom, err = parseDate(raw)
		if err != nil {
			return filters, fmt.Errorf("invalid available_from: %q", raw)
		}
	}
	if raw := get("available_to"); raw != "" {
		filters.AvailableTo, err = parseDate(raw)
		if err != nil {
			return filters, fmt.Errorf("invalid available_to: %q", raw)
		}
	}
	if raw := get("near"); raw != "" {
		filters.Origin, err = parseCoordinate(raw)
		if err != nil {
			return filters, err
		}
	}
	if raw := get("max_distance"); raw != "" {
		filters.MaxDistanceMiles, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return filters, fmt.Errorf("invalid max_distance: %q", raw)
		}
	}

	filters.SortBy = search.SortKey(get("sort"))
	switch filters.SortBy {
	case search.SortNone, search.SortDistance, search.SortDate,
		search.SortYear, search.SortMake, search.SortBranch:
	default:
		return filters, fmt.Errorf("invalid sort key: %q", filters.SortBy)
	}
	filters.SortDescending = get("order") == "desc"

	return filters, nil
}

func parseDate(raw string) (time.Time, error) {
	at, err := time.Parse(time.RFC3339, raw)
	if err == nil {
		return at, nil
	}
	return time.Parse("2006-01-02", raw)
}

func parseCoordinate(raw string) (geo.Coordinate, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return geo.Coordinate{}, fmt.Errorf("coordinate must be lat,lng: %q", raw)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("invalid latitude: %q", parts[0])
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("invalid longitude: %q", parts[1])
	}
	return geo.Coordinate{Latitude: lat, Longitude: lng}, nil
}
