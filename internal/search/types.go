package search

import (
	"time"

	"yardsearch-backend/internal/directory"
	"yardsearch-backend/internal/inventory"
	"yardsearch-backend/lib/geo"
)

type SortKey string

const (
	SortNone     SortKey = ""
	SortDistance SortKey = "distance"
	SortDate     SortKey = "date"
	SortYear     SortKey = "year"
	SortMake     SortKey = "make"
	SortBranch   SortKey = "branch"
)

// SearchFilters is the one value object callers hand to Search. Every
// zero field imposes no constraint.
type SearchFilters struct {
	// Query is the free-text filter forwarded to each branch's
	// inventory endpoint.
	Query string `json:"query"`

	Makes  []string `json:"makes,omitempty"`
	Models []string `json:"models,omitempty"`
	Colors []string `json:"colors,omitempty"`

	// YearMin/YearMax are inclusive; 0 leaves that bound open.
	YearMin int `json:"year_min,omitempty"`
	YearMax int `json:"year_max,omitempty"`

	AvailableFrom time.Time `json:"available_from,omitempty"`
	AvailableTo   time.Time `json:"available_to,omitempty"`

	// MaxDistanceMiles is only applied when Origin is also set.
	MaxDistanceMiles float64        `json:"max_distance_miles,omitempty"`
	Origin           geo.Coordinate `json:"origin,omitempty"`

	SortBy         SortKey `json:"sort_by,omitempty"`
	SortDescending bool    `json:"sort_descending,omitempty"`
}

// VehicleRecord is a RawListing joined with its owning branch, the
// unit returned to callers. Its identity is (Branch.Code, Id); the
// listing id alone is only unique within one branch.
type VehicleRecord struct {
	inventory.RawListing
	Branch directory.Branch `json:"branch"`
	// DistanceMiles from the query's reference coordinate, when one
	// was supplied.
	DistanceMiles float64 `json:"distance_miles,omitempty"`
}

// SearchResult is a fully materialized snapshot, never a live view.
type SearchResult struct {
	Records             []VehicleRecord `json:"records"`
	TotalCount          int             `json:"total_count"`
	Elapsed             time.Duration   `json:"elapsed_ns"`
	LocationsCovered    int             `json:"locations_covered"`
	LocationsWithErrors []string        `json:"locations_with_errors"`
}
