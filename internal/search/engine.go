package search

import (
	"sort"
	"strings"

	"yardsearch-backend/lib/geo"
	"yardsearch-backend/lib/textutil"
)

// Apply narrows and orders records by the populated filter fields.
// Predicates compose conjunctively. The function is pure: the input
// slice is never mutated and repeated application with the same
// filters is idempotent.
func Apply(records []VehicleRecord, filters SearchFilters) []VehicleRecord {
	out := make([]VehicleRecord, 0, len(records))
	for _, r := range records {
		if matches(r, filters) {
			out = append(out, r)
		}
	}
	sortRecords(out, filters)
	return out
}

func matches(r VehicleRecord, f SearchFilters) bool {
	if len(f.Makes) > 0 && !inSet(r.Make, f.Makes) {
		return false
	}
	if len(f.Models) > 0 && !inSet(r.Model, f.Models) {
		return false
	}
	if len(f.Colors) > 0 && !inSet(r.Color, f.Colors) {
		return false
	}
	// bounds apply literally, so an inverted range matches nothing
	if f.YearMin != 0 && r.Year < f.YearMin {
		return false
	}
	if f.YearMax != 0 && r.Year > f.YearMax {
		return false
	}
	if !f.AvailableFrom.IsZero() && r.AvailableAt.Before(f.AvailableFrom) {
		return false
	}
	if !f.AvailableTo.IsZero() && r.AvailableAt.After(f.AvailableTo) {
		return false
	}
	if f.MaxDistanceMiles > 0 && !f.Origin.IsZero() {
		if geo.DistanceMiles(f.Origin, r.Branch.Location) > f.MaxDistanceMiles {
			return false
		}
	}
	return true
}

// a set entry accepts a record on normalized containment, so a
// "f-150" filter still accepts the "F-150 XLT" trim
func inSet(value string, set []string) bool {
	normalized := make([]string, 0, len(set))
	for _, s := range set {
		normalized = append(normalized, textutil.NormalizeName(s))
	}
	return textutil.MatchName(value, normalized)
}

func sortRecords(records []VehicleRecord, f SearchFilters) {
	if f.SortBy == SortNone {
		// branch-arrival order is preserved
		return
	}

	less := func(a, b VehicleRecord) bool { return false }
	switch f.SortBy {
	case SortDistance:
		less = func(a, b VehicleRecord) bool {
			return distanceOf(a, f) < distanceOf(b, f)
		}
	case SortDate:
		less = func(a, b VehicleRecord) bool {
			return a.AvailableAt.Before(b.AvailableAt)
		}
	case SortYear:
		less = func(a, b VehicleRecord) bool {
			return a.Year < b.Year
		}
	case SortMake:
		less = func(a, b VehicleRecord) bool {
			return strings.ToLower(a.Make) < strings.ToLower(b.Make)
		}
	case SortBranch:
		less = func(a, b VehicleRecord) bool {
			return a.Branch.Name < b.Branch.Name
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		if f.SortDescending {
			return less(records[j], records[i])
		}
		return less(records[i], records[j])
	})
}

func distanceOf(r VehicleRecord, f SearchFilters) float64 {
	if !f.Origin.IsZero() {
		return geo.DistanceMiles(f.Origin, r.Branch.Location)
	}
	return r.DistanceMiles
}
