package search

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"yardsearch-backend/internal/directory"
	"yardsearch-backend/internal/inventory"
	"yardsearch-backend/lib/geo"
)

var (
	sacramento = directory.Branch{
		Code: "1020", Name: "Sacramento",
		Location: geo.Coordinate{Latitude: 38.5830, Longitude: -121.2844},
	}
	portland = directory.Branch{
		Code: "1178", Name: "Portland",
		Location: geo.Coordinate{Latitude: 45.6280, Longitude: -122.7651},
	}
)

func record(branch directory.Branch, id string, year int, mk, model, color string, available time.Time) VehicleRecord {
	return VehicleRecord{
		RawListing: inventory.RawListing{
			Id: id, Year: year, Make: mk, Model: model, Color: color, AvailableAt: available,
		},
		Branch: branch,
	}
}

func engineRecords() []VehicleRecord {
	may := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	june := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	july := time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)
	return []VehicleRecord{
		record(sacramento, "1", 2015, "HONDA", "CIVIC", "Blue", may),
		record(portland, "2", 2018, "HONDA", "ACCORD", "Red", june),
		record(sacramento, "3", 2021, "FORD", "F-150", "White", july),
	}
}

func TestApplyOpenFiltersKeepOrder(t *testing.T) {
	records := engineRecords()
	out := Apply(records, SearchFilters{})
	require.Empty(t, cmp.Diff(records, out))
}

func TestApplyIsIdempotent(t *testing.T) {
	records := engineRecords()
	filters := SearchFilters{Makes: []string{"honda"}, SortBy: SortYear, SortDescending: true}

	once := Apply(records, filters)
	twice := Apply(once, filters)
	require.Empty(t, cmp.Diff(once, twice))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	records := engineRecords()
	original := append([]VehicleRecord{}, records...)

	Apply(records, SearchFilters{SortBy: SortYear, SortDescending: true, Makes: []string{"ford"}})
	require.Empty(t, cmp.Diff(original, records))
}

func TestApplySetFilters(t *testing.T) {
	records := engineRecords()

	out := Apply(records, SearchFilters{Makes: []string{"HONDA"}})
	require.Len(t, out, 2)

	// set matching ignores case
	out = Apply(records, SearchFilters{Makes: []string{"ford"}})
	require.Len(t, out, 1)
	require.Equal(t, "F-150", out[0].Model)

	out = Apply(records, SearchFilters{Models: []string{"civic", "accord"}})
	require.Len(t, out, 2)

	out = Apply(records, SearchFilters{Colors: []string{"white"}})
	require.Len(t, out, 1)

	out = Apply(records, SearchFilters{Makes: []string{"honda"}, Colors: []string{"red"}})
	require.Len(t, out, 1)
	require.Equal(t, "2", out[0].Id)
}

func TestApplySetFiltersMatchTrimLevels(t *testing.T) {
	may := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	records := []VehicleRecord{
		record(sacramento, "1", 2005, "FORD", "F-150 XLT", "Green", may),
		record(sacramento, "2", 2015, "HONDA", "CIVIC", "Blue", may),
	}

	// a set entry matches any model containing it
	out := Apply(records, SearchFilters{Models: []string{"f-150"}})
	require.Len(t, out, 1)
	require.Equal(t, "F-150 XLT", out[0].Model)

	out = Apply(records, SearchFilters{Models: []string{"f-250"}})
	require.Empty(t, out)
}

func TestApplyYearRange(t *testing.T) {
	records := engineRecords()

	out := Apply(records, SearchFilters{YearMin: 2016, YearMax: 2020})
	require.Len(t, out, 1)
	require.Equal(t, 2018, out[0].Year)

	// bounds are inclusive
	out = Apply(records, SearchFilters{YearMin: 2015, YearMax: 2021})
	require.Len(t, out, 3)

	out = Apply(records, SearchFilters{YearMin: 2019})
	require.Len(t, out, 1)

	// inverted range matches nothing instead of crashing
	out = Apply(records, SearchFilters{YearMin: 2020, YearMax: 2016})
	require.Empty(t, out)
}

func TestApplyDateRange(t *testing.T) {
	records := engineRecords()

	out := Apply(records, SearchFilters{
		AvailableFrom: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		AvailableTo:   time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
	})
	require.Len(t, out, 1)
	require.Equal(t, "2", out[0].Id)
}

func TestApplyDistance(t *testing.T) {
	records := engineRecords()
	nearSacramento := geo.Coordinate{Latitude: 38.58, Longitude: -121.49}

	out := Apply(records, SearchFilters{Origin: nearSacramento, MaxDistanceMiles: 50})
	require.Len(t, out, 2)
	for _, r := range out {
		require.Equal(t, "1020", r.Branch.Code)
	}

	// max distance without an origin is ignored
	out = Apply(records, SearchFilters{MaxDistanceMiles: 50})
	require.Len(t, out, 3)
}

func TestApplySorts(t *testing.T) {
	records := engineRecords()

	out := Apply(records, SearchFilters{SortBy: SortYear})
	require.Equal(t, []int{2015, 2018, 2021}, []int{out[0].Year, out[1].Year, out[2].Year})

	out = Apply(records, SearchFilters{SortBy: SortYear, SortDescending: true})
	require.Equal(t, []int{2021, 2018, 2015}, []int{out[0].Year, out[1].Year, out[2].Year})

	out = Apply(records, SearchFilters{SortBy: SortMake})
	require.Equal(t, "FORD", out[0].Make)

	out = Apply(records, SearchFilters{SortBy: SortDate, SortDescending: true})
	require.Equal(t, "3", out[0].Id)

	out = Apply(records, SearchFilters{SortBy: SortBranch})
	require.Equal(t, "Portland", out[0].Branch.Name)

	origin := geo.Coordinate{Latitude: 45.62, Longitude: -122.76}
	out = Apply(records, SearchFilters{SortBy: SortDistance, Origin: origin})
	require.Equal(t, "Portland", out[0].Branch.Name)
}

func TestApplySortIsStable(t *testing.T) {
	may := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	records := []VehicleRecord{
		record(sacramento, "a", 2018, "HONDA", "CIVIC", "Blue", may),
		record(sacramento, "b", 2018, "HONDA", "CIVIC", "Red", may),
		record(sacramento, "c", 2018, "HONDA", "CIVIC", "White", may),
	}

	out := Apply(records, SearchFilters{SortBy: SortYear})
	require.Equal(t, "a", out[0].Id)
	require.Equal(t, "b", out[1].Id)
	require.Equal(t, "c", out[2].Id)
}
