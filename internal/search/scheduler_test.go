package search

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"yardsearch-backend/internal/cache"
	"yardsearch-backend/internal/chrono"
	"yardsearch-backend/internal/directory"
	"yardsearch-backend/internal/inventory"
	"yardsearch-backend/lib/testutil"
)

type fakeLister []directory.Branch

func (f fakeLister) List(ctx context.Context) []directory.Branch {
	return f
}

type fakeFetcher struct {
	mu          sync.Mutex
	calls       int
	inflight    int
	maxInflight int

	delay time.Duration
	// branch codes that always fail
	failing map[string]bool
	// branch code → served page; missing codes serve an empty page
	pages map[string]string
}

func (f *fakeFetcher) FetchInventory(ctx context.Context, branchCode, query string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.inflight++
	if f.inflight > f.maxInflight {
		f.maxInflight = f.inflight
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.inflight--
	f.mu.Unlock()

	if f.failing[branchCode] {
		return nil, fmt.Errorf("branch %s is down", branchCode)
	}
	return []byte(f.pages[branchCode]), nil
}

func listingCard(id string, title string) string {
	return fmt.Sprintf(
		`<div class="vehicle-card" data-listing-id="%s"><h3 class="vehicle-title">%s</h3></div>`,
		id, title,
	)
}

func testBranches(n int) []directory.Branch {
	var branches []directory.Branch
	for i := 0; i < n; i++ {
		branches = append(branches, directory.Branch{
			Code: fmt.Sprintf("10%02d", i),
			Name: fmt.Sprintf("Yard %d", i),
		})
	}
	return branches
}

func newTestScheduler(branches []directory.Branch, fetcher *fakeFetcher, concurrency int) *Scheduler {
	clock := chrono.NewFake(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	return NewScheduler(SchedulerOptions{
		Directory:   fakeLister(branches),
		Cache:       cache.New(300*time.Second, clock),
		Fetcher:     fetcher,
		Parser:      inventory.NewParser(inventory.ParserOptions{Clock: clock}),
		Concurrency: concurrency,
	})
}

func TestSearchMergesAllBranches(t *testing.T) {
	defer testutil.SetupTest(t, "internal/search")()

	branches := testBranches(2)
	fetcher := &fakeFetcher{pages: map[string]string{
		"1000": listingCard("1", "2018 HONDA CIVIC") + listingCard("2", "2015 FORD FOCUS"),
		"1001": listingCard("1", "2021 TOYOTA COROLLA"),
	}}
	scheduler := newTestScheduler(branches, fetcher, 5)

	result := scheduler.Search(context.Background(), SearchFilters{Query: "any"})

	require.Len(t, result.Records, 3)
	require.Equal(t, len(result.Records), result.TotalCount)
	require.Empty(t, result.LocationsWithErrors)
	require.Equal(t, 2, result.LocationsCovered)
	require.Greater(t, result.Elapsed, time.Duration(0))

	// listing ids collide across branches; identity is (branch, id)
	seen := map[string]bool{}
	for _, r := range result.Records {
		seen[r.Branch.Code+"|"+r.Id] = true
	}
	require.Len(t, seen, 3)
}

func TestSearchIsolatesFailingBranch(t *testing.T) {
	defer testutil.SetupTest(t, "internal/search")()

	branches := testBranches(3)
	fetcher := &fakeFetcher{
		failing: map[string]bool{"1001": true},
		pages: map[string]string{
			"1000": listingCard("1", "2018 HONDA CIVIC"),
			"1002": listingCard("1", "2012 MAZDA 3"),
		},
	}
	scheduler := newTestScheduler(branches, fetcher, 5)

	result := scheduler.Search(context.Background(), SearchFilters{Query: "any"})

	require.Len(t, result.Records, 2)
	require.Equal(t, []string{"1001"}, result.LocationsWithErrors)
	require.Equal(t, 2, result.LocationsCovered)
}

func TestSearchRespectsConcurrencyCeiling(t *testing.T) {
	defer testutil.SetupTest(t, "internal/search")()

	fetcher := &fakeFetcher{delay: 20 * time.Millisecond, pages: map[string]string{}}
	scheduler := newTestScheduler(testBranches(12), fetcher, 3)

	result := scheduler.Search(context.Background(), SearchFilters{Query: "any"})

	require.Empty(t, result.LocationsWithErrors)
	require.Equal(t, 12, fetcher.calls)
	require.LessOrEqual(t, fetcher.maxInflight, 3)
}

func TestSearchReusesCache(t *testing.T) {
	defer testutil.SetupTest(t, "internal/search")()

	branches := testBranches(2)
	fetcher := &fakeFetcher{pages: map[string]string{
		"1000": listingCard("1", "2018 HONDA CIVIC"),
	}}
	scheduler := newTestScheduler(branches, fetcher, 5)

	first := scheduler.Search(context.Background(), SearchFilters{Query: "civic"})
	second := scheduler.Search(context.Background(), SearchFilters{Query: "civic"})

	require.Equal(t, first.TotalCount, second.TotalCount)
	require.Equal(t, 2, fetcher.calls)

	// a different query misses the cache
	scheduler.Search(context.Background(), SearchFilters{Query: "focus"})
	require.Equal(t, 4, fetcher.calls)
}

func TestSearchDeduplicatesWithinBranch(t *testing.T) {
	defer testutil.SetupTest(t, "internal/search")()

	branches := testBranches(1)
	fetcher := &fakeFetcher{pages: map[string]string{
		"1000": listingCard("7", "2018 HONDA CIVIC") + listingCard("7", "2018 HONDA CIVIC"),
	}}
	scheduler := newTestScheduler(branches, fetcher, 5)

	result := scheduler.Search(context.Background(), SearchFilters{})
	require.Len(t, result.Records, 1)
}

func TestSearchAppliesFilters(t *testing.T) {
	defer testutil.SetupTest(t, "internal/search")()

	branches := testBranches(1)
	fetcher := &fakeFetcher{pages: map[string]string{
		"1000": listingCard("1", "2015 HONDA CIVIC") +
			listingCard("2", "2018 HONDA CIVIC") +
			listingCard("3", "2021 HONDA CIVIC"),
	}}
	scheduler := newTestScheduler(branches, fetcher, 5)

	result := scheduler.Search(context.Background(), SearchFilters{
		YearMin: 2016,
		YearMax: 2020,
	})
	require.Len(t, result.Records, 1)
	require.Equal(t, 2018, result.Records[0].Year)
	require.Equal(t, 1, result.TotalCount)
}

func TestSearchEmptyDirectory(t *testing.T) {
	defer testutil.SetupTest(t, "internal/search")()

	scheduler := newTestScheduler(nil, &fakeFetcher{}, 5)
	result := scheduler.Search(context.Background(), SearchFilters{})

	require.NotNil(t, result.Records)
	require.Zero(t, result.TotalCount)
	require.Zero(t, result.LocationsCovered)
	require.Empty(t, result.LocationsWithErrors)
}
