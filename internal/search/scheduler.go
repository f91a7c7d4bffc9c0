// Package search fans one query out across every branch, merges the
// partial results, and applies the filter/sort engine. Failure
// isolation is the central contract: one broken branch never affects
// the outcome of any other.
package search

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/semaphore"
	"yardsearch-backend/internal/cache"
	"yardsearch-backend/internal/directory"
	"yardsearch-backend/internal/inventory"
	"yardsearch-backend/lib/geo"
)

var tracer = otel.Tracer("yardsearch.search")

// BranchLister supplies the branch fan-out targets.
type BranchLister interface {
	List(ctx context.Context) []directory.Branch
}

// InventoryFetcher retrieves one branch's raw inventory markup.
type InventoryFetcher interface {
	FetchInventory(ctx context.Context, branchCode, query string) ([]byte, error)
}

type SchedulerOptions struct {
	Directory BranchLister
	Cache     *cache.Cache
	Fetcher   InventoryFetcher
	Parser    *inventory.Parser
	// Concurrency caps simultaneous branch fetches. Defaults to 5.
	Concurrency int
}

type Scheduler struct {
	opts SchedulerOptions
	// one limiter for the scheduler's lifetime, so concurrent Search
	// calls share the same outbound budget
	sem *semaphore.Weighted
}

func NewScheduler(opts SchedulerOptions) *Scheduler {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 5
	}
	return &Scheduler{
		opts: opts,
		sem:  semaphore.NewWeighted(int64(opts.Concurrency)),
	}
}

type branchOutcome struct {
	branch   directory.Branch
	listings []inventory.RawListing
	err      error
}

// Search resolves the directory, fans the query out to every branch
// under the concurrency ceiling, and returns one merged snapshot. It
// never fails for branch-level problems; failing branches are recorded
// in LocationsWithErrors and the rest of the result is unaffected.
func (s *Scheduler) Search(ctx context.Context, filters SearchFilters) SearchResult {
	ctx, span := tracer.Start(ctx, "search:Search")
	defer span.End()

	start := time.Now()

	branches := s.opts.Directory.List(ctx)
	span.SetAttributes(attribute.Int("branches", len(branches)))

	outcomes := make([]branchOutcome, len(branches))
	var wg sync.WaitGroup
	for i, branch := range branches {
		wg.Add(1)
		go func(i int, branch directory.Branch) {
			defer wg.Done()
			outcomes[i] = s.queryBranch(ctx, branch, filters.Query)
		}(i, branch)
	}
	wg.Wait()

	records, errored := s.merge(ctx, outcomes, filters)
	records = Apply(records, filters)

	result := SearchResult{
		Records:             records,
		TotalCount:          len(records),
		Elapsed:             time.Since(start),
		LocationsCovered:    len(branches) - len(errored),
		LocationsWithErrors: errored,
	}
	span.SetAttributes(
		attribute.Int("records", result.TotalCount),
		attribute.Int("errored_branches", len(errored)),
	)
	return result
}

func (s *Scheduler) queryBranch(ctx context.Context, branch directory.Branch, query string) branchOutcome {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return branchOutcome{branch: branch, err: err}
	}
	defer s.sem.Release(1)

	listings, err := s.opts.Cache.GetOrFetch(ctx, branch.Code, query, func(ctx context.Context) ([]inventory.RawListing, error) {
		body, err := s.opts.Fetcher.FetchInventory(ctx, branch.Code, query)
		if err != nil {
			return nil, err
		}
		return s.opts.Parser.Parse(ctx, body, branch), nil
	})
	return branchOutcome{branch: branch, listings: listings, err: err}
}

// merge flattens every successful branch outcome into VehicleRecords,
// de-duplicated on (branch code, listing id), in branch-arrival order.
func (s *Scheduler) merge(ctx context.Context, outcomes []branchOutcome, filters SearchFilters) ([]VehicleRecord, []string) {
	records := []VehicleRecord{}
	errored := []string{}
	seen := map[string]bool{}

	for _, outcome := range outcomes {
		if outcome.err != nil {
			slog.WarnContext(
				ctx, "branch query failed",
				"branch", outcome.branch.Code,
				"err", outcome.err,
			)
			errored = append(errored, outcome.branch.Code)
			continue
		}
		for _, listing := range outcome.listings {
			identity := outcome.branch.Code + "|" + listing.Id
			if seen[identity] {
				continue
			}
			seen[identity] = true

			record := VehicleRecord{
				RawListing: listing,
				Branch:     outcome.branch,
			}
			if !filters.Origin.IsZero() {
				record.DistanceMiles = geo.DistanceMiles(filters.Origin, outcome.branch.Location)
				record.Branch.DistanceMiles = record.DistanceMiles
			}
			records = append(records, record)
		}
	}

	return records, errored
}
