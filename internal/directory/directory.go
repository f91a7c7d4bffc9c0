// Package directory maintains the list of upstream branch locations.
// The live list is scraped out of a JS array embedded in the chain's
// store-locator page; on any failure it degrades to the last good
// snapshot, then to a bundled fallback, but never to an empty list.
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/titanous/json5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"yardsearch-backend/internal/chrono"
	"yardsearch-backend/lib/fetch"
	"yardsearch-backend/lib/geo"
	"yardsearch-backend/lib/textutil"

	_ "embed"
)

var tracer = otel.Tracer("yardsearch.directory")

//go:embed fallback.json5
var fallbackRaw []byte

// the upstream locator page assigns the branch descriptors to this
// variable inline; both the minified and the pretty-printed builds of
// the page match.
var locationsRegex = regexp.MustCompile(`var\s+yardLocations\s*=\s*(\[[\s\S]*?\])\s*;`)

type Options struct {
	// LocatorURL is the store-locator page carrying the embedded
	// branch array.
	LocatorURL string
	// Freshness is how long a fetched snapshot stays authoritative.
	// Defaults to 24h.
	Freshness time.Duration
	Clock     chrono.API
	Fetch     *fetch.Client
}

type Service struct {
	opts Options

	mu        sync.Mutex
	snapshot  []Branch
	fetchedAt time.Time

	fallback []Branch
}

func NewService(opts Options) (*Service, error) {
	if opts.Freshness == 0 {
		opts.Freshness = 24 * time.Hour
	}
	if opts.Clock == nil {
		opts.Clock = chrono.StandardImpl{}
	}

	fallback, err := decodeBranches(fallbackRaw)
	if err != nil {
		return nil, fmt.Errorf("decode bundled fallback directory: %w", err)
	}

	return &Service{
		opts:     opts,
		fallback: fallback,
	}, nil
}

// List returns the current branch directory. It never fails: a live
// fetch that errors out falls back to the last good snapshot, and a
// process that has never fetched successfully gets the bundled list.
func (s *Service) List(ctx context.Context) []Branch {
	ctx, span := tracer.Start(ctx, "directory:List")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.Clock.Now()
	if s.snapshot != nil && now.Sub(s.fetchedAt) < s.opts.Freshness {
		return copyBranches(s.snapshot)
	}

	branches, err := s.refresh(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "directory refresh failed")
		slog.WarnContext(ctx, "directory refresh failed, serving stale data", "err", err)
		if s.snapshot != nil {
			return copyBranches(s.snapshot)
		}
		return copyBranches(s.fallback)
	}

	s.snapshot = branches
	s.fetchedAt = now
	slog.InfoContext(ctx, "refreshed branch directory", "count", len(branches))
	return copyBranches(branches)
}

func (s *Service) refresh(ctx context.Context) ([]Branch, error) {
	body, err := s.opts.Fetch.Get(ctx, s.opts.LocatorURL, nil)
	if err != nil {
		return nil, err
	}
	branches, err := extractBranches(body)
	if err != nil {
		return nil, err
	}
	if len(branches) == 0 {
		return nil, fmt.Errorf("locator page contained an empty branch array")
	}
	return branches, nil
}

func extractBranches(page []byte) ([]Branch, error) {
	groups := locationsRegex.FindSubmatch(page)
	if len(groups) < 2 {
		return nil, fmt.Errorf("no embedded branch array found in locator page")
	}
	return decodeBranches(groups[1])
}

func decodeBranches(raw []byte) ([]Branch, error) {
	// json5 tolerates both the compact build (unquoted keys, trailing
	// commas) and the space-padded one
	var branches []Branch
	err := json5.Unmarshal(raw, &branches)
	if err != nil {
		return nil, err
	}
	for _, b := range branches {
		if b.Code == "" {
			return nil, fmt.Errorf("branch descriptor missing code: %+v", b)
		}
	}
	return branches, nil
}

func copyBranches(in []Branch) []Branch {
	out := make([]Branch, len(in))
	copy(out, in)
	return out
}

// ByCode looks a branch up by its stable code.
func (s *Service) ByCode(ctx context.Context, code string) (Branch, bool) {
	for _, b := range s.List(ctx) {
		if b.Code == code {
			return b, true
		}
	}
	return Branch{}, false
}

// InRegion returns every branch in a state/region code.
func (s *Service) InRegion(ctx context.Context, region string) []Branch {
	var out []Branch
	for _, b := range s.List(ctx) {
		if textutil.NormalizeName(b.Address.State) == textutil.NormalizeName(region) {
			out = append(out, b)
		}
	}
	return out
}

// WithinRadius returns the branches within maxMiles of origin, closest
// first, with DistanceMiles filled in.
func (s *Service) WithinRadius(ctx context.Context, origin geo.Coordinate, maxMiles float64) []Branch {
	var out []Branch
	for _, b := range s.List(ctx) {
		b.DistanceMiles = geo.DistanceMiles(origin, b.Location)
		if b.DistanceMiles <= maxMiles {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DistanceMiles < out[j].DistanceMiles
	})
	return out
}

// Match free-text searches branch name, city and state.
func (s *Service) Match(ctx context.Context, query string) []Branch {
	var out []Branch
	for _, b := range s.List(ctx) {
		if textutil.FuzzyContains(b.Name, query) ||
			textutil.FuzzyContains(b.Address.City, query) ||
			textutil.FuzzyContains(b.Address.State, query) {
			out = append(out, b)
		}
	}
	return out
}
