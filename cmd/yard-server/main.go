package main

import (
	"flag"
	"net/http"
	"time"

	"yardsearch-backend/internal/cache"
	"yardsearch-backend/internal/directory"
	"yardsearch-backend/internal/inventory"
	"yardsearch-backend/internal/search"
	"yardsearch-backend/internal/server"
	"yardsearch-backend/lib/fetch"
	"yardsearch-backend/lib/serviceutil"
)

type UpstreamConfig struct {
	// BaseURL is the scheme+host of the chain's site.
	BaseURL string `json:"base_url"`
	// LocatorURL is the store-locator page with the embedded branch
	// array. Defaults to BaseURL + "/locations".
	LocatorURL string `json:"locator_url"`
}

type FetchConfig struct {
	TimeoutSeconds  int `json:"timeout_seconds"`
	MaxAttempts     int `json:"max_attempts"`
	BaseDelayMs     int `json:"base_delay_ms"`
	MaxDelayMs      int `json:"max_delay_ms"`
	CooldownMs      int `json:"cooldown_ms"`
	ConcurrentYards int `json:"concurrent_yards"`
}

type Config struct {
	Port                    int            `json:"port"`
	Upstream                UpstreamConfig `json:"upstream"`
	Fetch                   FetchConfig    `json:"fetch"`
	CacheTtlSeconds         int            `json:"cache_ttl_seconds"`
	DirectoryFreshnessHours int            `json:"directory_freshness_hours"`
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	configPath := flag.String("config", "config.json5", "Path to the configuration file.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	cfg, err := readConfig(*configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	httpClient, err := inventory.NewHttpClient()
	if err != nil {
		serviceutil.Fatal("init http client", err)
	}
	fetchClient := fetch.NewClient(httpClient, fetch.Options{
		Timeout:     time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second,
		MaxAttempts: cfg.Fetch.MaxAttempts,
		BaseDelay:   time.Duration(cfg.Fetch.BaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.Fetch.MaxDelayMs) * time.Millisecond,
		Cooldown:    time.Duration(cfg.Fetch.CooldownMs) * time.Millisecond,
	})

	dir, err := directory.NewService(directory.Options{
		LocatorURL: cfg.Upstream.LocatorURL,
		Freshness:  time.Duration(cfg.DirectoryFreshnessHours) * time.Hour,
		Fetch:      fetchClient,
	})
	if err != nil {
		serviceutil.Fatal("init directory", err)
	}

	inventoryCache := cache.New(time.Duration(cfg.CacheTtlSeconds)*time.Second, nil)
	scheduler := search.NewScheduler(search.SchedulerOptions{
		Directory: dir,
		Cache:     inventoryCache,
		Fetcher: inventory.NewClient(inventory.ClientOptions{
			BaseURL: cfg.Upstream.BaseURL,
			Fetch:   fetchClient,
		}),
		Parser: inventory.NewParser(inventory.ParserOptions{
			BaseURL: cfg.Upstream.BaseURL,
		}),
		Concurrency: cfg.Fetch.ConcurrentYards,
	})

	mux := http.NewServeMux()
	server.NewService(scheduler, dir, inventoryCache).Register(mux)

	go serviceutil.StartHttpServer(cfg.Port, mux)
	<-ctx.Done()
}
