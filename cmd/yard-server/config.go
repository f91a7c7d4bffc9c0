package main

import (
	"fmt"

	"yardsearch-backend/lib/configutil"
)

func readConfig(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if err != nil {
		return cfg, err
	}
	if cfg.Upstream.BaseURL == "" {
		return cfg, fmt.Errorf("upstream.base_url is required")
	}
	if cfg.Upstream.LocatorURL == "" {
		cfg.Upstream.LocatorURL = cfg.Upstream.BaseURL + "/locations"
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	return cfg, nil
}
