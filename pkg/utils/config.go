package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingAPIKey aborts a sync before any request goes out. data.gov.in
// hands out per-account keys; the sample key from their docs counts as
// missing too.
var ErrMissingAPIKey = errors.New("missing or placeholder API key")

const (
	defaultBaseURL    = "https://api.data.gov.in/resource"
	defaultResourceID = "ee03643a-ee4c-48c2-ac30-9f2ff26ab722"
)

// placeholder keys people leave in .env files copied from docs
var placeholderKeys = []string{
	"",
	"YOUR_API_KEY",
	"CHANGEME",
	"579b464db66ec23bdd000001cdd3946e44ce4aad7209ff7b23ac571b", // data.gov.in sample key
}

type APIConfig struct {
	BaseURL    string
	APIKey     string
	ResourceID string
	Timeout    time.Duration
}

// LoadAPIConfig reads the open-data API settings from the environment,
// loading .env first if present.
func LoadAPIConfig() (APIConfig, error) {
	_ = godotenv.Load()

	cfg := APIConfig{
		BaseURL:    envOr("NREGAHUB_API_BASE_URL", defaultBaseURL),
		APIKey:     strings.TrimSpace(os.Getenv("NREGAHUB_API_KEY")),
		ResourceID: envOr("NREGAHUB_RESOURCE_ID", defaultResourceID),
		Timeout:    30 * time.Second,
	}

	for _, p := range placeholderKeys {
		if strings.EqualFold(cfg.APIKey, p) {
			return APIConfig{}, fmt.Errorf("%w: set NREGAHUB_API_KEY", ErrMissingAPIKey)
		}
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
