package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds the environment-driven configuration for the service.
type AppConfig struct {
	Port string

	// Upstream forecast API.
	UpstreamBaseURL string
	HTTPTimeout     time.Duration

	// Offline cache store naming. Bumping CacheVersion on deploy invalidates
	// every previously cached entry.
	CachePrefix  string
	CacheVersion string

	// FetchInterval controls how often the warming job refreshes forecasts.
	FetchInterval time.Duration

	// Extra location names resolved via geocoding at startup.
	ExtraLocationNames []string
	GeocoderAPIKey     string
	GeocoderCountry    string

	// Strava club integration.
	StravaBaseURL string
	StravaToken   string
	StravaClubID  int64

	VisitCounterPath string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.UpstreamBaseURL = getenvDefault("OPENMETEO_BASE_URL", "https://api.open-meteo.com/v1/forecast")

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.CachePrefix = getenvDefault("CACHE_PREFIX", "castelli-weather")
	cfg.CacheVersion = getenvDefault("CACHE_VERSION", "v1")

	intervalStr := getenvDefault("FETCH_INTERVAL", "15m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = interval

	if extras := os.Getenv("EXTRA_LOCATIONS"); extras != "" {
		for _, name := range strings.Split(extras, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				cfg.ExtraLocationNames = append(cfg.ExtraLocationNames, name)
			}
		}
	}
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")
	cfg.GeocoderCountry = getenvDefault("GEOCODER_COUNTRY", "Italy")

	cfg.StravaBaseURL = getenvDefault("STRAVA_BASE_URL", "https://www.strava.com/api/v3")
	cfg.StravaToken = os.Getenv("STRAVA_ACCESS_TOKEN")
	cfg.StravaClubID = int64(getenvInt("STRAVA_CLUB_ID", 1433598))

	cfg.VisitCounterPath = getenvDefault("VISIT_COUNTER_PATH", "visit_counter.json")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
