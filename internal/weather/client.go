package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/castellimtb/castelli-weather/internal/upstream"
)

// Hourly forecast variables requested from Open-Meteo, relayed to the
// dashboard untouched.
const hourlyVariables = "temperature_2m,precipitation,weather_code,windspeed_10m,windgusts_10m"

const (
	forecastDays = 3
	timezone     = "Europe/Rome"
)

// Forecast wraps the raw hourly block from Open-Meteo together with the
// location it describes. The hourly payload is deliberately opaque: this
// service relays forecast data, it does not interpret it.
type Forecast struct {
	Location  string          `json:"location"`
	Elevation int             `json:"elevation"`
	Hourly    json.RawMessage `json:"hourly"`
}

// Client fetches hourly forecasts from the Open-Meteo API.
type Client struct {
	baseURL string
	httpCfg upstream.ClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewClient creates an Open-Meteo client over the shared HTTP client. The
// shared client's transport is expected to carry the offline interceptor, so
// a dead network still yields last-known-good data here.
func NewClient(client *http.Client, baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpCfg: upstream.ClientConfig{
			Client: client,
			Backoff: upstream.BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: upstream.NewBreaker("openmeteo"),
	}
}

// ForecastURL returns the full request URL for a location's forecast against
// the given base URL. The offline interceptor uses these as its shell asset
// list, so install-time warming and live traffic hit identical cache keys.
func ForecastURL(baseURL string, loc Location) string {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%.4f", loc.Lat))
	values.Set("longitude", fmt.Sprintf("%.4f", loc.Lon))
	values.Set("hourly", hourlyVariables)
	values.Set("forecast_days", fmt.Sprintf("%d", forecastDays))
	values.Set("timezone", timezone)
	return fmt.Sprintf("%s?%s", baseURL, values.Encode())
}

// ForecastURL returns the full request URL for a location's forecast.
func (c *Client) ForecastURL(loc Location) string {
	return ForecastURL(c.baseURL, loc)
}

// Fetch retrieves the hourly forecast for a location.
func (c *Client) Fetch(ctx context.Context, loc Location) (Forecast, error) {
	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, c.ForecastURL(loc), nil)
	}

	resp, err := upstream.Do(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return Forecast{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Hourly json.RawMessage `json:"hourly"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Forecast{}, fmt.Errorf("decode forecast for %s: %w", loc.Slug, err)
	}
	if len(payload.Hourly) == 0 {
		return Forecast{}, fmt.Errorf("forecast for %s has no hourly block", loc.Slug)
	}

	return Forecast{
		Location:  loc.Name,
		Elevation: loc.Elevation,
		Hourly:    payload.Hourly,
	}, nil
}
