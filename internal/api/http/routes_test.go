package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/castellimtb/castelli-weather/internal/alerts"
	"github.com/castellimtb/castelli-weather/internal/reports"
	"github.com/castellimtb/castelli-weather/internal/strava"
	"github.com/castellimtb/castelli-weather/internal/visits"
	"github.com/castellimtb/castelli-weather/internal/weather"
)

func newTestApp(t *testing.T) (*fiber.App, *httptest.Server) {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"hourly":{"temperature_2m":[2.5,3.0]}}`)
	}))
	t.Cleanup(upstream.Close)

	app := fiber.New()
	RegisterRoutes(app, Deps{
		Weather:   weather.NewClient(upstream.Client(), upstream.URL),
		Locations: weather.DefaultLocations(),
		Alerts:    alerts.NewService(),
		Reports:   reports.NewStore(),
		Visits:    visits.NewCounter(filepath.Join(t.TempDir(), "visits.json")),
		Strava:    strava.NewClient(upstream.Client(), upstream.URL, "", 1),
	})
	return app, upstream
}

func TestWeatherUnknownLocationReturns404(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/monte-bianco", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestWeatherRelaysHourlyBlock(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/monte-cavo", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var payload struct {
		Location  string          `json:"location"`
		Elevation int             `json:"elevation"`
		Hourly    json.RawMessage `json:"hourly"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Location != "Monte Cavo" || payload.Elevation != 949 {
		t.Fatalf("unexpected location wrapper: %+v", payload)
	}
	if !strings.Contains(string(payload.Hourly), "temperature_2m") {
		t.Fatalf("hourly block not relayed: %s", payload.Hourly)
	}
}

func TestReportValidation(t *testing.T) {
	app, _ := newTestApp(t)

	// Missing kind must be rejected.
	body := strings.NewReader(`{"lat":41.75,"lon":12.71}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}

	// Out-of-range latitude must be rejected.
	body = strings.NewReader(`{"lat":123.0,"lon":12.71,"kind":"mud"}`)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/reports", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}

	// A valid report is created and then listed.
	body = strings.NewReader(`{"lat":41.75,"lon":12.71,"kind":"mud","description":"fango dopo la pioggia"}`)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/reports", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var listing struct {
		Reports []reports.Report `json:"reports"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		t.Fatalf("decode reports: %v", err)
	}
	if len(listing.Reports) != 1 || listing.Reports[0].Kind != "mud" {
		t.Fatalf("unexpected report listing: %+v", listing.Reports)
	}
}

func TestVisitsIncrement(t *testing.T) {
	app, _ := newTestApp(t)

	for i := 1; i <= 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/visits", nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var stats visits.Stats
		if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
			t.Fatalf("decode stats: %v", err)
		}
		if stats.Total != i {
			t.Fatalf("expected total %d, got %d", i, stats.Total)
		}
	}
}

func TestStravaWithoutTokenReturns502(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/strava/club", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", resp.StatusCode)
	}
}
