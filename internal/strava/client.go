package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/sony/gobreaker"

	"github.com/castellimtb/castelli-weather/internal/upstream"
)

// Bounding box of the Castelli Romani riding area. Activities starting
// outside it are ignored.
var castelliBBox = struct {
	latNorth, latSouth float64
	lonWest, lonEast   float64
}{
	latNorth: 41.7974,
	latSouth: 41.6906,
	lonWest:  12.7041,
	lonEast:  12.7195,
}

// ClubInfo is the public summary of the MTB club.
type ClubInfo struct {
	Name        string `json:"name"`
	MemberCount int    `json:"member_count"`
	SportType   string `json:"sport_type"`
	City        string `json:"city"`
	Country     string `json:"country"`
}

// Activity is a club activity normalized for the dashboard.
type Activity struct {
	AthleteName   string  `json:"athlete_name"`
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	DistanceKm    float64 `json:"distance_km"`
	ElevationGain int     `json:"elevation_gain"`
	MovingTime    string  `json:"moving_time"`
}

// RiderStats accumulates one rider's weekly totals.
type RiderStats struct {
	Name      string  `json:"name"`
	Km        float64 `json:"km"`
	Elevation int     `json:"elevation"`
	Rides     int     `json:"rides"`
}

// ClubStats summarizes recent club activity in the area.
type ClubStats struct {
	TotalActivities int          `json:"total_activities"`
	TotalKm         float64      `json:"total_km"`
	TotalElevation  int          `json:"total_elevation"`
	TopRiders       []RiderStats `json:"top_riders"`
}

// Client talks to the Strava v3 API for one club.
type Client struct {
	baseURL string
	token   string
	clubID  int64
	httpCfg upstream.ClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewClient creates a Strava client. Strava is a foreign origin for the
// offline interceptor, so these requests always go straight to the network.
func NewClient(client *http.Client, baseURL, token string, clubID int64) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		clubID:  clubID,
		httpCfg: upstream.ClientConfig{
			Client: client,
			Backoff: upstream.BackoffConfig{
				MaxRetries:      2,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: upstream.NewBreaker("strava"),
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	if c.token == "" {
		return nil, fmt.Errorf("strava access token is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		u := c.baseURL + path
		if len(params) > 0 {
			u = fmt.Sprintf("%s?%s", u, params.Encode())
		}
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		return req, nil
	}

	return upstream.Do(ctx, c.httpCfg, c.circuit, buildRequest)
}

// ClubInfo fetches the club's public profile.
func (c *Client) ClubInfo(ctx context.Context) (ClubInfo, error) {
	resp, err := c.get(ctx, fmt.Sprintf("/clubs/%d", c.clubID), nil)
	if err != nil {
		return ClubInfo{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Name        string `json:"name"`
		MemberCount int    `json:"member_count"`
		SportType   string `json:"sport_type"`
		City        string `json:"city"`
		Country     string `json:"country"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return ClubInfo{}, fmt.Errorf("decode club info: %w", err)
	}

	return ClubInfo(payload), nil
}

// ClubActivities fetches recent club activities and keeps the ones starting
// inside the Castelli Romani bounding box, newest first, capped at 10.
func (c *Client) ClubActivities(ctx context.Context) ([]Activity, error) {
	params := url.Values{}
	params.Set("per_page", "30")

	resp, err := c.get(ctx, fmt.Sprintf("/clubs/%d/activities", c.clubID), params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload []struct {
		Name    string `json:"name"`
		Type    string `json:"type"`
		Athlete struct {
			Firstname string `json:"firstname"`
			Lastname  string `json:"lastname"`
		} `json:"athlete"`
		Distance           float64   `json:"distance"`
		TotalElevationGain float64   `json:"total_elevation_gain"`
		MovingTime         int       `json:"moving_time"`
		StartLatLng        []float64 `json:"start_latlng"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode club activities: %w", err)
	}

	var out []Activity
	for _, a := range payload {
		if len(a.StartLatLng) != 2 || !inCastelliRomani(a.StartLatLng[0], a.StartLatLng[1]) {
			continue
		}
		out = append(out, Activity{
			AthleteName:   athleteName(a.Athlete.Firstname, a.Athlete.Lastname),
			Name:          a.Name,
			Type:          a.Type,
			DistanceKm:    math.Round(a.Distance/100) / 10,
			ElevationGain: int(a.TotalElevationGain),
			MovingTime:    formatDuration(a.MovingTime),
		})
		if len(out) == 10 {
			break
		}
	}
	return out, nil
}

// ClubStats aggregates the filtered activities into weekly totals with the
// top three riders by distance.
func (c *Client) ClubStats(ctx context.Context) (ClubStats, error) {
	activities, err := c.ClubActivities(ctx)
	if err != nil {
		return ClubStats{}, err
	}
	if len(activities) == 0 {
		return ClubStats{TopRiders: []RiderStats{}}, nil
	}

	var totalKm float64
	var totalElevation int
	byRider := make(map[string]*RiderStats)

	for _, a := range activities {
		totalKm += a.DistanceKm
		totalElevation += a.ElevationGain

		r, ok := byRider[a.AthleteName]
		if !ok {
			r = &RiderStats{Name: a.AthleteName}
			byRider[a.AthleteName] = r
		}
		r.Km += a.DistanceKm
		r.Elevation += a.ElevationGain
		r.Rides++
	}

	top := make([]RiderStats, 0, len(byRider))
	for _, r := range byRider {
		top = append(top, *r)
	}
	sort.Slice(top, func(i, j int) bool { return top[i].Km > top[j].Km })
	if len(top) > 3 {
		top = top[:3]
	}

	return ClubStats{
		TotalActivities: len(activities),
		TotalKm:         math.Round(totalKm*10) / 10,
		TotalElevation:  totalElevation,
		TopRiders:       top,
	}, nil
}

func inCastelliRomani(lat, lon float64) bool {
	return castelliBBox.latSouth <= lat && lat <= castelliBBox.latNorth &&
		castelliBBox.lonWest <= lon && lon <= castelliBBox.lonEast
}

func athleteName(first, last string) string {
	if last != "" {
		return fmt.Sprintf("%s %s.", first, last[:1])
	}
	if first == "" {
		return "Unknown"
	}
	return first
}

// formatDuration renders seconds as MM:SS or HH:MM:SS.
func formatDuration(seconds int) string {
	if seconds == 0 {
		return "N/A"
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
