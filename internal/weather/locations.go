package weather

import (
	"fmt"
	"strings"

	"github.com/kelvins/geocoder"
)

// Location is a fixed geographic point the dashboard tracks.
type Location struct {
	Slug      string  `json:"slug"`
	Name      string  `json:"name"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Elevation int     `json:"elevation"`
}

// DefaultLocations returns the Castelli Romani summits tracked out of the box.
func DefaultLocations() []Location {
	return []Location{
		{Slug: "monte-cavo", Name: "Monte Cavo", Lat: 41.7517, Lon: 12.710, Elevation: 949},
		{Slug: "colle-jano", Name: "Colle Jano", Lat: 41.757, Lon: 12.726, Elevation: 938},
		{Slug: "maschio-faete", Name: "Maschio delle Faete", Lat: 41.7569, Lon: 12.7442, Elevation: 956},
		{Slug: "maschio-ariano", Name: "Maschio d'Ariano", Lat: 41.7394, Lon: 12.7908, Elevation: 891},
		{Slug: "maschio-artemisio", Name: "Maschio d'Artemisio", Lat: 41.7122, Lon: 12.7534, Elevation: 812},
		{Slug: "fontana-tempesta", Name: "Fontana Tempesta", Lat: 41.735, Lon: 12.712, Elevation: 560},
	}
}

// Slugify turns a display name into a URL-safe slug.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, "'", "")
	return strings.Join(strings.Fields(slug), "-")
}

// ResolveExtra geocodes a location given only by name, using the Google
// geocoding API. The API key must be configured via geocoder.ApiKey before
// calling.
func ResolveExtra(name, city, country string) (Location, error) {
	if geocoder.ApiKey == "" {
		return Location{}, fmt.Errorf("geocoder api key is not configured")
	}

	address := geocoder.Address{
		City:    city,
		Country: country,
	}
	if city == "" {
		address.City = name
	}

	loc, err := geocoder.Geocoding(address)
	if err != nil {
		return Location{}, fmt.Errorf("geocode %q: %w", name, err)
	}

	return Location{
		Slug: Slugify(name),
		Name: name,
		Lat:  loc.Latitude,
		Lon:  loc.Longitude,
	}, nil
}

// Index builds a slug lookup over a location list.
func Index(locs []Location) map[string]Location {
	idx := make(map[string]Location, len(locs))
	for _, loc := range locs {
		idx[loc.Slug] = loc
	}
	return idx
}
