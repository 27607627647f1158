package reports

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// ReportTTL is how long a trail report stays active.
	ReportTTL = 21 * 24 * time.Hour

	// minReports is the floor of most-recent reports kept visible even past
	// their expiry, so the feed never looks abandoned.
	minReports = 5

	maxDescriptionLen = 200
)

// Report is a community trail report pinned to a coordinate.
type Report struct {
	ID          string    `json:"id"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Store keeps trail reports in memory with TTL-based pruning on read.
type Store struct {
	mu      sync.RWMutex
	reports []Report

	// now is swappable for tests.
	now func() time.Time
}

// NewStore creates an empty report store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Save records a new report and returns it with id and timestamps filled in.
// Descriptions are truncated to 200 characters.
func (s *Store) Save(lat, lon float64, kind, description string) Report {
	now := s.now().UTC()
	if len(description) > maxDescriptionLen {
		description = description[:maxDescriptionLen]
	}

	report := Report{
		ID:          uuid.NewString(),
		Lat:         lat,
		Lon:         lon,
		Kind:        kind,
		Description: description,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ReportTTL),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report)
	return report
}

// Active returns reports newest first. Expired reports are pruned, but the
// most recent minReports survive expiry so the feed always has content.
func (s *Store) Active() []Report {
	now := s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	sort.SliceStable(s.reports, func(i, j int) bool {
		return s.reports[i].CreatedAt.After(s.reports[j].CreatedAt)
	})

	var active, expired []Report
	for _, r := range s.reports {
		if r.ExpiresAt.After(now) {
			active = append(active, r)
		} else {
			expired = append(expired, r)
		}
	}

	combined := active
	if len(combined) < minReports {
		needed := minReports - len(combined)
		if needed > len(expired) {
			needed = len(expired)
		}
		combined = append(combined, expired[:needed]...)
	}

	// Drop everything that fell outside the combined view.
	s.reports = append([]Report(nil), combined...)

	out := make([]Report, len(combined))
	copy(out, combined)
	return out
}
