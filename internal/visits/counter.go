package visits

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"
)

// Stats is the visit summary returned to the dashboard.
type Stats struct {
	Total     int `json:"total"`
	Today     int `json:"today"`
	ThisMonth int `json:"this_month"`
}

type state struct {
	Total    int            `json:"total"`
	Today    int            `json:"today"`
	LastDate string         `json:"last_date"`
	Monthly  map[string]int `json:"monthly"`
}

// Counter tracks dashboard visits, persisted best-effort to a JSON file.
type Counter struct {
	mu   sync.Mutex
	path string
	data state

	// now is swappable for tests.
	now func() time.Time
}

// NewCounter loads (or initializes) the counter at path. A missing or
// unreadable file starts the counter from zero.
func NewCounter(path string) *Counter {
	c := &Counter{
		path: path,
		data: state{Monthly: make(map[string]int)},
		now:  time.Now,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var loaded state
		if err := json.Unmarshal(raw, &loaded); err == nil {
			if loaded.Monthly == nil {
				loaded.Monthly = make(map[string]int)
			}
			c.data = loaded
		}
	}
	return c
}

// Increment records a visit and returns the updated stats. The daily count
// resets when the date changes.
func (c *Counter) Increment() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	today := now.Format("2006-01-02")
	month := now.Format("2006-01")

	if c.data.LastDate != today {
		c.data.Today = 0
		c.data.LastDate = today
	}

	c.data.Total++
	c.data.Today++
	c.data.Monthly[month]++

	c.persist()

	return Stats{
		Total:     c.data.Total,
		Today:     c.data.Today,
		ThisMonth: c.data.Monthly[month],
	}
}

// persist writes the counter file; failures are logged and otherwise ignored.
func (c *Counter) persist() {
	raw, err := json.Marshal(c.data)
	if err != nil {
		log.Printf("visits: marshal counter: %v", err)
		return
	}
	if err := os.WriteFile(c.path, raw, 0o644); err != nil {
		log.Printf("visits: save counter: %v", err)
	}
}
