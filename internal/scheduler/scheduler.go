package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/castellimtb/castelli-weather/internal/weather"
)

// Scheduler periodically refreshes the forecast for every configured location.
// Each successful fetch lands in the offline interceptor's cache store, so the
// fallback data stays recent even across long quiet periods.
type Scheduler struct {
	scheduler *gocron.Scheduler
	client    *weather.Client
	locations []weather.Location
	interval  time.Duration
}

// New creates a new Scheduler.
func New(locations []weather.Location, interval time.Duration, client *weather.Client) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		client:    client,
		locations: locations,
		interval:  interval,
	}
}

// Start schedules the periodic warming job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		log.Println("scheduler: no locations configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		log.Println("scheduler: running forecast warm-up job")

		var wg sync.WaitGroup
		for _, loc := range s.locations {
			loc := loc
			wg.Add(1)
			go func() {
				defer wg.Done()

				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if _, err := s.client.Fetch(ctx, loc); err != nil {
					log.Printf("scheduler: warm-up failed for %s: %v", loc.Slug, err)
				}
			}()
		}
		wg.Wait()
		log.Println("scheduler: completed forecast warm-up job")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
