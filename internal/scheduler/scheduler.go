package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
)

// Purger physically drops expired cache entries.
type Purger interface {
	Purge() int
}

// Warmer is the part of weather.Service used to keep popular cities cached.
type Warmer interface {
	RefreshCurrentByCity(ctx context.Context, city string) error
	RefreshForecast(ctx context.Context, city string) error
}

// Config controls which jobs run and how often. A zero interval disables a job.
type Config struct {
	PurgeInterval time.Duration
	WarmInterval  time.Duration
	WarmCities    []string

	// WarmTimeout bounds each city refresh; defaults to 30s.
	WarmTimeout time.Duration
}

// Scheduler periodically purges expired cache entries and warms configured cities.
type Scheduler struct {
	scheduler *gocron.Scheduler
	cfg       Config
	warmer    Warmer
	purgers   []Purger
	log       logrus.FieldLogger
}

// New creates a new Scheduler.
func New(cfg Config, warmer Warmer, log logrus.FieldLogger, purgers ...Purger) *Scheduler {
	if cfg.WarmTimeout <= 0 {
		cfg.WarmTimeout = 30 * time.Second
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		cfg:       cfg,
		warmer:    warmer,
		purgers:   purgers,
		log:       log.WithField("component", "scheduler"),
	}
}

// Start schedules the enabled jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	jobs := 0

	if s.cfg.PurgeInterval > 0 && len(s.purgers) > 0 {
		if _, err := s.scheduler.Every(s.cfg.PurgeInterval).SingletonMode().Do(s.RunPurge); err != nil {
			return err
		}
		jobs++
	}

	if s.cfg.WarmInterval > 0 && len(s.cfg.WarmCities) > 0 && s.warmer != nil {
		_, err := s.scheduler.Every(s.cfg.WarmInterval).SingletonMode().Do(func() {
			s.RunWarm(context.Background())
		})
		if err != nil {
			return err
		}
		jobs++
	}

	if jobs == 0 {
		s.log.Info("no jobs configured; nothing to schedule")
		return nil
	}

	s.scheduler.StartAsync()
	return nil
}

// RunPurge drops expired entries from every purger.
func (s *Scheduler) RunPurge() {
	removed := 0
	for _, p := range s.purgers {
		removed += p.Purge()
	}
	s.log.WithField("removed", removed).Debug("purged expired cache entries")
}

// RunWarm refetches current conditions and forecast for each configured city
// concurrently, replacing cached entries whether or not they have expired.
func (s *Scheduler) RunWarm(ctx context.Context) {
	s.log.WithField("cities", len(s.cfg.WarmCities)).Info("running cache warm-up job")

	var wg sync.WaitGroup
	for _, city := range s.cfg.WarmCities {
		wg.Add(1)
		go func(city string) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(ctx, s.cfg.WarmTimeout)
			defer cancel()

			log := s.log.WithField("city", city)
			if err := s.warmer.RefreshCurrentByCity(ctx, city); err != nil {
				log.WithError(err).Warn("warm-up of current weather failed")
			}
			if err := s.warmer.RefreshForecast(ctx, city); err != nil {
				log.WithError(err).Warn("warm-up of forecast failed")
			}
		}(city)
	}
	wg.Wait()

	s.log.Info("completed cache warm-up job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
