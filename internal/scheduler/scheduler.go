package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"homeradar/server/config"
	"homeradar/server/internal/models"
)

// EnrichRunner is the bulk-geocoding pipeline the scheduler drives.
type EnrichRunner interface {
	EnrichBatch(ctx context.Context, batchSize int) (models.EnrichReport, error)
}

// Scheduler runs the bulk geocoder in the background so the listing
// coordinate pool stays populated for future corridor searches. Runs are
// serialized by a mutex; the enricher itself already throttles the
// provider, overlapping runs would only fight over the same rows.
type Scheduler struct {
	enricher  EnrichRunner
	logger    *logrus.Logger
	interval  time.Duration
	batchSize int
	stopChan  chan struct{}
	wg        sync.WaitGroup
	jobMutex  sync.Mutex
}

func NewScheduler(enricher EnrichRunner, cfg *config.Config, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		enricher:  enricher,
		logger:    logger,
		interval:  time.Duration(cfg.Enrichment.IntervalMinutes) * time.Minute,
		batchSize: cfg.Enrichment.BatchSize,
		stopChan:  make(chan struct{}),
	}
}

// Start begins the scheduled enrichment runs, including one startup run.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	s.runEnrichment("startup")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.runEnrichment("scheduled")
		}
	}
}

func (s *Scheduler) runEnrichment(trigger string) {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stop cancels the in-flight run; committed coordinates stay valid.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-s.stopChan:
			cancel()
		case <-done:
		}
	}()

	s.logger.WithField("trigger", trigger).Info("Starting enrichment run")

	report, err := s.enricher.EnrichBatch(ctx, s.batchSize)
	if err != nil {
		s.logger.WithError(err).WithField("trigger", trigger).Error("Enrichment run failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"trigger":   trigger,
		"attempted": report.Attempted,
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
		"remaining": report.Remaining,
	}).Info("Enrichment run completed")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}
