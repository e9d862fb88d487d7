package processor

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"homeradar/server/config"
	"homeradar/server/internal/database"
	"homeradar/server/internal/models"
	"homeradar/server/internal/queue"
)

// TxRunner is the slice of *gorm.DB the processor needs; tests substitute it.
type TxRunner interface {
	Transaction(fc func(*gorm.DB) error, opts ...*sql.TxOptions) error
}

// BatchProcessor handles the processing of ingested listing batches
type BatchProcessor struct {
	db        TxRunner
	logger    *logrus.Logger
	config    *config.Config
	queue     *queue.ListingQueue
	waitGroup sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(db TxRunner, queue *queue.ListingQueue, config *config.Config, logger *logrus.Logger) *BatchProcessor {
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchProcessor{
		db:     db,
		queue:  queue,
		config: config,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing batches from the queue
func (p *BatchProcessor) Start() {
	for i := 0; i < p.config.BatchProcessing.ProcessorCount; i++ {
		p.waitGroup.Add(1)
		go p.processLoop()
	}
}

// Stop gracefully shuts down the processor
func (p *BatchProcessor) Stop() {
	p.cancel()
	p.waitGroup.Wait()
}

// processLoop handles the continuous processing of batches
func (p *BatchProcessor) processLoop() {
	defer p.waitGroup.Done()

	p.queue.Subscribe(func(batch []*models.Listing) error {
		return p.processBatch(batch)
	})
}

// processBatch handles a single batch of listings with transaction and retry logic
func (p *BatchProcessor) processBatch(batch []*models.Listing) error {
	tagProviderCoordinates(batch)

	var err error
	for attempt := 0; attempt <= p.config.BatchProcessing.MaxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying batch processing, attempt %d of %d", attempt, p.config.BatchProcessing.MaxRetries)
			time.Sleep(time.Duration(p.config.BatchProcessing.RetryDelay) * time.Second)
		}

		err = p.db.Transaction(func(tx *gorm.DB) error {
			if err := database.UpsertListings(tx, batch); err != nil {
				return fmt.Errorf("failed to upsert listings batch: %w", err)
			}
			return nil
		})

		if err == nil {
			p.logger.Infof("Successfully processed batch of %d listings", len(batch))
			return nil
		}

		p.logger.Errorf("Batch processing failed: %v", err)
	}

	return fmt.Errorf("failed to process batch after %d attempts: %w", p.config.BatchProcessing.MaxRetries, err)
}

// tagProviderCoordinates marks listings that arrive from the scraper with
// coordinates already attached, so the enricher never re-resolves them.
func tagProviderCoordinates(batch []*models.Listing) {
	now := time.Now()
	for _, listing := range batch {
		if listing.Latitude != nil && listing.Longitude != nil {
			listing.GeocodeSource = models.GeocodeSourceProvider
			listing.GeocodeAttempted = true
			if listing.GeocodedAt == nil {
				listing.GeocodedAt = &now
			}
		} else if listing.GeocodeSource == "" {
			listing.GeocodeSource = models.GeocodeSourceNone
		}
	}
}
