package geocoding

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"homeradar/server/config"
	"homeradar/server/internal/models"
)

// Batch size bounds for one enrichment run.
const (
	minEnrichBatch = 1
	maxEnrichBatch = 200
)

// Resolver is the slice of the geocoder the enricher needs.
type Resolver interface {
	Resolve(ctx context.Context, text string) (models.Coordinate, error)
}

// EnricherStore is the persistence surface of the enrichment pipeline.
type EnricherStore interface {
	ListingsMissingCoordinates(limit int) ([]models.Listing, error)
	SetListingCoordinates(id int64, lat, lon float64, source string) error
	MarkGeocodeAttempted(id int64) error
	CountMissingCoordinates() (int, error)
}

// Enricher batch-geocodes listings that lack coordinates. Calls to the
// provider run strictly one at a time with an enforced minimum spacing;
// Nominatim bans clients that exceed its rate limit, which would stall the
// whole pipeline rather than slow it.
type Enricher struct {
	store    EnricherStore
	geocoder Resolver
	limiter  *rate.Limiter
	logger   *logrus.Logger
}

func NewEnricher(store EnricherStore, geocoder Resolver, cfg *config.Config, logger *logrus.Logger) *Enricher {
	interval := time.Duration(cfg.Geocoding.MinIntervalMs) * time.Millisecond
	return &Enricher{
		store:    store,
		geocoder: geocoder,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		logger:   logger,
	}
}

// EnrichBatch geocodes up to batchSize listings and reports aggregate
// counts. A listing that fails to resolve is counted and skipped; the batch
// itself always completes unless the store fails or the context is
// cancelled. On cancellation, coordinates already written remain valid and
// the report reflects partial progress.
func (e *Enricher) EnrichBatch(ctx context.Context, batchSize int) (models.EnrichReport, error) {
	if batchSize < minEnrichBatch {
		batchSize = minEnrichBatch
	}
	if batchSize > maxEnrichBatch {
		batchSize = maxEnrichBatch
	}

	var report models.EnrichReport

	listings, err := e.store.ListingsMissingCoordinates(batchSize)
	if err != nil {
		return report, fmt.Errorf("failed to select listings for geocoding: %w", err)
	}

	var totalLatency time.Duration

	for _, listing := range listings {
		if ctx.Err() != nil {
			break
		}
		if err := e.limiter.Wait(ctx); err != nil {
			break
		}

		report.Attempted++
		query := QueryFromLocation(listing.Location)

		started := time.Now()
		coord, err := e.geocoder.Resolve(ctx, query)
		totalLatency += time.Since(started)

		if err != nil {
			report.Failed++
			e.logger.WithFields(logrus.Fields{
				"listing_id": listing.ID,
				"location":   listing.Location,
				"query":      query,
			}).Warn("Failed to geocode listing")
			if err := e.store.MarkGeocodeAttempted(listing.ID); err != nil {
				return report, fmt.Errorf("failed to mark geocoding attempt: %w", err)
			}
			continue
		}

		if err := e.store.SetListingCoordinates(listing.ID, coord.Latitude, coord.Longitude, models.GeocodeSourceExternal); err != nil {
			return report, fmt.Errorf("failed to store coordinates: %w", err)
		}
		report.Succeeded++
	}

	remaining, err := e.store.CountMissingCoordinates()
	if err != nil {
		return report, fmt.Errorf("failed to count remaining listings: %w", err)
	}
	report.Remaining = remaining

	if report.Attempted > 0 {
		report.AvgLatencyMs = totalLatency.Milliseconds() / int64(report.Attempted)
	}

	e.logger.WithFields(logrus.Fields{
		"attempted": report.Attempted,
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
		"remaining": report.Remaining,
	}).Info("Bulk geocoding run completed")

	return report, nil
}
