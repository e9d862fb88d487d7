package geometry

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/sirupsen/logrus"

	"homeradar/server/config"
	"homeradar/server/internal/models"
)

// Resolver turns a free-text place (or a direct "lat,lon" pair) into a
// coordinate. A failed resolution is a sentinel error, not a panic.
type Resolver interface {
	Resolve(ctx context.Context, text string) (models.Coordinate, error)
}

// RouteSource fetches a driving route between two coordinates. It returns
// nil on any failure; the corridor builder then falls back to the straight
// line between the endpoints.
type RouteSource interface {
	GetRoute(ctx context.Context, start, end models.Coordinate) orb.LineString
}

// MatchCounter counts stored listings inside a polygon in a single store
// round trip. The bound is a cheap prefilter for the indexed lat/lon columns.
type MatchCounter interface {
	CountInPolygon(polygonWKT string, bound orb.Bound) (int, error)
}

// CorridorBuilder turns a route line into a buffered search polygon and
// counts the listings inside it.
type CorridorBuilder struct {
	geocoder  Resolver
	routes    RouteSource
	store     MatchCounter
	logger    *logrus.Logger
	minBuffer float64
	maxBuffer float64
}

func NewCorridorBuilder(geocoder Resolver, routes RouteSource, store MatchCounter, cfg *config.Config, logger *logrus.Logger) *CorridorBuilder {
	return &CorridorBuilder{
		geocoder:  geocoder,
		routes:    routes,
		store:     store,
		logger:    logger,
		minBuffer: cfg.Corridor.MinBufferMeters,
		maxBuffer: cfg.Corridor.MaxBufferMeters,
	}
}

// BuildCorridorBetween resolves the two endpoints, obtains a route (or the
// straight-line fallback) and builds the corridor. An endpoint that cannot
// be resolved is reported by name; it never degrades to an empty corridor.
func (b *CorridorBuilder) BuildCorridorBetween(ctx context.Context, req models.CorridorRequest) (*models.CorridorResult, error) {
	if err := b.validateBuffer(req.BufferMeters); err != nil {
		return nil, err
	}

	start, err := b.geocoder.Resolve(ctx, req.Start)
	if err != nil {
		return nil, fmt.Errorf("could not resolve start location %q: %w", req.Start, err)
	}
	end, err := b.geocoder.Resolve(ctx, req.End)
	if err != nil {
		return nil, fmt.Errorf("could not resolve end location %q: %w", req.End, err)
	}

	line := orb.LineString{
		{start.Longitude, start.Latitude},
		{end.Longitude, end.Latitude},
	}
	source := "straight-line"

	if req.UseRoute {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if route := b.routes.GetRoute(ctx, start, end); len(route) >= 2 {
			line = route
			source = "route"
		} else {
			b.logger.WithFields(logrus.Fields{
				"start": req.Start,
				"end":   req.End,
			}).Warn("No route available, falling back to straight line")
		}
	}

	result, err := b.buildFromLine(line, req.BufferMeters)
	if err != nil {
		return nil, err
	}
	result.Start = start
	result.End = end
	result.RouteSource = source
	return result, nil
}

// BuildCorridorFromLine builds a corridor around a caller-supplied line,
// e.g. one parsed from an uploaded GPS track.
func (b *CorridorBuilder) BuildCorridorFromLine(ctx context.Context, line orb.LineString, bufferMeters float64) (*models.CorridorResult, error) {
	if err := b.validateBuffer(bufferMeters); err != nil {
		return nil, err
	}
	if len(line) < 2 {
		return nil, models.NewValidationError("corridor line needs at least two points")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := b.buildFromLine(line, bufferMeters)
	if err != nil {
		return nil, err
	}
	first, last := line[0], line[len(line)-1]
	result.Start = models.Coordinate{Latitude: first[1], Longitude: first[0]}
	result.End = models.Coordinate{Latitude: last[1], Longitude: last[0]}
	result.RouteSource = "track"
	return result, nil
}

func (b *CorridorBuilder) buildFromLine(line orb.LineString, bufferMeters float64) (*models.CorridorResult, error) {
	metric := LineToMetric(line)
	ring := BufferLine(metric, bufferMeters)
	if len(ring) < 4 {
		return nil, models.NewValidationError("corridor line is degenerate")
	}

	polygon := orb.Polygon{RingToGeographic(ring)}
	polygonWKT := wkt.MarshalString(polygon)

	count, err := b.store.CountInPolygon(polygonWKT, polygon.Bound())
	if err != nil {
		return nil, fmt.Errorf("failed to count listings in corridor: %w", err)
	}

	b.logger.WithFields(logrus.Fields{
		"buffer_m":    bufferMeters,
		"line_points": len(line),
		"matches":     count,
	}).Info("Built corridor")

	return &models.CorridorResult{
		PolygonWKT:   polygonWKT,
		BufferMeters: bufferMeters,
		MatchCount:   count,
	}, nil
}

func (b *CorridorBuilder) validateBuffer(bufferMeters float64) error {
	if bufferMeters < b.minBuffer || bufferMeters > b.maxBuffer {
		return models.NewValidationError(fmt.Sprintf(
			"buffer distance must be between %.0f and %.0f meters", b.minBuffer, b.maxBuffer))
	}
	return nil
}
