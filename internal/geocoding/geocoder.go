package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"homeradar/server/config"
	"homeradar/server/internal/models"
)

// ErrNotFound reports that a place could not be resolved. Provider errors,
// timeouts and empty result sets all collapse into it; the caller decides
// whether to fail or fall back.
var ErrNotFound = errors.New("no geocoding result")

// coordinatePattern matches a direct "lat,lon" input such as "49.12,16.56".
var coordinatePattern = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*$`)

// Geocoder resolves free-text places against a Nominatim-compatible provider
// restricted to one country. It does no rate limiting of its own; looping
// callers throttle themselves.
type Geocoder struct {
	logger      *logrus.Logger
	baseURL     string
	countryCode string
	userAgent   string
	client      *http.Client
	cache       map[string]models.Coordinate
	cacheLock   sync.RWMutex
}

func NewGeocoder(cfg *config.Config, logger *logrus.Logger) *Geocoder {
	return &Geocoder{
		logger:      logger,
		baseURL:     cfg.Geocoding.BaseURL,
		countryCode: cfg.Geocoding.CountryCode,
		userAgent:   cfg.Geocoding.UserAgent,
		client:      &http.Client{Timeout: time.Duration(cfg.Geocoding.Timeout) * time.Second},
		cache:       make(map[string]models.Coordinate),
	}
}

// Resolve maps text to a coordinate. A "lat,lon" pair is parsed directly
// with no network call, which supports manual overrides and fast tests.
func (g *Geocoder) Resolve(ctx context.Context, text string) (models.Coordinate, error) {
	if m := coordinatePattern.FindStringSubmatch(text); m != nil {
		lat, _ := strconv.ParseFloat(m[1], 64)
		lon, _ := strconv.ParseFloat(m[2], 64)
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return models.Coordinate{}, ErrNotFound
		}
		return models.Coordinate{Latitude: lat, Longitude: lon}, nil
	}

	g.cacheLock.RLock()
	if coord, ok := g.cache[text]; ok {
		g.cacheLock.RUnlock()
		return coord, nil
	}
	g.cacheLock.RUnlock()

	coord, err := g.lookup(ctx, text)
	if err != nil {
		return models.Coordinate{}, err
	}

	g.cacheLock.Lock()
	g.cache[text] = coord
	g.cacheLock.Unlock()

	return coord, nil
}

type nominatimResponse []struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (g *Geocoder) lookup(ctx context.Context, text string) (models.Coordinate, error) {
	params := url.Values{
		"q":            []string{text},
		"format":       []string{"json"},
		"limit":        []string{"1"},
		"countrycodes": []string{g.countryCode},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search", nil)
	if err != nil {
		g.logger.WithError(err).WithField("query", text).Error("Failed to create geocoding request")
		return models.Coordinate{}, ErrNotFound
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.WithError(err).WithField("query", text).Warn("Geocoding request failed")
		return models.Coordinate{}, ErrNotFound
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.WithFields(logrus.Fields{
			"query":  text,
			"status": resp.StatusCode,
		}).Warn("Geocoding provider returned an error")
		return models.Coordinate{}, ErrNotFound
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		g.logger.WithError(err).WithField("query", text).Warn("Failed to read geocoding response")
		return models.Coordinate{}, ErrNotFound
	}

	var result nominatimResponse
	if err := json.Unmarshal(body, &result); err != nil {
		g.logger.WithError(err).WithField("query", text).Warn("Failed to parse geocoding response")
		return models.Coordinate{}, ErrNotFound
	}

	if len(result) == 0 {
		g.logger.WithField("query", text).Info("No geocoding results")
		return models.Coordinate{}, ErrNotFound
	}

	lat, latErr := strconv.ParseFloat(result[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(result[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		return models.Coordinate{}, ErrNotFound
	}

	g.logger.WithFields(logrus.Fields{
		"query":     text,
		"latitude":  lat,
		"longitude": lon,
		"display":   result[0].DisplayName,
	}).Info("Geocoded place")

	return models.Coordinate{Latitude: lat, Longitude: lon}, nil
}
