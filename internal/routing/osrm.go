package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"

	"homeradar/server/config"
	"homeradar/server/internal/models"
)

// Client fetches driving routes from an OSRM-compatible server. GetRoute
// never returns an error: any failure yields nil and the caller substitutes
// a straight line between the endpoints.
type Client struct {
	logger  *logrus.Logger
	baseURL string
	profile string
	client  *http.Client
}

func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	return &Client{
		logger:  logger,
		baseURL: cfg.Routing.BaseURL,
		profile: cfg.Routing.Profile,
		client:  &http.Client{Timeout: time.Duration(cfg.Routing.Timeout) * time.Second},
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Geometry struct {
			// GeoJSON order: lon before lat
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// GetRoute returns the driving route between start and end as a line in the
// engine's lon,lat convention, or nil if no usable route exists.
func (c *Client) GetRoute(ctx context.Context, start, end models.Coordinate) orb.LineString {
	// OSRM expects lon,lat pairs in the path
	routeURL := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?overview=full&geometries=geojson",
		c.baseURL, c.profile,
		start.Longitude, start.Latitude,
		end.Longitude, end.Latitude)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, routeURL, nil)
	if err != nil {
		c.logger.WithError(err).Error("Failed to create routing request")
		return nil
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).Warn("Routing request failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WithField("status", resp.StatusCode).Warn("Routing provider returned an error")
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to read routing response")
		return nil
	}

	var result osrmResponse
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.WithError(err).Warn("Failed to parse routing response")
		return nil
	}

	if result.Code != "Ok" || len(result.Routes) == 0 {
		c.logger.WithField("code", result.Code).Info("No route found")
		return nil
	}

	coords := result.Routes[0].Geometry.Coordinates
	if len(coords) < 2 {
		return nil
	}

	line := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			return nil
		}
		line = append(line, orb.Point{c[0], c[1]})
	}
	return line
}
