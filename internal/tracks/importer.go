package tracks

import (
	"errors"

	"github.com/paulmach/orb"
	"github.com/tkrajina/gpxgo/gpx"

	"homeradar/server/internal/models"
)

var (
	// ErrNotTrack reports bytes that are not a recognizable GPX document.
	ErrNotTrack = errors.New("not a recognizable track file")

	// ErrDegenerateTrack reports a valid GPX document with fewer than two
	// points.
	ErrDegenerateTrack = errors.New("track has fewer than two points")
)

// ParseTrack parses an uploaded GPX file into a route line in original point
// order. The first and last points are returned separately for display.
func ParseTrack(data []byte) (orb.LineString, models.Coordinate, models.Coordinate, error) {
	doc, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, models.Coordinate{}, models.Coordinate{}, ErrNotTrack
	}

	var line orb.LineString
	for _, track := range doc.Tracks {
		for _, segment := range track.Segments {
			for _, point := range segment.Points {
				line = append(line, orb.Point{point.Longitude, point.Latitude})
			}
		}
	}

	// Some exports carry a planned route instead of a recorded track.
	if len(line) == 0 {
		for _, route := range doc.Routes {
			for _, point := range route.Points {
				line = append(line, orb.Point{point.Longitude, point.Latitude})
			}
		}
	}

	if len(line) < 2 {
		return nil, models.Coordinate{}, models.Coordinate{}, ErrDegenerateTrack
	}

	start := models.Coordinate{Latitude: line[0][1], Longitude: line[0][0]}
	end := models.Coordinate{Latitude: line[len(line)-1][1], Longitude: line[len(line)-1][0]}
	return line, start, end, nil
}
