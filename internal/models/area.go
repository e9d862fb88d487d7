package models

import "time"

// Area types stored in the saved_areas table.
const (
	AreaTypeCorridor      = "corridor"
	AreaTypeBBox          = "bbox"
	AreaTypePolygon       = "polygon"
	AreaTypeTrackCorridor = "track-corridor"
)

// SavedArea is a persisted search area. Geometry is immutable after creation;
// re-saving a corridor produces a new row.
type SavedArea struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	AreaType     string    `json:"area_type"`
	Geometry     string    `json:"geometry"`
	StartLabel   string    `json:"start_label,omitempty"`
	EndLabel     string    `json:"end_label,omitempty"`
	BufferMeters *float64  `json:"buffer_meters,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
