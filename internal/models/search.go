package models

// Coordinate is a plain latitude/longitude pair. Plain pairs are always
// lat-before-lon; serialized geometry text is always lon-before-lat.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// BBox is an axis-aligned rectangle in geographic degrees.
type BBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// SearchFilter carries the spatial predicate plus attribute filters for a
// proximity search. Exactly one of PolygonWKT or BBox must be set.
type SearchFilter struct {
	PolygonWKT   string `json:"polygon"`
	BBox         *BBox  `json:"bbox"`
	City         string `json:"city"`
	PropertyType string `json:"property_type"`
	OfferType    string `json:"offer_type"`
	MaxPrice     int    `json:"max_price"`
	Status       string `json:"status"`
}

// Validate enforces the exactly-one-spatial-predicate contract.
func (f *SearchFilter) Validate() error {
	hasPolygon := f.PolygonWKT != ""
	hasBBox := f.BBox != nil
	if hasPolygon && hasBBox {
		return NewValidationError("supply either a polygon or a bbox, not both")
	}
	if !hasPolygon && !hasBBox {
		return NewValidationError("a polygon or a bbox is required")
	}
	if hasBBox {
		if f.BBox.MinLat > f.BBox.MaxLat || f.BBox.MinLon > f.BBox.MaxLon {
			return NewValidationError("bbox minimum bounds exceed maximum bounds")
		}
	}
	return nil
}

type SearchRequest struct {
	SearchFilter
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// CorridorRequest builds a corridor between two free-text places. Each place
// may also be a direct "lat,lon" pair.
type CorridorRequest struct {
	Start        string  `json:"start" binding:"required"`
	End          string  `json:"end" binding:"required"`
	BufferMeters float64 `json:"buffer_m" binding:"required"`
	UseRoute     bool    `json:"use_route"`
	SaveAs       string  `json:"save_as"`
}

// CorridorResult is the response shape shared by place-based and track-based
// corridor builds.
type CorridorResult struct {
	PolygonWKT   string     `json:"polygon"`
	Start        Coordinate `json:"start"`
	End          Coordinate `json:"end"`
	BufferMeters float64    `json:"buffer_m"`
	MatchCount   int        `json:"match_count"`
	RouteSource  string     `json:"route_source"`
	SavedAreaID  *int64     `json:"saved_area_id,omitempty"`
}
