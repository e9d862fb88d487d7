package models

import "time"

// Geocode source tags stored with each listing coordinate.
const (
	GeocodeSourceNone     = "none"
	GeocodeSourceExternal = "external-geocoder"
	GeocodeSourceManual   = "manual"
	GeocodeSourceProvider = "provider-supplied"
)

type Listing struct {
	ID               int64      `json:"id" gorm:"primaryKey"`
	ExternalID       string     `json:"external_id" gorm:"uniqueIndex;not null"`
	URL              string     `json:"url"`
	Title            string     `json:"title"`
	Location         string     `json:"location"`
	City             string     `json:"city"`
	PropertyType     string     `json:"property_type"`
	OfferType        string     `json:"offer_type"`
	Price            int        `json:"price"`
	Status           string     `json:"status"`
	ThumbnailURL     string     `json:"thumbnail_url"`
	Latitude         *float64   `json:"latitude"`
	Longitude        *float64   `json:"longitude"`
	GeocodeSource    string     `json:"geocode_source" gorm:"default:none"`
	GeocodedAt       *time.Time `json:"geocoded_at"`
	GeocodeAttempted bool       `json:"-" gorm:"default:false"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (Listing) TableName() string {
	return "listings"
}

// PointListing is the minimal projection returned by spatial queries.
type PointListing struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Price        int     `json:"price"`
	PropertyType string  `json:"property_type"`
	OfferType    string  `json:"offer_type"`
	ThumbnailURL string  `json:"thumbnail_url"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// EnrichReport summarizes one bulk-geocoding run.
type EnrichReport struct {
	Attempted    int   `json:"attempted"`
	Succeeded    int   `json:"succeeded"`
	Failed       int   `json:"failed"`
	Remaining    int   `json:"remaining"`
	AvgLatencyMs int64 `json:"avg_latency_ms"`
}

type ListingStats struct {
	TotalListings    int     `json:"total_listings"`
	ActiveListings   int     `json:"active_listings"`
	GeocodedListings int     `json:"geocoded_listings"`
	GeocodedShare    float64 `json:"geocoded_share"`
	AveragePrice     float64 `json:"average_price"`
}
