package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"homeradar/server/internal/models"
)

// Hard cap for the unfiltered map-rendering query.
const maxAllPoints = 2000

// Paging defaults for proximity searches.
const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// SearchInArea returns listing point projections inside the filter's polygon
// or bbox, AND-combined with its attribute filters. Results are ordered by
// recency with the row id as a deterministic tiebreaker, so concurrent
// inserts never duplicate or skip rows across pages.
func (d *Database) SearchInArea(filter models.SearchFilter, page, pageSize int) ([]models.PointListing, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	query := `
		SELECT id, title, price, property_type, offer_type, thumbnail_url, latitude, longitude
		FROM listings
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL
	`
	var args []interface{}

	if filter.PolygonWKT != "" {
		poly, err := wkt.UnmarshalPolygon(filter.PolygonWKT)
		if err != nil {
			return nil, models.NewValidationError("polygon geometry text is not valid WKT")
		}
		bound := poly.Bound()
		query += ` AND latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?
			AND point_in_polygon(latitude, longitude, ?)`
		args = append(args, bound.Min[1], bound.Max[1], bound.Min[0], bound.Max[0], filter.PolygonWKT)
	} else {
		query += ` AND latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?`
		args = append(args, filter.BBox.MinLat, filter.BBox.MaxLat, filter.BBox.MinLon, filter.BBox.MaxLon)
	}

	query, args = appendAttributeFilters(query, args, filter)

	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	return scanPointListings(rows)
}

// CountInPolygon counts geocoded listings inside the polygon in one query.
// The bound prefilters the indexed coordinate columns before the polygon
// test runs.
func (d *Database) CountInPolygon(polygonWKT string, bound orb.Bound) (int, error) {
	var count int
	err := d.db.QueryRow(`
		SELECT COUNT(*)
		FROM listings
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL
		  AND latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?
		  AND point_in_polygon(latitude, longitude, ?)
	`, bound.Min[1], bound.Max[1], bound.Min[0], bound.Max[0], polygonWKT).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("corridor count query failed: %w", err)
	}
	return count, nil
}

// GetAllPoints returns every geocoded listing for map rendering, hard-capped
// to bound the response size.
func (d *Database) GetAllPoints() ([]models.PointListing, error) {
	rows, err := d.db.Query(`
		SELECT id, title, price, property_type, offer_type, thumbnail_url, latitude, longitude
		FROM listings
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, maxAllPoints)
	if err != nil {
		return nil, fmt.Errorf("points query failed: %w", err)
	}
	defer rows.Close()

	return scanPointListings(rows)
}

func appendAttributeFilters(query string, args []interface{}, filter models.SearchFilter) (string, []interface{}) {
	if filter.City != "" {
		query += " AND LOWER(city) = LOWER(?)"
		args = append(args, filter.City)
	}
	if filter.PropertyType != "" {
		query += " AND property_type = ?"
		args = append(args, filter.PropertyType)
	}
	if filter.OfferType != "" {
		query += " AND offer_type = ?"
		args = append(args, filter.OfferType)
	}
	if filter.MaxPrice > 0 {
		query += " AND price <= ?"
		args = append(args, filter.MaxPrice)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	return query, args
}

func scanPointListings(rows *sql.Rows) ([]models.PointListing, error) {
	var points []models.PointListing
	for rows.Next() {
		var p models.PointListing
		var title, propertyType, offerType, thumbnail sql.NullString
		var price sql.NullInt64

		err := rows.Scan(&p.ID, &title, &price, &propertyType, &offerType, &thumbnail, &p.Latitude, &p.Longitude)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing point: %w", err)
		}

		if title.Valid {
			p.Title = title.String
		}
		if propertyType.Valid {
			p.PropertyType = propertyType.String
		}
		if offerType.Valid {
			p.OfferType = offerType.String
		}
		if thumbnail.Valid {
			p.ThumbnailURL = thumbnail.String
		}
		if price.Valid {
			p.Price = int(price.Int64)
		}

		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

// ListingsMissingCoordinates selects active listings still waiting for a
// coordinate, oldest first. Listings that already have a coordinate or were
// already attempted are never re-selected.
func (d *Database) ListingsMissingCoordinates(limit int) ([]models.Listing, error) {
	rows, err := d.db.Query(`
		SELECT id, external_id, title, location, city
		FROM listings
		WHERE (latitude IS NULL OR longitude IS NULL)
		  AND geocode_attempted = 0
		  AND status = 'active'
		  AND location IS NOT NULL AND location != ''
		ORDER BY created_at ASC, id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings missing coordinates: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		var title, location, city sql.NullString
		if err := rows.Scan(&l.ID, &l.ExternalID, &title, &location, &city); err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		if title.Valid {
			l.Title = title.String
		}
		if location.Valid {
			l.Location = location.String
		}
		if city.Valid {
			l.City = city.String
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// SetListingCoordinates persists a geocoding hit. Writes are idempotent
// set-if-different updates, so read-committed isolation is enough.
func (d *Database) SetListingCoordinates(id int64, lat, lon float64, source string) error {
	result, err := d.db.Exec(`
		UPDATE listings
		SET latitude = ?, longitude = ?, geocode_source = ?,
		    geocoded_at = CURRENT_TIMESTAMP, geocode_attempted = 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, lat, lon, source, id)
	if err != nil {
		return fmt.Errorf("failed to update listing coordinates: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrListingNotFound
	}
	return nil
}

// MarkGeocodeAttempted records a failed resolution so the listing is not
// retried on every batch.
func (d *Database) MarkGeocodeAttempted(id int64) error {
	_, err := d.db.Exec(`
		UPDATE listings SET geocode_attempted = 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to mark geocoding attempt: %w", err)
	}
	return nil
}

func (d *Database) CountMissingCoordinates() (int, error) {
	var count int
	err := d.db.QueryRow(`
		SELECT COUNT(*)
		FROM listings
		WHERE (latitude IS NULL OR longitude IS NULL)
		  AND geocode_attempted = 0
		  AND status = 'active'
		  AND location IS NOT NULL AND location != ''
	`).Scan(&count)
	return count, err
}

// GetListings is the non-spatial browse query.
func (d *Database) GetListings(status, city string, page, pageSize int) ([]models.Listing, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	query := `
		SELECT id, external_id, url, title, location, city, property_type, offer_type,
		       price, status, thumbnail_url, latitude, longitude,
		       geocode_source, geocoded_at, created_at, updated_at
		FROM listings
		WHERE (? = '' OR status = ?)
		  AND (? = '' OR LOWER(city) = LOWER(?))
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := d.db.Query(query, status, status, city, city, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("listings query failed: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		var url, title, location, cityVal, propertyType, offerType, statusVal, thumbnail, source sql.NullString
		var price sql.NullInt64
		var latitude, longitude sql.NullFloat64
		var geocodedAt sql.NullTime
		var createdAt, updatedAt sql.NullTime

		err := rows.Scan(
			&l.ID, &l.ExternalID, &url, &title, &location, &cityVal, &propertyType, &offerType,
			&price, &statusVal, &thumbnail, &latitude, &longitude,
			&source, &geocodedAt, &createdAt, &updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}

		if url.Valid {
			l.URL = url.String
		}
		if title.Valid {
			l.Title = title.String
		}
		if location.Valid {
			l.Location = location.String
		}
		if cityVal.Valid {
			l.City = cityVal.String
		}
		if propertyType.Valid {
			l.PropertyType = propertyType.String
		}
		if offerType.Valid {
			l.OfferType = offerType.String
		}
		if statusVal.Valid {
			l.Status = statusVal.String
		}
		if thumbnail.Valid {
			l.ThumbnailURL = thumbnail.String
		}
		if source.Valid {
			l.GeocodeSource = source.String
		}
		if price.Valid {
			l.Price = int(price.Int64)
		}
		if latitude.Valid {
			v := latitude.Float64
			l.Latitude = &v
		}
		if longitude.Valid {
			v := longitude.Float64
			l.Longitude = &v
		}
		if geocodedAt.Valid {
			t := geocodedAt.Time
			l.GeocodedAt = &t
		}
		if createdAt.Valid {
			l.CreatedAt = createdAt.Time
		}
		if updatedAt.Valid {
			l.UpdatedAt = updatedAt.Time
		}

		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (d *Database) GetListingStats() (models.ListingStats, error) {
	var stats models.ListingStats
	err := d.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN latitude IS NOT NULL AND longitude IS NOT NULL THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(price), 0)
		FROM listings
	`).Scan(&stats.TotalListings, &stats.ActiveListings, &stats.GeocodedListings, &stats.AveragePrice)
	if err != nil {
		return stats, fmt.Errorf("stats query failed: %w", err)
	}
	if stats.TotalListings > 0 {
		stats.GeocodedShare = float64(stats.GeocodedListings) / float64(stats.TotalListings)
	}
	return stats, nil
}

// touchTimestamp is used by tests to backdate rows.
func (d *Database) touchTimestamp(id int64, created time.Time) error {
	_, err := d.db.Exec(`UPDATE listings SET created_at = ? WHERE id = ?`, created, id)
	return err
}
