package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeradar/server/internal/models"
)

func setupDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })
	return db
}

func insertListing(t *testing.T, db *Database, externalID, city string, lat, lon *float64) int64 {
	t.Helper()
	result, err := db.db.Exec(`
		INSERT INTO listings (external_id, title, location, city, property_type, offer_type, price, status, latitude, longitude)
		VALUES (?, ?, ?, ?, 'apartment', 'sale', 5000000, 'active', ?, ?)
	`, externalID, "Listing "+externalID, city, city, lat, lon)
	require.NoError(t, err)
	id, err := result.LastInsertId()
	require.NoError(t, err)
	return id
}

func ptr(v float64) *float64 { return &v }

// squareWKT builds a closed square polygon around a center point, in WKT
// lon-before-lat order.
func squareWKT(centerLat, centerLon, halfSizeDeg float64) string {
	ring := orb.Ring{
		{centerLon - halfSizeDeg, centerLat - halfSizeDeg},
		{centerLon + halfSizeDeg, centerLat - halfSizeDeg},
		{centerLon + halfSizeDeg, centerLat + halfSizeDeg},
		{centerLon - halfSizeDeg, centerLat + halfSizeDeg},
		{centerLon - halfSizeDeg, centerLat - halfSizeDeg},
	}
	return wkt.MarshalString(orb.Polygon{ring})
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := setupDatabase(t)
	assert.NoError(t, db.RunMigrations())
}

func TestSearchInAreaPolygon(t *testing.T) {
	db := setupDatabase(t)

	inside := insertListing(t, db, "in-1", "Brno", ptr(49.20), ptr(16.60))
	insertListing(t, db, "out-1", "Praha", ptr(50.08), ptr(14.44))
	insertListing(t, db, "nocoords", "Brno", nil, nil)

	filter := models.SearchFilter{PolygonWKT: squareWKT(49.20, 16.60, 0.05)}
	results, err := db.SearchInArea(filter, 1, 50)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, inside, results[0].ID)
}

func TestSearchInAreaPolygonExcludesBBoxCorner(t *testing.T) {
	db := setupDatabase(t)

	// Diamond around the center: its bbox corners are outside the polygon.
	diamond := wkt.MarshalString(orb.Polygon{orb.Ring{
		{16.60, 49.15}, {16.65, 49.20}, {16.60, 49.25}, {16.55, 49.20}, {16.60, 49.15},
	}})

	insertListing(t, db, "center", "Brno", ptr(49.20), ptr(16.60))
	insertListing(t, db, "corner", "Brno", ptr(49.155), ptr(16.645))

	results, err := db.SearchInArea(models.SearchFilter{PolygonWKT: diamond}, 1, 50)
	require.NoError(t, err)

	require.Len(t, results, 1, "the bbox prefilter must not let corner points through")
	assert.Equal(t, "Listing center", results[0].Title)
}

func TestSearchInAreaBBox(t *testing.T) {
	db := setupDatabase(t)

	insertListing(t, db, "in-1", "Brno", ptr(49.20), ptr(16.60))
	insertListing(t, db, "out-1", "Praha", ptr(50.08), ptr(14.44))

	filter := models.SearchFilter{BBox: &models.BBox{
		MinLat: 49.0, MaxLat: 49.5, MinLon: 16.0, MaxLon: 17.0,
	}}
	results, err := db.SearchInArea(filter, 1, 50)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, 49.20, results[0].Latitude)
	assert.Equal(t, 16.60, results[0].Longitude)
}

func TestSearchInAreaPredicateValidation(t *testing.T) {
	db := setupDatabase(t)

	// Neither predicate.
	_, err := db.SearchInArea(models.SearchFilter{}, 1, 50)
	assert.True(t, models.IsValidation(err))

	// Both predicates.
	_, err = db.SearchInArea(models.SearchFilter{
		PolygonWKT: squareWKT(49.2, 16.6, 0.1),
		BBox:       &models.BBox{MinLat: 49, MaxLat: 50, MinLon: 16, MaxLon: 17},
	}, 1, 50)
	assert.True(t, models.IsValidation(err))

	// Inverted bbox.
	_, err = db.SearchInArea(models.SearchFilter{
		BBox: &models.BBox{MinLat: 50, MaxLat: 49, MinLon: 16, MaxLon: 17},
	}, 1, 50)
	assert.True(t, models.IsValidation(err))

	// Malformed WKT is rejected before any query runs.
	_, err = db.SearchInArea(models.SearchFilter{PolygonWKT: "POLYGON((broken"}, 1, 50)
	assert.True(t, models.IsValidation(err))
}

func TestSearchInAreaAttributeFilters(t *testing.T) {
	db := setupDatabase(t)

	id := insertListing(t, db, "apt-1", "Brno", ptr(49.20), ptr(16.60))
	insertListing(t, db, "apt-2", "Brno", ptr(49.21), ptr(16.61))
	_, err := db.db.Exec(`UPDATE listings SET property_type = 'house', price = 12000000 WHERE external_id = 'apt-2'`)
	require.NoError(t, err)

	filter := models.SearchFilter{
		PolygonWKT:   squareWKT(49.205, 16.605, 0.05),
		PropertyType: "apartment",
		MaxPrice:     6000000,
		City:         "brno",
		Status:       "active",
	}
	results, err := db.SearchInArea(filter, 1, 50)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].ID)
}

func TestSearchInAreaPagingIsDisjointAndOrdered(t *testing.T) {
	db := setupDatabase(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		id := insertListing(t, db, fmt.Sprintf("page-%02d", i), "Brno",
			ptr(49.20+float64(i)*0.0001), ptr(16.60))
		// Half the rows share a timestamp so the id tiebreaker matters.
		require.NoError(t, db.touchTimestamp(id, base.Add(time.Duration(i/2)*time.Minute)))
	}

	filter := models.SearchFilter{PolygonWKT: squareWKT(49.20, 16.60, 0.1)}

	seen := make(map[int64]bool)
	var pages [][]models.PointListing
	for page := 1; page <= 3; page++ {
		results, err := db.SearchInArea(filter, page, 10)
		require.NoError(t, err)
		pages = append(pages, results)
		for _, r := range results {
			assert.False(t, seen[r.ID], "listing %d appeared on two pages", r.ID)
			seen[r.ID] = true
		}
	}

	assert.Len(t, pages[0], 10)
	assert.Len(t, pages[1], 10)
	assert.Len(t, pages[2], 5)
	assert.Len(t, seen, 25)
}

func TestSearchInAreaClampsPageSize(t *testing.T) {
	db := setupDatabase(t)
	insertListing(t, db, "one", "Brno", ptr(49.20), ptr(16.60))

	filter := models.SearchFilter{PolygonWKT: squareWKT(49.20, 16.60, 0.1)}

	_, err := db.SearchInArea(filter, 0, -5)
	assert.NoError(t, err)
	_, err = db.SearchInArea(filter, 1, 100000)
	assert.NoError(t, err)
}

func TestCountInPolygon(t *testing.T) {
	db := setupDatabase(t)

	insertListing(t, db, "a", "Brno", ptr(49.20), ptr(16.60))
	insertListing(t, db, "b", "Brno", ptr(49.21), ptr(16.61))
	insertListing(t, db, "c", "Praha", ptr(50.08), ptr(14.44))

	poly := orb.Polygon{orb.Ring{
		{16.55, 49.15}, {16.65, 49.15}, {16.65, 49.25}, {16.55, 49.25}, {16.55, 49.15},
	}}
	count, err := db.CountInPolygon(wkt.MarshalString(poly), poly.Bound())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestGetAllPointsSkipsUngecoded(t *testing.T) {
	db := setupDatabase(t)

	insertListing(t, db, "geo-1", "Brno", ptr(49.20), ptr(16.60))
	insertListing(t, db, "geo-2", "Praha", ptr(50.08), ptr(14.44))
	insertListing(t, db, "raw-1", "Olomouc", nil, nil)

	points, err := db.GetAllPoints()
	require.NoError(t, err)
	assert.Len(t, points, 2)
}

func TestGeocodeQueueLifecycle(t *testing.T) {
	db := setupDatabase(t)

	pendingID := insertListing(t, db, "pending", "Brno", nil, nil)
	insertListing(t, db, "done", "Praha", ptr(50.08), ptr(14.44))

	// Only the row without coordinates is selected.
	listings, err := db.ListingsMissingCoordinates(10)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, pendingID, listings[0].ID)

	count, err := db.CountMissingCoordinates()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Successful geocode removes it from the queue.
	require.NoError(t, db.SetListingCoordinates(pendingID, 49.1951, 16.6068, models.GeocodeSourceExternal))

	listings, err = db.ListingsMissingCoordinates(10)
	require.NoError(t, err)
	assert.Empty(t, listings)

	count, err = db.CountMissingCoordinates()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMarkGeocodeAttemptedStopsReselection(t *testing.T) {
	db := setupDatabase(t)

	id := insertListing(t, db, "stubborn", "Nowhere", nil, nil)
	require.NoError(t, db.MarkGeocodeAttempted(id))

	listings, err := db.ListingsMissingCoordinates(10)
	require.NoError(t, err)
	assert.Empty(t, listings, "attempted listings must not be re-selected")
}

func TestSetListingCoordinatesMissingRow(t *testing.T) {
	db := setupDatabase(t)
	err := db.SetListingCoordinates(9999, 49.0, 16.0, models.GeocodeSourceManual)
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestGetListingsFilters(t *testing.T) {
	db := setupDatabase(t)

	insertListing(t, db, "b-1", "Brno", ptr(49.20), ptr(16.60))
	insertListing(t, db, "p-1", "Praha", nil, nil)
	_, err := db.db.Exec(`UPDATE listings SET status = 'sold' WHERE external_id = 'p-1'`)
	require.NoError(t, err)

	all, err := db.GetListings("", "", 1, 50)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := db.GetListings("active", "", 1, 50)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "b-1", active[0].ExternalID)
	require.NotNil(t, active[0].Latitude)
	assert.Equal(t, 49.20, *active[0].Latitude)

	brno, err := db.GetListings("", "BRNO", 1, 50)
	require.NoError(t, err)
	require.Len(t, brno, 1)
	assert.Equal(t, "b-1", brno[0].ExternalID)
}

func TestGetListingStats(t *testing.T) {
	db := setupDatabase(t)

	insertListing(t, db, "s-1", "Brno", ptr(49.20), ptr(16.60))
	insertListing(t, db, "s-2", "Brno", nil, nil)

	stats, err := db.GetListingStats()
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalListings)
	assert.Equal(t, 2, stats.ActiveListings)
	assert.Equal(t, 1, stats.GeocodedListings)
	assert.InDelta(t, 0.5, stats.GeocodedShare, 1e-9)
	assert.InDelta(t, 5000000, stats.AveragePrice, 1e-9)
}
