package database

import (
	"database/sql"
	"errors"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"homeradar/server/internal/geometry"
)

var (
	ErrListingNotFound = errors.New("listing not found")
	ErrAreaNotFound    = errors.New("saved area not found")
)

// The spatial driver registers point_in_polygon(lat, lon, wkt) on every
// connection, so polygon queries stay fully parameterized and evaluate in a
// single round trip; the polygon text is transmitted once as a bind value.
func init() {
	sql.Register("sqlite3_spatial", &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("point_in_polygon", pointInPolygon, true)
		},
	})
}

// polygonCache keeps the most recently parsed polygon. The function is
// called once per candidate row with the same WKT text, so re-parsing per
// row would dominate query time.
var polygonCache struct {
	sync.Mutex
	text string
	poly orb.Polygon
}

func pointInPolygon(lat, lon float64, text string) (bool, error) {
	polygonCache.Lock()
	poly := polygonCache.poly
	hit := polygonCache.text == text
	polygonCache.Unlock()

	if !hit {
		parsed, err := wkt.UnmarshalPolygon(text)
		if err != nil {
			return false, err
		}
		polygonCache.Lock()
		polygonCache.text = text
		polygonCache.poly = parsed
		polygonCache.Unlock()
		poly = parsed
	}

	return geometry.PolygonContains(poly, orb.Point{lon, lat}), nil
}

type Database struct {
	db *sql.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite3_spatial", dbPath)
	if err != nil {
		return nil, err
	}

	// An in-memory database exists per connection; keep the pool at one so
	// tests see a single database.
	if strings.Contains(dbPath, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) GetDB() *sql.DB {
	return d.db
}
