package database

import "fmt"

func (d *Database) RunMigrations() error {
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			external_id TEXT UNIQUE NOT NULL,
			url TEXT,
			title TEXT,
			location TEXT,
			city TEXT,
			property_type TEXT,
			offer_type TEXT,
			price INTEGER,
			status TEXT DEFAULT 'active',
			thumbnail_url TEXT,
			latitude REAL,
			longitude REAL,
			geocode_source TEXT DEFAULT 'none',
			geocoded_at TIMESTAMP,
			geocode_attempted BOOLEAN DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create listings table: %w", err)
	}

	_, err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_listings_coordinates
		ON listings(latitude, longitude);
	`)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_listings_geocode_queue
		ON listings(geocode_attempted, created_at);
	`)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`
		CREATE TABLE IF NOT EXISTS saved_areas (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			description TEXT,
			area_type TEXT NOT NULL,
			geometry TEXT NOT NULL,
			start_label TEXT,
			end_label TEXT,
			buffer_meters REAL,
			active BOOLEAN DEFAULT 1,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create saved_areas table: %w", err)
	}

	return nil
}
