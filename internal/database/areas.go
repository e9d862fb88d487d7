package database

import (
	"database/sql"
	"fmt"

	"homeradar/server/internal/models"
)

// SaveArea inserts a new saved area and returns its id. There is no update
// operation: saving a corridor again under any name always produces a new
// row, which keeps area history auditable.
func (d *Database) SaveArea(area models.SavedArea) (int64, error) {
	if area.Name == "" {
		return 0, models.NewValidationError("area name must not be empty")
	}
	if area.Geometry == "" {
		return 0, models.NewValidationError("area geometry must not be empty")
	}

	result, err := d.db.Exec(`
		INSERT INTO saved_areas (name, description, area_type, geometry, start_label, end_label, buffer_meters, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1)
	`, area.Name, area.Description, area.AreaType, area.Geometry, area.StartLabel, area.EndLabel, area.BufferMeters)
	if err != nil {
		return 0, fmt.Errorf("failed to insert saved area: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get saved area id: %w", err)
	}
	return id, nil
}

// ListAreas returns saved areas newest first.
func (d *Database) ListAreas(activeOnly bool) ([]models.SavedArea, error) {
	query := `
		SELECT id, name, description, area_type, geometry, start_label, end_label,
		       buffer_meters, active, created_at, updated_at
		FROM saved_areas
	`
	if activeOnly {
		query += " WHERE active = 1"
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query saved areas: %w", err)
	}
	defer rows.Close()

	var areas []models.SavedArea
	for rows.Next() {
		var a models.SavedArea
		var description, startLabel, endLabel sql.NullString
		var bufferMeters sql.NullFloat64
		var createdAt, updatedAt sql.NullTime

		err := rows.Scan(&a.ID, &a.Name, &description, &a.AreaType, &a.Geometry,
			&startLabel, &endLabel, &bufferMeters, &a.Active, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saved area: %w", err)
		}

		if description.Valid {
			a.Description = description.String
		}
		if startLabel.Valid {
			a.StartLabel = startLabel.String
		}
		if endLabel.Valid {
			a.EndLabel = endLabel.String
		}
		if bufferMeters.Valid {
			v := bufferMeters.Float64
			a.BufferMeters = &v
		}
		if createdAt.Valid {
			a.CreatedAt = createdAt.Time
		}
		if updatedAt.Valid {
			a.UpdatedAt = updatedAt.Time
		}

		areas = append(areas, a)
	}
	return areas, rows.Err()
}

// DeactivateArea soft-deletes a saved area by clearing its active flag. The
// geometry itself is immutable and stays in place.
func (d *Database) DeactivateArea(id int64) error {
	result, err := d.db.Exec(`
		UPDATE saved_areas SET active = 0, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND active = 1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate saved area: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAreaNotFound
	}
	return nil
}
