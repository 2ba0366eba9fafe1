package repository

import (
	"database/sql"
	"fmt"
	"time"
)

// ProfileRecord is one persisted profile result. Doc holds the serialized
// pipeline output; the repository does not interpret it.
type ProfileRecord struct {
	ID        string
	VIN       string
	CreatedAt time.Time
	Doc       []byte
}

// ProfileRepository handles database operations for profile results.
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Save upserts a profile record.
func (r *ProfileRepository) Save(rec ProfileRecord) error {
	_, err := r.db.Exec(
		`INSERT INTO profiles (id, vin, created_at, doc) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET vin = excluded.vin, doc = excluded.doc`,
		rec.ID, rec.VIN, rec.CreatedAt.UTC().Format(time.RFC3339Nano), rec.Doc)
	if err != nil {
		return fmt.Errorf("failed to save profile %s: %w", rec.ID, err)
	}
	return nil
}

// Get loads one profile record. Returns (nil, nil) when the ID is unknown.
func (r *ProfileRepository) Get(id string) (*ProfileRecord, error) {
	var rec ProfileRecord
	var created string
	err := r.db.QueryRow(
		`SELECT id, vin, created_at, doc FROM profiles WHERE id = ?`, id).
		Scan(&rec.ID, &rec.VIN, &created, &rec.Doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %s: %w", id, err)
	}
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		rec.CreatedAt = t
	}
	return &rec, nil
}

// ListIDs returns all stored profile IDs, oldest first.
func (r *ProfileRepository) ListIDs() ([]string, error) {
	rows, err := r.db.Query(`SELECT id FROM profiles ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
