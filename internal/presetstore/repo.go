package presetstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/veleda/othala/internal/apperr"
	"github.com/veleda/othala/internal/preset"
)

// Application is one recorded preset application to a document.
type Application struct {
	Path      string    `json:"path"`
	PresetID  string    `json:"preset_id"`
	Checksum  string    `json:"checksum"`
	AppliedAt time.Time `json:"applied_at"`
}

// SavePreset inserts or replaces a preset. New presets are appended at the
// end of the ordering; updates keep their position.
func (db *DB) SavePreset(p *preset.Preset) error {
	fieldsJSON, err := json.Marshal(p.Fields)
	if err != nil {
		return fmt.Errorf("presetstore: encode fields: %w", err)
	}
	_, err = db.conn.Exec(`
		INSERT INTO presets (id, name, position, fields, updated_at)
		VALUES (?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM presets), ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name       = excluded.name,
			fields     = excluded.fields,
			updated_at = excluded.updated_at
	`, p.ID, p.Name, string(fieldsJSON), time.Now())
	if err != nil {
		return fmt.Errorf("presetstore: save preset: %w", err)
	}
	return nil
}

// GetPreset returns the preset with the given id, or apperr.ErrNotFound.
func (db *DB) GetPreset(id string) (*preset.Preset, error) {
	row := db.conn.QueryRow(`SELECT id, name, fields FROM presets WHERE id = ?`, id)
	p, err := scanPreset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("presetstore: get preset: %w", err)
	}
	return p, nil
}

// ListPresets returns every preset in position order.
func (db *DB) ListPresets() ([]*preset.Preset, error) {
	rows, err := db.conn.Query(`SELECT id, name, fields FROM presets ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("presetstore: list presets: %w", err)
	}
	defer rows.Close()
	return collectPresets(rows)
}

// SearchPresets returns presets whose name or field definitions match the
// query. The preset corpus is small, so a LIKE scan is sufficient.
func (db *DB) SearchPresets(query string, limit int) ([]*preset.Preset, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT id, name, fields
		FROM presets
		WHERE name LIKE ? OR fields LIKE ?
		ORDER BY position, id
		LIMIT ?
	`, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("presetstore: search presets: %w", err)
	}
	defer rows.Close()
	return collectPresets(rows)
}

// DeletePreset removes a preset. Deleting an unknown id is not an error.
func (db *DB) DeletePreset(id string) error {
	if _, err := db.conn.Exec(`DELETE FROM presets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("presetstore: delete preset: %w", err)
	}
	return nil
}

// ReorderPresets rewrites positions to match the given id order. Ids not
// listed keep their relative order after the listed ones.
func (db *DB) ReorderPresets(ids []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("presetstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	for i, id := range ids {
		if _, err := tx.Exec(`UPDATE presets SET position = ? WHERE id = ?`, i, id); err != nil {
			return fmt.Errorf("presetstore: reorder: %w", err)
		}
	}
	return tx.Commit()
}

// RecordApplication appends an audit entry for one preset application.
func (db *DB) RecordApplication(path, presetID, cs string) error {
	_, err := db.conn.Exec(`
		INSERT INTO applications (path, preset_id, checksum, applied_at)
		VALUES (?, ?, ?, ?)
	`, path, presetID, cs, time.Now())
	if err != nil {
		return fmt.Errorf("presetstore: record application: %w", err)
	}
	return nil
}

// ListApplications returns the most recent applications for a document
// path, newest first. An empty path returns entries for all documents.
func (db *DB) ListApplications(path string, limit int) ([]Application, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT path, preset_id, checksum, applied_at
		FROM applications
		WHERE (? = '' OR path = ?)
		ORDER BY applied_at DESC, id DESC
		LIMIT ?
	`, path, path, limit)
	if err != nil {
		return nil, fmt.Errorf("presetstore: list applications: %w", err)
	}
	defer rows.Close()

	var out []Application
	for rows.Next() {
		var a Application
		if err := rows.Scan(&a.Path, &a.PresetID, &a.Checksum, &a.AppliedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPreset(row rowScanner) (*preset.Preset, error) {
	var p preset.Preset
	var fieldsJSON string
	if err := row.Scan(&p.ID, &p.Name, &fieldsJSON); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(fieldsJSON), &p.Fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return &p, nil
}

func collectPresets(rows *sql.Rows) ([]*preset.Preset, error) {
	var out []*preset.Preset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, fmt.Errorf("presetstore: scan preset: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
