package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/taan/internal/models"
	"github.com/desertthunder/taan/internal/shared"
)

// SessionRecord is one row of the session history.
type SessionRecord struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Source      string    `json:"source"` // cache or login
	ConnectedAt time.Time `json:"connected_at"`
}

// SessionRepository records each successful session bring-up.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Record stores s under its connection ID, generating one when the session has none.
func (r *SessionRepository) Record(s models.Session, source string) (*SessionRecord, error) {
	rec := &SessionRecord{
		ID:          s.ConnectionID,
		Username:    s.Username,
		Source:      source,
		ConnectedAt: s.ConnectedAt.UTC(),
	}
	if rec.ID == "" {
		rec.ID = shared.GenerateID()
	}
	if rec.ConnectedAt.IsZero() {
		rec.ConnectedAt = time.Now().UTC()
	}
	if rec.Username == "" {
		return nil, fmt.Errorf("validation failed: %w: username is required", shared.ErrInvalidInput)
	}

	_, err := r.db.Exec(`INSERT INTO sessions (id, username, source, connected_at) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.Username, rec.Source, rec.ConnectedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}
	return rec, nil
}

// List returns the most recent sessions first. A limit of zero returns all of them.
func (r *SessionRepository) List(limit int) ([]SessionRecord, error) {
	query := `SELECT id, username, source, connected_at FROM sessions ORDER BY connected_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		if err := rows.Scan(&rec.ID, &rec.Username, &rec.Source, &rec.ConnectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return records, nil
}
