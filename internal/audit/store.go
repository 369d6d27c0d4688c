// Package audit records the outcome of each handled submission. The trail is
// optional supporting infrastructure: a write failure is logged and never
// affects the caller-visible result.
package audit

import (
	"context"
	"database/sql"
	"time"

	"lead-intake/internal/common/logger"

	"github.com/google/uuid"
)

type Store struct {
	db     *sql.DB
	logger logger.Logger
}

type Record struct {
	ID             string
	Email          string
	ContactID      string
	Outcome        string // created | updated | failed
	PhotosReceived int
	PhotosUploaded int
	NoteID         string
	ReceivedAt     time.Time
}

const insertQuery = `
	INSERT INTO lead_intake_audit
		(id, email, contact_id, outcome, photos_received, photos_uploaded, note_id, received_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func NewStore(db *sql.DB, log logger.Logger) *Store {
	return &Store{db: db, logger: log}
}

// Record inserts one audit row. The ID is generated when empty.
func (s *Store) Record(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, insertQuery,
		rec.ID, rec.Email, rec.ContactID, rec.Outcome,
		rec.PhotosReceived, rec.PhotosUploaded, rec.NoteID, rec.ReceivedAt,
	)
	if err != nil {
		s.logger.Error("Failed to write intake audit record", map[string]interface{}{
			"auditId": rec.ID,
			"outcome": rec.Outcome,
			"error":   err.Error(),
		})
		return err
	}
	return nil
}
