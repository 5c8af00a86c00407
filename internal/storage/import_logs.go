package storage

import (
	"context"
	"fmt"
	"time"
)

// ImportLog records one import operation's outcome.
type ImportLog struct {
	ID                int64     `json:"id"`
	UserID            int       `json:"user_id"`
	CreatedAt         time.Time `json:"created_at"`
	Source            string    `json:"source"`
	Status            string    `json:"status"`
	FilesProcessed    int       `json:"files_processed"`
	FilesSkipped      int       `json:"files_skipped"`
	WorkoutsProcessed int       `json:"workouts_processed"`
	RecordsDetected   int       `json:"records_detected"`
	DurationMs        *int      `json:"duration_ms"`
	ErrorMessage      *string   `json:"error_message"`
}

// InsertImportLog creates a new import log entry and returns its ID.
func (db *DB) InsertImportLog(ctx context.Context, log ImportLog) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO import_logs (user_id, source, status, files_processed, files_skipped,
		 workouts_processed, records_detected, duration_ms, error_message)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 RETURNING id`,
		log.UserID, log.Source, log.Status, log.FilesProcessed, log.FilesSkipped,
		log.WorkoutsProcessed, log.RecordsDetected, log.DurationMs, log.ErrorMessage,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting import log: %w", err)
	}
	return id, nil
}

// UpdateImportLog updates an entry, typically from "running" to "success"
// or "error".
func (db *DB) UpdateImportLog(ctx context.Context, id int64, log ImportLog) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE import_logs SET
		 status = $2, files_processed = $3, files_skipped = $4,
		 workouts_processed = $5, records_detected = $6, duration_ms = $7, error_message = $8
		 WHERE id = $1`,
		id, log.Status, log.FilesProcessed, log.FilesSkipped,
		log.WorkoutsProcessed, log.RecordsDetected, log.DurationMs, log.ErrorMessage)
	if err != nil {
		return fmt.Errorf("updating import log: %w", err)
	}
	return nil
}
