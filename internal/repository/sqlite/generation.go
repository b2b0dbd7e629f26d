package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/smartsynth/internal/model"
	"github.com/sakif/smartsynth/internal/repository"
)

// compile-time checks
var (
	_ repository.GenerationRepository = (*DB)(nil)
	_ repository.StatsReader          = (*DB)(nil)
)

// CreateEvent appends one generation event to the audit log. There are no
// UPDATE or per-row DELETE statements for this table anywhere in the
// codebase, so the log is append-only by construction.
func (db *DB) CreateEvent(ctx context.Context, event *model.GenerationEvent) error {
	event.ID = xid.New().String()
	if event.Status == "" {
		event.Status = model.StatusCompleted
	}
	event.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO generations (id, user_id, generation_type, domain, topic, num_samples, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.UserID,
		event.GenerationType,
		event.Domain,
		event.Topic,
		event.NumSamples,
		event.Status,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting generation event: %w", err)
	}
	return nil
}

// Stats aggregates downloads, generation counts, and category/encoding
// distributions. userID "" produces the global, unscoped view.
//
// BEST-EFFORT BY CONTRACT:
// Statistics are reporting, not bookkeeping. If scanning either table
// fails, that table contributes zeros (an "empty sequence") and the result
// is still well-formed; the method never surfaces a storage error. The
// Degraded flag records that a substitution happened so the degradation is
// observable instead of silently swallowed.
func (db *DB) Stats(ctx context.Context, userID string) *model.Stats {
	stats := &model.Stats{
		DataTypeDistribution: map[string]int{},
		FileTypeDistribution: map[string]int{},
	}

	if err := db.scanFileStats(ctx, userID, stats); err != nil {
		stats.TotalDownloads = 0
		stats.TotalFiles = 0
		stats.DataTypeDistribution = map[string]int{}
		stats.FileTypeDistribution = map[string]int{}
		stats.Degraded = true
	}
	if err := db.scanGenerationStats(ctx, userID, stats); err != nil {
		stats.TotalGenerations = 0
		stats.Degraded = true
	}
	return stats
}

func (db *DB) scanFileStats(ctx context.Context, userID string, stats *model.Stats) error {
	query := `SELECT download_count, data_type, file_type FROM files`
	args := []any{}
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			downloads          int64
			dataType, fileType string
		)
		if err := rows.Scan(&downloads, &dataType, &fileType); err != nil {
			return err
		}
		stats.TotalFiles++
		stats.TotalDownloads += downloads
		stats.DataTypeDistribution[dataType]++
		stats.FileTypeDistribution[fileType]++
	}
	return rows.Err()
}

func (db *DB) scanGenerationStats(ctx context.Context, userID string, stats *model.Stats) error {
	query := `SELECT COUNT(*) FROM generations`
	args := []any{}
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	return db.conn.QueryRowContext(ctx, query, args...).Scan(&stats.TotalGenerations)
}
