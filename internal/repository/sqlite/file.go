package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/smartsynth/internal/apperror"
	"github.com/sakif/smartsynth/internal/model"
	"github.com/sakif/smartsynth/internal/repository"
)

// compile-time check that *DB implements repository.FileRepository
var _ repository.FileRepository = (*DB)(nil)

// CreateFile inserts the ledger record for a freshly written artifact.
// The download counter always starts at 0.
func (db *DB) CreateFile(ctx context.Context, file *model.GeneratedFile) error {
	file.ID = xid.New().String()
	file.DownloadCount = 0
	file.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO files (id, user_id, filename, file_path, file_type, data_type,
		                    model_type, num_samples, file_size, download_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		file.ID,
		file.UserID,
		file.Filename,
		file.FilePath,
		file.FileType,
		file.DataType,
		file.ModelType,
		file.NumSamples,
		file.FileSize,
		file.DownloadCount,
		file.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting file record %s: %w", file.Filename, err)
	}
	return nil
}

// GetFileForUser resolves an artifact scoped to its owner. The WHERE clause
// carries both the ID and the owner, so "exists but belongs to someone
// else" and "doesn't exist" are the same NotFound from the caller's side.
func (db *DB) GetFileForUser(ctx context.Context, id, userID string) (*model.GeneratedFile, error) {
	var f model.GeneratedFile

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, filename, file_path, file_type, data_type,
		        model_type, num_samples, file_size, download_count, created_at
		 FROM files WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(
		&f.ID,
		&f.UserID,
		&f.Filename,
		&f.FilePath,
		&f.FileType,
		&f.DataType,
		&f.ModelType,
		&f.NumSamples,
		&f.FileSize,
		&f.DownloadCount,
		&f.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("file", id)
		}
		return nil, fmt.Errorf("sqlite: getting file %s: %w", id, err)
	}
	return &f, nil
}

// ListFilesByUser returns all of one owner's artifacts, newest first.
func (db *DB) ListFilesByUser(ctx context.Context, userID string) ([]model.GeneratedFile, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, filename, file_path, file_type, data_type,
		        model_type, num_samples, file_size, download_count, created_at
		 FROM files WHERE user_id = ?
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing files for %s: %w", userID, err)
	}
	defer rows.Close()

	var files []model.GeneratedFile
	for rows.Next() {
		var f model.GeneratedFile
		if err := rows.Scan(
			&f.ID, &f.UserID, &f.Filename, &f.FilePath, &f.FileType, &f.DataType,
			&f.ModelType, &f.NumSamples, &f.FileSize, &f.DownloadCount, &f.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning file row: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating files: %w", err)
	}
	return files, nil
}

// IncrementDownloadCount adds exactly 1 to the counter in a single UPDATE.
// SQLite serializes the statement, so k concurrent downloads produce k
// increments regardless of interleaving; there is no read-modify-write
// window in Go code.
func (db *DB) IncrementDownloadCount(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE files SET download_count = download_count + 1 WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: incrementing download count for %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("file", id)
	}
	return nil
}

// DeleteFile removes the ledger record. The caller removes the backing file
// first; the record delete is the authoritative step.
func (db *DB) DeleteFile(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM files WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting file %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("file", id)
	}
	return nil
}
