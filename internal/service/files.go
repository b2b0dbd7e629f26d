package service

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/sakif/smartsynth/internal/apperror"
	"github.com/sakif/smartsynth/internal/middleware"
	"github.com/sakif/smartsynth/internal/model"
	"github.com/sakif/smartsynth/internal/repository"
)

// FileService manages the artifacts a user owns: listing, download,
// deletion, and the statistics views. Every lookup is owner-scoped, so an
// artifact belonging to someone else behaves exactly like one that doesn't
// exist.
type FileService struct {
	files  repository.FileRepository
	stats  repository.StatsReader
	logger *slog.Logger
}

func NewFileService(files repository.FileRepository, stats repository.StatsReader, logger *slog.Logger) *FileService {
	return &FileService{files: files, stats: stats, logger: logger}
}

// List returns userID's artifacts, newest first.
func (s *FileService) List(ctx context.Context, userID string) ([]model.GeneratedFile, error) {
	return s.files.ListFilesByUser(ctx, userID)
}

// Download opens an artifact for streaming and returns its ledger record.
// The caller owns the ReadCloser.
//
// The download counter is incremented only after the backing file opens
// successfully. A missing file (NotFound) or a failed increment grants
// nothing and counts nothing, so the counter equals the number of downloads
// actually served.
func (s *FileService) Download(ctx context.Context, id, userID string) (io.ReadCloser, *model.GeneratedFile, error) {
	file, err := s.files.GetFileForUser(ctx, id, userID)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(file.FilePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Ledger row without a backing file: the record exists but the
			// artifact is gone, which to the caller is the same as not found.
			s.logger.Warn("artifact missing on disk",
				slog.String("file_id", id), slog.String("path", file.FilePath))
			return nil, nil, apperror.NotFound("file", id)
		}
		return nil, nil, err
	}

	if err := s.files.IncrementDownloadCount(ctx, id); err != nil {
		f.Close()
		return nil, nil, err
	}
	file.DownloadCount++

	middleware.DownloadsTotal.Inc()
	s.logger.Info("artifact downloaded",
		slog.String("user_id", userID), slog.String("file_id", id))
	return f, file, nil
}

// Delete removes an artifact: the backing file first (a file already gone
// from disk is fine; the ledger row is what the user sees), then the
// ledger row. The generation audit event is untouched; history outlives
// the artifact.
func (s *FileService) Delete(ctx context.Context, id, userID string) error {
	file, err := s.files.GetFileForUser(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := os.Remove(file.FilePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := s.files.DeleteFile(ctx, id); err != nil {
		return err
	}

	s.logger.Info("artifact deleted",
		slog.String("user_id", userID), slog.String("file_id", id))
	return nil
}

// Stats returns userID's aggregate statistics. Never fails: a degraded
// ledger produces a zeroed result with the Degraded flag set.
func (s *FileService) Stats(ctx context.Context, userID string) *model.Stats {
	return s.stats.Stats(ctx, userID)
}

// GlobalStats returns the unscoped platform-wide statistics.
func (s *FileService) GlobalStats(ctx context.Context) *model.Stats {
	return s.stats.Stats(ctx, "")
}
