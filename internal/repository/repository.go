// Package repository defines the storage interfaces the service layer
// programs against. The sqlite subpackage is the concrete implementation;
// tests substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/smartsynth/internal/model"
)

type UserRepository interface {
	// CreateUser inserts a new user. Fails with a conflict error when the
	// email or username is already taken (each is globally unique).
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// UpsertGitHubUser inserts or refreshes a user authenticated via
	// GitHub, keyed on their GitHub account ID.
	UpsertGitHubUser(ctx context.Context, user *model.User) error
}

type FileRepository interface {
	CreateFile(ctx context.Context, file *model.GeneratedFile) error
	// GetFileForUser resolves an artifact scoped to its owner. A record
	// that exists but belongs to someone else is indistinguishable from one
	// that doesn't exist: both are NotFound. This prevents existence
	// leakage across owners.
	GetFileForUser(ctx context.Context, id, userID string) (*model.GeneratedFile, error)
	ListFilesByUser(ctx context.Context, userID string) ([]model.GeneratedFile, error)
	// IncrementDownloadCount adds exactly 1 to the counter as a single
	// store-side update, never a read-modify-write in caller memory.
	IncrementDownloadCount(ctx context.Context, id string) error
	DeleteFile(ctx context.Context, id string) error
}

type GenerationRepository interface {
	// CreateEvent appends one event to the audit log. Events are never
	// updated or deleted.
	CreateEvent(ctx context.Context, event *model.GenerationEvent) error
}

// StatsReader computes aggregate statistics. There is deliberately no error
// return: statistics are non-critical telemetry, so a failed scan of either
// underlying table degrades to a zeroed, well-formed result with
// Stats.Degraded set, instead of failing the caller. userID "" is the
// global, unscoped view.
type StatsReader interface {
	Stats(ctx context.Context, userID string) *model.Stats
}
