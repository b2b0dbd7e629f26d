package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/smartsynth/internal/apperror"
	"github.com/sakif/smartsynth/internal/model"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, email, username string) *model.User {
	t.Helper()
	user := &model.User{Email: email, Username: username, PasswordHash: "hash"}
	require.NoError(t, db.CreateUser(context.Background(), user))
	return user
}

func TestCreateAndGetUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, "ada@example.com", "ada")
	assert.NotEmpty(t, user.ID)
	assert.True(t, user.IsActive)

	byEmail, err := db.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "ada", byEmail.Username)

	byID, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", byID.Email)

	_, err = db.GetUserByEmail(ctx, "nobody@example.com")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestCreateUserConflicts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	createTestUser(t, db, "ada@example.com", "ada")

	err := db.CreateUser(ctx, &model.User{Email: "ada@example.com", Username: "other"})
	assert.True(t, errors.Is(err, apperror.ErrConflict), "duplicate email")

	err = db.CreateUser(ctx, &model.User{Email: "other@example.com", Username: "ada"})
	assert.True(t, errors.Is(err, apperror.ErrConflict), "duplicate username")
}

func TestUpsertGitHubUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := &model.User{Email: "gh@example.com", Username: "octo", GitHubID: 12345, AvatarURL: "http://a/1.png"}
	require.NoError(t, db.UpsertGitHubUser(ctx, first))
	assert.NotEmpty(t, first.ID)

	// Same GitHub account again: profile refreshes, internal ID is stable.
	second := &model.User{Email: "gh@example.com", Username: "octocat", GitHubID: 12345, AvatarURL: "http://a/2.png"}
	require.NoError(t, db.UpsertGitHubUser(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	stored, err := db.GetUserByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "octocat", stored.Username)
	assert.Equal(t, "http://a/2.png", stored.AvatarURL)
}

func createTestFile(t *testing.T, db *DB, userID, dataType, fileType string) *model.GeneratedFile {
	t.Helper()
	file := &model.GeneratedFile{
		UserID:     userID,
		Filename:   "tabular_ecommerce_5samples_x",
		FilePath:   "/tmp/nowhere",
		FileType:   fileType,
		DataType:   dataType,
		ModelType:  "placeholder",
		NumSamples: 5,
		FileSize:   128,
	}
	require.NoError(t, db.CreateFile(context.Background(), file))
	return file
}

func TestFileOwnershipScoping(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice@example.com", "alice")
	bob := createTestUser(t, db, "bob@example.com", "bob")
	file := createTestFile(t, db, alice.ID, model.DataTypeTabular, model.EncodingJSON)

	got, err := db.GetFileForUser(ctx, file.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, file.ID, got.ID)
	assert.Equal(t, int64(0), got.DownloadCount)

	// Someone else's artifact is indistinguishable from a missing one.
	_, err = db.GetFileForUser(ctx, file.ID, bob.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	_, err = db.GetFileForUser(ctx, "no-such-id", alice.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestListFilesByUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice@example.com", "alice")
	bob := createTestUser(t, db, "bob@example.com", "bob")
	createTestFile(t, db, alice.ID, model.DataTypeTabular, model.EncodingJSON)
	createTestFile(t, db, alice.ID, model.DataTypeChat, model.EncodingCSV)
	createTestFile(t, db, bob.ID, model.DataTypeEmail, model.EncodingJSON)

	files, err := db.ListFilesByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, files, 2)
	for _, f := range files {
		assert.Equal(t, alice.ID, f.UserID)
	}

	empty, err := db.ListFilesByUser(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestIncrementDownloadCount(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice@example.com", "alice")
	file := createTestFile(t, db, alice.ID, model.DataTypeTabular, model.EncodingJSON)

	require.NoError(t, db.IncrementDownloadCount(ctx, file.ID))
	require.NoError(t, db.IncrementDownloadCount(ctx, file.ID))

	got, err := db.GetFileForUser(ctx, file.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.DownloadCount)

	err = db.IncrementDownloadCount(ctx, "no-such-id")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestIncrementDownloadCountConcurrent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice@example.com", "alice")
	file := createTestFile(t, db, alice.ID, model.DataTypeTabular, model.EncodingJSON)

	// Simultaneous downloads of the same artifact must all succeed and each
	// contribute exactly one increment; writers queue on the busy timeout
	// rather than failing with SQLITE_BUSY.
	const downloads = 50
	errs := make(chan error, downloads)
	var wg sync.WaitGroup
	for i := 0; i < downloads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- db.IncrementDownloadCount(ctx, file.ID)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := db.GetFileForUser(ctx, file.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(downloads), got.DownloadCount)
}

func TestDeleteFile(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice@example.com", "alice")
	file := createTestFile(t, db, alice.ID, model.DataTypeTabular, model.EncodingJSON)

	require.NoError(t, db.DeleteFile(ctx, file.ID))
	_, err := db.GetFileForUser(ctx, file.ID, alice.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	err = db.DeleteFile(ctx, file.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestCreateEventDefaultsStatus(t *testing.T) {
	db := newTestDB(t)

	event := &model.GenerationEvent{
		UserID:         "u1",
		GenerationType: model.DataTypeChat,
		Domain:         "customer_support",
		NumSamples:     3,
	}
	require.NoError(t, db.CreateEvent(context.Background(), event))
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, model.StatusCompleted, event.Status)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestStatsScopedAndGlobal(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice@example.com", "alice")
	bob := createTestUser(t, db, "bob@example.com", "bob")

	f1 := createTestFile(t, db, alice.ID, model.DataTypeTabular, model.EncodingJSON)
	createTestFile(t, db, alice.ID, model.DataTypeChat, model.EncodingCSV)
	createTestFile(t, db, bob.ID, model.DataTypeTabular, model.EncodingJSON)

	require.NoError(t, db.IncrementDownloadCount(ctx, f1.ID))
	require.NoError(t, db.IncrementDownloadCount(ctx, f1.ID))

	require.NoError(t, db.CreateEvent(ctx, &model.GenerationEvent{UserID: alice.ID, GenerationType: model.DataTypeTabular, NumSamples: 5}))
	require.NoError(t, db.CreateEvent(ctx, &model.GenerationEvent{UserID: alice.ID, GenerationType: model.DataTypeChat, NumSamples: 3}))
	require.NoError(t, db.CreateEvent(ctx, &model.GenerationEvent{UserID: bob.ID, GenerationType: model.DataTypeTabular, NumSamples: 1}))

	scoped := db.Stats(ctx, alice.ID)
	assert.False(t, scoped.Degraded)
	assert.Equal(t, int64(2), scoped.TotalFiles)
	assert.Equal(t, int64(2), scoped.TotalDownloads)
	assert.Equal(t, int64(2), scoped.TotalGenerations)
	assert.Equal(t, map[string]int{model.DataTypeTabular: 1, model.DataTypeChat: 1}, scoped.DataTypeDistribution)
	assert.Equal(t, map[string]int{model.EncodingJSON: 1, model.EncodingCSV: 1}, scoped.FileTypeDistribution)

	global := db.Stats(ctx, "")
	assert.Equal(t, int64(3), global.TotalFiles)
	assert.Equal(t, int64(3), global.TotalGenerations)
	assert.Equal(t, 2, global.DataTypeDistribution[model.DataTypeTabular])
}

func TestStatsDegradesInsteadOfFailing(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Simulate a broken ledger: drop the files table out from under the
	// reader. Stats must still return a well-formed, zeroed result.
	_, err := db.conn.Exec(`DROP TABLE files`)
	require.NoError(t, err)

	stats := db.Stats(ctx, "anyone")
	require.NotNil(t, stats)
	assert.True(t, stats.Degraded)
	assert.Equal(t, int64(0), stats.TotalFiles)
	assert.Equal(t, int64(0), stats.TotalDownloads)
	assert.NotNil(t, stats.DataTypeDistribution)
	assert.NotNil(t, stats.FileTypeDistribution)
}
