package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/smartsynth/internal/auth"
	"github.com/sakif/smartsynth/internal/handler"
	"github.com/sakif/smartsynth/internal/model"
	"github.com/sakif/smartsynth/internal/repository/sqlite"
	"github.com/sakif/smartsynth/internal/service"
	"github.com/sakif/smartsynth/internal/storage"
	"github.com/sakif/smartsynth/internal/synth"
)

// newTestRouter wires the full stack against a throwaway database and data
// directory, exactly as main does minus GitHub OAuth.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))

	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret-key-at-least-32-bytes!!", time.Hour)
	require.NoError(t, err)

	writer := storage.NewWriter(t.TempDir())
	authSvc := service.NewAuthService(db, auth.NewPasswordServiceForTest(4), tokens, logger)
	generationSvc := service.NewGenerationService(
		synth.NewTabularGeneratorWithSeed(1000, 1),
		synth.NewChatGenerator(1000),
		writer, db, db, logger)
	fileSvc := service.NewFileService(db, db, logger)

	return NewRouter(Deps{
		Auth:       handler.NewAuthHandler(authSvc, nil, time.Hour, logger),
		Generation: handler.NewGenerationHandler(generationSvc, logger),
		Files:      handler.NewFileHandler(fileSvc, logger),
		Tokens:     tokens,
		Logger:     logger,
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func signupUser(t *testing.T, router http.Handler, email, username string) string {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email":    email,
		"username": username,
		"password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotEmpty(t, result.Token)
	return result.Token
}

func TestHealthAndPublicRoutes(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/generate/domains", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var domains struct {
		Domains map[string][]string `json:"domains"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &domains))
	assert.Contains(t, domains.Domains["tabular"], "medical")

	rec = doJSON(t, router, http.MethodGet, "/api/v1/generate/domains/finance", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/generate/domains/astrology", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/stats/global", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t)

	paths := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/v1/generate/tabular"},
		{http.MethodGet, "/api/v1/files/"},
		{http.MethodGet, "/api/v1/stats"},
		{http.MethodGet, "/api/v1/auth/me"},
	}
	for _, p := range paths {
		rec := doJSON(t, router, p.method, p.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", p.method, p.path)
	}
}

func TestGenerateDownloadDeleteLifecycle(t *testing.T) {
	router := newTestRouter(t)
	token := signupUser(t, router, "ada@example.com", "ada")

	// Generate: the response IS the artifact, with the ledger ID in a
	// header.
	rec := doJSON(t, router, http.MethodPost, "/api/v1/generate/tabular", token, map[string]any{
		"domain":      "ecommerce",
		"num_samples": 3,
		"format":      "json",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	fileID := rec.Header().Get("X-File-ID")
	require.NotEmpty(t, fileID)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	var batch struct {
		Meta struct {
			Domain       string `json:"domain"`
			DomainSource string `json:"domainSource"`
		} `json:"meta"`
		Records []map[string]any `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batch))
	assert.Len(t, batch.Records, 3)
	assert.Equal(t, "ecommerce", batch.Meta.Domain)
	assert.Equal(t, "known", batch.Meta.DomainSource)

	// The file shows up in the owner's list with a zero download count.
	rec = doJSON(t, router, http.MethodGet, "/api/v1/files/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Files []model.GeneratedFile `json:"files"`
		Count int                   `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, fileID, list.Files[0].ID)
	assert.Equal(t, int64(0), list.Files[0].DownloadCount)

	// Download twice; the counter follows.
	for i := 0; i < 2; i++ {
		rec = doJSON(t, router, http.MethodGet, "/api/v1/files/"+fileID+"/download", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/v1/stats", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats model.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(2), stats.TotalDownloads)
	assert.Equal(t, int64(1), stats.TotalFiles)
	assert.Equal(t, int64(1), stats.TotalGenerations)
	assert.False(t, stats.Degraded)

	// Delete, then everything about the artifact 404s, but generation
	// history remains.
	rec = doJSON(t, router, http.MethodDelete, "/api/v1/files/"+fileID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/files/"+fileID+"/download", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/stats", token, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(0), stats.TotalFiles)
	assert.Equal(t, int64(1), stats.TotalGenerations, "audit events outlive the artifact")
}

func TestArtifactsAreIsolatedBetweenUsers(t *testing.T) {
	router := newTestRouter(t)
	adaToken := signupUser(t, router, "ada@example.com", "ada")
	bobToken := signupUser(t, router, "bob@example.com", "bob")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/generate/email", adaToken, map[string]any{
		"domain":      "spam_detection",
		"num_samples": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	fileID := rec.Header().Get("X-File-ID")
	require.NotEmpty(t, fileID)

	// Bob can neither see, download, nor delete Ada's artifact, and the
	// response never admits it exists.
	rec = doJSON(t, router, http.MethodGet, "/api/v1/files/", bobToken, nil)
	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 0, list.Count)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/files/"+fileID+"/download", bobToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/v1/files/"+fileID, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Ada still has it.
	rec = doJSON(t, router, http.MethodGet, "/api/v1/files/"+fileID+"/download", adaToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestValidationErrorsMapToBadRequest(t *testing.T) {
	router := newTestRouter(t)
	token := signupUser(t, router, "ada@example.com", "ada")

	tests := []struct {
		name string
		body map[string]any
	}{
		{"zero samples", map[string]any{"domain": "ecommerce", "num_samples": 0}},
		{"over ceiling", map[string]any{"domain": "ecommerce", "num_samples": 1001}},
		{"missing domain", map[string]any{"num_samples": 5}},
		{"bad format", map[string]any{"domain": "ecommerce", "num_samples": 5, "format": "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/v1/generate/tabular", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var body struct {
				Error string `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "validation", body.Error)
		})
	}
}

func TestMeAndLogout(t *testing.T) {
	router := newTestRouter(t)
	token := signupUser(t, router, "ada@example.com", "ada")

	rec := doJSON(t, router, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var user model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "ada", user.Username)

	// The password hash never serializes.
	assert.NotContains(t, rec.Body.String(), "password")

	rec = doJSON(t, router, http.MethodPost, "/api/v1/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDuplicateSignupConflicts(t *testing.T) {
	router := newTestRouter(t)
	signupUser(t, router, "ada@example.com", "ada")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email":    "ada@example.com",
		"username": "ada2",
		"password": "hunter2hunter2",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}
