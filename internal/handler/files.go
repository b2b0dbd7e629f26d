package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/smartsynth/internal/apperror"
	"github.com/sakif/smartsynth/internal/auth"
	"github.com/sakif/smartsynth/internal/service"
)

// FileHandler serves the artifact management endpoints: list, download,
// delete, and the two statistics views.
type FileHandler struct {
	files  *service.FileService
	logger *slog.Logger
}

func NewFileHandler(files *service.FileService, logger *slog.Logger) *FileHandler {
	return &FileHandler{files: files, logger: logger}
}

// List handles GET /api/v1/files.
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("valid authentication required"))
		return
	}

	files, err := h.files.List(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"files": files,
		"count": len(files),
	})
}

// Download handles GET /api/v1/files/{id}/download. Headers go out before
// the body copy starts; a copy failure mid-stream can only be logged.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("valid authentication required"))
		return
	}
	id := chi.URLParam(r, "id")

	rc, file, err := h.files.Download(r.Context(), id, userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentTypeFor(file.FileType))
	w.Header().Set("Content-Length", strconv.FormatInt(file.FileSize, 10))
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", file.DownloadName()))

	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("download stream interrupted",
			slog.String("file_id", id), slog.String("error", err.Error()))
	}
}

// Delete handles DELETE /api/v1/files/{id}.
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("valid authentication required"))
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.files.Delete(r.Context(), id, userID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "file deleted successfully"})
}

// Stats handles GET /api/v1/stats: the caller's own aggregates.
func (h *FileHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("valid authentication required"))
		return
	}
	writeJSON(w, http.StatusOK, h.files.Stats(r.Context(), userID))
}

// GlobalStats handles GET /api/v1/stats/global: platform-wide aggregates.
func (h *FileHandler) GlobalStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.files.GlobalStats(r.Context()))
}
