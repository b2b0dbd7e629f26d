package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/smartsynth/internal/apperror"
	"github.com/sakif/smartsynth/internal/auth"
	"github.com/sakif/smartsynth/internal/model"
	"github.com/sakif/smartsynth/internal/service"
)

// GenerationHandler serves the domain catalog and the three generation
// endpoints. A successful generation responds with the artifact itself
// (attachment download); the ledger record ID travels in the X-File-ID
// header so clients can manage the file afterwards.
type GenerationHandler struct {
	generation *service.GenerationService
	logger     *slog.Logger
}

func NewGenerationHandler(generation *service.GenerationService, logger *slog.Logger) *GenerationHandler {
	return &GenerationHandler{generation: generation, logger: logger}
}

// Domains handles GET /api/v1/generate/domains.
func (h *GenerationHandler) Domains(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"domains": h.generation.Domains()})
}

// DescribeDomain handles GET /api/v1/generate/domains/{key}.
func (h *GenerationHandler) DescribeDomain(w http.ResponseWriter, r *http.Request) {
	info, err := h.generation.DescribeDomain(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Tabular handles POST /api/v1/generate/tabular.
func (h *GenerationHandler) Tabular(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("valid authentication required"))
		return
	}

	var params service.TabularParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, h.logger, err)
		return
	}

	file, err := h.generation.Tabular(r.Context(), userID, params)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.serveArtifact(w, r, file)
}

// Chat handles POST /api/v1/generate/chat.
func (h *GenerationHandler) Chat(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("valid authentication required"))
		return
	}

	var params service.ChatParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, h.logger, err)
		return
	}

	file, err := h.generation.Chat(r.Context(), userID, params)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.serveArtifact(w, r, file)
}

// Email handles POST /api/v1/generate/email.
func (h *GenerationHandler) Email(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("valid authentication required"))
		return
	}

	var params service.EmailParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, h.logger, err)
		return
	}

	file, err := h.generation.Email(r.Context(), userID, params)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.serveArtifact(w, r, file)
}

// serveArtifact streams the freshly written file back as the response.
// This is NOT a download in the counting sense; only the explicit
// /files/{id}/download endpoint increments the counter.
func (h *GenerationHandler) serveArtifact(w http.ResponseWriter, r *http.Request, file *model.GeneratedFile) {
	w.Header().Set("X-File-ID", file.ID)
	w.Header().Set("Content-Type", contentTypeFor(file.FileType))
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", file.DownloadName()))
	http.ServeFile(w, r, file.FilePath)
}

func contentTypeFor(fileType string) string {
	if fileType == model.EncodingCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/json"
}
