// This file implements the authenticated image upload endpoint. Requests
// carry a multipart form with a single "file" field; the handler validates
// the session, the content type, and the size before handing the bytes to
// the media service.
package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"appstarter/internal/auth"
	"appstarter/internal/config"
	"appstarter/internal/core"
	"appstarter/internal/types"
)

// maxUploadSize is the largest accepted image, inclusive.
const maxUploadSize = 10 << 20

// maxFormOverhead is headroom for multipart framing on top of the file
// itself, so a file exactly at the limit still parses.
const maxFormOverhead = 1 << 20

// uploadFolder is where the media service stores ping-demo uploads.
const uploadFolder = "uploads"

// UploadResponse is the success body for an image upload.
type UploadResponse struct {
	URL string `json:"url"`
}

// UploadHandler serves POST /api/upload.
type UploadHandler struct {
	cfg      *config.Config
	auth     auth.Authenticator
	services Services
	logger   *slog.Logger
}

// NewUploadHandler creates the upload handler.
func NewUploadHandler(cfg *config.Config, authenticator auth.Authenticator, services Services, logger *slog.Logger) *UploadHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadHandler{cfg: cfg, auth: authenticator, services: services, logger: logger}
}

// RegisterRoutes mounts the upload endpoint.
func (h *UploadHandler) RegisterRoutes(r chi.Router) {
	r.Post("/upload", h.Handle)
}

// Handle validates the session and the uploaded file, then stores it and
// returns its public URL. Validation order: auth configured, session valid,
// media configured, file present, content type, size.
func (h *UploadHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.HasAuth() {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeDependencyUnconfigured,
			"authentication is not configured",
			nil,
		))
		return
	}

	externalID, err := h.auth.Authenticate(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	if !h.cfg.HasMedia() {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeDependencyUnconfigured,
			"media storage is not configured",
			nil,
		))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+maxFormOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationMissingFile, "no file provided", err))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationFileType, "file must be an image", nil))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		core.Error(w, r, types.NewAppError(types.ErrCodeUploadFailed, "failed to read uploaded file", err))
		return
	}
	if len(data) > maxUploadSize {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationFileTooLarge, "file must be 10MB or less", nil))
		return
	}

	svc, err := h.services.MediaService()
	if err != nil {
		core.Error(w, r, err)
		return
	}

	result, err := svc.UploadImage(r.Context(), data, uploadFolder)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "upload failed",
			"external_id", externalID,
			"error", err,
		)
		core.Error(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "file uploaded",
		"external_id", externalID,
		"public_id", result.PublicID,
		"size", len(data),
	)
	core.JSON(w, r, http.StatusOK, UploadResponse{URL: result.URL})
}
