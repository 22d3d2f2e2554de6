package server

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"fixmyad/internal/util"
	"fixmyad/pkg/domain"
	"fixmyad/pkg/storage"
)

// Source URLs handed to the conversion service stay valid long enough for
// one conversion pass; previews get a longer window for playback.
const (
	sourceURLExpiry  = 15 * time.Minute
	previewURLExpiry = 24 * time.Hour
)

type convertResponse struct {
	AssetID    string  `json:"assetId"`
	Transcript string  `json:"transcript"`
	Duration   float64 `json:"duration"`
	GifURL     string  `json:"gifUrl,omitempty"`
	PreviewURL string  `json:"previewUrl,omitempty"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.objects == nil || s.convert == nil {
		writeError(w, http.StatusInternalServerError, "upload pipeline not configured")
		return
	}
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	if email == "" {
		writeError(w, http.StatusBadRequest, "Missing email")
		return
	}
	if !s.authorizeAccount(w, r, email) {
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required (field: file)")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := s.allowedExtensions[ext]; !ok {
		writeError(w, http.StatusBadRequest, "unsupported file type")
		return
	}
	kind := domain.MediaVideo
	if ext == ".gif" {
		kind = domain.MediaGIF
	}

	ctx := r.Context()
	logger := util.LoggerFromContext(ctx)
	assetID := uuid.NewString()
	key := storage.AssetKey(email, assetID, header.Filename)

	contentType := header.Header.Get("Content-Type")
	if err := s.objects.Put(ctx, key, file, header.Size, contentType); err != nil {
		logger.Error("asset upload failed", "error", err, "key", key)
		writeError(w, http.StatusInternalServerError, "could not store upload")
		return
	}
	sourceURL, err := s.objects.PresignGet(ctx, key, sourceURLExpiry)
	if err != nil {
		logger.Error("presign failed", "error", err, "key", key)
		writeError(w, http.StatusInternalServerError, "could not store upload")
		return
	}

	result, err := s.convert.Convert(ctx, sourceURL, header.Filename, string(kind))
	if err != nil {
		logger.Error("conversion failed", "error", err, "asset_id", assetID)
		writeError(w, http.StatusBadGateway, "conversion service unavailable")
		return
	}

	// Tier-based duration cap, enforced once the real duration is known.
	maxSeconds := s.freeMaxAdSeconds
	if s.app.IsPro(ctx, email) {
		maxSeconds = s.proMaxAdSeconds
	}
	if result.Duration > maxSeconds {
		if err := s.objects.Delete(ctx, key); err != nil {
			logger.Warn("orphaned upload cleanup failed", "error", err, "key", key)
		}
		writeError(w, http.StatusForbidden, fmt.Sprintf("Ad exceeds the %.0f second limit for your plan", maxSeconds))
		return
	}

	previewURL, err := s.objects.PresignGet(ctx, key, previewURLExpiry)
	if err != nil {
		logger.Warn("preview presign failed", "error", err, "key", key)
		previewURL = ""
	}

	asset := domain.Asset{
		ID:              assetID,
		UserEmail:       email,
		FileName:        header.Filename,
		ObjectKey:       key,
		Kind:            kind,
		DurationSeconds: result.Duration,
		Transcript:      result.Transcript,
		PreviewURL:      previewURL,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.store.SaveAsset(asset); err != nil {
		logger.Error("asset record failed", "error", err, "asset_id", assetID)
		writeError(w, http.StatusInternalServerError, "could not record upload")
		return
	}

	writeJSON(w, http.StatusOK, convertResponse{
		AssetID:    assetID,
		Transcript: result.Transcript,
		Duration:   result.Duration,
		GifURL:     result.GifURL,
		PreviewURL: previewURL,
	})
}
