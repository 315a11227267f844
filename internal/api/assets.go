package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/pinpoint/internal/apperr"
	"github.com/starford/pinpoint/internal/options"
	"github.com/starford/pinpoint/internal/storage"
)

// AssetHandler serves and accepts the background images of a presentation.
type AssetHandler struct {
	store storage.Provider
}

// NewAssetHandler creates a handler over the presentation directory.
func NewAssetHandler(store storage.Provider) *AssetHandler {
	return &AssetHandler{store: store}
}

// assetPath extracts the asset path from the URL (everything after /assets/).
func assetPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// List handles GET /assets.
//
//	@Summary		List image assets in the presentation directory
//	@Tags			assets
//	@Produce		json
//	@Success		200	{object}	AssetListResponse
//	@Security		BearerAuth
//	@Router			/assets [get]
func (h *AssetHandler) List(w http.ResponseWriter, _ *http.Request) {
	items, err := h.store.List("")
	if err != nil {
		writeError(w, "list assets", err)
		return
	}
	writeJSON(w, http.StatusOK, AssetListResponse{Assets: items})
}

// ServeFile handles GET /assets/*. Only image files are served.
//
//	@Summary		Download an image asset
//	@Tags			assets
//	@Produce		octet-stream
//	@Param			path	path	string	true	"Asset path"
//	@Success		200
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/assets/{path} [get]
func (h *AssetHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	rel := assetPath(r)
	if !options.IsImageFile(rel) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	abs, err := h.store.Resolve(rel)
	if err != nil {
		writeError(w, "serve asset", err)
		return
	}
	if info, statErr := os.Stat(abs); statErr != nil || info.IsDir() {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	http.ServeFile(w, r, abs)
}

// Upload handles POST /assets (multipart/form-data, field "file", optional field "dir").
//
//	@Summary		Upload an image asset
//	@Tags			assets
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Image file"
//	@Param			dir		formData	string	false	"Target directory"
//	@Success		201		{object}	AssetUploadResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/assets [post]
func (h *AssetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	name := path.Base(header.Filename)
	if name == "." || name == "/" || !options.IsImageFile(name) {
		writeJSON(w, http.StatusBadRequest, errorBody("only .png, .jpg, .jpeg and .gif files are accepted"))
		return
	}
	rel := path.Join(r.FormValue("dir"), name)

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read upload"))
		return
	}
	if err := h.store.Write(rel, data); err != nil {
		if errors.Is(err, apperr.ErrInvalidArgument) {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid asset path"))
			return
		}
		slog.Error("asset upload failed", slog.String("path", rel), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to store file"))
		return
	}

	writeJSON(w, http.StatusCreated, AssetUploadResponse{
		Path: rel,
		Size: int64(len(data)),
		URL:  "/assets/" + rel,
	})
}
