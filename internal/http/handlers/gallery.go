package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tryon/internal/store"
)

// GallerySave handles POST /api/gallery: copies a generated output into the
// database-backed gallery by its storage key.
func (a *App) GallerySave(w http.ResponseWriter, r *http.Request) {
	if a.History == nil {
		a.error(w, http.StatusNotFound, "not_found", "gallery is not enabled")
		return
	}
	var body struct {
		OutputKey string `json:"output_key"`
	}
	if err := decodeJSON(r, &body); err != nil || body.OutputKey == "" {
		a.error(w, http.StatusBadRequest, "invalid_request", "output_key is required")
		return
	}
	data, err := a.Files.Read(r.Context(), body.OutputKey)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "no such output")
		return
	}
	img, err := a.History.SaveGalleryImage(r.Context(), data)
	if err != nil {
		a.Logger.Error().Err(err).Str("key", body.OutputKey).Msg("save gallery image")
		a.error(w, http.StatusInternalServerError, "internal_error", "cannot save image")
		return
	}
	a.json(w, http.StatusCreated, img)
}

// GalleryList handles GET /api/gallery.
func (a *App) GalleryList(w http.ResponseWriter, r *http.Request) {
	if a.History == nil {
		a.error(w, http.StatusNotFound, "not_found", "gallery is not enabled")
		return
	}
	images, err := a.History.ListGalleryImages(r.Context(), 0)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list gallery")
		a.error(w, http.StatusInternalServerError, "internal_error", "cannot list gallery")
		return
	}
	if images == nil {
		images = []store.GalleryImage{}
	}
	a.json(w, http.StatusOK, map[string]any{"images": images})
}

// GalleryImage handles GET /api/gallery/{id}: streams the stored bytes.
func (a *App) GalleryImage(w http.ResponseWriter, r *http.Request) {
	if a.History == nil {
		a.error(w, http.StatusNotFound, "not_found", "gallery is not enabled")
		return
	}
	id, ok := a.galleryID(w, r)
	if !ok {
		return
	}
	data, err := a.History.GetGalleryImage(r.Context(), id)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "no such image")
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// GalleryDelete handles DELETE /api/gallery/{id}.
func (a *App) GalleryDelete(w http.ResponseWriter, r *http.Request) {
	if a.History == nil {
		a.error(w, http.StatusNotFound, "not_found", "gallery is not enabled")
		return
	}
	id, ok := a.galleryID(w, r)
	if !ok {
		return
	}
	if err := a.History.DeleteGalleryImage(r.Context(), id); err != nil {
		a.error(w, http.StatusNotFound, "not_found", "no such image")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) galleryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		a.error(w, http.StatusBadRequest, "invalid_request", "id must be a positive integer")
		return 0, false
	}
	return id, true
}
