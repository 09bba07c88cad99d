package handlers

import (
	"context"
	"net/http"

	"car-journal-backend/internal/apperr"
	"car-journal-backend/internal/middleware"
	"car-journal-backend/internal/models"
	"car-journal-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

const multipartMemory = 8 << 20

// ImageAPI is the image subsystem as seen by HTTP clients
type ImageAPI interface {
	Upload(ctx context.Context, userID, entityID string, et models.EntityType, file services.FileUpload) (*models.Image, error)
	Delete(ctx context.Context, userID, entityID string, et models.EntityType, publicID string) (*models.Image, error)
	Select(ctx context.Context, userID, entityID string, et models.EntityType, publicID string) (*models.Image, error)
	RemoveAllForUser(ctx context.Context, userID, imageID string, et models.EntityType, entityID string) (*services.CascadeOutcome, error)
	Get(ctx context.Context, userID, entityID string, et models.EntityType) (*models.Image, error)
}

// ImageHandler handles image-related HTTP requests
type ImageHandler struct {
	imageService ImageAPI
	maxBody      int64
}

// NewImageHandler creates a new image handler; maxBody caps the upload request size
func NewImageHandler(imageService ImageAPI, maxBody int64) *ImageHandler {
	return &ImageHandler{imageService: imageService, maxBody: maxBody}
}

// Routes mounts the handler under /image
func (h *ImageHandler) Routes(r chi.Router) {
	r.Route("/image", func(r chi.Router) {
		r.Get("/get/{entityId}", h.Get)
		r.Post("/upload/{entityId}", h.Upload)
		r.Delete("/delete/{entityId}", h.Delete)
		r.Patch("/select/{entityId}", h.Select)
		r.Delete("/delete-all/{imageId}", h.DeleteAll)
	})
}

func entityTypeQuery(r *http.Request) (models.EntityType, error) {
	raw := r.URL.Query().Get("entityType")
	et, ok := models.ParseEntityType(raw)
	if !ok {
		return "", apperr.BadRequest("unknown entity type %q", raw)
	}
	return et, nil
}

func (h *ImageHandler) target(r *http.Request) (string, models.EntityType, error) {
	entityID, err := uuidParam(r, "entityId")
	if err != nil {
		return "", "", err
	}
	et, err := entityTypeQuery(r)
	if err != nil {
		return "", "", err
	}
	return entityID, et, nil
}

// Get handles GET /v1/image/get/{entityId}?entityType=
func (h *ImageHandler) Get(w http.ResponseWriter, r *http.Request) {
	entityID, et, err := h.target(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	img, err := h.imageService.Get(r.Context(), middleware.GetUserID(r.Context()), entityID, et)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "", img)
}

// Upload handles POST /v1/image/upload/{entityId}?entityType=
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	entityID, et, err := h.target(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody+multipartMemory)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		respondError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	img, err := h.imageService.Upload(r.Context(), middleware.GetUserID(r.Context()), entityID, et, services.FileUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, "image uploaded", img)
}

// Delete handles DELETE /v1/image/delete/{entityId}?entityType=&publicId=
func (h *ImageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	entityID, et, err := h.target(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	img, err := h.imageService.Delete(r.Context(), middleware.GetUserID(r.Context()), entityID, et, r.URL.Query().Get("publicId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if img == nil {
		respondOK(w, http.StatusOK, "last image deleted", nil)
		return
	}
	respondOK(w, http.StatusOK, "image deleted", img)
}

// Select handles PATCH /v1/image/select/{entityId}?entityType=&publicId=
func (h *ImageHandler) Select(w http.ResponseWriter, r *http.Request) {
	entityID, et, err := h.target(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	img, err := h.imageService.Select(r.Context(), middleware.GetUserID(r.Context()), entityID, et, r.URL.Query().Get("publicId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "image selected", img)
}

// DeleteAll handles DELETE /v1/image/delete-all/{imageId}?entityType=&entityId=
func (h *ImageHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	imageID, err := uuidParam(r, "imageId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	et, err := entityTypeQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entityID, err := uuidQuery(r, "entityId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	outcome, err := h.imageService.RemoveAllForUser(r.Context(), middleware.GetUserID(r.Context()), imageID, et, entityID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "images deleted", outcome)
}
