package handlers

import (
	"context"
	"net/http"

	"car-journal-backend/internal/middleware"
	"car-journal-backend/internal/models"

	"github.com/go-chi/chi/v5"
)

// ResourceAPI is the service behind one kind of car-owned record
type ResourceAPI[T any] interface {
	Kind() models.ResourceKind
	Create(ctx context.Context, userID, carID string, input T) (*models.Resource[T], error)
	Update(ctx context.Context, userID, carID, id string, patch []byte) (*models.Resource[T], error)
	Delete(ctx context.Context, userID, carID, id string) (*models.Resource[T], error)
	GetByID(ctx context.Context, userID, carID, id string) (*models.Resource[T], error)
	List(ctx context.Context, userID, carID string, page, limit int) ([]*models.Resource[T], error)
	BindContact(ctx context.Context, userID, carID, id, contactID string) (*models.Resource[T], error)
}

// ResourceHandler serves the six endpoints shared by every record kind
type ResourceHandler[T any] struct {
	service ResourceAPI[T]
}

// NewResourceHandler creates a handler for one record kind
func NewResourceHandler[T any](service ResourceAPI[T]) *ResourceHandler[T] {
	return &ResourceHandler[T]{service: service}
}

// Routes mounts the handler under /<kind>
func (h *ResourceHandler[T]) Routes(r chi.Router) {
	r.Route("/"+h.service.Kind().Name, func(r chi.Router) {
		r.Post("/add/{carId}", h.Create)
		r.Patch("/update/{carId}/{resourceId}", h.Update)
		r.Delete("/delete/{carId}/{resourceId}", h.Delete)
		r.Get("/get-by-id/{carId}/{resourceId}", h.GetByID)
		r.Get("/get-all/{carId}", h.List)
		r.Get("/bind-contact/{carId}/{resourceId}", h.BindContact)
	})
}

func (h *ResourceHandler[T]) ids(r *http.Request, withResource bool) (carID, resourceID string, err error) {
	carID, err = uuidParam(r, "carId")
	if err != nil || !withResource {
		return carID, "", err
	}
	resourceID, err = uuidParam(r, "resourceId")
	return carID, resourceID, err
}

// Create handles POST /v1/<kind>/add/{carId}
func (h *ResourceHandler[T]) Create(w http.ResponseWriter, r *http.Request) {
	carID, _, err := h.ids(r, false)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var input T
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), carID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, h.service.Kind().Name+" created", res)
}

// Update handles PATCH /v1/<kind>/update/{carId}/{resourceId}
func (h *ResourceHandler[T]) Update(w http.ResponseWriter, r *http.Request) {
	carID, id, err := h.ids(r, true)
	if err != nil {
		writeError(w, r, err)
		return
	}

	patch, err := readPatch(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.service.Update(r.Context(), middleware.GetUserID(r.Context()), carID, id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, h.service.Kind().Name+" updated", res)
}

// Delete handles DELETE /v1/<kind>/delete/{carId}/{resourceId}
func (h *ResourceHandler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	carID, id, err := h.ids(r, true)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.service.Delete(r.Context(), middleware.GetUserID(r.Context()), carID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, h.service.Kind().Name+" deleted", res)
}

// GetByID handles GET /v1/<kind>/get-by-id/{carId}/{resourceId}
func (h *ResourceHandler[T]) GetByID(w http.ResponseWriter, r *http.Request) {
	carID, id, err := h.ids(r, true)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.service.GetByID(r.Context(), middleware.GetUserID(r.Context()), carID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "", res)
}

// List handles GET /v1/<kind>/get-all/{carId}
func (h *ResourceHandler[T]) List(w http.ResponseWriter, r *http.Request) {
	carID, _, err := h.ids(r, false)
	if err != nil {
		writeError(w, r, err)
		return
	}

	page, limit := pageQuery(r)
	items, err := h.service.List(r.Context(), middleware.GetUserID(r.Context()), carID, page, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "", items)
}

// BindContact handles GET /v1/<kind>/bind-contact/{carId}/{resourceId}?contactId=
func (h *ResourceHandler[T]) BindContact(w http.ResponseWriter, r *http.Request) {
	carID, id, err := h.ids(r, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	contactID, err := uuidQuery(r, "contactId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.service.BindContact(r.Context(), middleware.GetUserID(r.Context()), carID, id, contactID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "contact bound", res)
}
