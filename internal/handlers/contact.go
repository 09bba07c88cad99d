package handlers

import (
	"net/http"

	"car-journal-backend/internal/middleware"
	"car-journal-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// ContactHandler handles contact-related HTTP requests
type ContactHandler struct {
	contactService *services.ContactService
}

// NewContactHandler creates a new contact handler
func NewContactHandler(contactService *services.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// Routes mounts the handler under /contacts
func (h *ContactHandler) Routes(r chi.Router) {
	r.Route("/contacts", func(r chi.Router) {
		r.Post("/add", h.Create)
		r.Patch("/update/{contactId}", h.Update)
		r.Delete("/delete/{contactId}", h.Delete)
		r.Get("/get-by-id/{contactId}", h.GetByID)
		r.Get("/get-all", h.List)
	})
}

// Create handles POST /v1/contacts/add
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.ContactInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.contactService.Create(r.Context(), middleware.GetUserID(r.Context()), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, "contact created", c)
}

// Update handles PATCH /v1/contacts/update/{contactId}
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	contactID, err := uuidParam(r, "contactId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := readPatch(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.contactService.Update(r.Context(), middleware.GetUserID(r.Context()), contactID, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "contact updated", c)
}

// Delete handles DELETE /v1/contacts/delete/{contactId}
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	contactID, err := uuidParam(r, "contactId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.contactService.Delete(r.Context(), middleware.GetUserID(r.Context()), contactID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "contact deleted", c)
}

// GetByID handles GET /v1/contacts/get-by-id/{contactId}
func (h *ContactHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	contactID, err := uuidParam(r, "contactId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.contactService.GetByID(r.Context(), middleware.GetUserID(r.Context()), contactID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "", c)
}

// List handles GET /v1/contacts/get-all
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pageQuery(r)
	contacts, err := h.contactService.List(r.Context(), middleware.GetUserID(r.Context()), page, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "", contacts)
}
