package handlers

import (
	"net/http"

	"car-journal-backend/internal/middleware"
	"car-journal-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// ReminderHandler handles reminder-related HTTP requests
type ReminderHandler struct {
	reminderService *services.ReminderService
}

// NewReminderHandler creates a new reminder handler
func NewReminderHandler(reminderService *services.ReminderService) *ReminderHandler {
	return &ReminderHandler{reminderService: reminderService}
}

// Routes mounts the handler under /reminders
func (h *ReminderHandler) Routes(r chi.Router) {
	r.Route("/reminders", func(r chi.Router) {
		r.Post("/add", h.Create)
		r.Get("/get-all", h.List)
		r.Delete("/delete/{reminderId}", h.Delete)
	})
}

// Create handles POST /v1/reminders/add
func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.ReminderInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	rem, err := h.reminderService.Create(r.Context(), middleware.GetUserID(r.Context()), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, "reminder scheduled", rem)
}

// List handles GET /v1/reminders/get-all
func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pageQuery(r)
	reminders, err := h.reminderService.List(r.Context(), middleware.GetUserID(r.Context()), page, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "", reminders)
}

// Delete handles DELETE /v1/reminders/delete/{reminderId}
func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	reminderID, err := uuidParam(r, "reminderId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	rem, err := h.reminderService.Delete(r.Context(), middleware.GetUserID(r.Context()), reminderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "reminder deleted", rem)
}
