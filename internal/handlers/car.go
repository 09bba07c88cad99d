package handlers

import (
	"net/http"

	"car-journal-backend/internal/middleware"
	"car-journal-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// CarHandler handles car-related HTTP requests
type CarHandler struct {
	carService *services.CarService
}

// NewCarHandler creates a new car handler
func NewCarHandler(carService *services.CarService) *CarHandler {
	return &CarHandler{carService: carService}
}

// Routes mounts the handler under /cars
func (h *CarHandler) Routes(r chi.Router) {
	r.Route("/cars", func(r chi.Router) {
		r.Post("/add", h.Create)
		r.Patch("/update/{carId}", h.Update)
		r.Delete("/delete/{carId}", h.Delete)
		r.Get("/get-by-id/{carId}", h.GetByID)
		r.Get("/get-all", h.List)
		r.Get("/lookup", h.Lookup)
	})
}

// Create handles POST /v1/cars/add
func (h *CarHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CarInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	car, err := h.carService.Create(r.Context(), middleware.GetUserID(r.Context()), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, "car created", car)
}

// Update handles PATCH /v1/cars/update/{carId}
func (h *CarHandler) Update(w http.ResponseWriter, r *http.Request) {
	carID, err := uuidParam(r, "carId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := readPatch(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	car, err := h.carService.Update(r.Context(), middleware.GetUserID(r.Context()), carID, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "car updated", car)
}

// Delete handles DELETE /v1/cars/delete/{carId}
func (h *CarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	carID, err := uuidParam(r, "carId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	car, err := h.carService.Delete(r.Context(), middleware.GetUserID(r.Context()), carID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "car deleted", car)
}

// GetByID handles GET /v1/cars/get-by-id/{carId}
func (h *CarHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	carID, err := uuidParam(r, "carId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	car, err := h.carService.GetByID(r.Context(), middleware.GetUserID(r.Context()), carID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "", car)
}

// List handles GET /v1/cars/get-all
func (h *CarHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pageQuery(r)
	cars, err := h.carService.List(r.Context(), middleware.GetUserID(r.Context()), page, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "", cars)
}

// Lookup handles GET /v1/cars/lookup?vin=
func (h *CarHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	vehicle, err := h.carService.Lookup(r.Context(), r.URL.Query().Get("vin"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "", vehicle)
}
