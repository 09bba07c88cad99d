package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"car-journal-backend/internal/apperr"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const maxJSONBody = 1 << 20

// Envelope is the body of every API response
type Envelope struct {
	Success    bool        `json:"success"`
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
}

func respondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondOK sends a success envelope
func respondOK(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	respondJSON(w, statusCode, Envelope{Success: true, StatusCode: statusCode, Message: message, Data: data})
}

// respondError sends an error envelope
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, Envelope{StatusCode: statusCode, Message: message})
}

// writeError maps a service error to its status. Only internal failures are logged.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := kind.Status()
	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("kind", kind.String()).
			Msg("Request failed")
	}
	respondError(w, apperr.PublicMessage(err), status)
}

// uuidParam reads a path parameter that must be a UUID
func uuidParam(r *http.Request, name string) (string, error) {
	return parseUUID(chi.URLParam(r, name), name)
}

// uuidQuery reads a query parameter that must be a UUID
func uuidQuery(r *http.Request, name string) (string, error) {
	return parseUUID(r.URL.Query().Get(name), name)
}

func parseUUID(value, name string) (string, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return "", apperr.BadRequest("%s must be a valid UUID", name)
	}
	return id.String(), nil
}

// pageQuery reads page and limit; missing or malformed values fall back to defaults
func pageQuery(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}

// decodeJSON decodes a request body into dst
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(dst); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	return nil
}

// readPatch reads a JSON merge body as raw bytes
func readPatch(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
	if err != nil {
		return nil, apperr.BadRequest("invalid request body")
	}
	return body, nil
}
