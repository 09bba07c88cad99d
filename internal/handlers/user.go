package handlers

import (
	"net/http"

	"car-journal-backend/internal/middleware"
	"car-journal-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// UserHandler handles sign-in and account HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// PublicRoutes mounts the sign-in endpoints. They are flat routes so that
// /auth/logout can live in the authenticated group.
func (h *UserHandler) PublicRoutes(r chi.Router) {
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/google", h.GoogleLogin)
}

// Routes mounts the endpoints that need a session
func (h *UserHandler) Routes(r chi.Router) {
	r.Post("/auth/logout", h.Logout)
	r.Route("/users", func(r chi.Router) {
		r.Get("/me", h.Me)
		r.Patch("/push-token", h.UpdatePushToken)
		r.Delete("/me", h.DeleteAccount)
	})
}

// Register handles POST /v1/auth/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.userService.Register(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, "user registered", session)
}

// Login handles POST /v1/auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.userService.Login(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "signed in", session)
}

// GoogleLogin handles POST /v1/auth/google
func (h *UserHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var input services.GoogleLoginInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.userService.GoogleLogin(r.Context(), input)
	if err != nil {
		log.Warn().Err(err).Msg("Google sign-in rejected")
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "signed in", session)
}

// Logout handles POST /v1/auth/logout
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.userService.Logout(r.Context(), middleware.GetTokenID(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "signed out", nil)
}

// Me handles GET /v1/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.Me(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "", user)
}

type pushTokenRequest struct {
	PushToken *string `json:"push_token"`
}

// UpdatePushToken handles PATCH /v1/users/push-token
func (h *UserHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	var req pushTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	userID := middleware.GetUserID(r.Context())
	if err := h.userService.UpdatePushToken(r.Context(), userID, req.PushToken); err != nil {
		writeError(w, r, err)
		return
	}

	log.Info().Str("user_id", userID).Bool("cleared", req.PushToken == nil).Msg("Push token updated")
	respondOK(w, http.StatusOK, "push token updated", nil)
}

// DeleteAccount handles DELETE /v1/users/me
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.userService.DeleteAccount(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "account deleted", nil)
}
