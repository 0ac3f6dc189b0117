package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Satish-Das/food-donate-application/internal/services"
	"github.com/Satish-Das/food-donate-application/types"
	"github.com/go-chi/chi/v5"
)

// UserHandler serves account endpoints for donors.
type UserHandler struct {
	users         *services.UserService
	tokens        *TokenIssuer
	logger        *slog.Logger
	secureCookies bool
}

// UserRouter registers /user routes on the given router.
func UserRouter(r chi.Router, users *services.UserService, tokens *TokenIssuer, auth *Authenticator, logger *slog.Logger, secureCookies bool) {
	handler := &UserHandler{users: users, tokens: tokens, logger: logger, secureCookies: secureCookies}

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Get("/logout", handler.Logout)

	r.Group(func(r chi.Router) {
		r.Use(auth.Required)
		r.Get("/profile", handler.Profile)
		r.Put("/update/{userId}", handler.Update)
		r.Delete("/delete", handler.Delete)
	})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserLoginResponse struct {
	User        types.User `json:"user"`
	AccessToken string     `json:"accessToken"`
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.AccountInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error creating user")
		return
	}
	writeData(w, http.StatusCreated, "User created Successfully", user)
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error logging in")
		return
	}

	token, err := h.tokens.Issue(user.ID, types.RoleUser)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to create token")
		return
	}
	setTokenCookie(w, token, h.tokens.TTL(), h.secureCookies)
	writeData(w, http.StatusOK, "User logged in successfully", UserLoginResponse{User: user, AccessToken: token})
}

// Logout clears the token cookie. Bearer tokens stay valid until expiry.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	clearTokenCookie(w, h.secureCookies)
	writeData(w, http.StatusOK, "User logged out successfully", nil)
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	caller := principalFromContext(r.Context())
	if !caller.IsUser() {
		writeError(w, http.StatusForbidden, "Only users have a profile")
		return
	}

	user, err := h.users.GetByID(r.Context(), caller.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error retrieving user profile")
		return
	}
	writeData(w, http.StatusOK, "User profile retrieved successfully", user)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req services.ProfileUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.Update(r.Context(), principalFromContext(r.Context()), chi.URLParam(r, "userId"), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error updating user")
		return
	}
	writeData(w, http.StatusOK, "User updated successfully", user)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), principalFromContext(r.Context())); err != nil {
		writeServiceError(w, r, h.logger, err, "Error deleting user")
		return
	}
	clearTokenCookie(w, h.secureCookies)
	writeData(w, http.StatusOK, "User deleted successfully", nil)
}
