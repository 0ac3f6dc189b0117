package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/Satish-Das/food-donate-application/internal/services"
	"github.com/Satish-Das/food-donate-application/types"
	"github.com/go-chi/chi/v5"
)

// AdminHandler serves the /admin endpoints.
type AdminHandler struct {
	admins        *services.AdminService
	donations     *services.DonationService
	exports       *services.ExportService
	tokens        *TokenIssuer
	logger        *slog.Logger
	secureCookies bool
}

// AdminRouter registers /admin routes on the given router.
func AdminRouter(
	r chi.Router,
	admins *services.AdminService,
	donations *services.DonationService,
	exports *services.ExportService,
	tokens *TokenIssuer,
	auth *Authenticator,
	logger *slog.Logger,
	secureCookies bool,
) {
	handler := &AdminHandler{
		admins:        admins,
		donations:     donations,
		exports:       exports,
		tokens:        tokens,
		logger:        logger,
		secureCookies: secureCookies,
	}

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Get("/profile", handler.Profile)
		r.Get("/dashboard-stats", handler.Dashboard)
		r.Get("/users", handler.ListUsers)
		r.Get("/users/{userId}", handler.UserDetails)
		r.Get("/donations", handler.ListDonations)
		r.Get("/donations/by-status", handler.DonationsByStatus)
		r.Patch("/update-donation-status", handler.UpdateDonationStatus)
		r.Post("/reset-password", handler.ResetPassword)
		r.Post("/exports", handler.CreateExport)
		r.Get("/exports/*", handler.DownloadExport)
	})
}

type AdminLoginResponse struct {
	AccessToken string      `json:"accessToken"`
	Admin       types.Admin `json:"admin"`
}

type ResetPasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *AdminHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.AccountInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	admin, err := h.admins.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error registering admin")
		return
	}
	writeData(w, http.StatusCreated, "Admin registered successfully", admin)
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	admin, err := h.admins.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error logging in")
		return
	}

	token, err := h.tokens.Issue(admin.ID, types.RoleAdmin)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to create token")
		return
	}
	setTokenCookie(w, token, h.tokens.TTL(), h.secureCookies)
	writeData(w, http.StatusOK, "Login successful", AdminLoginResponse{AccessToken: token, Admin: admin})
}

func (h *AdminHandler) Profile(w http.ResponseWriter, r *http.Request) {
	admin, err := h.admins.GetByID(r.Context(), principalFromContext(r.Context()).ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error retrieving admin profile")
		return
	}
	writeData(w, http.StatusOK, "Admin profile retrieved successfully", admin)
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admins.Dashboard(r.Context(), principalFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error retrieving dashboard statistics")
		return
	}
	writeData(w, http.StatusOK, "Dashboard statistics retrieved successfully", stats)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.admins.ListUsers(r.Context(), principalFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error retrieving users")
		return
	}
	writeData(w, http.StatusOK, "Users retrieved successfully", users)
}

func (h *AdminHandler) UserDetails(w http.ResponseWriter, r *http.Request) {
	details, err := h.admins.UserDetails(r.Context(), principalFromContext(r.Context()), chi.URLParam(r, "userId"))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error retrieving user details")
		return
	}
	writeData(w, http.StatusOK, "User details retrieved successfully", details)
}

func (h *AdminHandler) ListDonations(w http.ResponseWriter, r *http.Request) {
	donations, err := h.donations.List(r.Context(), principalFromContext(r.Context()), queryFromRequest(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error retrieving donations")
		return
	}
	writeData(w, http.StatusOK, "Donations retrieved successfully", donations)
}

func (h *AdminHandler) DonationsByStatus(w http.ResponseWriter, r *http.Request) {
	listing, err := h.donations.ListByStatus(r.Context(), principalFromContext(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error retrieving donations by status")
		return
	}
	writeData(w, http.StatusOK, "Donations retrieved successfully", listing)
}

func (h *AdminHandler) UpdateDonationStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.DonationID) == "" {
		writeError(w, http.StatusBadRequest, "Donation ID is required")
		return
	}

	donation, err := h.donations.UpdateStatus(r.Context(), principalFromContext(r.Context()), req.DonationID, req.Status)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error updating donation status")
		return
	}
	writeData(w, http.StatusOK, "Donation status updated successfully", donation)
}

func (h *AdminHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.admins.ResetPassword(r.Context(), principalFromContext(r.Context()), req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, r, h.logger, err, "Error resetting password")
		return
	}
	writeData(w, http.StatusOK, "Password reset successfully", nil)
}

// CreateExport snapshots donations matching the query string into object
// storage.
func (h *AdminHandler) CreateExport(w http.ResponseWriter, r *http.Request) {
	result, err := h.exports.ExportDonations(r.Context(), queryFromRequest(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error exporting donations")
		return
	}
	writeData(w, http.StatusCreated, "Donations exported successfully", result)
}

func (h *AdminHandler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	key := "exports/" + chi.URLParam(r, "*")
	body, err := h.exports.OpenExport(r.Context(), key)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error opening export")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+path.Base(key)+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.WarnContext(r.Context(), "export download interrupted", "key", key, "error", err)
	}
}
