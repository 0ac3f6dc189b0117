package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Satish-Das/food-donate-application/internal/services"
	"github.com/go-chi/chi/v5"
)

// DonationHandler serves the /donate endpoints.
type DonationHandler struct {
	donations *services.DonationService
	logger    *slog.Logger
}

// DonationRouter registers /donate routes on the given router.
func DonationRouter(r chi.Router, donations *services.DonationService, auth *Authenticator, logger *slog.Logger) {
	handler := &DonationHandler{donations: donations, logger: logger}

	r.Group(func(r chi.Router) {
		r.Use(auth.Optional)
		r.Post("/donate", handler.Submit)
		r.Get("/all", handler.List)
		r.Get("/user", handler.ListMine)
		r.Patch("/status", handler.UpdateStatus)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Required)
		r.Get("/id/{id}", handler.Get)
		r.Get("/status/{status}", handler.ListByStatus)
		r.Get("/date-range", handler.ListByDateRange)
		r.Get("/food-type/{foodType}", handler.ListByFoodType)
		r.Post("/add-notes", handler.AddNotes)
		r.Get("/statistics", handler.Statistics)
		r.Patch("/update-quantity", handler.UpdateQuantity)
	})
}

type StatusRequest struct {
	DonationID string `json:"donationId"`
	Status     string `json:"status"`
}

type NotesRequest struct {
	DonationID string `json:"donationId"`
	Notes      string `json:"notes"`
}

type QuantityRequest struct {
	DonationID   string `json:"donationId"`
	FoodQuantity string `json:"foodQuantity"`
}

func (h *DonationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req services.DonationInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	donation, err := h.donations.Submit(r.Context(), principalFromContext(r.Context()), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error recording donation")
		return
	}
	writeData(w, http.StatusCreated, "Donation recorded successfully", donation)
}

func (h *DonationHandler) List(w http.ResponseWriter, r *http.Request) {
	donations, err := h.donations.List(r.Context(), principalFromContext(r.Context()), queryFromRequest(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error retrieving donations")
		return
	}
	writeData(w, http.StatusOK, "Donations retrieved successfully", donations)
}

func (h *DonationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	caller := principalFromContext(r.Context())
	donations, err := h.donations.ListMine(r.Context(), caller)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error retrieving user donations")
		return
	}
	if !caller.IsUser() {
		writeData(w, http.StatusOK, "No authenticated user found - returning empty donation list", donations)
		return
	}
	writeData(w, http.StatusOK, "User donations retrieved successfully", donations)
}

func (h *DonationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
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

func (h *DonationHandler) Get(w http.ResponseWriter, r *http.Request) {
	donation, err := h.donations.Get(r.Context(), principalFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error retrieving donation")
		return
	}
	writeData(w, http.StatusOK, "Donation retrieved successfully", donation)
}

func (h *DonationHandler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	status := chi.URLParam(r, "status")
	donations, err := h.donations.List(r.Context(), principalFromContext(r.Context()), services.DonationQuery{Status: status})
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error retrieving donations by status")
		return
	}
	writeData(w, http.StatusOK, fmt.Sprintf("Donations with status '%s' retrieved successfully", status), donations)
}

func (h *DonationHandler) ListByDateRange(w http.ResponseWriter, r *http.Request) {
	query := queryFromRequest(r)
	if query.StartDate == "" || query.EndDate == "" {
		writeError(w, http.StatusBadRequest, "Both start date and end date are required")
		return
	}

	donations, err := h.donations.List(r.Context(), principalFromContext(r.Context()), services.DonationQuery{
		StartDate: query.StartDate,
		EndDate:   query.EndDate,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error retrieving donations by date range")
		return
	}
	writeData(w, http.StatusOK, "Donations within date range retrieved successfully", donations)
}

func (h *DonationHandler) ListByFoodType(w http.ResponseWriter, r *http.Request) {
	foodType := chi.URLParam(r, "foodType")
	donations, err := h.donations.List(r.Context(), principalFromContext(r.Context()), services.DonationQuery{FoodType: foodType})
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error retrieving donations by food type")
		return
	}
	writeData(w, http.StatusOK, fmt.Sprintf("Donations with food type '%s' retrieved successfully", foodType), donations)
}

func (h *DonationHandler) AddNotes(w http.ResponseWriter, r *http.Request) {
	var req NotesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.DonationID) == "" {
		writeError(w, http.StatusBadRequest, "Donation ID is required")
		return
	}

	donation, err := h.donations.AddNotes(r.Context(), principalFromContext(r.Context()), req.DonationID, req.Notes)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error adding notes to donation")
		return
	}
	writeData(w, http.StatusOK, "Notes added successfully", donation)
}

func (h *DonationHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.donations.Statistics(r.Context(), principalFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error retrieving donation statistics")
		return
	}
	writeData(w, http.StatusOK, "Donation statistics retrieved successfully", stats)
}

func (h *DonationHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req QuantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	donation, err := h.donations.UpdateQuantity(r.Context(), principalFromContext(r.Context()), req.DonationID, req.FoodQuantity)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error updating donation quantity")
		return
	}
	writeData(w, http.StatusOK, "Donation quantity updated successfully", donation)
}

func queryFromRequest(r *http.Request) services.DonationQuery {
	q := r.URL.Query()
	return services.DonationQuery{
		Status:    strings.TrimSpace(q.Get("status")),
		FoodType:  strings.TrimSpace(q.Get("foodType")),
		StartDate: strings.TrimSpace(q.Get("startDate")),
		EndDate:   strings.TrimSpace(q.Get("endDate")),
	}
}
