package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Satish-Das/food-donate-application/internal/services"
	"github.com/Satish-Das/food-donate-application/types"
)

const maxBodyBytes = 1 << 20

type contextKey string

const contextPrincipalKey contextKey = "principal"

// Response is the single envelope every endpoint answers with.
type Response struct {
	StatusCode int      `json:"statusCode"`
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	Data       any      `json:"data"`
	Errors     []string `json:"errors,omitempty"`
}

func withPrincipal(ctx context.Context, principal types.Principal) context.Context {
	return context.WithValue(ctx, contextPrincipalKey, principal)
}

// principalFromContext returns the anonymous principal when none is set.
func principalFromContext(ctx context.Context) types.Principal {
	principal, _ := ctx.Value(contextPrincipalKey).(types.Principal)
	return principal
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Response{
		StatusCode: status,
		Success:    status < http.StatusBadRequest,
		Message:    message,
		Data:       data,
	})
}

func writeError(w http.ResponseWriter, status int, message string, problems ...string) {
	writeJSON(w, status, Response{
		StatusCode: status,
		Message:    message,
		Errors:     problems,
	})
}

// writeServiceError maps the service error taxonomy onto a status code.
// Unclassified errors are logged and reported with fallback.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, fallback string) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Error(), verr.Problems...)
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, services.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	}

	var serr *services.Error
	if status != http.StatusInternalServerError && errors.As(err, &serr) {
		writeError(w, status, serr.Message)
		return
	}
	if status != http.StatusInternalServerError {
		writeError(w, status, err.Error())
		return
	}

	logger.ErrorContext(r.Context(), fallback, "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, status, fallback)
}

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("Request body is missing")
		}
		return errors.New("Invalid request body")
	}
	return nil
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "ok", nil)
}
