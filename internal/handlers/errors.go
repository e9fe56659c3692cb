package handlers

import (
	"encoding/json"
	"net/http"

	"blogapi/internal/middleware"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// InternalError handles 500 errors
func (h *BlogHandler) InternalError(w http.ResponseWriter, r *http.Request, err error) {
	logger := middleware.LoggerFromContext(r.Context(), h.Logger)
	logger.Error("500 internal server error", "err", err, "path", r.URL.Path)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

// BadRequest handles 400 errors; the message is shown to the client
func (h *BlogHandler) BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	logger := middleware.LoggerFromContext(r.Context(), h.Logger)
	logger.Warn("400 bad request", "path", r.URL.Path, "reason", message)
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": message,
	})
}

// NotFound handles 404 errors with the given client-facing message
func (h *BlogHandler) NotFound(w http.ResponseWriter, r *http.Request, message string) {
	logger := middleware.LoggerFromContext(r.Context(), h.Logger)
	logger.Warn("404 not found", "path", r.URL.Path, "method", r.Method)
	writeJSON(w, http.StatusNotFound, map[string]string{
		"message": message,
	})
}
