// Package httputil provides HTTP response helpers and middleware.
package httputil

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// JSON writes a JSON response.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// Text writes a plain text response.
func Text(w http.ResponseWriter, statusCode int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(text)); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// Error writes a JSON error response with the {"error": "..."} shape.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// ValidationError writes a 400 response describing which fields failed.
func ValidationError(w http.ResponseWriter, err error) {
	message := "validation failed"
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		parts := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			parts = append(parts, fmt.Sprintf("%s: %s", e.Field(), e.Tag()))
		}
		message = "validation failed: " + strings.Join(parts, ", ")
	}
	Error(w, http.StatusBadRequest, message)
}
