package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/KennPulvera/LNY-july20/internal/booking"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Details: details,
	})
}

func writeValidationError(w http.ResponseWriter, verr *booking.ValidationError) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:  "validation_failed",
		Errors: verr.Fields,
	})
}
