package api

import (
	"encoding/json"
	"net/http"

	"github.com/KennPulvera/LNY-july20/internal/booking"
)

type professionalResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// The clinic's professional roster is fixed; there is no separate
// collection for it.
var professionals = []professionalResponse{
	{ID: "developmental-pediatrician", Name: "Developmental Pediatrician"},
	{ID: "occupational-therapist", Name: "Occupational Therapist"},
	{ID: "speech-language-pathologist", Name: "Speech & Language Pathologist"},
}

func listProfessionalsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, professionals)
	}
}

// walkInBookingHandler creates a booking on behalf of clinic staff. Unlike
// the public path it tolerates branch-scoped double bookings; only the
// global Online Consultation rule still applies.
func walkInBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		b, err := svc.CreateWalkIn(r.Context(), req.toInput())
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, bookingEnvelope{Success: true, Booking: toBookingResponse(b)})
	}
}
