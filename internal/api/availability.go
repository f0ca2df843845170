package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/KennPulvera/LNY-july20/internal/booking"
)

// availabilityHandler serves the public booking form: free branch-scoped
// slots for regular services on one date.
func availabilityHandler(avail *booking.AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := booking.ParseDate(chi.URLParam(r, "date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		branch, ok := booking.NormalizeBranch(r.URL.Query().Get("branch"))
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_branch", "unknown branch code")
			return
		}

		slots, err := avail.FreeSlots(r.Context(), date, branch, "")
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, availableSlotsResponse{Success: true, AvailableSlots: slots})
	}
}

// onlineAvailabilityHandler serves the global Online Consultation view;
// non-Saturday dates always come back empty.
func onlineAvailabilityHandler(avail *booking.AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := booking.ParseDate(chi.URLParam(r, "date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		slots, err := avail.OnlineForDate(r.Context(), date)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, slotViewResponse{Success: true, Slots: slots})
	}
}

// slotViewHandler is the admin dashboard's per-branch time slot view,
// including how many bookings occupy each slot.
func slotViewHandler(avail *booking.AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := booking.ParseDate(chi.URLParam(r, "date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		branch, ok := booking.NormalizeBranch(r.URL.Query().Get("branch"))
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_branch", "unknown branch code")
			return
		}

		slots, err := avail.ForDate(r.Context(), date, branch)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, slotViewResponse{Success: true, Slots: slots})
	}
}

// rescheduleOptionsHandler lists candidate times for moving a booking. The
// booking's current slot is re-admitted since rescheduling frees it.
func rescheduleOptionsHandler(avail *booking.AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := bookingID(w, r)
		if !ok {
			return
		}

		date, err := booking.ParseDate(r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		slots, err := avail.ForReschedule(r.Context(), date, r.URL.Query().Get("serviceType"), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, availableSlotsResponse{Success: true, AvailableSlots: slots})
	}
}
