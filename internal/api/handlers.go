package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/KennPulvera/LNY-july20/internal/booking"
	redisclient "github.com/KennPulvera/LNY-july20/internal/redis"
)

func createBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		b, err := svc.CreatePublic(r.Context(), req.toInput())
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, bookingEnvelope{Success: true, Booking: toBookingResponse(b)})
	}
}

func listBookingsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := booking.ListFilter{}
		if s := r.URL.Query().Get("status"); s != "" {
			f.Status = booking.Status(s)
		}
		if r.URL.Query().Get("includeDeleted") == "true" {
			f.IncludeDeleted = true
		}

		bookings, err := svc.List(r.Context(), f)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toListEnvelope(bookings))
	}
}

func listBookingsByBranchHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		branch, ok := booking.NormalizeBranch(chi.URLParam(r, "branch"))
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_branch", "unknown branch code")
			return
		}

		bookings, err := svc.List(r.Context(), booking.ListFilter{Branch: branch})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toListEnvelope(bookings))
	}
}

func getBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := bookingID(w, r)
		if !ok {
			return
		}

		b, err := svc.GetByID(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, bookingEnvelope{Success: true, Booking: toBookingResponse(b)})
	}
}

func updateStatusHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := bookingID(w, r)
		if !ok {
			return
		}

		var req statusUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		b, err := svc.UpdateStatus(r.Context(), id, req.Status)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, bookingEnvelope{Success: true, Booking: toBookingResponse(b)})
	}
}

func updatePaymentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := bookingID(w, r)
		if !ok {
			return
		}

		var req paymentUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		b, err := svc.UpdatePayment(r.Context(), id, booking.PaymentUpdate{
			Status:      booking.PaymentStatus(req.PaymentStatus),
			Method:      req.PaymentMethod,
			Reference:   req.PaymentReference,
			Date:        req.PaymentDate,
			AccountName: req.AccountName,
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, bookingEnvelope{Success: true, Booking: toBookingResponse(b)})
	}
}

func clearPaymentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := bookingID(w, r)
		if !ok {
			return
		}

		b, err := svc.ClearPayment(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, bookingEnvelope{Success: true, Booking: toBookingResponse(b)})
	}
}

func updateBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := bookingID(w, r)
		if !ok {
			return
		}

		var req updateBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		b, err := svc.UpdateDetails(r.Context(), id, booking.DetailsUpdate{
			GuardianName:         req.GuardianName,
			GuardianEmail:        req.GuardianEmail,
			GuardianPhone:        req.GuardianPhone,
			GuardianRelation:     booking.Relation(req.GuardianRelation),
			OtherRelationship:    req.OtherRelationship,
			GuardianAddress:      req.GuardianAddress,
			ChildName:            req.ChildName,
			AssignedProfessional: req.SelectedProfessional,
			AdminNotes:           req.AdminNotes,
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, bookingEnvelope{Success: true, Booking: toBookingResponse(b)})
	}
}

func rescheduleBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := bookingID(w, r)
		if !ok {
			return
		}

		var req rescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		b, err := svc.Reschedule(r.Context(), id, booking.RescheduleInput{
			AppointmentDate: req.AppointmentDate,
			TimeSlot:        req.SelectedTime,
			ServiceType:     req.ServiceType,
			Reason:          req.Reason,
			RescheduledBy:   booking.RescheduledByAdmin,
			AdminNotes:      req.AdminNotes,
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, bookingEnvelope{Success: true, Booking: toBookingResponse(b)})
	}
}

func softDeleteBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := bookingID(w, r)
		if !ok {
			return
		}

		b, err := svc.SoftDelete(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, bookingEnvelope{Success: true, Booking: toBookingResponse(b)})
	}
}

func deleteBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := bookingID(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func bookingID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_booking_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func toListEnvelope(bookings []booking.Booking) bookingListEnvelope {
	resp := bookingListEnvelope{Success: true, Bookings: make([]bookingResponse, 0, len(bookings))}
	for i := range bookings {
		resp.Bookings = append(resp.Bookings, toBookingResponse(&bookings[i]))
	}
	return resp
}

func handleBookingError(w http.ResponseWriter, err error) {
	var verr *booking.ValidationError

	switch {
	case errors.As(err, &verr):
		writeValidationError(w, verr)
	case errors.Is(err, booking.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "booking_not_found", err.Error())
	case errors.Is(err, booking.ErrSlotTaken):
		slotConflictsTotal.Inc()
		writeError(w, http.StatusBadRequest, "slot_taken", "this time slot is already booked")
	case errors.Is(err, booking.ErrSlotBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		slotConflictsTotal.Inc()
		writeError(w, http.StatusBadRequest, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, booking.ErrStaleBooking):
		writeError(w, http.StatusConflict, "booking_modified", "booking was modified concurrently, please retry")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
