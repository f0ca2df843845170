package api

import (
	"time"

	"github.com/KennPulvera/LNY-july20/internal/booking"
)

// Field names mirror the booking form contract the clinic's frontend
// already speaks (branchLocation, selectedTime, ...).

type createBookingRequest struct {
	GuardianName         string `json:"guardianName"`
	GuardianEmail        string `json:"guardianEmail"`
	GuardianPhone        string `json:"guardianPhone"`
	GuardianRelation     string `json:"guardianRelation"`
	OtherRelationship    string `json:"otherRelationship,omitempty"`
	GuardianAddress      string `json:"guardianAddress,omitempty"`
	ChildName            string `json:"childName"`
	ChildBirthday        string `json:"childBirthday"`
	BranchLocation       string `json:"branchLocation"`
	ServiceType          string `json:"serviceType,omitempty"`
	AppointmentDate      string `json:"appointmentDate"`
	SelectedTime         string `json:"selectedTime"`
	SelectedProfessional string `json:"selectedProfessional,omitempty"`
	UserID               string `json:"userId,omitempty"`
}

func (r createBookingRequest) toInput() booking.CreateInput {
	return booking.CreateInput{
		GuardianName:         r.GuardianName,
		GuardianEmail:        r.GuardianEmail,
		GuardianPhone:        r.GuardianPhone,
		GuardianRelation:     r.GuardianRelation,
		OtherRelationship:    r.OtherRelationship,
		GuardianAddress:      r.GuardianAddress,
		ChildName:            r.ChildName,
		ChildBirthday:        r.ChildBirthday,
		Branch:               r.BranchLocation,
		ServiceType:          r.ServiceType,
		AppointmentDate:      r.AppointmentDate,
		TimeSlot:             r.SelectedTime,
		AssignedProfessional: r.SelectedProfessional,
		OwnerUserID:          r.UserID,
	}
}

type rescheduleRequest struct {
	AppointmentDate string `json:"appointmentDate"`
	SelectedTime    string `json:"selectedTime"`
	ServiceType     string `json:"serviceType,omitempty"`
	Reason          string `json:"reason,omitempty"`
	AdminNotes      string `json:"adminNotes,omitempty"`
}

type statusUpdateRequest struct {
	Status string `json:"status"`
}

type paymentUpdateRequest struct {
	PaymentStatus    string     `json:"paymentStatus"`
	PaymentMethod    string     `json:"paymentMethod"`
	PaymentReference string     `json:"paymentReference"`
	PaymentDate      *time.Time `json:"paymentDate"`
	AccountName      string     `json:"accountName"`
}

type updateBookingRequest struct {
	GuardianName         string `json:"guardianName"`
	GuardianEmail        string `json:"guardianEmail"`
	GuardianPhone        string `json:"guardianPhone"`
	GuardianRelation     string `json:"guardianRelation"`
	OtherRelationship    string `json:"otherRelationship"`
	GuardianAddress      string `json:"guardianAddress"`
	ChildName            string `json:"childName"`
	SelectedProfessional string `json:"selectedProfessional"`
	AdminNotes           string `json:"adminNotes"`
}

type rescheduleEntryResponse struct {
	FromDate      string    `json:"fromDate"`
	FromTime      string    `json:"fromTime"`
	ToDate        string    `json:"toDate"`
	ToTime        string    `json:"toTime"`
	RescheduledAt time.Time `json:"rescheduledAt"`
	Reason        string    `json:"reason,omitempty"`
	RescheduledBy string    `json:"rescheduledBy"`
}

type bookingResponse struct {
	ID                   string                    `json:"id"`
	UserID               string                    `json:"userId,omitempty"`
	GuardianName         string                    `json:"guardianName"`
	GuardianEmail        string                    `json:"guardianEmail"`
	GuardianPhone        string                    `json:"guardianPhone"`
	GuardianRelation     string                    `json:"guardianRelation"`
	OtherRelationship    string                    `json:"otherRelationship,omitempty"`
	GuardianAddress      string                    `json:"guardianAddress,omitempty"`
	ChildName            string                    `json:"childName"`
	ChildBirthday        string                    `json:"childBirthday"`
	ChildAge             string                    `json:"childAge"`
	BranchLocation       string                    `json:"branchLocation,omitempty"`
	ServiceType          string                    `json:"serviceType"`
	AppointmentDate      string                    `json:"appointmentDate"`
	SelectedTime         string                    `json:"selectedTime"`
	SelectedProfessional string                    `json:"selectedProfessional,omitempty"`
	Status               string                    `json:"status"`
	AssessmentDeleted    bool                      `json:"assessmentDeleted"`
	PaymentStatus        string                    `json:"paymentStatus"`
	PaymentMethod        string                    `json:"paymentMethod,omitempty"`
	PaymentAmount        float64                   `json:"paymentAmount"`
	PaymentReference     string                    `json:"paymentReference,omitempty"`
	PaymentDate          *time.Time                `json:"paymentDate,omitempty"`
	AccountName          string                    `json:"accountName,omitempty"`
	AdminNotes           string                    `json:"adminNotes,omitempty"`
	RescheduleHistory    []rescheduleEntryResponse `json:"rescheduleHistory"`
	CreatedVia           string                    `json:"createdVia"`
	CreatedAt            time.Time                 `json:"createdAt"`
	UpdatedAt            time.Time                 `json:"updatedAt"`
}

const dateLayout = "2006-01-02"

func toBookingResponse(b *booking.Booking) bookingResponse {
	resp := bookingResponse{
		ID:                   b.ID.String(),
		GuardianName:         b.GuardianName,
		GuardianEmail:        b.GuardianEmail,
		GuardianPhone:        b.GuardianPhone,
		GuardianRelation:     string(b.GuardianRelation),
		OtherRelationship:    b.OtherRelationship,
		GuardianAddress:      b.GuardianAddress,
		ChildName:            b.ChildName,
		ChildBirthday:        b.ChildBirthday.Format(dateLayout),
		ChildAge:             b.ChildAge,
		BranchLocation:       string(b.Branch),
		ServiceType:          b.ServiceType,
		AppointmentDate:      b.AppointmentDate.Format(dateLayout),
		SelectedTime:         b.TimeSlot,
		SelectedProfessional: b.AssignedProfessional,
		Status:               string(b.Status),
		AssessmentDeleted:    b.AssessmentDeleted,
		PaymentStatus:        string(b.PaymentStatus),
		PaymentMethod:        b.PaymentMethod,
		PaymentAmount:        b.PaymentAmount,
		PaymentReference:     b.PaymentReference,
		PaymentDate:          b.PaymentDate,
		AccountName:          b.AccountName,
		AdminNotes:           b.AdminNotes,
		RescheduleHistory:    make([]rescheduleEntryResponse, 0, len(b.RescheduleHistory)),
		CreatedVia:           string(b.CreatedVia),
		CreatedAt:            b.CreatedAt,
		UpdatedAt:            b.UpdatedAt,
	}
	if b.OwnerUserID != nil {
		resp.UserID = b.OwnerUserID.String()
	}
	for _, e := range b.RescheduleHistory {
		resp.RescheduleHistory = append(resp.RescheduleHistory, rescheduleEntryResponse{
			FromDate:      e.FromDate.Format(dateLayout),
			FromTime:      e.FromTime,
			ToDate:        e.ToDate.Format(dateLayout),
			ToTime:        e.ToTime,
			RescheduledAt: e.RescheduledAt,
			Reason:        e.Reason,
			RescheduledBy: e.RescheduledBy,
		})
	}
	return resp
}

type bookingEnvelope struct {
	Success bool            `json:"success"`
	Booking bookingResponse `json:"booking"`
}

type bookingListEnvelope struct {
	Success  bool              `json:"success"`
	Bookings []bookingResponse `json:"bookings"`
}

type availableSlotsResponse struct {
	Success        bool     `json:"success"`
	AvailableSlots []string `json:"availableSlots"`
}

type slotViewResponse struct {
	Success bool                       `json:"success"`
	Slots   []booking.SlotAvailability `json:"slots"`
}

type ErrorResponse struct {
	Success bool                 `json:"success"`
	Error   string               `json:"error"`
	Details string               `json:"details,omitempty"`
	Errors  []booking.FieldError `json:"errors,omitempty"`
}
