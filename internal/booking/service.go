package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/KennPulvera/LNY-july20/internal/redis"
)

const (
	EventBookingCreated     = "BOOKING_CREATED"
	EventBookingRescheduled = "BOOKING_RESCHEDULED"
	EventStatusChanged      = "BOOKING_STATUS_CHANGED"
	EventPaymentUpdated     = "BOOKING_PAYMENT_UPDATED"
	EventBookingDeleted     = "BOOKING_DELETED"
)

var (
	ErrSlotTaken       = errors.New("time slot is already booked")
	ErrSlotBeingBooked = errors.New("slot is currently being booked, please retry")
)

// Service orchestrates booking lifecycle transitions. The public create
// path and the admin walk-in path have intentionally different conflict
// policies: walk-ins may double-book branch slots, the public form may not.
// The global Online Consultation rule binds both.
type Service struct {
	repo   Repository
	alloc  *Allocator
	locker redisclient.Locker
	now    func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker) *Service {
	return &Service{
		repo:   repo,
		alloc:  NewAllocator(repo),
		locker: locker,
		now:    time.Now,
	}
}

// slotLockKey serializes concurrent reservation attempts on one slot.
// Online slots share a single global namespace; branch slots are scoped.
func slotLockKey(date time.Time, timeSlot string, branch Branch, serviceType string) string {
	day := date.Format("2006-01-02")
	if IsOnlineService(serviceType) {
		return fmt.Sprintf("online|%s|%s", day, timeSlot)
	}
	return fmt.Sprintf("%s|%s|%s", branch, day, timeSlot)
}

func (s *Service) buildBooking(f createFields, in CreateInput) (*Booking, error) {
	b := &Booking{
		ID:                   uuid.New(),
		GuardianName:         f.GuardianName,
		GuardianEmail:        f.GuardianEmail,
		GuardianPhone:        f.GuardianPhone,
		GuardianRelation:     f.GuardianRelation,
		OtherRelationship:    f.OtherRelationship,
		GuardianAddress:      f.GuardianAddress,
		ChildName:            f.ChildName,
		ChildBirthday:        f.ChildBirthday,
		ChildAge:             ChildAgeAt(f.ChildBirthday, s.now()),
		Branch:               f.Branch,
		ServiceType:          f.ServiceType,
		AppointmentDate:      f.AppointmentDate,
		TimeSlot:             f.TimeSlot,
		AssignedProfessional: f.AssignedProfessional,
		PaymentStatus:        PaymentPending,
		PaymentAmount:        DefaultPaymentAmount,
	}

	if in.OwnerUserID != "" {
		ownerID, err := uuid.Parse(in.OwnerUserID)
		if err != nil {
			return nil, &ValidationError{Fields: []FieldError{{Field: "user", Message: "Invalid user id"}}}
		}
		b.OwnerUserID = &ownerID
	}

	return b, nil
}

// CreatePublic creates a booking through the self-service form. Any slot
// conflict, branch-scoped or online, rejects the request.
func (s *Service) CreatePublic(ctx context.Context, in CreateInput) (*Booking, error) {
	f, verr := in.validate(false)
	if verr != nil {
		return nil, verr
	}

	b, err := s.buildBooking(f, in)
	if err != nil {
		return nil, err
	}
	b.Status = StatusPending
	b.CreatedVia = CreatedViaPublic

	if b.TimeSlot == SlotUnscheduled {
		if err := s.repo.Insert(ctx, b); err != nil {
			return nil, err
		}
		s.logEvent(ctx, b.ID, EventBookingCreated, map[string]any{"via": b.CreatedVia})
		return b, nil
	}

	key := slotLockKey(b.AppointmentDate, b.TimeSlot, b.Branch, b.ServiceType)
	err = s.locker.WithSlotLock(ctx, key, func(lockCtx context.Context) error {
		free, err := s.alloc.IsSlotFree(lockCtx, b.AppointmentDate, b.TimeSlot, b.Branch, b.ServiceType, uuid.Nil)
		if err != nil {
			return err
		}
		if !free {
			return ErrSlotTaken
		}
		// The partial unique index backs this up if a competing insert
		// slipped past the pre-check.
		return s.repo.Insert(lockCtx, b)
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.logEvent(ctx, b.ID, EventBookingCreated, map[string]any{"via": b.CreatedVia})
	return b, nil
}

// CreateWalkIn creates a booking on behalf of clinic staff. Branch-scoped
// conflicts are deliberately allowed (staff may double-book a branch slot);
// only the global Online Consultation uniqueness is enforced.
func (s *Service) CreateWalkIn(ctx context.Context, in CreateInput) (*Booking, error) {
	f, verr := in.validate(true)
	if verr != nil {
		return nil, verr
	}

	b, err := s.buildBooking(f, in)
	if err != nil {
		return nil, err
	}
	b.Status = StatusScheduled
	b.CreatedVia = CreatedViaWalkIn

	if !b.IsOnline() || b.TimeSlot == SlotUnscheduled {
		if err := s.repo.Insert(ctx, b); err != nil {
			return nil, err
		}
		s.logEvent(ctx, b.ID, EventBookingCreated, map[string]any{"via": b.CreatedVia})
		return b, nil
	}

	key := slotLockKey(b.AppointmentDate, b.TimeSlot, b.Branch, b.ServiceType)
	err = s.locker.WithSlotLock(ctx, key, func(lockCtx context.Context) error {
		free, err := s.alloc.IsSlotFree(lockCtx, b.AppointmentDate, b.TimeSlot, b.Branch, b.ServiceType, uuid.Nil)
		if err != nil {
			return err
		}
		if !free {
			return ErrSlotTaken
		}
		return s.repo.Insert(lockCtx, b)
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.logEvent(ctx, b.ID, EventBookingCreated, map[string]any{"via": b.CreatedVia})
	return b, nil
}

type RescheduleInput struct {
	AppointmentDate string
	TimeSlot        string
	ServiceType     string
	Reason          string
	RescheduledBy   string
	AdminNotes      string
}

// Reschedule moves a booking to a new slot. The booking's own current slot
// is excluded from the conflict scan, so moving to the same slot always
// succeeds. The slot swap is atomic: the old slot is released and the new
// one claimed in a single guarded update.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, in RescheduleInput) (*Booking, error) {
	verr := &ValidationError{}

	newDate, err := ParseDate(in.AppointmentDate)
	if err != nil {
		verr.add("appointmentDate", "Invalid date format")
	}
	if in.TimeSlot == "" {
		verr.add("selectedTime", "Appointment time is required")
	} else if !ValidTimeSlot(in.TimeSlot) {
		verr.add("selectedTime", "Invalid time slot")
	}
	if v := verr.orNil(); v != nil {
		return nil, v
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	serviceType := in.ServiceType
	if serviceType == "" {
		serviceType = current.ServiceType
	}
	if IsOnlineService(serviceType) && !IsSaturday(newDate) {
		verr.add("appointmentDate", "Online consultations are only available on Saturdays")
		return nil, verr
	}

	by := in.RescheduledBy
	if by == "" {
		by = RescheduledByAdmin
	}

	var updated *Booking
	key := slotLockKey(newDate, in.TimeSlot, current.Branch, serviceType)
	err = s.locker.WithSlotLock(ctx, key, func(lockCtx context.Context) error {
		// Reload inside the critical section so the precondition below
		// reflects the latest slot.
		cur, err := s.repo.GetByID(lockCtx, id)
		if err != nil {
			return err
		}

		free, err := s.alloc.IsSlotFree(lockCtx, newDate, in.TimeSlot, cur.Branch, serviceType, id)
		if err != nil {
			return err
		}
		if !free {
			return ErrSlotTaken
		}

		entry := RescheduleEntry{
			FromDate:      cur.AppointmentDate,
			FromTime:      cur.TimeSlot,
			ToDate:        newDate,
			ToTime:        in.TimeSlot,
			RescheduledAt: s.now(),
			Reason:        in.Reason,
			RescheduledBy: by,
		}

		updated, err = s.repo.Reschedule(lockCtx, id, entry, serviceType, in.AdminNotes)
		return err
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.logEvent(ctx, id, EventBookingRescheduled, map[string]any{
		"to_date": newDate.Format("2006-01-02"),
		"to_time": in.TimeSlot,
		"by":      by,
	})
	return updated, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Booking, error) {
	if !ValidStatus(status) {
		return nil, &ValidationError{Fields: []FieldError{{Field: "status", Message: "Invalid status"}}}
	}
	b, err := s.repo.UpdateStatus(ctx, id, Status(status))
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, id, EventStatusChanged, map[string]any{"status": status})
	return b, nil
}

func (s *Service) UpdatePayment(ctx context.Context, id uuid.UUID, p PaymentUpdate) (*Booking, error) {
	if !ValidPaymentStatus(string(p.Status)) {
		return nil, &ValidationError{Fields: []FieldError{{Field: "paymentStatus", Message: "Invalid payment status"}}}
	}
	b, err := s.repo.UpdatePayment(ctx, id, p)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, id, EventPaymentUpdated, map[string]any{"payment_status": p.Status})
	return b, nil
}

// ClearPayment wipes the payment fields back to defaults while keeping the
// booking itself.
func (s *Service) ClearPayment(ctx context.Context, id uuid.UUID) (*Booking, error) {
	b, err := s.repo.ClearPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, id, EventPaymentUpdated, map[string]any{"cleared": true})
	return b, nil
}

func (s *Service) UpdateDetails(ctx context.Context, id uuid.UUID, d DetailsUpdate) (*Booking, error) {
	if d.GuardianRelation != "" {
		rel, ok := NormalizeRelation(string(d.GuardianRelation))
		if !ok {
			return nil, &ValidationError{Fields: []FieldError{{Field: "guardianRelation", Message: "Invalid relationship type"}}}
		}
		d.GuardianRelation = rel
	}
	return s.repo.UpdateDetails(ctx, id, d)
}

// SoftDelete hides the booking from listings and releases its slot for
// conflict purposes, while keeping the record for audit.
func (s *Service) SoftDelete(ctx context.Context, id uuid.UUID) (*Booking, error) {
	b, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, id, EventBookingDeleted, map[string]any{"soft": true})
	return b, nil
}

// Delete removes the record permanently; the slot becomes free again.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logEvent(ctx, id, EventBookingDeleted, map[string]any{"soft": false})
	return nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Booking, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) logEvent(ctx context.Context, bookingID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal event payload for %s: %v", eventType, err)
		data = nil
	}

	id := bookingID
	ev := EventLog{
		EventType: eventType,
		BookingID: &id,
		Payload:   data,
		CreatedAt: s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert event log %s for booking %s: %v", eventType, bookingID, err)
	}
}
