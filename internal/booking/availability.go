package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SlotBooking is the short booking summary shown per occupied slot on the
// admin dashboard.
type SlotBooking struct {
	ID           uuid.UUID `json:"id"`
	GuardianName string    `json:"guardianName"`
	ChildName    string    `json:"childName"`
	ServiceType  string    `json:"serviceType"`
	Status       Status    `json:"status"`
}

// SlotAvailability is one row of the admin time-slot view.
type SlotAvailability struct {
	Time                string        `json:"time"`
	Free                bool          `json:"isFree"`
	BookedCount         int           `json:"bookedCount"`
	ConflictingBookings []SlotBooking `json:"conflictingBookings"`
}

// AvailabilityService is a read-only facade over the allocator used by the
// public booking form and the admin dashboard. No side effects.
type AvailabilityService struct {
	repo Repository
}

func NewAvailabilityService(repo Repository) *AvailabilityService {
	return &AvailabilityService{repo: repo}
}

func toSlotBooking(b *Booking) SlotBooking {
	return SlotBooking{
		ID:           b.ID,
		GuardianName: b.GuardianName,
		ChildName:    b.ChildName,
		ServiceType:  b.ServiceType,
		Status:       b.Status,
	}
}

func slotView(bookings []Booking) []SlotAvailability {
	bySlot := make(map[string][]SlotBooking, len(TimeSlots))
	for i := range bookings {
		b := &bookings[i]
		if b.TimeSlot == SlotUnscheduled {
			continue
		}
		bySlot[b.TimeSlot] = append(bySlot[b.TimeSlot], toSlotBooking(b))
	}

	result := make([]SlotAvailability, 0, len(TimeSlots))
	for _, slot := range TimeSlots {
		occupied := bySlot[slot]
		if occupied == nil {
			occupied = []SlotBooking{}
		}
		result = append(result, SlotAvailability{
			Time:                slot,
			Free:                len(occupied) == 0,
			BookedCount:         len(occupied),
			ConflictingBookings: occupied,
		})
	}
	return result
}

// ForDate returns the branch-scoped slot view for regular services, each
// occupied slot carrying the bookings that hold it.
func (s *AvailabilityService) ForDate(ctx context.Context, date time.Time, branch Branch) ([]SlotAvailability, error) {
	bookings, err := s.repo.ListActiveForDay(ctx, DateOnly(date), branch)
	if err != nil {
		return nil, err
	}
	return slotView(bookings), nil
}

// OnlineForDate returns the global slot view for Online Consultation.
// Non-Saturday dates have no online slots at all.
func (s *AvailabilityService) OnlineForDate(ctx context.Context, date time.Time) ([]SlotAvailability, error) {
	date = DateOnly(date)

	if !IsSaturday(date) {
		return []SlotAvailability{}, nil
	}

	bookings, err := s.repo.ListActiveOnlineForDay(ctx, date)
	if err != nil {
		return nil, err
	}
	return slotView(bookings), nil
}

// FreeSlots lists only the open times, in canonical order.
func (s *AvailabilityService) FreeSlots(ctx context.Context, date time.Time, branch Branch, serviceType string) ([]string, error) {
	return NewAllocator(s.repo).ListAvailableSlots(ctx, date, branch, serviceType, uuid.Nil)
}

// ForReschedule lists open times for moving an existing booking. The
// booking's own current slot is re-admitted into the candidates, since
// rescheduling frees it.
func (s *AvailabilityService) ForReschedule(ctx context.Context, date time.Time, serviceType string, currentID uuid.UUID) ([]string, error) {
	current, err := s.repo.GetByID(ctx, currentID)
	if err != nil {
		return nil, err
	}
	if serviceType == "" {
		serviceType = current.ServiceType
	}
	return NewAllocator(s.repo).ListAvailableSlots(ctx, date, current.Branch, serviceType, currentID)
}
