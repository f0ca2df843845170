package booking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memRepo is an in-memory Repository that also emulates the partial
// unique slot indexes, so conflict-translation behavior can be exercised
// without Postgres.
type memRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*Booking
	events   []EventLog
}

func newMemRepo() *memRepo {
	return &memRepo{bookings: make(map[uuid.UUID]*Booking)}
}

// noopLocker runs the critical section directly; lock behavior itself is
// covered by the redis package tests.
type noopLocker struct{}

func (noopLocker) WithSlotLock(ctx context.Context, slotKey string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (r *memRepo) active(b *Booking) bool {
	return b.Status != StatusCancelled && !b.AssessmentDeleted
}

func (r *memRepo) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *memRepo) List(ctx context.Context, f ListFilter) ([]Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Booking
	for _, b := range r.bookings {
		if !f.IncludeDeleted && b.AssessmentDeleted {
			continue
		}
		if f.Branch != BranchNone && b.Branch != f.Branch {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (r *memRepo) Insert(ctx context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b.TimeSlot != SlotUnscheduled && b.Status != StatusCancelled && !b.AssessmentDeleted {
		for _, other := range r.bookings {
			if !r.active(other) || other.TimeSlot == SlotUnscheduled {
				continue
			}
			sameSlot := other.AppointmentDate.Equal(b.AppointmentDate) && other.TimeSlot == b.TimeSlot
			if !sameSlot {
				continue
			}
			if IsOnlineService(b.ServiceType) && IsOnlineService(other.ServiceType) {
				return ErrSlotTaken
			}
			if !IsOnlineService(b.ServiceType) && !IsOnlineService(other.ServiceType) &&
				other.Branch == b.Branch &&
				b.CreatedVia == CreatedViaPublic && other.CreatedVia == CreatedViaPublic {
				return ErrSlotTaken
			}
		}
	}

	cp := *b
	now := time.Now()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	r.bookings[b.ID] = &cp
	return nil
}

func (r *memRepo) ListActiveForDay(ctx context.Context, date time.Time, branch Branch) ([]Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Booking
	for _, b := range r.bookings {
		if !r.active(b) || b.IsOnline() {
			continue
		}
		if b.AppointmentDate.Equal(date) && b.Branch == branch {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memRepo) ListActiveOnlineForDay(ctx context.Context, date time.Time) ([]Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Booking
	for _, b := range r.bookings {
		if !r.active(b) || !b.IsOnline() {
			continue
		}
		if b.AppointmentDate.Equal(date) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memRepo) CountActiveForSlot(ctx context.Context, date time.Time, timeSlot string, branch Branch, exclude uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, b := range r.bookings {
		if id == exclude || !r.active(b) || b.IsOnline() {
			continue
		}
		if b.AppointmentDate.Equal(date) && b.TimeSlot == timeSlot && b.Branch == branch {
			n++
		}
	}
	return n, nil
}

func (r *memRepo) CountActiveOnlineForSlot(ctx context.Context, date time.Time, timeSlot string, exclude uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, b := range r.bookings {
		if id == exclude || !r.active(b) || !b.IsOnline() {
			continue
		}
		if b.AppointmentDate.Equal(date) && b.TimeSlot == timeSlot {
			n++
		}
	}
	return n, nil
}

func (r *memRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	b.Status = status
	b.UpdatedAt = time.Now()
	cp := *b
	return &cp, nil
}

func (r *memRepo) UpdatePayment(ctx context.Context, id uuid.UUID, p PaymentUpdate) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	b.PaymentStatus = p.Status
	b.PaymentMethod = p.Method
	b.PaymentReference = p.Reference
	b.PaymentDate = p.Date
	b.AccountName = p.AccountName
	b.UpdatedAt = time.Now()
	cp := *b
	return &cp, nil
}

func (r *memRepo) ClearPayment(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return r.UpdatePayment(ctx, id, PaymentUpdate{Status: PaymentPending})
}

func (r *memRepo) UpdateDetails(ctx context.Context, id uuid.UUID, d DetailsUpdate) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	b.GuardianName = d.GuardianName
	b.GuardianEmail = d.GuardianEmail
	b.GuardianPhone = d.GuardianPhone
	b.GuardianRelation = d.GuardianRelation
	b.OtherRelationship = d.OtherRelationship
	b.GuardianAddress = d.GuardianAddress
	b.ChildName = d.ChildName
	b.AssignedProfessional = d.AssignedProfessional
	b.AdminNotes = d.AdminNotes
	b.UpdatedAt = time.Now()
	cp := *b
	return &cp, nil
}

func (r *memRepo) Reschedule(ctx context.Context, id uuid.UUID, entry RescheduleEntry, serviceType, adminNotes string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	if !b.AppointmentDate.Equal(entry.FromDate) || b.TimeSlot != entry.FromTime {
		return nil, ErrStaleBooking
	}
	b.AppointmentDate = entry.ToDate
	b.TimeSlot = entry.ToTime
	b.ServiceType = serviceType
	if adminNotes != "" {
		b.AdminNotes = adminNotes
	}
	b.Status = StatusScheduled
	b.RescheduleHistory = append([]RescheduleEntry{entry}, b.RescheduleHistory...)
	b.UpdatedAt = time.Now()
	cp := *b
	return &cp, nil
}

func (r *memRepo) SoftDelete(ctx context.Context, id uuid.UUID) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	now := time.Now()
	b.AssessmentDeleted = true
	b.AssessmentDeletedAt = &now
	b.UpdatedAt = now
	cp := *b
	return &cp, nil
}

func (r *memRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[id]; !ok {
		return ErrBookingNotFound
	}
	delete(r.bookings, id)
	return nil
}

func (r *memRepo) InsertEvent(ctx context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}
