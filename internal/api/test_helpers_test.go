package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/KennPulvera/LNY-july20/internal/booking"
)

const testAdminSecret = "test-secret"

// stubRepo is an in-memory booking.Repository with just enough slot
// semantics for handler-level tests: public branch slots and online slots
// are unique, walk-in branch slots are not.
type stubRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*booking.Booking
}

func newStubRepo() *stubRepo {
	return &stubRepo{bookings: make(map[uuid.UUID]*booking.Booking)}
}

func (r *stubRepo) active(b *booking.Booking) bool {
	return b.Status != booking.StatusCancelled && !b.AssessmentDeleted
}

func (r *stubRepo) GetByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *stubRepo) List(ctx context.Context, f booking.ListFilter) ([]booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []booking.Booking
	for _, b := range r.bookings {
		if !f.IncludeDeleted && b.AssessmentDeleted {
			continue
		}
		if f.Branch != booking.BranchNone && b.Branch != f.Branch {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (r *stubRepo) Insert(ctx context.Context, b *booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.TimeSlot != booking.SlotUnscheduled {
		for _, other := range r.bookings {
			if !r.active(other) || other.TimeSlot != b.TimeSlot || !other.AppointmentDate.Equal(b.AppointmentDate) {
				continue
			}
			if b.IsOnline() && other.IsOnline() {
				return booking.ErrSlotTaken
			}
			if !b.IsOnline() && !other.IsOnline() && other.Branch == b.Branch &&
				b.CreatedVia == booking.CreatedViaPublic && other.CreatedVia == booking.CreatedViaPublic {
				return booking.ErrSlotTaken
			}
		}
	}
	cp := *b
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.bookings[b.ID] = &cp
	return nil
}

func (r *stubRepo) ListActiveForDay(ctx context.Context, date time.Time, branch booking.Branch) ([]booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []booking.Booking
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

func (r *stubRepo) ListActiveOnlineForDay(ctx context.Context, date time.Time) ([]booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []booking.Booking
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

func (r *stubRepo) CountActiveForSlot(ctx context.Context, date time.Time, timeSlot string, branch booking.Branch, exclude uuid.UUID) (int, error) {
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

func (r *stubRepo) CountActiveOnlineForSlot(ctx context.Context, date time.Time, timeSlot string, exclude uuid.UUID) (int, error) {
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

func (r *stubRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status booking.Status) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	b.Status = status
	cp := *b
	return &cp, nil
}

func (r *stubRepo) UpdatePayment(ctx context.Context, id uuid.UUID, p booking.PaymentUpdate) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	b.PaymentStatus = p.Status
	b.PaymentMethod = p.Method
	b.PaymentReference = p.Reference
	b.PaymentDate = p.Date
	b.AccountName = p.AccountName
	cp := *b
	return &cp, nil
}

func (r *stubRepo) ClearPayment(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return r.UpdatePayment(ctx, id, booking.PaymentUpdate{Status: booking.PaymentPending})
}

func (r *stubRepo) UpdateDetails(ctx context.Context, id uuid.UUID, d booking.DetailsUpdate) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
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
	cp := *b
	return &cp, nil
}

func (r *stubRepo) Reschedule(ctx context.Context, id uuid.UUID, entry booking.RescheduleEntry, serviceType, adminNotes string) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	if !b.AppointmentDate.Equal(entry.FromDate) || b.TimeSlot != entry.FromTime {
		return nil, booking.ErrStaleBooking
	}
	b.AppointmentDate = entry.ToDate
	b.TimeSlot = entry.ToTime
	b.ServiceType = serviceType
	if adminNotes != "" {
		b.AdminNotes = adminNotes
	}
	b.Status = booking.StatusScheduled
	b.RescheduleHistory = append([]booking.RescheduleEntry{entry}, b.RescheduleHistory...)
	cp := *b
	return &cp, nil
}

func (r *stubRepo) SoftDelete(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	now := time.Now()
	b.AssessmentDeleted = true
	b.AssessmentDeletedAt = &now
	cp := *b
	return &cp, nil
}

func (r *stubRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[id]; !ok {
		return booking.ErrBookingNotFound
	}
	delete(r.bookings, id)
	return nil
}

func (r *stubRepo) InsertEvent(ctx context.Context, ev booking.EventLog) error {
	return nil
}

// passLocker runs the critical section without any coordination.
type passLocker struct{}

func (passLocker) WithSlotLock(ctx context.Context, slotKey string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestRouter(t *testing.T) (http.Handler, *stubRepo) {
	t.Helper()
	repo := newStubRepo()
	svc := booking.NewService(repo, passLocker{})
	return NewRouter(RouterConfig{
		Service:        svc,
		Availability:   booking.NewAvailabilityService(repo),
		AdminJWTSecret: testAdminSecret,
		Env:            "test",
		Version:        "test",
	}), repo
}

func adminToken(t *testing.T) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "clinic-admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testAdminSecret))
	require.NoError(t, err)
	return signed
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func validBookingPayload() map[string]any {
	return map[string]any{
		"guardianName":     "Maria Santos",
		"guardianEmail":    "maria.santos@example.com",
		"guardianPhone":    "09171234567",
		"guardianRelation": "Mother",
		"guardianAddress":  "123 Rizal St",
		"childName":        "Ana Santos",
		"childBirthday":    "2021-04-10",
		"branchLocation":   "legazpi",
		"serviceType":      "Initial Assessment",
		"appointmentDate":  "2026-09-10",
		"selectedTime":     "9:00 AM",
	}
}
