package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBookingNotFound = errors.New("booking not found")

	// ErrStaleBooking means a reschedule precondition on the booking's
	// current slot did not match, i.e. another writer moved it first.
	ErrStaleBooking = errors.New("booking was modified concurrently")
)

type ListFilter struct {
	Branch         Branch
	Status         Status
	IncludeDeleted bool
}

type PaymentUpdate struct {
	Status      PaymentStatus
	Method      string
	Reference   string
	Date        *time.Time
	AccountName string
}

type DetailsUpdate struct {
	GuardianName         string
	GuardianEmail        string
	GuardianPhone        string
	GuardianRelation     Relation
	OtherRelationship    string
	GuardianAddress      string
	ChildName            string
	AssignedProfessional string
	AdminNotes           string
}

// Repository contains all DB interactions needed by the allocator and the
// lifecycle service.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	List(ctx context.Context, f ListFilter) ([]Booking, error)

	// Insert persists a new booking. Implementations must translate a
	// storage uniqueness violation on a slot index into ErrSlotTaken so
	// the pre-check race never leaks a raw storage error.
	Insert(ctx context.Context, b *Booking) error

	// Conflict counts. "Active" excludes cancelled and soft-deleted
	// bookings. exclude lets a reschedule skip the booking's own slot;
	// pass uuid.Nil to count everything.
	CountActiveForSlot(ctx context.Context, date time.Time, timeSlot string, branch Branch, exclude uuid.UUID) (int, error)
	CountActiveOnlineForSlot(ctx context.Context, date time.Time, timeSlot string, exclude uuid.UUID) (int, error)

	// Day views for the slot dashboard: every active booking on the date,
	// branch-scoped or online-only respectively.
	ListActiveForDay(ctx context.Context, date time.Time, branch Branch) ([]Booking, error)
	ListActiveOnlineForDay(ctx context.Context, date time.Time) ([]Booking, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Booking, error)
	UpdatePayment(ctx context.Context, id uuid.UUID, p PaymentUpdate) (*Booking, error)
	ClearPayment(ctx context.Context, id uuid.UUID) (*Booking, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, d DetailsUpdate) (*Booking, error)

	// Reschedule atomically moves the booking to a new slot, prepends the
	// history entry and resets status to scheduled. A non-empty adminNotes
	// replaces the stored notes. The fromDate/fromTime pair is a
	// precondition on the booking's current slot; a mismatch returns
	// ErrStaleBooking.
	Reschedule(ctx context.Context, id uuid.UUID, entry RescheduleEntry, serviceType, adminNotes string) (*Booking, error)

	SoftDelete(ctx context.Context, id uuid.UUID) (*Booking, error)
	Delete(ctx context.Context, id uuid.UUID) error

	InsertEvent(ctx context.Context, ev EventLog) error
}

// EventLog is an append-only audit record of lifecycle transitions.
type EventLog struct {
	ID        int64
	EventType string
	BookingID *uuid.UUID
	Payload   []byte
	CreatedAt time.Time
}
