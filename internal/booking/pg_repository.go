package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repository needs. Declared as an
// interface so tests can substitute a pgxmock pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	db DB
}

func NewPgRepository(db DB) *PgRepository {
	return &PgRepository{db: db}
}

const bookingColumns = `
	id, owner_user_id,
	guardian_name, guardian_email, guardian_phone, guardian_relation, other_relationship, guardian_address,
	child_name, child_birthday, child_age,
	branch, service_type, appointment_date, time_slot, assigned_professional,
	status, assessment_deleted, assessment_deleted_at,
	payment_status, payment_method, payment_amount, payment_reference, payment_date, account_name,
	admin_notes, reschedule_history, created_via, created_at, updated_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var history []byte

	err := row.Scan(
		&b.ID,
		&b.OwnerUserID,
		&b.GuardianName,
		&b.GuardianEmail,
		&b.GuardianPhone,
		&b.GuardianRelation,
		&b.OtherRelationship,
		&b.GuardianAddress,
		&b.ChildName,
		&b.ChildBirthday,
		&b.ChildAge,
		&b.Branch,
		&b.ServiceType,
		&b.AppointmentDate,
		&b.TimeSlot,
		&b.AssignedProfessional,
		&b.Status,
		&b.AssessmentDeleted,
		&b.AssessmentDeletedAt,
		&b.PaymentStatus,
		&b.PaymentMethod,
		&b.PaymentAmount,
		&b.PaymentReference,
		&b.PaymentDate,
		&b.AccountName,
		&b.AdminNotes,
		&history,
		&b.CreatedVia,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if len(history) > 0 {
		if err := json.Unmarshal(history, &b.RescheduleHistory); err != nil {
			return nil, fmt.Errorf("decode reschedule history: %w", err)
		}
	}

	return &b, nil
}

// isSlotConflict reports whether err is a violation of one of the partial
// unique slot indexes. These races are expected and map to ErrSlotTaken.
func isSlotConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" &&
		(pgErr.ConstraintName == "bookings_online_slot_key" ||
			pgErr.ConstraintName == "bookings_public_slot_key")
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := r.db.QueryRow(ctx, `
		SELECT`+bookingColumns+`
		FROM bookings
		WHERE id = $1
	`, id)
	return scanBooking(row)
}

func (r *PgRepository) List(ctx context.Context, f ListFilter) ([]Booking, error) {
	query := `SELECT` + bookingColumns + ` FROM bookings WHERE 1=1`
	var args []any

	if !f.IncludeDeleted {
		query += ` AND NOT assessment_deleted`
	}
	if f.Branch != BranchNone {
		args = append(args, f.Branch)
		query += fmt.Sprintf(` AND branch = $%d`, len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	query += ` ORDER BY appointment_date DESC, created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	return result, rows.Err()
}

func (r *PgRepository) Insert(ctx context.Context, b *Booking) error {
	history, err := json.Marshal(b.RescheduleHistory)
	if err != nil {
		return fmt.Errorf("encode reschedule history: %w", err)
	}
	if b.RescheduleHistory == nil {
		history = []byte("[]")
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO bookings (
			id, owner_user_id,
			guardian_name, guardian_email, guardian_phone, guardian_relation, other_relationship, guardian_address,
			child_name, child_birthday, child_age,
			branch, service_type, appointment_date, time_slot, assigned_professional,
			status, assessment_deleted, assessment_deleted_at,
			payment_status, payment_method, payment_amount, payment_reference, payment_date, account_name,
			admin_notes, reschedule_history, created_via, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, now(), now()
		)
	`,
		b.ID, b.OwnerUserID,
		b.GuardianName, b.GuardianEmail, b.GuardianPhone, b.GuardianRelation, b.OtherRelationship, b.GuardianAddress,
		b.ChildName, b.ChildBirthday, b.ChildAge,
		b.Branch, b.ServiceType, b.AppointmentDate, b.TimeSlot, b.AssignedProfessional,
		b.Status, b.AssessmentDeleted, b.AssessmentDeletedAt,
		b.PaymentStatus, b.PaymentMethod, b.PaymentAmount, b.PaymentReference, b.PaymentDate, b.AccountName,
		b.AdminNotes, history, b.CreatedVia,
	)
	if err != nil {
		if isSlotConflict(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *PgRepository) CountActiveForSlot(ctx context.Context, date time.Time, timeSlot string, branch Branch, exclude uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT count(*)
		FROM bookings
		WHERE appointment_date = $1
		  AND time_slot = $2
		  AND branch = $3
		  AND service_type <> $4
		  AND status <> $5
		  AND NOT assessment_deleted
		  AND id <> $6
	`, date, timeSlot, branch, ServiceOnlineConsultation, StatusCancelled, exclude).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count slot bookings: %w", err)
	}
	return n, nil
}

func (r *PgRepository) CountActiveOnlineForSlot(ctx context.Context, date time.Time, timeSlot string, exclude uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT count(*)
		FROM bookings
		WHERE appointment_date = $1
		  AND time_slot = $2
		  AND service_type = $3
		  AND status <> $4
		  AND NOT assessment_deleted
		  AND id <> $5
	`, date, timeSlot, ServiceOnlineConsultation, StatusCancelled, exclude).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count online slot bookings: %w", err)
	}
	return n, nil
}

func (r *PgRepository) ListActiveForDay(ctx context.Context, date time.Time, branch Branch) ([]Booking, error) {
	rows, err := r.db.Query(ctx, `
		SELECT`+bookingColumns+`
		FROM bookings
		WHERE appointment_date = $1
		  AND branch = $2
		  AND service_type <> $3
		  AND status <> $4
		  AND NOT assessment_deleted
		ORDER BY time_slot, created_at
	`, date, branch, ServiceOnlineConsultation, StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("list day bookings: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (r *PgRepository) ListActiveOnlineForDay(ctx context.Context, date time.Time) ([]Booking, error) {
	rows, err := r.db.Query(ctx, `
		SELECT`+bookingColumns+`
		FROM bookings
		WHERE appointment_date = $1
		  AND service_type = $2
		  AND status <> $3
		  AND NOT assessment_deleted
		ORDER BY time_slot, created_at
	`, date, ServiceOnlineConsultation, StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("list online day bookings: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

func collectBookings(rows pgx.Rows) ([]Booking, error) {
	var result []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	return result, rows.Err()
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Booking, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE bookings
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING`+bookingColumns+`
	`, id, status)
	return scanBooking(row)
}

func (r *PgRepository) UpdatePayment(ctx context.Context, id uuid.UUID, p PaymentUpdate) (*Booking, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE bookings
		SET payment_status = $2,
		    payment_method = $3,
		    payment_reference = $4,
		    payment_date = $5,
		    account_name = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING`+bookingColumns+`
	`, id, p.Status, p.Method, p.Reference, p.Date, p.AccountName)
	return scanBooking(row)
}

func (r *PgRepository) ClearPayment(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE bookings
		SET payment_status = $2,
		    payment_method = '',
		    payment_reference = '',
		    payment_date = NULL,
		    account_name = '',
		    updated_at = now()
		WHERE id = $1
		RETURNING`+bookingColumns+`
	`, id, PaymentPending)
	return scanBooking(row)
}

func (r *PgRepository) UpdateDetails(ctx context.Context, id uuid.UUID, d DetailsUpdate) (*Booking, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE bookings
		SET guardian_name = $2,
		    guardian_email = $3,
		    guardian_phone = $4,
		    guardian_relation = $5,
		    other_relationship = $6,
		    guardian_address = $7,
		    child_name = $8,
		    assigned_professional = $9,
		    admin_notes = $10,
		    updated_at = now()
		WHERE id = $1
		RETURNING`+bookingColumns+`
	`, id,
		d.GuardianName, d.GuardianEmail, d.GuardianPhone, d.GuardianRelation,
		d.OtherRelationship, d.GuardianAddress, d.ChildName,
		d.AssignedProfessional, d.AdminNotes)
	return scanBooking(row)
}

// Reschedule is a single atomic UPDATE: the precondition on the current
// (date, time) pair guarantees no reader ever observes the booking holding
// both slots or neither.
func (r *PgRepository) Reschedule(ctx context.Context, id uuid.UUID, entry RescheduleEntry, serviceType, adminNotes string) (*Booking, error) {
	entryJSON, err := json.Marshal([]RescheduleEntry{entry})
	if err != nil {
		return nil, fmt.Errorf("encode reschedule entry: %w", err)
	}

	row := r.db.QueryRow(ctx, `
		UPDATE bookings
		SET appointment_date = $2,
		    time_slot = $3,
		    service_type = $4,
		    status = $5,
		    reschedule_history = $6::jsonb || reschedule_history,
		    admin_notes = COALESCE(NULLIF($9, ''), admin_notes),
		    updated_at = now()
		WHERE id = $1
		  AND appointment_date = $7
		  AND time_slot = $8
		RETURNING`+bookingColumns+`
	`, id, entry.ToDate, entry.ToTime, serviceType, StatusScheduled, entryJSON, entry.FromDate, entry.FromTime, adminNotes)

	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			// Distinguish a missing booking from a lost precondition.
			if _, getErr := r.GetByID(ctx, id); getErr == nil {
				return nil, ErrStaleBooking
			}
			return nil, ErrBookingNotFound
		}
		if isSlotConflict(err) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	return b, nil
}

func (r *PgRepository) SoftDelete(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE bookings
		SET assessment_deleted = true,
		    assessment_deleted_at = now(),
		    updated_at = now()
		WHERE id = $1
		RETURNING`+bookingColumns+`
	`, id)
	return scanBooking(row)
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO event_logs (event_type, booking_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.BookingID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
