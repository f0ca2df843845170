package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending      PaymentStatus = "pending"
	PaymentVerification PaymentStatus = "pending-verification"
	PaymentPaid         PaymentStatus = "paid"
	PaymentCancelled    PaymentStatus = "cancelled"
)

type Branch string

// BranchNone marks bookings for the global online service, which is not
// tied to any physical branch.
const BranchNone Branch = ""

// Canonical branch codes. Legacy codes from the first two branches are
// normalized at the write boundary, see NormalizeBranch.
var Branches = []Branch{
	"naga-blumentritt",
	"naga-delrosario",
	"legazpi",
	"daet",
	"guinobatan",
	"polangui",
	"daraga",
	"tabaco",
	"sorsogon",
	"iriga",
	"catanduanes",
	"masbate",
	"irosin",
}

// legacyBranches maps pre-expansion branch codes still present in old
// records and old client builds. Delete once historical data is migrated.
var legacyBranches = map[string]Branch{
	"blumentritt": "naga-blumentritt",
	"delrosario":  "naga-delrosario",
}

type Relation string

var Relations = []Relation{
	"Mother",
	"Father",
	"Grandmother",
	"Grandfather",
	"Guardian",
	"Other",
}

const RelationOther Relation = "Other"

// legacyRelations covers values the old booking form used to send.
var legacyRelations = map[string]Relation{
	"Legal Guardian": "Guardian",
	"Grandparent":    "Guardian",
}

// ServiceOnlineConsultation is the one service with special allocation
// rules: globally unique slots (branch ignored) and Saturdays only.
const ServiceOnlineConsultation = "Online Consultation"

var ServiceTypes = []string{
	"Initial Assessment",
	"Speech Therapy",
	"Occupational Therapy",
	ServiceOnlineConsultation,
	"Follow-up Session",
}

// TimeSlots is the canonical daily slot list in display order. The noon
// hour is the clinic's lunch break.
var TimeSlots = []string{
	"8:00 AM",
	"9:00 AM",
	"10:00 AM",
	"11:00 AM",
	"1:00 PM",
	"2:00 PM",
	"3:00 PM",
	"4:00 PM",
}

// SlotUnscheduled is a placeholder time for bookings whose exact slot is
// decided later by staff. It never reserves a slot and never conflicts.
const SlotUnscheduled = "To be scheduled"

const DefaultPaymentAmount = 2000

type CreatedVia string

const (
	CreatedViaPublic CreatedVia = "public"
	CreatedViaWalkIn CreatedVia = "walk-in"
)

const RescheduledByAdmin = "admin"

type RescheduleEntry struct {
	FromDate      time.Time `json:"fromDate"`
	FromTime      string    `json:"fromTime"`
	ToDate        time.Time `json:"toDate"`
	ToTime        string    `json:"toTime"`
	RescheduledAt time.Time `json:"rescheduledAt"`
	Reason        string    `json:"reason,omitempty"`
	RescheduledBy string    `json:"rescheduledBy"`
}

type Booking struct {
	ID          uuid.UUID
	OwnerUserID *uuid.UUID

	GuardianName      string
	GuardianEmail     string
	GuardianPhone     string
	GuardianRelation  Relation
	OtherRelationship string
	GuardianAddress   string

	ChildName     string
	ChildBirthday time.Time
	// ChildAge is a snapshot taken at creation time and is never
	// recomputed on read.
	ChildAge string

	Branch               Branch
	ServiceType          string
	AppointmentDate      time.Time
	TimeSlot             string
	AssignedProfessional string

	Status              Status
	AssessmentDeleted   bool
	AssessmentDeletedAt *time.Time

	PaymentStatus    PaymentStatus
	PaymentMethod    string
	PaymentAmount    float64
	PaymentReference string
	PaymentDate      *time.Time
	AccountName      string

	AdminNotes string

	// Most recent reschedule first. Entries are immutable once appended.
	RescheduleHistory []RescheduleEntry

	CreatedVia CreatedVia
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (b *Booking) IsOnline() bool {
	return IsOnlineService(b.ServiceType)
}

func IsOnlineService(serviceType string) bool {
	return serviceType == ServiceOnlineConsultation
}

func ValidTimeSlot(s string) bool {
	if s == SlotUnscheduled {
		return true
	}
	for _, t := range TimeSlots {
		if t == s {
			return true
		}
	}
	return false
}

func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusPending, StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func ValidPaymentStatus(s string) bool {
	switch PaymentStatus(s) {
	case PaymentPending, PaymentVerification, PaymentPaid, PaymentCancelled:
		return true
	}
	return false
}

// NormalizeBranch resolves legacy codes to canonical ones. The second
// return is false for values outside both sets.
func NormalizeBranch(raw string) (Branch, bool) {
	if b, ok := legacyBranches[raw]; ok {
		return b, true
	}
	for _, b := range Branches {
		if string(b) == raw {
			return b, true
		}
	}
	return BranchNone, false
}

// NormalizeRelation resolves legacy relation values to the canonical set.
func NormalizeRelation(raw string) (Relation, bool) {
	if r, ok := legacyRelations[raw]; ok {
		return r, true
	}
	for _, r := range Relations {
		if string(r) == raw {
			return r, true
		}
	}
	return "", false
}

// clinicLocation is the timezone all day-of-week decisions use. Set once
// at startup from CLINIC_TIMEZONE; date strings from clients are resolved
// to calendar days in this zone, never the caller's.
var clinicLocation = time.UTC

// SetClinicLocation installs the clinic timezone. Call before serving.
func SetClinicLocation(loc *time.Location) {
	if loc != nil {
		clinicLocation = loc
	}
}

// DateOnly strips the time-of-day; slot comparisons are by calendar day.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts a plain calendar date or a full RFC 3339 timestamp and
// returns the calendar day. Timestamps are converted to the clinic
// timezone first, so a UTC instant sent by a browser lands on the day the
// clinic's clock says, not the day UTC says.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return DateOnly(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return DateOnly(t.In(clinicLocation)), nil
}

func IsSaturday(date time.Time) bool {
	return date.Weekday() == time.Saturday
}

// ChildAgeAt renders the age snapshot stored on a booking, e.g.
// "4 years, 7 months".
func ChildAgeAt(birthday, on time.Time) string {
	years := on.Year() - birthday.Year()
	monthDiff := int(on.Month()) - int(birthday.Month())
	if monthDiff < 0 || (monthDiff == 0 && on.Day() < birthday.Day()) {
		years--
	}
	months := (int(on.Month()) + 12 - int(birthday.Month())) % 12
	return fmt.Sprintf("%d years, %d months", years, months)
}
