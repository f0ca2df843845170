package booking

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// FieldError mirrors the field-level error list the booking form displays.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) orNil() *ValidationError {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

var (
	phonePattern = regexp.MustCompile(`^09[0-9]{9}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// CreateInput carries the raw booking form fields. Dates arrive as strings
// so malformed values surface as field errors, not transport errors.
type CreateInput struct {
	GuardianName         string
	GuardianEmail        string
	GuardianPhone        string
	GuardianRelation     string
	OtherRelationship    string
	GuardianAddress      string
	ChildName            string
	ChildBirthday        string
	Branch               string
	ServiceType          string
	AppointmentDate      string
	TimeSlot             string
	AssignedProfessional string
	OwnerUserID          string
}

// createFields is the validated, normalized form of CreateInput.
type createFields struct {
	GuardianName         string
	GuardianEmail        string
	GuardianPhone        string
	GuardianRelation     Relation
	OtherRelationship    string
	GuardianAddress      string
	ChildName            string
	ChildBirthday        time.Time
	Branch               Branch
	ServiceType          string
	AppointmentDate      time.Time
	TimeSlot             string
	AssignedProfessional string
}

// validate applies the public-form contract and normalizes legacy enum
// aliases. Walk-in submissions additionally require a professional.
func (in CreateInput) validate(walkIn bool) (createFields, *ValidationError) {
	verr := &ValidationError{}
	var f createFields

	f.GuardianName = strings.TrimSpace(in.GuardianName)
	if f.GuardianName == "" {
		verr.add("guardianName", "Guardian name is required")
	} else if len(f.GuardianName) < 2 {
		verr.add("guardianName", "Guardian name must be at least 2 characters")
	}

	f.GuardianEmail = strings.ToLower(strings.TrimSpace(in.GuardianEmail))
	if f.GuardianEmail == "" {
		verr.add("guardianEmail", "Email is required")
	} else if !emailPattern.MatchString(f.GuardianEmail) {
		verr.add("guardianEmail", "Please provide a valid email")
	}

	f.GuardianPhone = strings.TrimSpace(in.GuardianPhone)
	if f.GuardianPhone == "" {
		verr.add("guardianPhone", "Phone number is required")
	} else if !phonePattern.MatchString(f.GuardianPhone) {
		verr.add("guardianPhone", "Phone number must be in format 09XXXXXXXXX")
	}

	if in.GuardianRelation == "" {
		verr.add("guardianRelation", "Relationship to child is required")
	} else if rel, ok := NormalizeRelation(in.GuardianRelation); ok {
		f.GuardianRelation = rel
		if rel == RelationOther {
			f.OtherRelationship = strings.TrimSpace(in.OtherRelationship)
		}
	} else {
		verr.add("guardianRelation", "Invalid relationship type")
	}

	f.GuardianAddress = strings.TrimSpace(in.GuardianAddress)

	f.ChildName = strings.TrimSpace(in.ChildName)
	if f.ChildName == "" {
		verr.add("childName", "Child name is required")
	} else if len(f.ChildName) < 2 {
		verr.add("childName", "Child name must be at least 2 characters")
	}

	if in.ChildBirthday == "" {
		verr.add("childBirthday", "Child birthday is required")
	} else if bd, err := ParseDate(in.ChildBirthday); err != nil {
		verr.add("childBirthday", "Invalid date format")
	} else {
		f.ChildBirthday = bd
	}

	f.ServiceType = strings.TrimSpace(in.ServiceType)
	if f.ServiceType == "" {
		f.ServiceType = "Initial Assessment"
	}

	if IsOnlineService(f.ServiceType) {
		// Online consultations are not tied to a branch.
		f.Branch = BranchNone
	} else if in.Branch == "" {
		verr.add("branchLocation", "Branch location is required")
	} else if b, ok := NormalizeBranch(in.Branch); ok {
		f.Branch = b
	} else {
		verr.add("branchLocation", "Invalid branch location")
	}

	if in.AppointmentDate == "" {
		verr.add("appointmentDate", "Appointment date is required")
	} else if d, err := ParseDate(in.AppointmentDate); err != nil {
		verr.add("appointmentDate", "Invalid date format")
	} else {
		f.AppointmentDate = d
		if IsOnlineService(f.ServiceType) && !IsSaturday(d) {
			verr.add("appointmentDate", "Online consultations are only available on Saturdays")
		}
	}

	f.TimeSlot = strings.TrimSpace(in.TimeSlot)
	if f.TimeSlot == "" {
		verr.add("selectedTime", "Appointment time is required")
	} else if !ValidTimeSlot(f.TimeSlot) {
		verr.add("selectedTime", "Invalid time slot")
	}

	f.AssignedProfessional = strings.TrimSpace(in.AssignedProfessional)
	if walkIn && f.AssignedProfessional == "" {
		verr.add("selectedProfessional", "Professional is required")
	}

	return f, verr.orNil()
}
