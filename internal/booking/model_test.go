package booking

import (
	"testing"
	"time"
)

func TestNormalizeBranch(t *testing.T) {
	cases := []struct {
		in   string
		want Branch
		ok   bool
	}{
		{"legazpi", "legazpi", true},
		{"naga-blumentritt", "naga-blumentritt", true},
		{"blumentritt", "naga-blumentritt", true},
		{"delrosario", "naga-delrosario", true},
		{"manila", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := NormalizeBranch(c.in)
		if got != c.want || ok != c.ok {
			t.Fatalf("NormalizeBranch(%q) = (%q, %v), want (%q, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestNormalizeRelation(t *testing.T) {
	cases := []struct {
		in   string
		want Relation
		ok   bool
	}{
		{"Mother", "Mother", true},
		{"Guardian", "Guardian", true},
		{"Legal Guardian", "Guardian", true},
		{"Grandparent", "Guardian", true},
		{"Other", "Other", true},
		{"Cousin", "", false},
	}
	for _, c := range cases {
		got, ok := NormalizeRelation(c.in)
		if got != c.want || ok != c.ok {
			t.Fatalf("NormalizeRelation(%q) = (%q, %v), want (%q, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestValidTimeSlot(t *testing.T) {
	for _, slot := range TimeSlots {
		if !ValidTimeSlot(slot) {
			t.Fatalf("expected %q to be a valid slot", slot)
		}
	}
	if !ValidTimeSlot(SlotUnscheduled) {
		t.Fatalf("expected the unscheduled placeholder to be valid")
	}
	for _, bad := range []string{"12:00 PM", "8:00", "5:00 PM", ""} {
		if ValidTimeSlot(bad) {
			t.Fatalf("expected %q to be invalid", bad)
		}
	}
}

func TestTimeSlotsSkipNoon(t *testing.T) {
	if len(TimeSlots) != 8 {
		t.Fatalf("expected 8 daily slots, got %d", len(TimeSlots))
	}
	for _, slot := range TimeSlots {
		if slot == "12:00 PM" {
			t.Fatalf("noon must not be a bookable slot")
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-14")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Year() != 2026 || d.Month() != time.March || d.Day() != 14 {
		t.Fatalf("unexpected date %v", d)
	}
	if d.Hour() != 0 || d.Minute() != 0 {
		t.Fatalf("expected midnight, got %v", d)
	}

	d2, err := ParseDate("2026-03-14T15:04:05Z")
	if err != nil {
		t.Fatalf("ParseDate RFC3339: %v", err)
	}
	if !d2.Equal(d) {
		t.Fatalf("timestamp form should collapse to the same day, got %v vs %v", d2, d)
	}

	if _, err := ParseDate("14/03/2026"); err == nil {
		t.Fatalf("expected error for slashed date")
	}
}

func TestParseDateResolvesDayInClinicZone(t *testing.T) {
	SetClinicLocation(time.FixedZone("PHT", 8*3600))
	defer SetClinicLocation(time.UTC)

	// Saturday midnight in Manila is still Friday in UTC. The clinic zone
	// decides which calendar day a timestamp lands on.
	d, err := ParseDate("2026-09-04T16:00:00Z")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Year() != 2026 || d.Month() != time.September || d.Day() != 5 {
		t.Fatalf("expected 2026-09-05 in clinic zone, got %v", d)
	}
	if !IsSaturday(d) {
		t.Fatalf("2026-09-05 is a Saturday")
	}
}

func TestIsSaturday(t *testing.T) {
	sat, _ := ParseDate("2026-09-05")
	sun, _ := ParseDate("2026-09-06")
	if !IsSaturday(sat) {
		t.Fatalf("2026-09-05 is a Saturday")
	}
	if IsSaturday(sun) {
		t.Fatalf("2026-09-06 is not a Saturday")
	}
}

func TestChildAgeAt(t *testing.T) {
	cases := []struct {
		birthday string
		on       string
		want     string
	}{
		{"2022-01-15", "2026-07-20", "4 years, 6 months"},
		{"2022-07-15", "2026-07-20", "4 years, 0 months"},
		{"2022-09-15", "2026-07-20", "3 years, 10 months"},
		{"2026-01-15", "2026-07-20", "0 years, 6 months"},
	}
	for _, c := range cases {
		bd, _ := ParseDate(c.birthday)
		on, _ := ParseDate(c.on)
		if got := ChildAgeAt(bd, on); got != c.want {
			t.Fatalf("ChildAgeAt(%s, %s) = %q, want %q", c.birthday, c.on, got, c.want)
		}
	}
}

func TestIsOnlineService(t *testing.T) {
	if !IsOnlineService(ServiceOnlineConsultation) {
		t.Fatalf("expected %q to be the online service", ServiceOnlineConsultation)
	}
	if IsOnlineService("Speech Therapy") {
		t.Fatalf("speech therapy is branch-scoped")
	}
}
