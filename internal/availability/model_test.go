package availability

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-scheduling/internal/calendar"
)

func TestParseWeekdays(t *testing.T) {
	cases := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{in: "", want: nil},
		{in: "  ", want: nil},
		{in: "1,3", want: []int{1, 3}},
		{in: "3, 1,3", want: []int{1, 3}},
		{in: "0,6", want: []int{0, 6}},
		{in: "7", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "mon", wantErr: true},
		{in: "1,,2", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseWeekdays(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseWeekdays(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseWeekdays(%q): %v", tc.in, err)
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseWeekdays(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}

	if FormatWeekdays([]int{1, 3}) != "1,3" || FormatWeekdays(nil) != "" {
		t.Error("FormatWeekdays mismatch")
	}
}

func TestParseShift(t *testing.T) {
	if s, err := ParseShift("morning"); err != nil || s != calendar.ShiftMorning {
		t.Errorf("expected MORNING, got %q %v", s, err)
	}
	if s, err := ParseShift(""); err != nil || s != "" {
		t.Errorf("empty shift should be full day, got %q %v", s, err)
	}
	if _, err := ParseShift("evening"); err == nil {
		t.Error("expected error for unknown shift")
	}
}

func TestBlock_Predicates(t *testing.T) {
	doctor := uuid.New()
	b := Block{
		DoctorID:  &doctor,
		Scope:     ScopeDoctor,
		StartDate: mustDate(t, "2025-06-09"),
		EndDate:   mustDate(t, "2025-06-13"),
		Shift:     calendar.ShiftAfternoon,
		Weekdays:  []int{2},
	}

	if !b.Covers(mustDate(t, "2025-06-13")) || b.Covers(mustDate(t, "2025-06-14")) {
		t.Error("end date must be inclusive and exclusive after")
	}
	if !b.AppliesOnWeekday(2) || b.AppliesOnWeekday(3) {
		t.Error("weekday subset not honoured")
	}
	if b.AppliesToShift(calendar.ShiftMorning) || !b.AppliesToShift(calendar.ShiftAfternoon) {
		t.Error("shift not honoured")
	}
	if !b.AppliesToDoctor(doctor) || b.AppliesToDoctor(uuid.New()) {
		t.Error("doctor scoping not honoured")
	}
	if b.DisplayReason() != DefaultClinicReason {
		t.Errorf("empty reason should fall back, got %q", b.DisplayReason())
	}

	clinic := Block{Scope: ScopeClinic}
	if !clinic.AppliesToDoctor(uuid.New()) {
		t.Error("clinic blocks apply to every doctor")
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := calendar.ParseDate(s)
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return v
}
