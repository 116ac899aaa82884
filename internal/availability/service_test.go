package availability

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-appointment-scheduling/internal/apperr"
	"github.com/hackgods/clinic-appointment-scheduling/internal/calendar"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestService_CreateClinicBlock_Validates(t *testing.T) {
	svc := NewService(&memRepo{}, nil, testLogger())

	cases := []struct {
		name  string
		in    CreateInput
		field string
	}{
		{"inverted range", CreateInput{StartDate: "2025-06-13", EndDate: "2025-06-09"}, ""},
		{"bad start", CreateInput{StartDate: "13/06/2025", EndDate: "2025-06-13"}, FieldStartDate},
		{"missing end", CreateInput{StartDate: "2025-06-13"}, FieldEndDate},
		{"bad shift", CreateInput{StartDate: "2025-06-09", EndDate: "2025-06-13", Shift: "NIGHT"}, FieldShift},
		{"bad weekday", CreateInput{StartDate: "2025-06-09", EndDate: "2025-06-13", Weekdays: "1,9"}, FieldWeekdays},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateClinicBlock(context.Background(), tc.in)
			if !errors.Is(err, apperr.ErrInvalidRange) {
				t.Fatalf("expected invalid range, got %v", err)
			}
			var e *apperr.Error
			if !errors.As(err, &e) || e.Field != tc.field {
				t.Fatalf("expected field %q, got %+v", tc.field, e)
			}
		})
	}
}

func TestService_CreateClinicBlock_Defaults(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, nil, testLogger())

	b, err := svc.CreateClinicBlock(context.Background(), CreateInput{
		StartDate: "2025-06-09",
		EndDate:   "2025-06-09",
		Shift:     "afternoon",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Scope != ScopeClinic || b.DoctorID != nil {
		t.Errorf("clinic blocks carry no doctor: %+v", b)
	}
	if b.Reason != DefaultClinicReason {
		t.Errorf("unexpected default reason %q", b.Reason)
	}
	if b.Shift != calendar.ShiftAfternoon {
		t.Errorf("unexpected shift %q", b.Shift)
	}
	if b.ID == uuid.Nil {
		t.Error("expected id to be assigned")
	}
}

func TestService_CreateDoctorBlock_UnknownDoctor(t *testing.T) {
	svc := NewService(&memRepo{}, doctorSet{}, testLogger())
	_, err := svc.CreateDoctorBlock(context.Background(), uuid.New(), CreateInput{StartDate: "2025-06-09", EndDate: "2025-06-10"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestService_Delete(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, nil, testLogger())
	b, err := svc.CreateClinicBlock(context.Background(), CreateInput{StartDate: "2025-06-09", EndDate: "2025-06-10"})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(context.Background(), b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(context.Background(), b.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
}

func TestService_StoreErrorsAreInternal(t *testing.T) {
	repo := &memRepo{err: errStore}
	svc := NewService(repo, nil, testLogger())

	_, err := svc.CreateClinicBlock(context.Background(), CreateInput{StartDate: "2025-06-09", EndDate: "2025-06-10"})
	if apperr.KindOf(err) != apperr.KindInternal || !errors.Is(err, errStore) {
		t.Fatalf("expected wrapped internal error, got %v", err)
	}
	if _, err := svc.CheckDay(context.Background(), uuid.New(), "2025-06-09"); !errors.Is(err, errStore) {
		t.Fatalf("expected store error from CheckDay, got %v", err)
	}
}

func TestService_CheckDay(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, nil, testLogger())
	if _, err := svc.CreateClinicBlock(context.Background(), CreateInput{
		StartDate: "2025-12-24", EndDate: "2025-12-26", Reason: "Holidays",
	}); err != nil {
		t.Fatal(err)
	}

	check, err := svc.CheckDay(context.Background(), uuid.New(), "2025-12-25")
	if err != nil {
		t.Fatal(err)
	}
	if !check.Blocked || check.Reason != "Holidays" {
		t.Fatalf("unexpected check %+v", check)
	}

	if _, err := svc.CheckDay(context.Background(), uuid.New(), "25/12/2025"); !errors.Is(err, apperr.ErrInvalidInstant) {
		t.Fatalf("expected invalid instant for bad date, got %v", err)
	}
}
