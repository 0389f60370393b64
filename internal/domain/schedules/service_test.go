package schedules

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeRepo mínimo para probar el service sin adaptadores.
type fakeRepo struct {
	byID []Schedule
}

func (f *fakeRepo) Create(_ context.Context, sch Schedule) error {
	f.byID = append(f.byID, sch)
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (Schedule, error) {
	for _, s := range f.byID {
		if s.ID == id {
			return s, nil
		}
	}
	return Schedule{}, errors.New("not found")
}

func (f *fakeRepo) ListByPrescription(_ context.Context, prescriptionID string) ([]Schedule, error) {
	out := make([]Schedule, 0)
	for _, s := range f.byID {
		if s.PrescriptionID == prescriptionID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListAll(_ context.Context) ([]Schedule, error) {
	return append([]Schedule(nil), f.byID...), nil
}

func validInput() CreateInput {
	return CreateInput{
		PrescriptionID: "pres-1",
		Days:           []string{"wed", "MON", "mon"},
		Times:          []string{"20:00", "08:00", "08:00"},
		Timezone:       "America/New_York",
		Quantity:       "2.5",
		Unit:           "ml",
	}
}

func TestServiceCreateNormalizesInput(t *testing.T) {
	svc := NewService(&fakeRepo{})
	svc.now = func() time.Time { return time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC) }

	sch, conflicts, err := svc.Create(context.Background(), "user-1", validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("unexpected conflicts: %v", conflicts)
	}
	if sch.ID == "" {
		t.Fatal("schedule not assigned an ID")
	}

	// Días deduplicados en orden canónico, horas deduplicadas y ordenadas.
	if len(sch.Days) != 2 || sch.Days[0] != Monday || sch.Days[1] != Wednesday {
		t.Errorf("days = %v, want [MON WED]", sch.Days)
	}
	if len(sch.Times) != 2 || sch.Times[0] != "08:00" || sch.Times[1] != "20:00" {
		t.Errorf("times = %v, want [08:00 20:00]", sch.Times)
	}
}

func TestServiceCreateRejectsBadInput(t *testing.T) {
	svc := NewService(&fakeRepo{})

	cases := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"empty days", func(in *CreateInput) { in.Days = nil }},
		{"empty times", func(in *CreateInput) { in.Times = nil }},
		{"bad weekday", func(in *CreateInput) { in.Days = []string{"LUN"} }},
		{"bad time format", func(in *CreateInput) { in.Times = []string{"8:00"} }},
		{"out of range time", func(in *CreateInput) { in.Times = []string{"24:00"} }},
		{"missing timezone", func(in *CreateInput) { in.Timezone = "" }},
		{"unknown timezone", func(in *CreateInput) { in.Timezone = "Mars/Olympus" }},
		{"zero quantity", func(in *CreateInput) { in.Quantity = "0" }},
		{"negative quantity", func(in *CreateInput) { in.Quantity = "-1" }},
		{"unknown unit", func(in *CreateInput) { in.Unit = "barrels" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			if _, _, err := svc.Create(context.Background(), "user-1", in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestServiceCreateRejectsInvertedWindow(t *testing.T) {
	svc := NewService(&fakeRepo{})

	from := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	in := validInput()
	in.ValidFrom = &from
	in.ValidUntil = &until

	if _, _, err := svc.Create(context.Background(), "user-1", in); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestServiceCreateReportsConflictsWithoutPersisting(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	if _, _, err := svc.Create(context.Background(), "user-1", validInput()); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	// Mismo slot en la misma prescripción: conflicto, y no se persiste.
	_, conflicts, err := svc.Create(context.Background(), "user-1", validInput())
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(conflicts))
	}
	if len(repo.byID) != 1 {
		t.Fatalf("conflicting schedule was persisted; repo has %d schedules", len(repo.byID))
	}
}

func TestServiceCreateAllowsSameSlotAcrossPrescriptions(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	if _, _, err := svc.Create(context.Background(), "user-1", validInput()); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	in := validInput()
	in.PrescriptionID = "pres-2"
	_, conflicts, err := svc.Create(context.Background(), "user-1", in)
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("schedules of different prescriptions should not conflict, got %v", conflicts)
	}
}
