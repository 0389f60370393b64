package schedules

import (
	"errors"
	"testing"
	"time"
)

func utc(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func baseSchedule() Schedule {
	return Schedule{
		ID:             "sch-1",
		PrescriptionID: "pres-1",
		OwnerUserID:    "user-1",
		Days:           []Weekday{Monday, Wednesday},
		Times:          []string{"09:00"},
		Timezone:       "America/New_York",
	}
}

func TestExpandWeekdayFidelity(t *testing.T) {
	sch := baseSchedule()
	loc, _ := time.LoadLocation(sch.Timezone)

	// Dos semanas de junio, sin DST de por medio.
	opts := ExpandOptions{
		From: utc(2024, time.June, 3, 0, 0), // lunes
		To:   utc(2024, time.June, 17, 0, 0),
		Now:  utc(2024, time.June, 1, 0, 0),
	}

	res, err := Expand(sch, opts)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(res.Candidates) != 4 {
		t.Fatalf("expected 4 candidates, got %d: %v", len(res.Candidates), res.Candidates)
	}

	for _, c := range res.Candidates {
		local := c.In(loc)
		if wd := local.Weekday(); wd != time.Monday && wd != time.Wednesday {
			t.Errorf("candidate %s falls on %s", c, wd)
		}
		if local.Hour() != 9 || local.Minute() != 0 {
			t.Errorf("candidate %s is not 09:00 local (got %02d:%02d)", c, local.Hour(), local.Minute())
		}
	}

	for i := 1; i < len(res.Candidates); i++ {
		if !res.Candidates[i-1].Before(res.Candidates[i]) {
			t.Errorf("candidates out of order at %d: %v", i, res.Candidates)
		}
	}
}

func TestExpandRejectsOversizedWindow(t *testing.T) {
	sch := baseSchedule()
	opts := ExpandOptions{
		From: utc(2024, time.January, 1, 0, 0),
		To:   utc(2025, time.March, 1, 0, 0), // ~425 días
		Now:  utc(2024, time.January, 1, 0, 0),
	}

	if _, err := Expand(sch, opts); !errors.Is(err, ErrWindowTooLarge) {
		t.Fatalf("expected ErrWindowTooLarge, got %v", err)
	}
}

func TestExpandDraftScheduleIsEmpty(t *testing.T) {
	sch := baseSchedule()
	sch.Times = nil

	res, err := Expand(sch, ExpandOptions{
		From: utc(2024, time.June, 3, 0, 0),
		To:   utc(2024, time.June, 17, 0, 0),
		Now:  utc(2024, time.June, 1, 0, 0),
	})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(res.Candidates) != 0 {
		t.Fatalf("draft schedule expanded to %d candidates", len(res.Candidates))
	}
}

func TestExpandNeverRetroactive(t *testing.T) {
	sch := baseSchedule()

	// "Ahora" cae en medio de la ventana pedida: todo lo anterior se descarta.
	now := utc(2024, time.June, 10, 12, 0) // lunes mediodía UTC
	res, err := Expand(sch, ExpandOptions{
		From: utc(2024, time.June, 3, 0, 0),
		To:   utc(2024, time.June, 17, 0, 0),
		Now:  now,
	})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}

	for _, c := range res.Candidates {
		if !c.After(now) {
			t.Errorf("candidate %s is not strictly after now %s", c, now)
		}
	}
	// Lun 3 y mié 5 quedan atrás; lun 10 09:00 NY (13:00Z) todavía es futuro.
	// Restan lun 10 y mié 12 (lun 17 13:00Z cae fuera de la ventana).
	if len(res.Candidates) != 2 {
		t.Fatalf("expected 2 future candidates, got %d: %v", len(res.Candidates), res.Candidates)
	}
}

func TestExpandClampsToValidityAndPrescriptionEnd(t *testing.T) {
	sch := baseSchedule()
	loc, _ := time.LoadLocation(sch.Timezone)

	vf := time.Date(2024, time.June, 5, 0, 0, 0, 0, loc)
	sch.ValidFrom = &vf

	pe := time.Date(2024, time.June, 10, 12, 0, 0, 0, loc) // incluye todo el lunes 10
	res, err := Expand(sch, ExpandOptions{
		From:            utc(2024, time.June, 3, 0, 0),
		To:              utc(2024, time.June, 17, 0, 0),
		PrescriptionEnd: &pe,
		Now:             utc(2024, time.June, 1, 0, 0),
	})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}

	// Lunes 3 queda fuera por ValidFrom; miércoles 12 y lunes 17 por el techo.
	// Quedan miércoles 5 y lunes 10.
	if len(res.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %v", len(res.Candidates), res.Candidates)
	}
	if d := res.Candidates[0].In(loc).Day(); d != 5 {
		t.Errorf("first candidate on day %d, want 5", d)
	}
	if d := res.Candidates[1].In(loc).Day(); d != 10 {
		t.Errorf("second candidate on day %d, want 10", d)
	}
}

func TestExpandTreatsBoundsAsCalendarDates(t *testing.T) {
	// Los límites llegan del wire como medianoche UTC. "2024-06-10T00:00Z"
	// nombra el 10 de junio: en una zona al oeste de UTC ese instante cae el
	// día 9 local, y reinterpretarlo correría la ventana un día.
	sch := baseSchedule()
	sch.Days = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
	loc, _ := time.LoadLocation(sch.Timezone)

	vf := utc(2024, time.June, 10, 0, 0)
	vu := utc(2024, time.June, 10, 0, 0)
	sch.ValidFrom = &vf
	sch.ValidUntil = &vu

	res, err := Expand(sch, ExpandOptions{
		From: utc(2024, time.June, 1, 0, 0),
		To:   utc(2024, time.June, 20, 0, 0),
		Now:  utc(2024, time.May, 1, 0, 0),
	})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}

	if len(res.Candidates) != 1 {
		t.Fatalf("expected exactly 1 candidate, got %d: %v", len(res.Candidates), res.Candidates)
	}
	got := res.Candidates[0].In(loc)
	if got.Day() != 10 || got.Hour() != 9 {
		t.Fatalf("expected 2024-06-10 09:00 local, got %s", got)
	}
}

func TestExpandSingleDayWindow(t *testing.T) {
	sch := baseSchedule()
	sch.Times = []string{"08:00", "20:00"}

	// Ventana que cubre exactamente el lunes 3 de junio en NY.
	loc, _ := time.LoadLocation(sch.Timezone)
	from := time.Date(2024, time.June, 3, 0, 0, 0, 0, loc).UTC()
	to := time.Date(2024, time.June, 3, 23, 59, 0, 0, loc).UTC()

	res, err := Expand(sch, ExpandOptions{From: from, To: to, Now: from.Add(-time.Hour)})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("expected 2 candidates for single-day window, got %d: %v", len(res.Candidates), res.Candidates)
	}
}

func TestExpandSpringForwardGap(t *testing.T) {
	sch := baseSchedule()
	sch.Days = []Weekday{Sunday}
	sch.Times = []string{"02:30"} // no existe el 10 de marzo de 2024 en NY

	res, err := Expand(sch, ExpandOptions{
		From: utc(2024, time.March, 10, 0, 0),
		To:   utc(2024, time.March, 11, 0, 0),
		Now:  utc(2024, time.March, 9, 0, 0),
	})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(res.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %v", len(res.Candidates), res.Candidates)
	}

	// 02:30 cae dentro del hueco; se resuelve al primer instante válido, 03:00 EDT.
	want := utc(2024, time.March, 10, 7, 0)
	if !res.Candidates[0].Equal(want) {
		t.Fatalf("gap candidate = %s, want %s", res.Candidates[0], want)
	}
}

func TestExpandFallBackFirstOccurrence(t *testing.T) {
	sch := baseSchedule()
	sch.Days = []Weekday{Sunday}
	sch.Times = []string{"01:30"} // ocurre dos veces el 3 de noviembre de 2024 en NY

	res, err := Expand(sch, ExpandOptions{
		From: utc(2024, time.November, 3, 0, 0),
		To:   utc(2024, time.November, 4, 0, 0),
		Now:  utc(2024, time.November, 2, 0, 0),
	})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(res.Candidates) != 1 {
		t.Fatalf("expected exactly 1 candidate, got %d: %v", len(res.Candidates), res.Candidates)
	}

	// Primera ocurrencia: 01:30 EDT = 05:30Z (no 06:30Z).
	want := utc(2024, time.November, 3, 5, 30)
	if !res.Candidates[0].Equal(want) {
		t.Fatalf("ambiguous candidate = %s, want first occurrence %s", res.Candidates[0], want)
	}
}

func TestExpandBadTimezone(t *testing.T) {
	sch := baseSchedule()
	sch.Timezone = "Mars/Olympus"

	if _, err := Expand(sch, ExpandOptions{
		From: utc(2024, time.June, 3, 0, 0),
		To:   utc(2024, time.June, 4, 0, 0),
		Now:  utc(2024, time.June, 1, 0, 0),
	}); !errors.Is(err, ErrBadTimezone) {
		t.Fatalf("expected ErrBadTimezone, got %v", err)
	}
}
