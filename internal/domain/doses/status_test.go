package doses

import (
	"testing"
	"time"
)

func TestEffectiveStatusTerminalStates(t *testing.T) {
	loc, _ := time.LoadLocation("America/New_York")
	now := time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)

	taken := DoseInstance{Status: StatusTaken, ScheduledFor: now.Add(-48 * time.Hour)}
	if st, ok := EffectiveStatus(taken, loc, now); st != StatusTaken || ok {
		t.Fatalf("TAKEN => (%s, %v), want (TAKEN, false)", st, ok)
	}

	skipped := DoseInstance{Status: StatusSkipped, ScheduledFor: now.Add(48 * time.Hour)}
	if st, ok := EffectiveStatus(skipped, loc, now); st != StatusSkipped || ok {
		t.Fatalf("SKIPPED => (%s, %v), want (SKIPPED, false)", st, ok)
	}
}

func TestEffectiveStatusSameDayStaysScheduled(t *testing.T) {
	loc, _ := time.LoadLocation("America/New_York")

	// Toma de las 08:00 NY; son las 22:00 NY del mismo día: pasada pero no perdida.
	d := DoseInstance{
		Status:       StatusScheduled,
		ScheduledFor: time.Date(2024, time.June, 10, 8, 0, 0, 0, loc).UTC(),
	}
	now := time.Date(2024, time.June, 10, 22, 0, 0, 0, loc).UTC()

	st, interactable := EffectiveStatus(d, loc, now)
	if st != StatusScheduled {
		t.Fatalf("status = %s, want SCHEDULED", st)
	}
	if !interactable {
		t.Fatal("same-day dose should still be interactable")
	}
}

func TestEffectiveStatusMissedAfterDayEnds(t *testing.T) {
	loc, _ := time.LoadLocation("America/New_York")

	d := DoseInstance{
		Status:       StatusScheduled,
		ScheduledFor: time.Date(2024, time.June, 10, 8, 0, 0, 0, loc).UTC(),
	}

	// Medianoche exacta del día siguiente: el corte es inclusivo hacia MISSED.
	midnight := time.Date(2024, time.June, 11, 0, 0, 0, 0, loc).UTC()
	if st, ok := EffectiveStatus(d, loc, midnight); st != StatusMissed || ok {
		t.Fatalf("at midnight => (%s, %v), want (MISSED, false)", st, ok)
	}

	// Un instante antes del corte todavía se puede actuar.
	justBefore := midnight.Add(-time.Second)
	if st, ok := EffectiveStatus(d, loc, justBefore); st != StatusScheduled || !ok {
		t.Fatalf("just before midnight => (%s, %v), want (SCHEDULED, true)", st, ok)
	}
}

func TestEffectiveStatusUsesScheduleZone(t *testing.T) {
	tokyo, _ := time.LoadLocation("Asia/Tokyo")

	// 23:00 en Tokio del 10 de junio = 14:00Z. A las 16:00Z ya es 11 de junio
	// en Tokio: perdida allí aunque en UTC siga siendo el día 10.
	d := DoseInstance{
		Status:       StatusScheduled,
		ScheduledFor: time.Date(2024, time.June, 10, 23, 0, 0, 0, tokyo).UTC(),
	}
	now := time.Date(2024, time.June, 10, 16, 0, 0, 0, time.UTC)

	if st, ok := EffectiveStatus(d, tokyo, now); st != StatusMissed || ok {
		t.Fatalf("in schedule zone the day is over => (%s, %v), want (MISSED, false)", st, ok)
	}
}

func TestEffectiveStatusFutureDose(t *testing.T) {
	loc, _ := time.LoadLocation("America/New_York")

	d := DoseInstance{
		Status:       StatusScheduled,
		ScheduledFor: time.Date(2024, time.June, 12, 8, 0, 0, 0, loc).UTC(),
	}
	now := time.Date(2024, time.June, 10, 8, 0, 0, 0, loc).UTC()

	if st, ok := EffectiveStatus(d, loc, now); st != StatusScheduled || !ok {
		t.Fatalf("future dose => (%s, %v), want (SCHEDULED, true)", st, ok)
	}
}
