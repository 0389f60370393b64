package schedules

import "time"

// Conflict describe el choque entre el schedule candidato y uno existente,
// con los días y horas exactos que se pisan (para armar un mensaje preciso).
type Conflict struct {
	ConflictingScheduleID string
	Weekdays              []Weekday
	Times                 []string
}

// DetectConflicts compara un candidato contra los schedules existentes de la
// misma prescripción. Dos schedules chocan si y solo si:
//   - sus ventanas de validez se solapan, y
//   - comparten al menos un día de semana, y
//   - comparten al menos una hora idéntica ("08:00" vs "08:05" NO choca).
//
// Es una función pura y simétrica: el resultado no depende de cuál de los dos
// se trate como candidato.
func DetectConflicts(candidate Schedule, existing []Schedule) []Conflict {
	conflicts := make([]Conflict, 0)

	for _, other := range existing {
		if other.ID != "" && other.ID == candidate.ID {
			continue // un update no choca consigo mismo
		}
		if !windowsOverlap(candidate.ValidFrom, candidate.ValidUntil, other.ValidFrom, other.ValidUntil) {
			continue
		}

		days := intersectDays(candidate.Days, other.Days)
		if len(days) == 0 {
			continue
		}
		times := intersectTimes(candidate.Times, other.Times)
		if len(times) == 0 {
			continue
		}

		conflicts = append(conflicts, Conflict{
			ConflictingScheduleID: other.ID,
			Weekdays:              days,
			Times:                 times,
		})
	}

	return conflicts
}

// windowsOverlap: dos intervalos opcionalmente acotados se solapan salvo que
// uno termine estrictamente antes de que el otro empiece. nil = sin límite.
func windowsOverlap(aFrom, aUntil, bFrom, bUntil *time.Time) bool {
	if aUntil != nil && bFrom != nil && aUntil.Before(*bFrom) {
		return false
	}
	if bUntil != nil && aFrom != nil && bUntil.Before(*aFrom) {
		return false
	}
	return true
}

// intersectDays devuelve la intersección en orden canónico (lunes primero).
func intersectDays(a, b []Weekday) []Weekday {
	inA := make(map[Weekday]bool, len(a))
	for _, d := range a {
		inA[d] = true
	}
	inB := make(map[Weekday]bool, len(b))
	for _, d := range b {
		inB[d] = true
	}

	out := make([]Weekday, 0)
	for _, d := range weekdayOrder {
		if inA[d] && inB[d] {
			out = append(out, d)
		}
	}
	return out
}

func intersectTimes(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, t := range b {
		inB[t] = true
	}

	out := make([]string, 0)
	for _, t := range a {
		if inB[t] {
			out = append(out, t)
		}
	}
	return out
}
