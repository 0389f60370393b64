package tzcal

import "time"

// StartOfDayInZone devuelve el instante 00:00:00.000 del día calendario
// que contiene t, según la zona loc.
func StartOfDayInZone(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// EndOfDayInZone devuelve el inicio del día siguiente (límite exclusivo).
func EndOfDayInZone(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}

// DateStartInZone trata a t como una fecha calendario (leída en la zona que t
// ya trae) y devuelve el 00:00 de esa misma fecha en loc. A diferencia de
// StartOfDayInZone, NO reinterpreta el instante: "2024-06-10T00:00Z" es el
// 10 de junio también en America/New_York, no el 9.
func DateStartInZone(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DateEndInZone es el inicio del día siguiente a la fecha calendario de t,
// en loc (límite exclusivo).
func DateEndInZone(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}

// WeekdayInZone devuelve el día de la semana según la zona loc.
func WeekdayInZone(t time.Time, loc *time.Location) time.Weekday {
	return t.In(loc).Weekday()
}

// AddDaysInZone avanza n días calendario en loc preservando la hora de pared,
// incluso cruzando cambios de DST.
func AddDaysInZone(t time.Time, n int, loc *time.Location) time.Time {
	lt := t.In(loc)
	y, m, d := lt.Date()
	return time.Date(y, m, d+n, lt.Hour(), lt.Minute(), lt.Second(), lt.Nanosecond(), loc)
}

// LocalTimeToUTC combina el día calendario de day (en loc) con la hora de pared
// hour:minute y devuelve el instante absoluto.
//
// Política DST (determinista, no depende de la normalización de time.Date):
//   - hora inexistente (hueco de primavera): primer instante válido después del hueco;
//   - hora duplicada (solape de otoño): primera ocurrencia (el instante UTC más temprano).
func LocalTimeToUTC(day time.Time, hour, minute int, loc *time.Location) time.Time {
	y, m, d := day.In(loc).Date()

	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	dayEnd := time.Date(y, m, d+1, 0, 0, 0, 0, loc)

	_, offStart := dayStart.Zone()
	_, offEnd := dayEnd.Add(-time.Second).Zone()

	// La hora de pared interpretada como UTC; restando el offset de zona
	// se obtiene cada ocurrencia candidata.
	wallUTC := time.Date(y, m, d, hour, minute, 0, 0, time.UTC)

	offsets := []int{offStart}
	if offEnd != offStart {
		offsets = append(offsets, offEnd)
	}

	var first time.Time
	for _, off := range offsets {
		cand := wallUTC.Add(-time.Duration(off) * time.Second)
		lc := cand.In(loc)
		if lc.Hour() != hour || lc.Minute() != minute || lc.Day() != d {
			continue // no es una ocurrencia real de esa hora de pared
		}
		if first.IsZero() || cand.Before(first) {
			first = cand
		}
	}
	if !first.IsZero() {
		return first.In(time.UTC)
	}

	// Hora inexistente: cayó dentro del hueco. El primer instante válido después
	// del hueco es el momento exacto de la transición de offset.
	return transitionAfter(dayStart, offStart).In(time.UTC)
}

// transitionAfter busca (binaria, a resolución de segundo) el primer instante
// posterior a from cuyo offset de zona difiere del offset off.
func transitionAfter(from time.Time, off int) time.Time {
	loc := from.Location()

	lo := from.Unix()
	hi := from.Add(48 * time.Hour).Unix()

	for lo+1 < hi {
		mid := (lo + hi) / 2
		if _, o := time.Unix(mid, 0).In(loc).Zone(); o == off {
			lo = mid
		} else {
			hi = mid
		}
	}
	return time.Unix(hi, 0).In(loc)
}
