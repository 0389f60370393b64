package schedules

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Weekday define los días de la semana soportados por un schedule.
// @Enum MON, TUE, WED, THU, FRI, SAT, SUN
type Weekday string

const (
	Monday    Weekday = "MON"
	Tuesday   Weekday = "TUE"
	Wednesday Weekday = "WED"
	Thursday  Weekday = "THU"
	Friday    Weekday = "FRI"
	Saturday  Weekday = "SAT"
	Sunday    Weekday = "SUN"
)

// orden canónico lunes-primero, para normalizar y para mensajes estables
var weekdayOrder = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var weekdayToTime = map[Weekday]time.Weekday{
	Monday:    time.Monday,
	Tuesday:   time.Tuesday,
	Wednesday: time.Wednesday,
	Thursday:  time.Thursday,
	Friday:    time.Friday,
	Saturday:  time.Saturday,
	Sunday:    time.Sunday,
}

// ParseWeekday acepta el código en mayúsculas o minúsculas.
func ParseWeekday(s string) (Weekday, error) {
	w := Weekday(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := weekdayToTime[w]; !ok {
		return "", errors.New("unknown weekday: " + s)
	}
	return w, nil
}

// Time devuelve el time.Weekday equivalente.
func (w Weekday) Time() time.Weekday {
	return weekdayToTime[w]
}

// DoseUnit define los códigos de unidad de dosis soportados.
// @Enum mg, ml, tablet, capsule, drop, puff, unit
type DoseUnit string

const (
	UnitMilligram  DoseUnit = "mg"
	UnitMilliliter DoseUnit = "ml"
	UnitTablet     DoseUnit = "tablet"
	UnitCapsule    DoseUnit = "capsule"
	UnitDrop       DoseUnit = "drop"
	UnitPuff       DoseUnit = "puff"
	UnitGeneric    DoseUnit = "unit"
)

var validUnits = map[DoseUnit]bool{
	UnitMilligram:  true,
	UnitMilliliter: true,
	UnitTablet:     true,
	UnitCapsule:    true,
	UnitDrop:       true,
	UnitPuff:       true,
	UnitGeneric:    true,
}

// ParseTimeOfDay valida una hora de pared "HH:mm" (24h) y devuelve hora y minuto.
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, 0, errors.New("time of day must be HH:mm: " + s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, errors.New("time of day must be HH:mm: " + s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, errors.New("time of day must be HH:mm: " + s)
	}
	return hour, minute, nil
}
