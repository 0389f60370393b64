package doses

import (
	"time"

	"medication-adherence-tracker/internal/platform/tzcal"
)

// Los dos cortes son hoy el mismo (fin del día calendario de la toma, en la
// zona del schedule), pero se mantienen con nombre propio para poder
// divergirlos sin re-derivar la lógica: p.ej. marcar MISSED antes para
// notificaciones, conservando la edición hasta fin de día.
const (
	missedGraceDays       = 0 // MISSED recién cuando el día de la toma terminó
	interactableGraceDays = 0 // editable hasta el mismo corte
)

// EffectiveStatus clasifica el estado vivo de una instancia y si todavía
// admite acción del usuario. Función pura: el caller captura "now".
//
//   - TAKEN / SKIPPED son terminales: se devuelven tal cual, no interactuables.
//   - SCHEDULED se muestra MISSED una vez que "now" (en la zona del schedule)
//     pasó el fin del día calendario que contiene ScheduledFor. Una toma no
//     está "perdida" al pasar su minuto, solo cuando su día terminó.
//   - Mientras no pase ese corte, la instancia sigue SCHEDULED e interactuable
//     (se permite la corrección del mismo día, nunca la edición retroactiva).
func EffectiveStatus(d DoseInstance, loc *time.Location, now time.Time) (Status, bool) {
	switch d.Status {
	case StatusTaken:
		return StatusTaken, false
	case StatusSkipped:
		return StatusSkipped, false
	}

	dayEnd := tzcal.EndOfDayInZone(d.ScheduledFor, loc)
	missedCutoff := tzcal.AddDaysInZone(dayEnd, missedGraceDays, loc)
	interactCutoff := tzcal.AddDaysInZone(dayEnd, interactableGraceDays, loc)

	if !now.Before(missedCutoff) {
		return StatusMissed, false
	}
	return StatusScheduled, now.Before(interactCutoff)
}
