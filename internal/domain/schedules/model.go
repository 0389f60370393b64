package schedules

import "time"

// Schedule representa un patrón semanal recurrente de tomas:
// días + horas de pared + zona horaria, dueño de sus DoseInstances.
type Schedule struct {
	ID             string
	PrescriptionID string
	OwnerUserID    string

	// Días y horas nunca vacíos una vez persistido; los borradores
	// con sets vacíos viven solo del lado del caller.
	Days  []Weekday
	Times []string // "HH:mm", orden cronológico, sin duplicados

	Timezone string // nombre IANA, p.ej. "America/Lima"

	// Ventana de validez opcional, a nivel de fecha en la zona del schedule.
	// nil = sin límite en esa dirección. ValidUntil incluye todo su día.
	ValidFrom  *time.Time
	ValidUntil *time.Time

	// Dosis opcional; si está vacía se heredan los defaults de la prescripción.
	Quantity string // decimal positivo, p.ej. "2.5"
	Unit     DoseUnit

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasDay responde si el schedule incluye el día dado.
func (s Schedule) HasDay(w Weekday) bool {
	for _, d := range s.Days {
		if d == w {
			return true
		}
	}
	return false
}
