package doses

import "time"

// DoseInstance es una ocurrencia concreta y fechada de una toma programada.
// Invariante de unicidad: a lo sumo una instancia por (ScheduleID, ScheduledFor);
// ese par es la clave de idempotencia de todo el motor.
type DoseInstance struct {
	ID             string
	ScheduleID     string
	PrescriptionID string
	OwnerUserID    string

	ScheduledFor time.Time // instante absoluto UTC
	Status       Status
	TakenAt      *time.Time

	Quantity string
	Unit     string

	CreatedAt time.Time
	UpdatedAt time.Time
}
