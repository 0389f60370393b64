package prescriptions

import "time"

// Prescription agrupa los schedules de un medicamento para un usuario.
// EndDate es el techo que recorta toda expansión de sus schedules.
type Prescription struct {
	ID           string
	OwnerUserID  string
	MedicationID string

	PrescribedBy string // texto libre: nombre del médico

	StartDate *time.Time
	EndDate   *time.Time // incluye todo ese día; nil = sin techo

	// Defaults de dosis heredados por los schedules que no definen la suya.
	DoseQuantity string
	DoseUnit     string

	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}
