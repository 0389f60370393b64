package doses

import (
	"context"
	"time"
)

// Repository es el único punto del motor que toca storage compartido.
// El store debe sostener la restricción de unicidad (scheduleId, scheduledFor).
type Repository interface {
	// BulkInsert inserta el lote con semántica skip-duplicate (la carrera que
	// pierde se tolera, no se escala) y devuelve cuántas filas entraron.
	BulkInsert(ctx context.Context, items []DoseInstance) (int, error)

	// Insert inserta una instancia; ErrDuplicate si la clave ya existe.
	Insert(ctx context.Context, d DoseInstance) error

	GetByID(ctx context.Context, id string) (DoseInstance, error)

	// ListByScheduleBetween es la consulta acotada de rango del persister:
	// una sola query por lote, no una por candidato. [from,to] inclusivo.
	ListByScheduleBetween(ctx context.Context, scheduleID string, from, to time.Time) ([]DoseInstance, error)

	ListByOwnerBetween(ctx context.Context, ownerUserID string, from, to time.Time) ([]DoseInstance, error)

	// SetStatus persiste una transición explícita (TAKEN/SKIPPED).
	SetStatus(ctx context.Context, id string, status Status, takenAt *time.Time, updatedAt time.Time) error
}
