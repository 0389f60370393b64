package schedules

import "context"

type Repository interface {
	Create(ctx context.Context, s Schedule) error
	GetByID(ctx context.Context, id string) (Schedule, error)
	ListByPrescription(ctx context.Context, prescriptionID string) ([]Schedule, error)

	// ListAll se usa por el sweep de generación para recorrer todos los
	// schedules persistidos (todos son válidos: los borradores no se guardan).
	ListAll(ctx context.Context) ([]Schedule, error)
}
