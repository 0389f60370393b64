package medications

import "context"

type Repository interface {
	Create(ctx context.Context, m Medication) error
	GetByID(ctx context.Context, id string) (Medication, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]Medication, error)
	UpdateStock(ctx context.Context, id string, stockUnits int) error

	// ListLowStock devuelve los medicamentos con StockUnits <= LowStockThreshold
	// y umbral configurado (> 0). Lo consume el sweep diario.
	ListLowStock(ctx context.Context) ([]Medication, error)
}
