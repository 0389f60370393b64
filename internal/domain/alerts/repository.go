package alerts

import (
	"context"
	"errors"
)

// ErrDuplicate: ya hay un alerta registrado para (user, channel, day).
var ErrDuplicate = errors.New("alert already recorded for this day")

type Repository interface {
	// Insert registra el alerta si y solo si (UserID, Channel, Day) no existe;
	// ErrDuplicate en caso contrario. La atomicidad la da el store (constraint
	// única), igual que en la persistencia de tomas: una carrera perdida se
	// observa como duplicado, nunca como doble envío.
	Insert(ctx context.Context, r Record) error

	ListByUser(ctx context.Context, userID string) ([]Record, error)
}
