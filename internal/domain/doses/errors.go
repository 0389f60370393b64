package doses

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicate: ya existe una instancia con el mismo (scheduleId, scheduledFor).
	// Para el persister una carrera perdida es "skipped", nunca una falla.
	ErrDuplicate = errors.New("duplicate dose instance")

	// ErrNotInteractable: la toma ya pasó su corte de edición (clasificada MISSED
	// o en estado terminal) y es de solo lectura.
	ErrNotInteractable = errors.New("dose is no longer interactable")
)

// StoreErrorClass clasifica errores del store en un set cerrado. La decisión
// se toma una sola vez en el adapter de storage; la política de retry lee la
// clase y nunca el texto del error.
type StoreErrorClass string

const (
	ClassTransient StoreErrorClass = "transient" // timeout, conexión caída, carrera de constraint
	ClassPermanent StoreErrorClass = "permanent" // todo lo demás: no se reintenta
)

// StoreError envuelve un error del store con su clase.
type StoreError struct {
	Class StoreErrorClass
	Err   error
}

func (e *StoreError) Error() string {
	return string(e.Class) + " store error: " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

// TransientError marca err como transitorio (candidato a retry).
func TransientError(err error) error {
	return &StoreError{Class: ClassTransient, Err: err}
}

// PermanentError marca err como permanente (propaga sin retry).
func PermanentError(err error) error {
	return &StoreError{Class: ClassPermanent, Err: err}
}

// IsTransient responde si err pertenece a la clase transitoria.
func IsTransient(err error) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Class == ClassTransient
	}
	return false
}
