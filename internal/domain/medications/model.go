package medications

import "time"

// Form define la presentación del medicamento.
// @Enum tablet, capsule, liquid, inhaler, injection, other
type Form string

const (
	FormTablet    Form = "tablet"
	FormCapsule   Form = "capsule"
	FormLiquid    Form = "liquid"
	FormInhaler   Form = "inhaler"
	FormInjection Form = "injection"
	FormOther     Form = "other"
)

// Medication representa un medicamento registrado por un usuario, con el
// inventario que alimenta al sweep diario de stock bajo.
type Medication struct {
	ID          string
	OwnerUserID string

	Name     string
	Form     Form
	Strength string // texto libre: "500 mg", "5 mg/ml"

	// Inventario: StockUnits lo descuenta el caller al marcar tomas;
	// el sweep alerta cuando queda en o debajo del umbral.
	StockUnits        int
	LowStockThreshold int

	// Zona del usuario para el corte "un alerta por día".
	Timezone string

	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}
