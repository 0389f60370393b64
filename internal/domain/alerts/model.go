package alerts

import "time"

// Channel define los canales de alerta soportados.
// @Enum push, email
type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
)

// Record deja constancia de un alerta de stock bajo ya enviado. La unicidad
// sobre (UserID, Channel, Day) es la que garantiza "a lo sumo un alerta por
// usuario/canal/día": el insert del registro ES el check-then-write atómico.
type Record struct {
	ID      string
	UserID  string
	Channel Channel

	// Día calendario en la zona del usuario, formato "2006-01-02".
	Day string

	// Medicamentos con stock bajo cubiertos por este alerta (digest).
	MedicationIDs []string

	SentAt time.Time
}
