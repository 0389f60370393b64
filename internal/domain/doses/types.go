package doses

// Status define el estado de una toma.
// SCHEDULED, TAKEN y SKIPPED se persisten; MISSED se deriva siempre en
// lectura y nunca se guarda.
// @Enum SCHEDULED, TAKEN, SKIPPED, MISSED
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusTaken     Status = "TAKEN"
	StatusSkipped   Status = "SKIPPED"
	StatusMissed    Status = "MISSED" // solo derivado
)
