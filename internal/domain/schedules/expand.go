package schedules

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"medication-adherence-tracker/internal/platform/tzcal"
)

// MaxWindowDays limita la ventana de una sola generación. Es backpressure
// deliberado: acota tiempo y memoria de cada llamada.
const MaxWindowDays = 365

var (
	// ErrWindowTooLarge se devuelve cuando [from,to] supera MaxWindowDays.
	ErrWindowTooLarge = errors.New("generation window too large")

	// ErrBadTimezone se devuelve cuando la zona del schedule no carga.
	ErrBadTimezone = errors.New("invalid timezone")
)

// ExpandOptions parametriza una expansión.
type ExpandOptions struct {
	From time.Time
	To   time.Time

	// Techo opcional por fin de prescripción (incluye todo ese día).
	PrescriptionEnd *time.Time

	// Instante "ahora" capturado por el caller; ningún candidato puede ser
	// anterior o igual (no se genera retroactivamente).
	Now time.Time
}

// Expansion es el resultado de una expansión: instantes UTC en orden
// cronológico más el total pedido.
type Expansion struct {
	Candidates []time.Time
	Requested  int
}

// Expand convierte el patrón semanal del schedule en instantes absolutos
// dentro de la ventana [From,To], recortada por la ventana de validez del
// schedule y por el fin de la prescripción. Función pura: no toca storage.
//
// Un schedule borrador (sin días o sin horas) expande a vacío, sin error.
func Expand(sch Schedule, opts ExpandOptions) (Expansion, error) {
	if opts.To.Sub(opts.From) > MaxWindowDays*24*time.Hour {
		return Expansion{}, fmt.Errorf("%w: %s to %s", ErrWindowTooLarge,
			opts.From.Format(time.RFC3339), opts.To.Format(time.RFC3339))
	}

	if len(sch.Days) == 0 || len(sch.Times) == 0 {
		return Expansion{Candidates: []time.Time{}}, nil
	}

	loc, err := time.LoadLocation(sch.Timezone)
	if err != nil {
		return Expansion{}, fmt.Errorf("%w: %s", ErrBadTimezone, sch.Timezone)
	}

	// Horas de pared parseadas una sola vez.
	type wall struct{ hour, minute int }
	walls := make([]wall, 0, len(sch.Times))
	for _, ts := range sch.Times {
		h, m, err := ParseTimeOfDay(ts)
		if err != nil {
			return Expansion{}, err
		}
		walls = append(walls, wall{h, m})
	}

	days := make(map[time.Weekday]bool, len(sch.Days))
	for _, d := range sch.Days {
		days[d.Time()] = true
	}

	// Recorte de la ventana efectiva: [From,To] ∩ validez ∩ fin de prescripción.
	// Nunca antes de "ahora" (sin generación retroactiva).
	from := opts.From
	if opts.Now.After(from) {
		from = opts.Now
	}
	// Los límites de validez y de prescripción son fechas calendario, no
	// instantes: "valid_from: 2024-06-10" nombra el 10 de junio en la zona del
	// schedule aunque el wire lo serialice como medianoche UTC. DateStartInZone
	// lee la fecha tal cual viene, sin reinterpretar el instante (hacerlo
	// correría el límite un día en zonas al oeste de UTC).
	if sch.ValidFrom != nil {
		if vf := tzcal.DateStartInZone(*sch.ValidFrom, loc); vf.After(from) {
			from = vf
		}
	}

	to := opts.To
	if sch.ValidUntil != nil {
		if vu := tzcal.DateEndInZone(*sch.ValidUntil, loc).Add(-time.Nanosecond); vu.Before(to) {
			to = vu
		}
	}
	if opts.PrescriptionEnd != nil {
		if pe := tzcal.DateEndInZone(*opts.PrescriptionEnd, loc).Add(-time.Nanosecond); pe.Before(to) {
			to = pe
		}
	}

	if to.Before(from) {
		return Expansion{Candidates: []time.Time{}}, nil
	}

	candidates := make([]time.Time, 0)

	// Caminata día a día por la ventana recortada. Una ventana de un solo
	// día ejecuta exactamente una iteración.
	for day := tzcal.StartOfDayInZone(from, loc); !day.After(to); day = tzcal.AddDaysInZone(day, 1, loc) {
		if !days[tzcal.WeekdayInZone(day, loc)] {
			continue
		}
		for _, w := range walls {
			c := tzcal.LocalTimeToUTC(day, w.hour, w.minute, loc)
			if c.Before(from) || c.After(to) {
				continue
			}
			if !c.After(opts.Now) {
				continue
			}
			candidates = append(candidates, c)
		}
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Before(candidates[j]) })

	// Dedup: dos horas de pared distintas pueden colapsar al mismo instante
	// dentro de un hueco DST.
	out := make([]time.Time, 0, len(candidates))
	for _, c := range candidates {
		if n := len(out); n > 0 && c.Equal(out[n-1]) {
			continue
		}
		out = append(out, c)
	}

	return Expansion{Candidates: out, Requested: len(out)}, nil
}
