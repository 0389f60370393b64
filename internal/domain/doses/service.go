package doses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medication-adherence-tracker/internal/domain/schedules"

	"github.com/google/uuid"
)

// Presupuestos de retry del persister. Solo se reintenta la clase transitoria;
// cualquier otro error propaga de inmediato.
const (
	bulkAttempts     = 3
	bulkInitialDelay = 500 * time.Millisecond
	bulkMaxDelay     = 2 * time.Second

	itemAttempts     = 2
	itemInitialDelay = 250 * time.Millisecond
)

// GenerationResult resume una corrida del persister. La falla parcial es un
// resultado de primera clase: errors[] convive con generated/skipped y el
// caller inspecciona los contadores en vez de asumir éxito.
type GenerationResult struct {
	Requested int      `json:"requested"`
	Generated int      `json:"generated"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors"`
}

type Service struct {
	repo      Repository
	schedules schedules.Repository
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewService(repo Repository, schedRepo schedules.Repository) *Service {
	return &Service{
		repo:      repo,
		schedules: schedRepo,
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// GenerateOptions parametriza una corrida de generación para un schedule.
type GenerateOptions struct {
	From time.Time
	To   time.Time

	// Techo por fin de prescripción (incluye todo ese día).
	PrescriptionEnd *time.Time

	// Defaults de dosis cuando el schedule no define los suyos.
	DefaultQuantity string
	DefaultUnit     string
}

// Generate expande el schedule y persiste los candidatos garantizando la
// unicidad (scheduleId, scheduledFor) aunque se invoque repetida o
// concurrentemente: la segunda corrida idéntica es un no-op y dos corridas
// simultáneas nunca producen fila duplicada (gana exactamente un insert, el
// otro observa skip).
//
// Llamar una vez por schedule: el backoff bloquea solo a este caller, de modo
// que schedules independientes puedan procesarse en paralelo.
func (s *Service) Generate(ctx context.Context, sch schedules.Schedule, opts GenerateOptions) (GenerationResult, error) {
	exp, err := schedules.Expand(sch, schedules.ExpandOptions{
		From:            opts.From,
		To:              opts.To,
		PrescriptionEnd: opts.PrescriptionEnd,
		Now:             s.now(),
	})
	if err != nil {
		return GenerationResult{}, err
	}

	res := GenerationResult{Requested: exp.Requested, Errors: []string{}}
	if len(exp.Candidates) == 0 {
		return res, nil
	}

	qty := sch.Quantity
	if qty == "" {
		qty = opts.DefaultQuantity
	}
	unit := string(sch.Unit)
	if unit == "" {
		unit = opts.DefaultUnit
	}

	// Una sola consulta acotada por el rango del lote, no una por candidato.
	first := exp.Candidates[0]
	last := exp.Candidates[len(exp.Candidates)-1]
	existing, err := s.repo.ListByScheduleBetween(ctx, sch.ID, first, last)
	if err != nil {
		return res, err
	}

	present := make(map[int64]bool, len(existing))
	for _, d := range existing {
		present[d.ScheduledFor.UTC().UnixNano()] = true
	}

	now := s.now()
	missing := make([]DoseInstance, 0, len(exp.Candidates))
	for _, c := range exp.Candidates {
		if present[c.UTC().UnixNano()] {
			res.Skipped++
			continue
		}
		missing = append(missing, DoseInstance{
			ID:             uuid.NewString(),
			ScheduleID:     sch.ID,
			PrescriptionID: sch.PrescriptionID,
			OwnerUserID:    sch.OwnerUserID,
			ScheduledFor:   c,
			Status:         StatusScheduled,
			Quantity:       qty,
			Unit:           unit,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	if len(missing) == 0 {
		return res, nil
	}

	inserted, err := s.bulkInsertWithRetry(ctx, missing)
	if err == nil {
		res.Generated = inserted
		// Las filas que el bulk no insertó las ganó una corrida concurrente.
		res.Skipped += len(missing) - inserted
		return res, nil
	}
	if !IsTransient(err) {
		return res, err
	}

	// Presupuesto del bulk agotado: caída al camino ítem por ítem, donde una
	// violación de unicidad cuenta como skip y no como falla.
	s.insertOneByOne(ctx, missing, &res)
	return res, nil
}

func (s *Service) bulkInsertWithRetry(ctx context.Context, items []DoseInstance) (int, error) {
	delay := bulkInitialDelay

	var lastErr error
	for attempt := 1; attempt <= bulkAttempts; attempt++ {
		inserted, err := s.repo.BulkInsert(ctx, items)
		if err == nil {
			return inserted, nil
		}
		if !IsTransient(err) {
			return 0, err
		}
		lastErr = err

		if attempt == bulkAttempts {
			break
		}
		if err := s.sleep(ctx, delay); err != nil {
			return 0, TransientError(err)
		}
		delay *= 2
		if delay > bulkMaxDelay {
			delay = bulkMaxDelay
		}
	}
	return 0, lastErr
}

func (s *Service) insertOneByOne(ctx context.Context, items []DoseInstance, res *GenerationResult) {
	for _, item := range items {
		err := s.insertWithRetry(ctx, item)
		switch {
		case err == nil:
			res.Generated++
		case isDuplicate(err):
			res.Skipped++
		default:
			res.Errors = append(res.Errors,
				fmt.Sprintf("%s: %v", item.ScheduledFor.Format(time.RFC3339), err))
		}
	}
}

func (s *Service) insertWithRetry(ctx context.Context, item DoseInstance) error {
	delay := itemInitialDelay

	var lastErr error
	for attempt := 1; attempt <= itemAttempts; attempt++ {
		err := s.repo.Insert(ctx, item)
		if err == nil || isDuplicate(err) {
			return err
		}
		if !IsTransient(err) {
			return err
		}
		lastErr = err

		if attempt == itemAttempts {
			break
		}
		if err := s.sleep(ctx, delay); err != nil {
			return TransientError(err)
		}
		delay *= 2
	}
	return lastErr
}

func isDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// GenerateForScheduleID resuelve el schedule y delega en Generate. Lo usan el
// handler HTTP y el sweep de horizonte.
func (s *Service) GenerateForScheduleID(ctx context.Context, scheduleID string, opts GenerateOptions) (GenerationResult, error) {
	sch, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return GenerationResult{}, err
	}
	return s.Generate(ctx, sch, opts)
}

// ---- lecturas y transiciones explícitas ----

func (s *Service) GetByID(ctx context.Context, id string) (DoseInstance, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return DoseInstance{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListBySchedule(ctx context.Context, scheduleID string, from, to time.Time) ([]DoseInstance, error) {
	return s.repo.ListByScheduleBetween(ctx, scheduleID, from, to)
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string, from, to time.Time) ([]DoseInstance, error) {
	return s.repo.ListByOwnerBetween(ctx, ownerUserID, from, to)
}

// Classify devuelve el estado efectivo de la instancia según la zona de su
// schedule y el "ahora" del servicio.
func (s *Service) Classify(ctx context.Context, d DoseInstance) (Status, bool, error) {
	loc, err := s.scheduleLocation(ctx, d.ScheduleID)
	if err != nil {
		return "", false, err
	}
	st, interactable := EffectiveStatus(d, loc, s.now())
	return st, interactable, nil
}

// MarkTaken registra la toma. Solo se admite mientras la instancia siga
// interactuable: pasado el corte del día es de solo lectura.
func (s *Service) MarkTaken(ctx context.Context, id string, takenAt *time.Time) (DoseInstance, error) {
	return s.transition(ctx, id, StatusTaken, takenAt)
}

// MarkSkipped registra el salto explícito de la toma.
func (s *Service) MarkSkipped(ctx context.Context, id string) (DoseInstance, error) {
	return s.transition(ctx, id, StatusSkipped, nil)
}

func (s *Service) transition(ctx context.Context, id string, to Status, takenAt *time.Time) (DoseInstance, error) {
	d, err := s.GetByID(ctx, id)
	if err != nil {
		return DoseInstance{}, err
	}

	loc, err := s.scheduleLocation(ctx, d.ScheduleID)
	if err != nil {
		return DoseInstance{}, err
	}

	now := s.now()
	st, interactable := EffectiveStatus(d, loc, now)
	if st != StatusScheduled || !interactable {
		return DoseInstance{}, ErrNotInteractable
	}

	if to == StatusTaken && takenAt == nil {
		takenAt = &now
	}
	if to != StatusTaken {
		takenAt = nil
	}

	if err := s.repo.SetStatus(ctx, d.ID, to, takenAt, now); err != nil {
		return DoseInstance{}, err
	}
	return s.repo.GetByID(ctx, d.ID)
}

func (s *Service) scheduleLocation(ctx context.Context, scheduleID string) (*time.Location, error) {
	sch, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(sch.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule %s has invalid timezone %s", scheduleID, sch.Timezone)
	}
	return loc, nil
}
