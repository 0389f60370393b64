package schedules

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	PrescriptionID string
	Days           []string
	Times          []string
	Timezone       string
	ValidFrom      *time.Time
	ValidUntil     *time.Time
	Quantity       string
	Unit           string
}

// Create valida el schedule, lo confronta contra los demás schedules de la
// prescripción y recién entonces lo persiste. Si hay conflictos devuelve la
// lista sin persistir nada: los schedules en conflicto nunca llegan al store.
func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Schedule, []Conflict, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return Schedule{}, nil, ErrInvalidInput
	}
	if strings.TrimSpace(in.PrescriptionID) == "" {
		return Schedule{}, nil, ErrInvalidInput
	}

	sch, err := s.buildSchedule(ownerUserID, in)
	if err != nil {
		return Schedule{}, nil, err
	}

	conflicts, err := s.CheckConflicts(ctx, sch)
	if err != nil {
		return Schedule{}, nil, err
	}
	if len(conflicts) > 0 {
		return Schedule{}, conflicts, nil
	}

	now := s.now()
	sch.ID = uuid.NewString()
	sch.CreatedAt = now
	sch.UpdatedAt = now

	if err := s.repo.Create(ctx, sch); err != nil {
		return Schedule{}, nil, err
	}
	return sch, nil, nil
}

// CheckConflicts corre el detector puro contra los schedules ya persistidos
// de la misma prescripción. Se expone aparte para el pre-chequeo de la API.
func (s *Service) CheckConflicts(ctx context.Context, candidate Schedule) ([]Conflict, error) {
	existing, err := s.repo.ListByPrescription(ctx, candidate.PrescriptionID)
	if err != nil {
		return nil, err
	}
	return DetectConflicts(candidate, existing), nil
}

// Validate construye (sin persistir) un schedule desde el input crudo.
// Lo usa también el handler de pre-chequeo.
func (s *Service) Validate(ownerUserID string, in CreateInput) (Schedule, error) {
	return s.buildSchedule(ownerUserID, in)
}

func (s *Service) GetByID(ctx context.Context, id string) (Schedule, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Schedule{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPrescription(ctx context.Context, prescriptionID string) ([]Schedule, error) {
	return s.repo.ListByPrescription(ctx, prescriptionID)
}

// buildSchedule aplica las reglas de forma: sets no vacíos, horas bien
// formadas, zona IANA válida, ventana coherente, cantidad decimal positiva.
func (s *Service) buildSchedule(ownerUserID string, in CreateInput) (Schedule, error) {
	if len(in.Days) == 0 {
		return Schedule{}, fmt.Errorf("%w: weekday set must not be empty", ErrInvalidInput)
	}
	if len(in.Times) == 0 {
		return Schedule{}, fmt.Errorf("%w: time set must not be empty", ErrInvalidInput)
	}

	seenDays := make(map[Weekday]bool)
	for _, raw := range in.Days {
		d, err := ParseWeekday(raw)
		if err != nil {
			return Schedule{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		seenDays[d] = true
	}
	days := make([]Weekday, 0, len(seenDays))
	for _, d := range weekdayOrder {
		if seenDays[d] {
			days = append(days, d)
		}
	}

	seenTimes := make(map[string]bool)
	times := make([]string, 0, len(in.Times))
	for _, raw := range in.Times {
		ts := strings.TrimSpace(raw)
		if _, _, err := ParseTimeOfDay(ts); err != nil {
			return Schedule{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if seenTimes[ts] {
			continue
		}
		seenTimes[ts] = true
		times = append(times, ts)
	}
	sort.Strings(times) // "HH:mm" con cero a la izquierda ordena cronológico

	tz := strings.TrimSpace(in.Timezone)
	if tz == "" {
		return Schedule{}, fmt.Errorf("%w: timezone required", ErrInvalidInput)
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return Schedule{}, fmt.Errorf("%w: unknown timezone %s", ErrInvalidInput, tz)
	}

	if in.ValidFrom != nil && in.ValidUntil != nil && in.ValidUntil.Before(*in.ValidFrom) {
		return Schedule{}, fmt.Errorf("%w: validity window ends before it starts", ErrInvalidInput)
	}

	qty := strings.TrimSpace(in.Quantity)
	unit := DoseUnit(strings.TrimSpace(in.Unit))
	if qty != "" {
		f, err := strconv.ParseFloat(qty, 64)
		if err != nil || f <= 0 {
			return Schedule{}, fmt.Errorf("%w: quantity must be a positive decimal", ErrInvalidInput)
		}
	}
	if unit != "" && !validUnits[unit] {
		return Schedule{}, fmt.Errorf("%w: unknown unit %s", ErrInvalidInput, unit)
	}

	return Schedule{
		PrescriptionID: strings.TrimSpace(in.PrescriptionID),
		OwnerUserID:    strings.TrimSpace(ownerUserID),
		Days:           days,
		Times:          times,
		Timezone:       tz,
		ValidFrom:      in.ValidFrom,
		ValidUntil:     in.ValidUntil,
		Quantity:       qty,
		Unit:           unit,
	}, nil
}
