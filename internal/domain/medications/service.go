package medications

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

var validForms = map[Form]bool{
	FormTablet:    true,
	FormCapsule:   true,
	FormLiquid:    true,
	FormInhaler:   true,
	FormInjection: true,
	FormOther:     true,
}

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
	Name              string
	Form              string
	Strength          string
	StockUnits        int
	LowStockThreshold int
	Timezone          string
	Notes             string
}

func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Medication, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return Medication{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" {
		return Medication{}, ErrInvalidInput
	}

	form := Form(strings.TrimSpace(in.Form))
	if form == "" {
		form = FormOther
	}
	if !validForms[form] {
		return Medication{}, ErrInvalidInput
	}

	if in.StockUnits < 0 || in.LowStockThreshold < 0 {
		return Medication{}, ErrInvalidInput
	}

	tz := strings.TrimSpace(in.Timezone)
	if tz == "" {
		tz = "UTC"
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return Medication{}, ErrInvalidInput
	}

	now := s.now()
	m := Medication{
		ID:                uuid.NewString(),
		OwnerUserID:       ownerUserID,
		Name:              strings.TrimSpace(in.Name),
		Form:              form,
		Strength:          strings.TrimSpace(in.Strength),
		StockUnits:        in.StockUnits,
		LowStockThreshold: in.LowStockThreshold,
		Timezone:          tz,
		Notes:             strings.TrimSpace(in.Notes),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return Medication{}, err
	}
	return m, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Medication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Medication{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Medication, error) {
	return s.repo.ListByOwner(ctx, ownerUserID)
}

// SetStock fija el inventario actual (p.ej. tras un refill).
func (s *Service) SetStock(ctx context.Context, id string, stockUnits int) (Medication, error) {
	if stockUnits < 0 {
		return Medication{}, ErrInvalidInput
	}
	if err := s.repo.UpdateStock(ctx, id, stockUnits); err != nil {
		return Medication{}, err
	}
	return s.repo.GetByID(ctx, id)
}
