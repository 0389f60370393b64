package prescriptions

import (
	"context"
	"errors"
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
	MedicationID string
	PrescribedBy string
	StartDate    *time.Time
	EndDate      *time.Time
	DoseQuantity string
	DoseUnit     string
	Notes        string
}

func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Prescription, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return Prescription{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.MedicationID) == "" {
		return Prescription{}, ErrInvalidInput
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return Prescription{}, ErrInvalidInput
	}

	qty := strings.TrimSpace(in.DoseQuantity)
	if qty != "" {
		f, err := strconv.ParseFloat(qty, 64)
		if err != nil || f <= 0 {
			return Prescription{}, ErrInvalidInput
		}
	}

	now := s.now()
	p := Prescription{
		ID:           uuid.NewString(),
		OwnerUserID:  ownerUserID,
		MedicationID: strings.TrimSpace(in.MedicationID),
		PrescribedBy: strings.TrimSpace(in.PrescribedBy),
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		DoseQuantity: qty,
		DoseUnit:     strings.TrimSpace(in.DoseUnit),
		Notes:        strings.TrimSpace(in.Notes),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Prescription{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Prescription, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Prescription{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Prescription, error) {
	return s.repo.ListByOwner(ctx, ownerUserID)
}
