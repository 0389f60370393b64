package postgres

import (
	"context"
	"database/sql"
	"strings"

	"medication-adherence-tracker/internal/domain/prescriptions"
)

type PrescriptionsRepo struct {
	db *sql.DB
}

func NewPrescriptionsRepo(db *sql.DB) *PrescriptionsRepo {
	return &PrescriptionsRepo{db: db}
}

func (r *PrescriptionsRepo) Create(ctx context.Context, p prescriptions.Prescription) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO prescriptions (
			id, owner_user_id, medication_id,
			prescribed_by,
			start_date, end_date,
			dose_quantity, dose_unit,
			notes,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		p.ID,
		p.OwnerUserID,
		p.MedicationID,
		p.PrescribedBy,
		p.StartDate,
		p.EndDate,
		p.DoseQuantity,
		p.DoseUnit,
		p.Notes,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (r *PrescriptionsRepo) GetByID(ctx context.Context, id string) (prescriptions.Prescription, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return prescriptions.Prescription{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, owner_user_id, medication_id,
			prescribed_by,
			start_date, end_date,
			dose_quantity, dose_unit,
			notes,
			created_at, updated_at
		FROM prescriptions
		WHERE id = $1
	`, id)

	return scanPrescription(row)
}

func (r *PrescriptionsRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]prescriptions.Prescription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, owner_user_id, medication_id,
			prescribed_by,
			start_date, end_date,
			dose_quantity, dose_unit,
			notes,
			created_at, updated_at
		FROM prescriptions
		WHERE owner_user_id = $1
		ORDER BY created_at
	`, ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]prescriptions.Prescription, 0)
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPrescription(row rowScanner) (prescriptions.Prescription, error) {
	var p prescriptions.Prescription
	if err := row.Scan(
		&p.ID,
		&p.OwnerUserID,
		&p.MedicationID,
		&p.PrescribedBy,
		&p.StartDate,
		&p.EndDate,
		&p.DoseQuantity,
		&p.DoseUnit,
		&p.Notes,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return prescriptions.Prescription{}, ErrNotFound
		}
		return prescriptions.Prescription{}, err
	}
	return p, nil
}
