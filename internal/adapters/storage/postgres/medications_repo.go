package postgres

import (
	"context"
	"database/sql"
	"strings"

	"medication-adherence-tracker/internal/domain/medications"
)

type MedicationsRepo struct {
	db *sql.DB
}

func NewMedicationsRepo(db *sql.DB) *MedicationsRepo {
	return &MedicationsRepo{db: db}
}

func (r *MedicationsRepo) Create(ctx context.Context, m medications.Medication) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medications (
			id, owner_user_id,
			name, form, strength,
			stock_units, low_stock_threshold, timezone,
			notes,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		m.ID,
		m.OwnerUserID,
		m.Name,
		string(m.Form),
		m.Strength,
		m.StockUnits,
		m.LowStockThreshold,
		m.Timezone,
		m.Notes,
		m.CreatedAt,
		m.UpdatedAt,
	)
	return err
}

func (r *MedicationsRepo) GetByID(ctx context.Context, id string) (medications.Medication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return medications.Medication{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, owner_user_id,
			name, form, strength,
			stock_units, low_stock_threshold, timezone,
			notes,
			created_at, updated_at
		FROM medications
		WHERE id = $1
	`, id)

	return scanMedication(row)
}

func (r *MedicationsRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]medications.Medication, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, owner_user_id,
			name, form, strength,
			stock_units, low_stock_threshold, timezone,
			notes,
			created_at, updated_at
		FROM medications
		WHERE owner_user_id = $1
		ORDER BY name
	`, ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]medications.Medication, 0)
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MedicationsRepo) UpdateStock(ctx context.Context, id string, stockUnits int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE medications
		SET stock_units = $2, updated_at = now()
		WHERE id = $1
	`, id, stockUnits)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MedicationsRepo) ListLowStock(ctx context.Context) ([]medications.Medication, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, owner_user_id,
			name, form, strength,
			stock_units, low_stock_threshold, timezone,
			notes,
			created_at, updated_at
		FROM medications
		WHERE low_stock_threshold > 0
		  AND stock_units <= low_stock_threshold
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]medications.Medication, 0)
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedication(row rowScanner) (medications.Medication, error) {
	var m medications.Medication
	var form string
	if err := row.Scan(
		&m.ID,
		&m.OwnerUserID,
		&m.Name,
		&form,
		&m.Strength,
		&m.StockUnits,
		&m.LowStockThreshold,
		&m.Timezone,
		&m.Notes,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return medications.Medication{}, ErrNotFound
		}
		return medications.Medication{}, err
	}
	m.Form = medications.Form(form)
	return m, nil
}
