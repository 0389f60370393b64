package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"medication-adherence-tracker/internal/domain/doses"
)

// DosesRepo asume en la tabla dose_instances la constraint
// UNIQUE (schedule_id, scheduled_for): es el store quien resuelve las
// carreras de generación, no un lock en proceso.
type DosesRepo struct {
	db *sql.DB
}

func NewDosesRepo(db *sql.DB) *DosesRepo {
	return &DosesRepo{db: db}
}

// BulkInsert inserta el lote en un solo statement con ON CONFLICT DO NOTHING:
// la corrida concurrente que pierde la carrera observa filas omitidas, nunca
// un error. Devuelve cuántas filas entraron de verdad.
func (r *DosesRepo) BulkInsert(ctx context.Context, items []doses.DoseInstance) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	sb := strings.Builder{}
	sb.WriteString(`
		INSERT INTO dose_instances (
			id, schedule_id, prescription_id, owner_user_id,
			scheduled_for, status, taken_at,
			quantity, unit,
			created_at, updated_at
		) VALUES `)

	args := make([]any, 0, len(items)*11)
	for i, d := range items {
		if i > 0 {
			sb.WriteString(",")
		}
		base := i * 11
		sb.WriteString(fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10, base+11))
		args = append(args,
			d.ID,
			d.ScheduleID,
			d.PrescriptionID,
			d.OwnerUserID,
			d.ScheduledFor.UTC(),
			string(d.Status),
			d.TakenAt,
			d.Quantity,
			d.Unit,
			d.CreatedAt,
			d.UpdatedAt,
		)
	}
	sb.WriteString(" ON CONFLICT (schedule_id, scheduled_for) DO NOTHING")

	res, err := r.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, classifyStoreErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classifyStoreErr(err)
	}
	return int(n), nil
}

func (r *DosesRepo) Insert(ctx context.Context, d doses.DoseInstance) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO dose_instances (
			id, schedule_id, prescription_id, owner_user_id,
			scheduled_for, status, taken_at,
			quantity, unit,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (schedule_id, scheduled_for) DO NOTHING
	`,
		d.ID,
		d.ScheduleID,
		d.PrescriptionID,
		d.OwnerUserID,
		d.ScheduledFor.UTC(),
		string(d.Status),
		d.TakenAt,
		d.Quantity,
		d.Unit,
		d.CreatedAt,
		d.UpdatedAt,
	)
	if err != nil {
		return classifyStoreErr(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return doses.ErrDuplicate
	}
	return nil
}

func (r *DosesRepo) GetByID(ctx context.Context, id string) (doses.DoseInstance, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return doses.DoseInstance{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, schedule_id, prescription_id, owner_user_id,
			scheduled_for, status, taken_at,
			quantity, unit,
			created_at, updated_at
		FROM dose_instances
		WHERE id = $1
	`, id)

	return scanDose(row)
}

func (r *DosesRepo) ListByScheduleBetween(ctx context.Context, scheduleID string, from, to time.Time) ([]doses.DoseInstance, error) {
	return r.listBetween(ctx, "schedule_id", scheduleID, from, to)
}

func (r *DosesRepo) ListByOwnerBetween(ctx context.Context, ownerUserID string, from, to time.Time) ([]doses.DoseInstance, error) {
	return r.listBetween(ctx, "owner_user_id", ownerUserID, from, to)
}

func (r *DosesRepo) listBetween(ctx context.Context, column, value string, from, to time.Time) ([]doses.DoseInstance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, schedule_id, prescription_id, owner_user_id,
			scheduled_for, status, taken_at,
			quantity, unit,
			created_at, updated_at
		FROM dose_instances
		WHERE `+column+` = $1
		  AND scheduled_for >= $2
		  AND scheduled_for <= $3
		ORDER BY scheduled_for
	`, value, from.UTC(), to.UTC())
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	defer rows.Close()

	out := make([]doses.DoseInstance, 0)
	for rows.Next() {
		d, err := scanDose(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyStoreErr(err)
	}
	return out, nil
}

func (r *DosesRepo) SetStatus(ctx context.Context, id string, status doses.Status, takenAt *time.Time, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE dose_instances
		SET status = $2, taken_at = $3, updated_at = $4
		WHERE id = $1
	`, id, string(status), takenAt, updatedAt)
	if err != nil {
		return classifyStoreErr(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDose(row rowScanner) (doses.DoseInstance, error) {
	var d doses.DoseInstance
	var status string
	if err := row.Scan(
		&d.ID,
		&d.ScheduleID,
		&d.PrescriptionID,
		&d.OwnerUserID,
		&d.ScheduledFor,
		&status,
		&d.TakenAt,
		&d.Quantity,
		&d.Unit,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return doses.DoseInstance{}, ErrNotFound
		}
		return doses.DoseInstance{}, err
	}
	d.ScheduledFor = d.ScheduledFor.UTC()
	d.Status = doses.Status(status)
	return d, nil
}
