package postgres

import (
	"context"
	"database/sql"
	"strings"

	"medication-adherence-tracker/internal/domain/schedules"
)

type SchedulesRepo struct {
	db *sql.DB
}

func NewSchedulesRepo(db *sql.DB) *SchedulesRepo {
	return &SchedulesRepo{db: db}
}

// Días y horas se guardan como listas separadas por coma ("MON,WED", "08:00,20:00").
// Son sets chicos y ya normalizados por el service; no ameritan tabla aparte.

func (r *SchedulesRepo) Create(ctx context.Context, s schedules.Schedule) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO schedules (
			id, prescription_id, owner_user_id,
			days, times, timezone,
			valid_from, valid_until,
			quantity, unit,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		s.ID,
		s.PrescriptionID,
		s.OwnerUserID,
		joinDays(s.Days),
		strings.Join(s.Times, ","),
		s.Timezone,
		s.ValidFrom,
		s.ValidUntil,
		s.Quantity,
		string(s.Unit),
		s.CreatedAt,
		s.UpdatedAt,
	)
	return err
}

func (r *SchedulesRepo) GetByID(ctx context.Context, id string) (schedules.Schedule, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return schedules.Schedule{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, prescription_id, owner_user_id,
			days, times, timezone,
			valid_from, valid_until,
			quantity, unit,
			created_at, updated_at
		FROM schedules
		WHERE id = $1
	`, id)

	return scanSchedule(row)
}

func (r *SchedulesRepo) ListByPrescription(ctx context.Context, prescriptionID string) ([]schedules.Schedule, error) {
	return r.list(ctx, `
		SELECT
			id, prescription_id, owner_user_id,
			days, times, timezone,
			valid_from, valid_until,
			quantity, unit,
			created_at, updated_at
		FROM schedules
		WHERE prescription_id = $1
		ORDER BY created_at
	`, prescriptionID)
}

func (r *SchedulesRepo) ListAll(ctx context.Context) ([]schedules.Schedule, error) {
	return r.list(ctx, `
		SELECT
			id, prescription_id, owner_user_id,
			days, times, timezone,
			valid_from, valid_until,
			quantity, unit,
			created_at, updated_at
		FROM schedules
		ORDER BY id
	`)
}

func (r *SchedulesRepo) list(ctx context.Context, query string, args ...any) ([]schedules.Schedule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]schedules.Schedule, 0)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSchedule(row rowScanner) (schedules.Schedule, error) {
	var s schedules.Schedule
	var days, times, unit string
	if err := row.Scan(
		&s.ID,
		&s.PrescriptionID,
		&s.OwnerUserID,
		&days,
		&times,
		&s.Timezone,
		&s.ValidFrom,
		&s.ValidUntil,
		&s.Quantity,
		&unit,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return schedules.Schedule{}, ErrNotFound
		}
		return schedules.Schedule{}, err
	}
	s.Days = splitDays(days)
	if times != "" {
		s.Times = strings.Split(times, ",")
	} else {
		s.Times = []string{}
	}
	s.Unit = schedules.DoseUnit(unit)
	return s, nil
}

func joinDays(days []schedules.Weekday) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, string(d))
	}
	return strings.Join(parts, ",")
}

func splitDays(s string) []schedules.Weekday {
	if s == "" {
		return []schedules.Weekday{}
	}
	parts := strings.Split(s, ",")
	out := make([]schedules.Weekday, 0, len(parts))
	for _, p := range parts {
		out = append(out, schedules.Weekday(p))
	}
	return out
}
