package postgres

import (
	"context"
	"database/sql"
	"strings"

	"medication-adherence-tracker/internal/domain/alerts"
)

// AlertsRepo asume UNIQUE (user_id, channel, day) en la tabla stock_alerts:
// el insert es el check-then-write atómico del sweep diario.
type AlertsRepo struct {
	db *sql.DB
}

func NewAlertsRepo(db *sql.DB) *AlertsRepo {
	return &AlertsRepo{db: db}
}

func (r *AlertsRepo) Insert(ctx context.Context, rec alerts.Record) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO stock_alerts (
			id, user_id, channel, day, medication_ids, sent_at
		) VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (user_id, channel, day) DO NOTHING
	`,
		rec.ID,
		rec.UserID,
		string(rec.Channel),
		rec.Day,
		strings.Join(rec.MedicationIDs, ","),
		rec.SentAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return alerts.ErrDuplicate
	}
	return nil
}

func (r *AlertsRepo) ListByUser(ctx context.Context, userID string) ([]alerts.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, channel, day, medication_ids, sent_at
		FROM stock_alerts
		WHERE user_id = $1
		ORDER BY sent_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]alerts.Record, 0)
	for rows.Next() {
		var rec alerts.Record
		var channel, meds string
		if err := rows.Scan(&rec.ID, &rec.UserID, &channel, &rec.Day, &meds, &rec.SentAt); err != nil {
			if err == sql.ErrNoRows {
				return nil, ErrNotFound
			}
			return nil, err
		}
		rec.Channel = alerts.Channel(channel)
		if meds != "" {
			rec.MedicationIDs = strings.Split(meds, ",")
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
