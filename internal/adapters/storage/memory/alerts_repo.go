package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"medication-adherence-tracker/internal/domain/alerts"
)

type alertsRepo struct {
	mu    sync.Mutex
	byID  map[string]alerts.Record
	byKey map[string]bool // user|channel|day
}

func NewAlertsRepo() alerts.Repository {
	return &alertsRepo{
		byID:  make(map[string]alerts.Record),
		byKey: make(map[string]bool),
	}
}

func alertKey(r alerts.Record) string {
	return r.UserID + "|" + string(r.Channel) + "|" + r.Day
}

// Insert es el check-then-write atómico del sweep: bajo el mismo lock se
// verifica la clave del día y se escribe el registro.
func (r *alertsRepo) Insert(ctx context.Context, rec alerts.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("alert id required")
	}
	key := alertKey(rec)
	if r.byKey[key] {
		return alerts.ErrDuplicate
	}
	r.byID[rec.ID] = rec
	r.byKey[key] = true
	return nil
}

func (r *alertsRepo) ListByUser(ctx context.Context, userID string) ([]alerts.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]alerts.Record, 0)
	for _, rec := range r.byID {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.Before(out[j].SentAt) })
	return out, nil
}
