package memory

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"medication-adherence-tracker/internal/domain/doses"
)

// dosesRepo sostiene en memoria la misma restricción de unicidad
// (scheduleId, scheduledFor) que la tabla de Postgres, bajo un solo lock:
// un BulkInsert es atómico respecto de cualquier otra escritura.
type dosesRepo struct {
	mu    sync.RWMutex
	byID  map[string]doses.DoseInstance
	byKey map[string]string // clave de unicidad -> id
}

func NewDosesRepo() doses.Repository {
	return &dosesRepo{
		byID:  make(map[string]doses.DoseInstance),
		byKey: make(map[string]string),
	}
}

func doseKey(scheduleID string, scheduledFor time.Time) string {
	return scheduleID + "|" + strconv.FormatInt(scheduledFor.UTC().UnixNano(), 10)
}

func (r *dosesRepo) BulkInsert(ctx context.Context, items []doses.DoseInstance) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := 0
	for _, d := range items {
		if strings.TrimSpace(d.ID) == "" {
			return inserted, errors.New("dose id required")
		}
		key := doseKey(d.ScheduleID, d.ScheduledFor)
		if _, exists := r.byKey[key]; exists {
			continue // skip-duplicate
		}
		r.byID[d.ID] = d
		r.byKey[key] = d.ID
		inserted++
	}
	return inserted, nil
}

func (r *dosesRepo) Insert(ctx context.Context, d doses.DoseInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(d.ID) == "" {
		return errors.New("dose id required")
	}
	key := doseKey(d.ScheduleID, d.ScheduledFor)
	if _, exists := r.byKey[key]; exists {
		return doses.ErrDuplicate
	}
	r.byID[d.ID] = d
	r.byKey[key] = d.ID
	return nil
}

func (r *dosesRepo) GetByID(ctx context.Context, id string) (doses.DoseInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[id]
	if !ok {
		return doses.DoseInstance{}, ErrNotFound
	}
	return d, nil
}

func (r *dosesRepo) ListByScheduleBetween(ctx context.Context, scheduleID string, from, to time.Time) ([]doses.DoseInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]doses.DoseInstance, 0)
	for _, d := range r.byID {
		if d.ScheduleID != scheduleID {
			continue
		}
		if d.ScheduledFor.Before(from) || d.ScheduledFor.After(to) {
			continue
		}
		out = append(out, d)
	}
	sortDoses(out)
	return out, nil
}

func (r *dosesRepo) ListByOwnerBetween(ctx context.Context, ownerUserID string, from, to time.Time) ([]doses.DoseInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]doses.DoseInstance, 0)
	for _, d := range r.byID {
		if d.OwnerUserID != ownerUserID {
			continue
		}
		if d.ScheduledFor.Before(from) || d.ScheduledFor.After(to) {
			continue
		}
		out = append(out, d)
	}
	sortDoses(out)
	return out, nil
}

func (r *dosesRepo) SetStatus(ctx context.Context, id string, status doses.Status, takenAt *time.Time, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	d.Status = status
	d.TakenAt = takenAt
	d.UpdatedAt = updatedAt
	r.byID[id] = d
	return nil
}

func sortDoses(out []doses.DoseInstance) {
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledFor.Before(out[j].ScheduledFor)
	})
}
