package horizon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"medication-adherence-tracker/internal/domain/doses"
	"medication-adherence-tracker/internal/domain/prescriptions"
	"medication-adherence-tracker/internal/domain/schedules"
	"medication-adherence-tracker/internal/platform/logger"
)

const (
	// DefaultHorizon: cuántos días hacia adelante mantiene materializados
	// el sweep. Muy por debajo del tope de 365 de una generación.
	DefaultHorizon = 14 * 24 * time.Hour

	defaultWorkers = 4
)

// Sweep extiende el horizonte de tomas materializadas: para cada schedule
// genera las instancias de los próximos días. Re-correrlo es gratis por la
// idempotencia del persister, así que puede dispararse por cron sin miedo a
// pisarse con un "regenerar" manual.
type Sweep struct {
	schedules     schedules.Repository
	prescriptions prescriptions.Repository
	doses         *doses.Service
	log           logger.Logger

	horizon time.Duration
	workers int
	now     func() time.Time
}

func New(schedRepo schedules.Repository, presRepo prescriptions.Repository, doseSvc *doses.Service, log logger.Logger) *Sweep {
	return &Sweep{
		schedules:     schedRepo,
		prescriptions: presRepo,
		doses:         doseSvc,
		log:           logger.ForJob(log, "horizon"),
		horizon:       DefaultHorizon,
		workers:       defaultWorkers,
		now:           time.Now,
	}
}

// Report agrega los contadores de todas las corridas individuales.
type Report struct {
	Schedules int
	Requested int
	Generated int
	Skipped   int
	Errors    int
}

// Run procesa los schedules con un pool acotado de workers; cada schedule es
// una llamada Generate independiente, de modo que el backoff de uno no
// bloquea a los demás.
func (s *Sweep) Run(ctx context.Context) (Report, error) {
	var rep Report

	all, err := s.schedules.ListAll(ctx)
	if err != nil {
		return rep, err
	}
	rep.Schedules = len(all)
	if len(all) == 0 {
		return rep, nil
	}

	now := s.now()
	from := now
	to := now.Add(s.horizon)

	jobs := make(chan schedules.Schedule)

	var mu sync.Mutex
	var wg sync.WaitGroup

	workers := s.workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sch := range jobs {
				res, err := s.generateOne(ctx, sch, from, to)

				mu.Lock()
				if err != nil {
					rep.Errors++
				} else {
					rep.Requested += res.Requested
					rep.Generated += res.Generated
					rep.Skipped += res.Skipped
					rep.Errors += len(res.Errors)
				}
				mu.Unlock()

				if err != nil {
					s.log.With(map[string]any{"schedule": sch.ID}).Error("horizon: generate", logger.Err(err))
				}
			}
		}()
	}

	for _, sch := range all {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return rep, ctx.Err()
		case jobs <- sch:
		}
	}
	close(jobs)
	wg.Wait()

	s.log.Info("horizon: sweep done", map[string]any{
		"schedules": rep.Schedules,
		"requested": rep.Requested,
		"generated": rep.Generated,
		"skipped":   rep.Skipped,
		"errors":    rep.Errors,
	})
	return rep, nil
}

func (s *Sweep) generateOne(ctx context.Context, sch schedules.Schedule, from, to time.Time) (doses.GenerationResult, error) {
	// El techo y los defaults de dosis salen de la prescripción. Si la lectura
	// falla, el schedule cuenta como error en vez de generar sin techo.
	p, err := s.prescriptions.GetByID(ctx, sch.PrescriptionID)
	if err != nil {
		return doses.GenerationResult{}, fmt.Errorf("load prescription %s: %w", sch.PrescriptionID, err)
	}

	return s.doses.Generate(ctx, sch, doses.GenerateOptions{
		From:            from,
		To:              to,
		PrescriptionEnd: p.EndDate,
		DefaultQuantity: p.DoseQuantity,
		DefaultUnit:     p.DoseUnit,
	})
}
