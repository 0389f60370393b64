package lowstock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medication-adherence-tracker/internal/domain/alerts"
	"medication-adherence-tracker/internal/domain/medications"
	"medication-adherence-tracker/internal/platform/logger"
	"medication-adherence-tracker/internal/platform/tzcal"
	"medication-adherence-tracker/internal/ports/notify"

	"github.com/google/uuid"
)

// Sweep es el barrido diario de stock bajo. Garantiza a lo sumo un alerta por
// usuario/canal/día con la misma disciplina idempotente que la persistencia de
// tomas: primero se inserta el registro del día (el store resuelve la carrera
// por constraint única) y solo si ese insert gana se envía el mensaje.
type Sweep struct {
	meds    medications.Repository
	alerts  alerts.Repository
	sender  notify.Sender
	log     logger.Logger
	channel alerts.Channel
	now     func() time.Time
}

func New(meds medications.Repository, alertRepo alerts.Repository, sender notify.Sender, log logger.Logger) *Sweep {
	return &Sweep{
		meds:    meds,
		alerts:  alertRepo,
		sender:  sender,
		log:     logger.ForJob(log, "lowstock"),
		channel: alerts.ChannelPush,
		now:     time.Now,
	}
}

// Report resume una corrida. Igual que en el persister, la falla parcial son
// contadores, no un error de la corrida entera.
type Report struct {
	Scanned int
	Alerted int
	Skipped int // ya había alerta ese día (o perdimos la carrera)
	Errors  int
}

type userDay struct {
	userID string
	day    string
}

func (s *Sweep) Run(ctx context.Context) (Report, error) {
	var rep Report

	low, err := s.meds.ListLowStock(ctx)
	if err != nil {
		return rep, err
	}
	rep.Scanned = len(low)
	if len(low) == 0 {
		return rep, nil
	}

	now := s.now()

	// Digest por usuario: todos sus medicamentos bajos en un solo alerta.
	// El día se corta en la zona del usuario (la del primer medicamento).
	groups := make(map[userDay][]medications.Medication)
	order := make([]userDay, 0)
	for _, m := range low {
		day := localDay(now, m.Timezone)
		key := userDay{userID: m.OwnerUserID, day: day}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], m)
	}

	for _, key := range order {
		meds := groups[key]

		ids := make([]string, 0, len(meds))
		names := make([]string, 0, len(meds))
		for _, m := range meds {
			ids = append(ids, m.ID)
			names = append(names, fmt.Sprintf("%s (%d left)", m.Name, m.StockUnits))
		}

		rec := alerts.Record{
			ID:            uuid.NewString(),
			UserID:        key.userID,
			Channel:       s.channel,
			Day:           key.day,
			MedicationIDs: ids,
			SentAt:        now,
		}

		// El insert ES el check-then-write: si perdemos contra otra corrida
		// (u otra instancia), observamos duplicado y no enviamos nada.
		if err := s.alerts.Insert(ctx, rec); err != nil {
			if errors.Is(err, alerts.ErrDuplicate) {
				rep.Skipped++
				continue
			}
			rep.Errors++
			s.log.With(map[string]any{"user": key.userID}).Error("lowstock: record alert", logger.Err(err))
			continue
		}

		msg := notify.Message{
			UserID:  key.userID,
			Channel: string(s.channel),
			Subject: "Medication running low",
			Body:    "Running low: " + strings.Join(names, ", "),
		}
		if err := s.sender.Send(ctx, msg); err != nil {
			rep.Errors++
			s.log.With(map[string]any{"user": key.userID}).Error("lowstock: send alert", logger.Err(err))
			continue
		}
		rep.Alerted++
	}

	s.log.Info("lowstock: sweep done", map[string]any{
		"scanned": rep.Scanned,
		"alerted": rep.Alerted,
		"skipped": rep.Skipped,
		"errors":  rep.Errors,
	})
	return rep, nil
}

func localDay(now time.Time, tz string) string {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	return tzcal.StartOfDayInZone(now, loc).Format("2006-01-02")
}
