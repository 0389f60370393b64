package lognotify

import (
	"context"

	"medication-adherence-tracker/internal/platform/logger"
	"medication-adherence-tracker/internal/ports/notify"
)

// Sender escribe cada mensaje al log en lugar de enviarlo. Es el default en
// dev, donde no hay webhook configurado.
type Sender struct {
	log logger.Logger
}

func New(log logger.Logger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(_ context.Context, m notify.Message) error {
	s.log.Info("notify (log only)", map[string]any{
		"user":    m.UserID,
		"channel": m.Channel,
		"subject": m.Subject,
		"body":    m.Body,
	})
	return nil
}
