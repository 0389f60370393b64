package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"medication-adherence-tracker/internal/platform/httpclient"
	"medication-adherence-tracker/internal/ports/notify"
)

var ErrNotConfigured = errors.New("webhook sender not configured")

// Config del sender de webhooks. El endpoint recibe un POST JSON por alerta;
// el fan-out real a push/email lo hace el servicio de notificaciones detrás.
type Config struct {
	URL string

	// Opcional: token que viaja en Authorization como Bearer.
	Token string

	Timeout time.Duration
}

// Sender implementa notify.Sender publicando cada mensaje en un webhook.
type Sender struct {
	token string
	http  *httpclient.Client
}

func New(cfg Config) (*Sender, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	hc, err := httpclient.NewWithBaseURL(cfg.URL, timeout)
	if err != nil {
		return nil, err
	}

	return &Sender{
		token: strings.TrimSpace(cfg.Token),
		http:  hc,
	}, nil
}

type payload struct {
	UserID  string `json:"user_id"`
	Channel string `json:"channel"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (s *Sender) Send(ctx context.Context, m notify.Message) error {
	if s == nil || s.http == nil || s.http.BaseURL == "" {
		return ErrNotConfigured
	}

	var headers map[string]string
	if s.token != "" {
		headers = map[string]string{"Authorization": "Bearer " + s.token}
	}

	err := s.http.DoJSON(ctx, http.MethodPost, "/", headers, payload{
		UserID:  m.UserID,
		Channel: m.Channel,
		Subject: m.Subject,
		Body:    m.Body,
	}, nil)
	if err != nil {
		return fmt.Errorf("webhook send: %w", err)
	}
	return nil
}
