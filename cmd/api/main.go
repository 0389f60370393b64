package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medication-adherence-tracker/internal/adapters/auth/idp"
	"medication-adherence-tracker/internal/adapters/notify/lognotify"
	"medication-adherence-tracker/internal/adapters/notify/webhook"
	"medication-adherence-tracker/internal/jobs/horizon"
	"medication-adherence-tracker/internal/jobs/lowstock"
	"medication-adherence-tracker/internal/platform/logger"
	"medication-adherence-tracker/internal/ports/auth"
	"medication-adherence-tracker/internal/ports/notify"
	"medication-adherence-tracker/internal/router"

	"github.com/robfig/cron/v3"
)

func main() {
	log := logger.NewFromEnv()

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	app := router.NewApp(router.Options{
		AuthVerifier: buildVerifier(log),
	})

	doseSvc := app.DoseService

	// Sweeps de cron sobre los mismos repos que la API.
	horizonSweep := horizon.New(app.Schedules, app.Prescriptions, doseSvc, log)
	stockSweep := lowstock.New(app.Medications, app.Alerts, buildSender(log), log)

	c := cron.New()

	// Horizonte de tomas: cada hora, re-correrlo es gratis por idempotencia.
	if _, err := c.AddFunc(envOr("HORIZON_CRON", "@hourly"), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := horizonSweep.Run(ctx); err != nil {
			log.Error("horizon sweep", logger.Err(err))
		}
	}); err != nil {
		log.Error("schedule horizon sweep", logger.Err(err))
	}

	// Stock bajo: una vez al día; el registro por usuario/canal/día hace que
	// corridas extra (o una segunda instancia) no dupliquen alertas.
	if _, err := c.AddFunc(envOr("LOWSTOCK_CRON", "0 9 * * *"), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := stockSweep.Run(ctx); err != nil {
			log.Error("lowstock sweep", logger.Err(err))
		}
	}); err != nil {
		log.Error("schedule lowstock sweep", logger.Err(err))
	}

	c.Start()
	defer c.Stop()

	srv := &http.Server{
		Addr:         addr,
		Handler:      app.Handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting server", map[string]any{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", logger.Err(err))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown", logger.Err(err))
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// buildVerifier arma el verifier del IdP si hay config; nil habilita el modo
// dev con X-Debug-User-ID.
func buildVerifier(log logger.Logger) auth.AuthVerifier {
	baseURL := os.Getenv("IDP_BASE_URL")
	apiKey := os.Getenv("IDP_API_KEY")
	if baseURL == "" || apiKey == "" {
		log.Warn("no IdP configured, running in dev auth mode", nil)
		return nil
	}

	client, err := idp.NewClient(idp.Config{BaseURL: baseURL, APIKey: apiKey})
	if err != nil {
		log.Error("idp client", logger.Err(err))
		return nil
	}
	return idp.NewVerifier(client)
}

func buildSender(log logger.Logger) notify.Sender {
	url := os.Getenv("NOTIFY_WEBHOOK_URL")
	if url == "" {
		return lognotify.New(log)
	}

	s, err := webhook.New(webhook.Config{
		URL:   url,
		Token: os.Getenv("NOTIFY_WEBHOOK_TOKEN"),
	})
	if err != nil {
		log.Error("webhook sender", logger.Err(err))
		return lognotify.New(log)
	}
	return s
}
