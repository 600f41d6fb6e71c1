package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	webAdapter "sales-reports/internal/adapters/web"
	"sales-reports/internal/ai"
	"sales-reports/internal/app"
	"sales-reports/internal/config"
	"sales-reports/internal/core"
	"sales-reports/internal/db"
	"sales-reports/internal/logger"
	"sales-reports/internal/mail"
	"sales-reports/internal/worker"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}

	log, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		logrus.Fatalf("logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	aggregation := core.NewAggregationService(core.NewSalesStore(pool, cfg.StoreTimeout))

	var generator ai.TextGenerator
	if cfg.OpenAIAPIKey != "" {
		generator = ai.NewAgent(ai.AgentConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
	} else {
		log.Warn("OPENAI_API_KEY is not set, summaries use the fixed template")
	}
	summarizer := ai.NewSummarizer(generator, cfg.SummaryTimeout, log)

	var transport mail.Transport = mail.LogTransport{Log: log}
	if cfg.SMTPEnabled() {
		transport = mail.NewSMTPTransport(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	} else {
		log.Warn("SMTP_HOST is not set, reports are logged instead of mailed")
	}
	deliverer := mail.NewDeliverer(transport, cfg.MailTimeout, log)

	pipeline := app.NewPipeline(aggregation, summarizer, deliverer, log)
	workers := worker.NewPool(cfg.ReportWorkers, pipeline.Handle, log)

	svc := app.NewReportService(workers, log)
	handler := webAdapter.NewHandler(svc, webAdapter.Options{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.Origins(),
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, log)

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.ServerAddress).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.WithError(err).Error("server stopped")
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	if err := workers.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).WithField("pending", workers.Pending()).Error("worker pool did not drain")
	}
	log.Info("server stopped")
}
