package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/skulipro/authcore"
	"github.com/skulipro/authcore/directory/sqlite"
	"github.com/skulipro/authcore/internal/config"
	"github.com/skulipro/authcore/internal/slogx"
	transporthttp "github.com/skulipro/authcore/internal/transport/http"
	"github.com/skulipro/authcore/metrics/export/prometheus"
	"github.com/skulipro/authcore/middleware"
	"github.com/skulipro/authcore/notify"
	"github.com/skulipro/authcore/notify/smtp"
	"github.com/skulipro/authcore/notify/sns"
)

var version = "dev"

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	logger := slogx.New(slogx.Config{
		Service: "authcore",
		Version: version,
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
	if envErr != nil {
		logger.Info("no .env file found, reading from environment")
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("authcore stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{cfg.RedisAddr}})
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}

	dir, err := sqlite.NewStore(cfg.SQLiteDSN)
	if err != nil {
		return err
	}
	defer func() { _ = dir.Close() }()
	if err := dir.ApplyMigrations(); err != nil {
		return err
	}

	smsSender, emailSender := senders(ctx, cfg, logger)

	builder := authcore.New().
		WithConfig(cfg.Engine()).
		WithRedis(rdb).
		WithDirectory(dir).
		WithSMSSender(smsSender).
		WithEmailSender(emailSender).
		WithLogger(logger)
	if cfg.AuditEnabled {
		builder = builder.WithAuditSink(authcore.NewSlogSink(logger, slog.LevelInfo))
	}
	engine, err := builder.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	report := engine.SecurityReport()
	for _, w := range report.Warnings {
		logger.Warn("security posture", slog.String("warning", w))
	}

	burst := middleware.NewBurstShield(rate.Limit(cfg.BurstPerSecond), cfg.BurstSize)
	defer burst.Stop()

	router := transporthttp.NewRouter(transporthttp.Deps{
		Engine:         engine,
		Directory:      dir,
		Logger:         logger,
		Metrics:        prometheus.NewExporter(engine).Handler(),
		Burst:          burst,
		AllowedOrigins: cfg.AllowedOrigins,
		TrustProxy:     cfg.ProductionMode,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", srv.Addr), slog.Bool("production", cfg.ProductionMode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// senders picks SNS when a region is configured and SMTP when a relay host
// is set. Outside production a missing channel is replaced by a LogSender.
func senders(ctx context.Context, cfg *config.Config, logger *slog.Logger) (notify.SMSSender, notify.EmailSender) {
	var smsSender notify.SMSSender
	if cfg.SNSRegion != "" {
		s, err := sns.NewSender(ctx, cfg.SNSRegion)
		if err != nil {
			logger.Warn("sns sender not available", slog.String("error", err.Error()))
		} else {
			smsSender = s
		}
	}

	var emailSender notify.EmailSender
	if cfg.SMTPHost != "" {
		emailSender = smtp.NewMailer(smtp.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			From:     cfg.SMTPFrom,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		})
	}

	if !cfg.ProductionMode {
		dev := notify.LogSender{Logger: logger}
		if smsSender == nil {
			smsSender = dev
		}
		if emailSender == nil {
			emailSender = dev
		}
	}
	return smsSender, emailSender
}
