package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vendhub/vendhub/internal/account"
	"github.com/vendhub/vendhub/internal/admin"
	"github.com/vendhub/vendhub/internal/api"
	"github.com/vendhub/vendhub/internal/api/handler"
	"github.com/vendhub/vendhub/internal/config"
	"github.com/vendhub/vendhub/internal/machine"
	"github.com/vendhub/vendhub/internal/machinelog"
	"github.com/vendhub/vendhub/internal/report"
	"github.com/vendhub/vendhub/internal/session"
	"github.com/vendhub/vendhub/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	db, err := store.New(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	sessionTTL := time.Duration(cfg.SessionTTLMinutes) * time.Minute
	authority := session.NewAuthority(sessionTTL)

	userRepo := account.NewUserRepository(db.Pool())
	adminRepo := account.NewAdminRepository(db.Pool())
	machineRepo := machine.NewRepository(db.Pool())
	logRepo := machinelog.NewRepository(db.Pool())
	statsRepo := report.NewRepository(db.Pool())

	accounts := account.NewService(userRepo, adminRepo, authority, cfg.BcryptCost)
	binding := machine.NewBindingService(machineRepo, logRepo)
	oversight := admin.NewService(userRepo, machineRepo, logRepo)

	router := api.NewRouter(api.RouterDeps{
		Authority: authority,
		Accounts:  accounts,
		Users:     userRepo,
		Admins:    adminRepo,
		Machines:  machineRepo,
		Logs:      logRepo,
		Binding:   binding,
		Stats:     statsRepo,
		Oversight: oversight,
		DBPinger:  db,
		Version:   cfg.Version,
		Cookie: handler.CookieConfig{
			Name:   cfg.CookieName,
			Secure: cfg.CookieSecure,
			TTL:    sessionTTL,
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting vendhub server", "port", cfg.Port, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
