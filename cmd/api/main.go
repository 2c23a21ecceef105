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

	"affiliate-calldesk/internal/auth"
	"affiliate-calldesk/internal/cache"
	"affiliate-calldesk/internal/calls"
	"affiliate-calldesk/internal/config"
	"affiliate-calldesk/internal/gateway"
	"affiliate-calldesk/internal/httpapi"
	"affiliate-calldesk/internal/ledger"
	"affiliate-calldesk/pkg/logger"
	"affiliate-calldesk/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Local dev convenience; the file is absent in deployed environments.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(auth.Config{
		AccessCode:    cfg.Auth.AccessCode,
		SessionSecret: cfg.Auth.SessionSecret,
		SessionTTL:    cfg.Auth.SessionTTL,
	})
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	sheetsStore, err := ledger.NewSheetsStore(rootCtx, []byte(cfg.Sheets.ServiceAccountJSON), cfg.Sheets.SpreadsheetID)
	if err != nil {
		log.Error("sheets init failed", "err", err)
		os.Exit(1)
	}
	ledgerClient := ledger.NewClient(sheetsStore, sheetsStore, cfg.Sheets.CallbacksTab, cfg.Sheets.LogsTab)

	// The lead store the orchestrator sees; Redis wraps it when configured.
	var leadStore calls.LeadStore = ledgerClient
	if cfg.RedisEnabled() {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		leadStore = cache.NewLeadStore(ledgerClient, cache.NewRedisStore(rdb), cache.DefaultTTL)
		log.Info("lead cache enabled", "addr", cfg.RedisAddr())
	}

	auditSvc, auditDB := buildAudit(rootCtx, cfg, log, ledgerClient)
	if auditDB != nil {
		defer auditDB.Close()
	}

	dialer := gateway.NewClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber)

	callSvc := calls.NewService(leadStore, dialer, auditSvc, cfg.App.PublicBaseURL, cfg.App.PlatformHost)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	httpapi.Register(r, httpapi.Handlers{
		Auth:    authManager,
		Calls:   callSvc,
		AuditDB: auditDB,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
