package main

import (
	"context"
	"database/sql"
	"log/slog"

	"affiliate-calldesk/internal/audit"
	"affiliate-calldesk/internal/config"
	"affiliate-calldesk/internal/ledger"
	"affiliate-calldesk/pkg/utils"
)

// buildAudit assembles the audit service: the spreadsheet log tab is always
// the primary sink, and a Postgres mirror is attached when
// AUDIT_DATABASE_URL is set. A mirror that fails to open is skipped with a
// warning rather than blocking startup; the primary sink still records
// everything.
func buildAudit(ctx context.Context, cfg config.Config, log *slog.Logger, ledgerClient *ledger.Client) (*audit.Service, *sql.DB) {
	primary := audit.NewSheetRepo(ledgerClient)

	if !cfg.AuditMirrorEnabled() {
		return audit.NewService(primary, nil), nil
	}

	db, err := utils.OpenPostgres(ctx, "pgx", cfg.Audit.DatabaseURL, utils.PostgresPoolConfig{})
	if err != nil {
		log.Warn("audit mirror unavailable, continuing without it", "err", err)
		return audit.NewService(primary, nil), nil
	}
	log.Info("audit mirror enabled")
	return audit.NewService(primary, audit.NewPostgresRepo(db)), db
}
