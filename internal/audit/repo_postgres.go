package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo mirrors audit entries into Postgres for retention and ad-hoc
// querying beyond what the spreadsheet log tab offers. Optional; wired only
// when AUDIT_DATABASE_URL is configured.
//
// Expected table (INSERT-only; add a trigger to forbid UPDATE/DELETE):
//
//	CREATE TABLE call_audit (
//	    log_id          TEXT PRIMARY KEY,
//	    created_at      TIMESTAMPTZ NOT NULL,
//	    lead_id         TEXT NOT NULL,
//	    action          TEXT NOT NULL,
//	    affiliate_phone TEXT NOT NULL DEFAULT '',
//	    details         TEXT NOT NULL DEFAULT '',
//	    call_sid        TEXT NOT NULL DEFAULT ''
//	);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Entry) error {
	const q = `
INSERT INTO call_audit (log_id, created_at, lead_id, action, affiliate_phone, details, call_sid)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (log_id) DO NOTHING
`
	_, err := r.db.ExecContext(ctx, q,
		e.LogID,
		e.Timestamp.UTC(),
		e.LeadID,
		string(e.Action),
		e.AffiliatePhone,
		e.Details,
		e.CallSID,
	)
	return err
}
