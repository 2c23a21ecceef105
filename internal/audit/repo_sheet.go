package audit

import (
	"context"
	"time"
)

// LogAppender is the slice of the ledger client this repository needs.
type LogAppender interface {
	AppendLogRow(ctx context.Context, row []string) error
}

// SheetRepo appends audit entries as rows of the ledger's log tab. It is the
// primary audit sink; the log tab is the system of record for call history.
//
// Column order matches the log tab headers:
// logId, timestamp, leadId, action, affiliatePhone, details, twilioCallSid.
type SheetRepo struct {
	appender LogAppender
}

func NewSheetRepo(appender LogAppender) *SheetRepo {
	return &SheetRepo{appender: appender}
}

func (r *SheetRepo) Append(ctx context.Context, e Entry) error {
	return r.appender.AppendLogRow(ctx, []string{
		e.LogID,
		e.Timestamp.UTC().Format(time.RFC3339),
		e.LeadID,
		string(e.Action),
		e.AffiliatePhone,
		e.Details,
		e.CallSID,
	})
}
