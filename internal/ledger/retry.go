package ledger

import (
	"context"
	"strings"
	"time"

	"affiliate-calldesk/pkg/logger"
)

// The Sheets API signals quota exhaustion with a "Quota exceeded" message.
// That is the only transient condition worth retrying; everything else
// (bad range, permissions, corrupt data) propagates immediately.
const quotaSignature = "Quota exceeded"

// IsQuotaError reports whether err carries the Sheets rate-limit signature.
func IsQuotaError(err error) bool {
	return err != nil && strings.Contains(err.Error(), quotaSignature)
}

// DefaultRetries and DefaultBaseDelay give waits of 2s then 4s across three
// attempts total.
const (
	DefaultRetries   = 2
	DefaultBaseDelay = 2 * time.Second
)

// WithRetry runs fn, retrying quota errors with exponential backoff
// (baseDelay * 2^attempt). It is applied only to reads, identity-keyed
// patches, and log appends; all of those are safe to repeat, so a retry after
// an ambiguous failure costs at most duplicate audit noise.
func WithRetry[T any](ctx context.Context, fn func() (T, error), maxRetries int, baseDelay time.Duration) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		out, err := fn()
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !IsQuotaError(err) || attempt == maxRetries {
			return zero, err
		}
		delay := baseDelay * (1 << attempt)
		logger.From(ctx).Warn("ledger quota hit, backing off",
			"delay", delay.String(),
			"attempt", attempt+1,
			"max_retries", maxRetries,
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
	return zero, lastErr
}
