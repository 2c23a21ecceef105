package audit

import (
	"context"
	"errors"
	"strings"
	"time"

	"affiliate-calldesk/pkg/logger"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit entries.
//
// It MUST be append-only; there are no update or delete methods.
type Repository interface {
	Append(ctx context.Context, e Entry) error
}

var ErrInvalidEntry = errors.New("audit: invalid entry")

// Service assigns identity and timestamps to entries and writes them to the
// primary repository, mirroring to an optional secondary one.
//
// The mirror is strictly best-effort: a mirror failure is logged and dropped
// so it can never mask the primary outcome.
type Service struct {
	primary Repository
	mirror  Repository
	clock   func() time.Time
}

func NewService(primary Repository, mirror Repository) *Service {
	return &Service{primary: primary, mirror: mirror, clock: time.Now}
}

func (s *Service) Append(ctx context.Context, e Entry) error {
	if s.primary == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Action == "" {
		return ErrInvalidEntry
	}
	if e.LeadID == "" {
		e.LeadID = LeadIDManual
	}
	if e.LogID == "" {
		e.LogID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.clock().UTC()
	}

	if err := s.primary.Append(ctx, e); err != nil {
		return err
	}
	if s.mirror != nil {
		if err := s.mirror.Append(ctx, e); err != nil {
			logger.From(ctx).Warn("audit mirror append failed", "action", string(e.Action), "err", err)
		}
	}
	return nil
}

// StatusAction derives the audit action for a lead status change.
func StatusAction(status string) Action {
	switch status {
	case "called":
		return ActionMarkCalled
	case "pending":
		return ActionMarkPending
	default:
		return Action("STATUS_" + strings.ToUpper(status))
	}
}
