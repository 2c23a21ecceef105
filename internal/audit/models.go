package audit

import "time"

// Entry is one immutable, append-only audit record.
//
// Invariants:
// - Entries are never updated or deleted; ordering is insertion order.
// - Appends are best-effort: a failed append must never fail the user-facing
//   action it describes. Callers own that policy; repositories just append.
type Entry struct {
	// LogID is generated at append time when empty.
	LogID string `json:"logId"`
	// Timestamp is server-assigned at append time when zero.
	Timestamp time.Time `json:"timestamp"`

	// LeadID references the lead, or "manual" for ad-hoc dials.
	LeadID string `json:"leadId"`

	Action Action `json:"action"`

	AffiliatePhone string `json:"affiliatePhone"`

	// Details is free-form serialized context (usually JSON).
	Details string `json:"details"`

	// CallSID references the provider call session when one exists.
	CallSID string `json:"twilioCallSid,omitempty"`
}

type Action string

const (
	ActionCallStarted Action = "CALL_STARTED"
	ActionMarkCalled  Action = "MARK_CALLED"
	ActionMarkPending Action = "MARK_PENDING"
	ActionNoteUpdated Action = "NOTE_UPDATED"
	ActionError       Action = "ERROR"
)

// LeadIDManual marks audit entries for dials that have no lead record.
const LeadIDManual = "manual"
