package calls

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"affiliate-calldesk/internal/audit"
	"affiliate-calldesk/internal/baseurl"
	"affiliate-calldesk/internal/gateway"
	"affiliate-calldesk/internal/ledger"
	"affiliate-calldesk/internal/phone"
	"affiliate-calldesk/pkg/logger"
)

// LeadStore is the slice of the ledger client the orchestrator needs.
type LeadStore interface {
	EnsureReady(ctx context.Context) error
	ListLeads(ctx context.Context, f ledger.Filter) ([]ledger.Lead, error)
	GetLeadByID(ctx context.Context, id string) (ledger.Lead, bool, error)
	PatchLead(ctx context.Context, id string, p ledger.Patch) (ledger.Lead, bool, error)
}

// Dialer places the first call leg and renders second-leg instructions.
type Dialer interface {
	PlaceBridgeCall(ctx context.Context, affiliatePhone, leadPhone, leadID, baseURL string) (string, error)
	BridgeTwiML(leadPhone string) (string, error)
}

// Service sequences the bridge-call flows end to end: validate, block-check,
// dial, reconcile ledger state, audit. Each flow is one short synchronous
// unit of work; there is no cross-request state here.
type Service struct {
	store  LeadStore
	dialer Dialer
	audit  *audit.Service

	publicBaseURL string
	platformHost  string

	// Quota backoff knobs; tests shrink the delay.
	retries   int
	baseDelay time.Duration

	clock func() time.Time
}

func NewService(store LeadStore, dialer Dialer, auditSvc *audit.Service, publicBaseURL, platformHost string) *Service {
	return &Service{
		store:         store,
		dialer:        dialer,
		audit:         auditSvc,
		publicBaseURL: publicBaseURL,
		platformHost:  platformHost,
		retries:       ledger.DefaultRetries,
		baseDelay:     ledger.DefaultBaseDelay,
		clock:         time.Now,
	}
}

func (s *Service) now() string {
	return s.clock().UTC().Format(time.RFC3339)
}

func (s *Service) resolveBase(hostHint string) (string, error) {
	base := baseurl.Resolve(s.publicBaseURL, s.platformHost, hostHint)
	if !baseurl.Usable(base) {
		return "", ErrNoCallbackBase
	}
	return base, nil
}

// appendAudit is best-effort by contract: failures are logged, never
// surfaced, so audit can never turn a completed call into an error.
func (s *Service) appendAudit(ctx context.Context, e audit.Entry) {
	_, err := ledger.WithRetry(ctx, func() (struct{}, error) {
		return struct{}{}, s.audit.Append(ctx, e)
	}, s.retries, s.baseDelay)
	if err != nil {
		logger.From(ctx).Warn("audit append failed", "action", string(e.Action), "err", err)
	}
}

/* ===================== flow A: call a known lead ===================== */

// StartLeadCall bridges the affiliate to a queued lead and marks it called.
// Audit identifiers are the leadID/affiliatePhone captured here, before
// anything can fail, so the failure path never re-derives request state.
func (s *Service) StartLeadCall(ctx context.Context, leadID, affiliatePhone, hostHint string) (string, error) {
	sid, err := s.startLeadCall(ctx, leadID, affiliatePhone, hostHint)
	if err != nil {
		s.appendAudit(ctx, audit.Entry{
			LeadID:         orUnknown(leadID),
			Action:         audit.ActionError,
			AffiliatePhone: orUnknown(affiliatePhone),
			Details:        err.Error(),
		})
	}
	return sid, err
}

func (s *Service) startLeadCall(ctx context.Context, leadID, affiliatePhone, hostHint string) (string, error) {
	log := logger.From(ctx)

	if err := s.store.EnsureReady(ctx); err != nil {
		return "", err
	}

	if leadID == "" || affiliatePhone == "" {
		return "", fmt.Errorf("%w: missing leadId or affiliatePhone", ErrValidation)
	}
	if !phone.IsValidE164(affiliatePhone) {
		return "", fmt.Errorf("%w: affiliatePhone must be E.164 format (e.g. +15551234567)", ErrValidation)
	}

	type fetched struct {
		lead  ledger.Lead
		found bool
	}
	res, err := ledger.WithRetry(ctx, func() (fetched, error) {
		l, ok, err := s.store.GetLeadByID(ctx, leadID)
		return fetched{lead: l, found: ok}, err
	}, s.retries, s.baseDelay)
	if err != nil {
		return "", err
	}
	if !res.found {
		return "", ErrNotFound
	}
	lead := res.lead

	if lead.Phone == "" {
		return "", fmt.Errorf("%w: lead phone is missing", ErrValidation)
	}
	// Block before format validation: emergency short codes are never valid
	// E.164, and they must fail closed with the blocked message, not a
	// format complaint.
	if phone.IsBlocked(lead.Phone) {
		return "", ErrBlocked
	}
	if !phone.IsValidE164(lead.Phone) {
		return "", fmt.Errorf("%w: lead phone is missing or invalid: %q", ErrValidation, lead.Phone)
	}

	base, err := s.resolveBase(hostHint)
	if err != nil {
		return "", err
	}

	log.Info("starting bridge call", "lead_id", lead.ID, "affiliate", affiliatePhone)

	sid, err := s.dialer.PlaceBridgeCall(ctx, affiliatePhone, lead.Phone, lead.ID, base)
	if err != nil {
		return "", err
	}

	status := ledger.StatusCalled
	calledAt := s.now()
	_, err = ledger.WithRetry(ctx, func() (ledger.Lead, error) {
		l, _, err := s.store.PatchLead(ctx, lead.ID, ledger.Patch{
			Status:   &status,
			CalledAt: &calledAt,
			CalledBy: &affiliatePhone,
		})
		return l, err
	}, s.retries, s.baseDelay)
	if err != nil {
		// The call is already ringing; surface the reconcile failure but do
		// not try to cancel the call.
		return "", fmt.Errorf("call %s placed but lead update failed: %w", sid, err)
	}

	details, _ := json.Marshal(map[string]string{"leadName": lead.Name, "leadPhone": lead.Phone})
	s.appendAudit(ctx, audit.Entry{
		LeadID:         lead.ID,
		Action:         audit.ActionCallStarted,
		AffiliatePhone: affiliatePhone,
		Details:        string(details),
		CallSID:        sid,
	})

	log.Info("bridge call created", "call_sid", sid, "lead_id", lead.ID)
	return sid, nil
}

/* ===================== flow B: manual dial ===================== */

// DialNumber bridges the affiliate to an arbitrary number. No lead record is
// read or written; the audit lead reference is the "manual" sentinel.
func (s *Service) DialNumber(ctx context.Context, affiliatePhone, rawTarget, hostHint string) (string, error) {
	if affiliatePhone == "" || rawTarget == "" {
		return "", fmt.Errorf("%w: missing affiliatePhone or leadPhone", ErrValidation)
	}

	target := phone.Normalize(rawTarget)
	if phone.IsBlocked(target) {
		return "", ErrBlocked
	}
	if !phone.IsValidE164(target) {
		return "", fmt.Errorf("%w: lead number must be E.164 format (e.g. +15551234567)", ErrValidation)
	}
	if !phone.IsValidE164(affiliatePhone) {
		return "", fmt.Errorf("%w: affiliate number must be E.164 format", ErrValidation)
	}

	base, err := s.resolveBase(hostHint)
	if err != nil {
		return "", err
	}

	sid, err := s.dialer.PlaceBridgeCall(ctx, affiliatePhone, target, audit.LeadIDManual, base)
	if err != nil {
		return "", err
	}

	logger.From(ctx).Info("manual dial created", "call_sid", sid, "to", target)
	return sid, nil
}

/* ===================== lead listing and edits ===================== */

// ListLeads serves the dashboard queue through the quota retry wrapper.
func (s *Service) ListLeads(ctx context.Context, f ledger.Filter) ([]ledger.Lead, error) {
	if err := s.store.EnsureReady(ctx); err != nil {
		return nil, err
	}
	return ledger.WithRetry(ctx, func() ([]ledger.Lead, error) {
		return s.store.ListLeads(ctx, f)
	}, s.retries, s.baseDelay)
}

// UpdateLead applies a manual status/notes edit and appends the matching
// audit entry.
func (s *Service) UpdateLead(ctx context.Context, id string, status, notes *string, affiliatePhone string) (ledger.Lead, error) {
	if err := s.store.EnsureReady(ctx); err != nil {
		return ledger.Lead{}, err
	}
	if status == nil && notes == nil {
		return ledger.Lead{}, fmt.Errorf("%w: nothing to update, send status and/or notes", ErrValidation)
	}

	p := ledger.Patch{Status: status, Notes: notes}
	if status != nil && *status == ledger.StatusCalled {
		calledAt := s.now()
		p.CalledAt = &calledAt
		if affiliatePhone != "" {
			p.CalledBy = &affiliatePhone
		}
	}

	type patched struct {
		lead  ledger.Lead
		found bool
	}
	res, err := ledger.WithRetry(ctx, func() (patched, error) {
		l, ok, err := s.store.PatchLead(ctx, id, p)
		return patched{lead: l, found: ok}, err
	}, s.retries, s.baseDelay)
	if err != nil {
		return ledger.Lead{}, err
	}
	if !res.found {
		return ledger.Lead{}, ErrNotFound
	}

	action := audit.ActionNoteUpdated
	detail := map[string]string{}
	if status != nil {
		action = audit.StatusAction(*status)
		detail["status"] = *status
	}
	if notes != nil {
		detail["notes"] = truncate(*notes, 100)
	}
	details, _ := json.Marshal(detail)
	s.appendAudit(ctx, audit.Entry{
		LeadID:         id,
		Action:         action,
		AffiliatePhone: affiliatePhone,
		Details:        string(details),
	})

	return res.lead, nil
}

/* ===================== webhook instructions ===================== */

const bridgeErrorMessage = "Sorry, something went wrong. The lead number is missing."

// fallbackTwiML is returned if rendering itself fails; the webhook must
// always answer with a playable document.
const fallbackTwiML = `<?xml version="1.0" encoding="UTF-8"?>
<Response><Say>Sorry, something went wrong.</Say><Hangup></Hangup></Response>`

// BridgeInstructions produces the second-leg instruction document for the
// provider's mid-call webhook. Malformed input yields a spoken error inside
// a valid document; the transport status is always success because the
// provider's renderer ignores HTTP error codes.
func (s *Service) BridgeInstructions(ctx context.Context, leadPhone string) string {
	if leadPhone == "" || !phone.IsValidE164(leadPhone) {
		logger.From(ctx).Warn("bridge webhook missing or invalid lead number", "lead", leadPhone)
		doc, err := gateway.ErrorTwiML(bridgeErrorMessage)
		if err != nil {
			return fallbackTwiML
		}
		return doc
	}
	doc, err := s.dialer.BridgeTwiML(leadPhone)
	if err != nil {
		logger.From(ctx).Error("bridge twiml render failed", "err", err)
		doc, err = gateway.ErrorTwiML("Sorry, something went wrong.")
		if err != nil {
			return fallbackTwiML
		}
	}
	return doc
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
