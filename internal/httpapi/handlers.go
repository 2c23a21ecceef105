package httpapi

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"affiliate-calldesk/internal/auth"
	"affiliate-calldesk/internal/calls"
	"affiliate-calldesk/internal/gateway"
	"affiliate-calldesk/internal/ledger"
	"affiliate-calldesk/internal/phone"
	"affiliate-calldesk/pkg/logger"
	"affiliate-calldesk/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, authorize, call internal services,
// return JSON. Flow decisions live in internal/calls.

type Handlers struct {
	Auth  *auth.Manager
	Calls *calls.Service

	// AuditDB is the optional Postgres mirror; healthz pings it when set.
	AuditDB *sql.DB

	Clock func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

// authorize accepts the shared access code (body or query) or a Bearer
// session token. Every mutating route and the lead list go through this.
func (h Handlers) authorize(c *gin.Context, accessCode string) bool {
	if h.Auth == nil {
		return false
	}
	return h.Auth.Authorize(accessCode, c.GetHeader("Authorization"), h.now())
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid access code or session"})
}

// writeError maps flow errors to transport statuses. Provider rejections
// surface verbatim with 502 so the affiliate sees the real reason.
func writeError(c *gin.Context, err error) {
	var gwErr *gateway.Error
	switch {
	case errors.Is(err, calls.ErrValidation),
		errors.Is(err, calls.ErrBlocked),
		errors.Is(err, calls.ErrNoCallbackBase):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, calls.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
	case errors.As(err, &gwErr):
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"ok": false, "error": gwErr.Message})
	default:
		logger.FromGin(c).Error("request failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
	}
}

// --- Health ---

func (h Handlers) Health(c *gin.Context) {
	out := gin.H{"status": "ok"}
	if h.AuditDB != nil {
		if err := utils.HealthCheck(c.Request.Context(), h.AuditDB, 2*time.Second); err != nil {
			out["auditMirror"] = "down"
		} else {
			out["auditMirror"] = "ok"
		}
	}
	c.JSON(http.StatusOK, out)
}

// --- Session ---

type sessionRequest struct {
	AccessCode string `json:"accessCode"`
}

// CreateSession exchanges the shared access code for a short-lived session
// token so the dashboard drops the code from memory after sign-in.
func (h Handlers) CreateSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid json"})
		return
	}
	if h.Auth == nil || !h.Auth.CheckAccessCode(req.AccessCode) {
		unauthorized(c)
		return
	}
	token, err := h.Auth.IssueSession(h.now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "token": token})
}

// --- Leads ---

type leadResponse struct {
	ledger.Lead
	// PhoneDisplay is a human-friendly rendering for the queue table; the
	// raw E.164 value stays in phone.
	PhoneDisplay string `json:"phoneDisplay"`
}

func toLeadResponse(l ledger.Lead) leadResponse {
	return leadResponse{Lead: l, PhoneDisplay: phone.FormatDisplay(l.Phone)}
}

// ListLeads serves the dashboard queue.
// Query: status (pending|called|all), q, sort, order.
// Read-only and unauthenticated; the access code gates mutations only.
func (h Handlers) ListLeads(c *gin.Context) {
	f := ledger.Filter{
		Status: c.Query("status"),
		Query:  c.Query("q"),
		Sort:   c.Query("sort"),
		Order:  c.Query("order"),
	}
	leads, err := h.Calls.ListLeads(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]leadResponse, 0, len(leads))
	for _, l := range leads {
		out = append(out, toLeadResponse(l))
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "leads": out})
}

type patchLeadRequest struct {
	AccessCode     string  `json:"accessCode"`
	Status         *string `json:"status"`
	Notes          *string `json:"notes"`
	AffiliatePhone string  `json:"affiliatePhone"`
}

// PatchLead applies a manual status/notes edit to one lead.
func (h Handlers) PatchLead(c *gin.Context) {
	var req patchLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid json"})
		return
	}
	if !h.authorize(c, req.AccessCode) {
		unauthorized(c)
		return
	}
	lead, err := h.Calls.UpdateLead(c.Request.Context(), c.Param("id"), req.Status, req.Notes, req.AffiliatePhone)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "lead": toLeadResponse(lead)})
}

// --- Calls ---

type startCallRequest struct {
	AccessCode     string `json:"accessCode"`
	LeadID         string `json:"leadId"`
	AffiliatePhone string `json:"affiliatePhone"`
}

// StartCall bridges the affiliate to a queued lead.
func (h Handlers) StartCall(c *gin.Context) {
	var req startCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid json"})
		return
	}
	if !h.authorize(c, req.AccessCode) {
		unauthorized(c)
		return
	}
	sid, err := h.Calls.StartLeadCall(c.Request.Context(), req.LeadID, req.AffiliatePhone, c.Request.Host)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "callSid": sid})
}

type dialNumberRequest struct {
	AccessCode     string `json:"accessCode"`
	AffiliatePhone string `json:"affiliatePhone"`
	LeadPhone      string `json:"leadPhone"`
}

// DialNumber bridges the affiliate to an ad-hoc number with no lead record.
func (h Handlers) DialNumber(c *gin.Context) {
	var req dialNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid json"})
		return
	}
	if !h.authorize(c, req.AccessCode) {
		unauthorized(c)
		return
	}
	sid, err := h.Calls.DialNumber(c.Request.Context(), req.AffiliatePhone, req.LeadPhone, c.Request.Host)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "callSid": sid})
}

// --- Provider webhook ---

// Bridge answers the provider's mid-call webhook with second-leg dial
// instructions. Always 200 with a well-formed document: the provider's
// renderer does not handle HTTP errors, and a broken response strands the
// affiliate on a silent line.
func (h Handlers) Bridge(c *gin.Context) {
	lead := c.Query("lead")
	if lead == "" {
		lead = c.PostForm("lead")
	}
	doc := h.Calls.BridgeInstructions(c.Request.Context(), lead)
	c.Data(http.StatusOK, "text/xml; charset=utf-8", []byte(doc))
}
