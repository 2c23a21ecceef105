// Package cache adds a short-TTL read-through cache in front of the lead
// ledger. Spreadsheet reads are slow and quota-limited, and the dashboard
// polls its queue aggressively; a few seconds of staleness is an acceptable
// trade for keeping the read path off the sheet.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"affiliate-calldesk/internal/ledger"
	"affiliate-calldesk/pkg/logger"
)

// DefaultTTL bounds lead-list staleness.
const DefaultTTL = 15 * time.Second

// Store is the minimal key/value surface the lead cache needs.
// The absent/present distinction matters: a miss is (value "", false, nil).
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

// Source is the ledger surface being decorated.
type Source interface {
	EnsureReady(ctx context.Context) error
	ListLeads(ctx context.Context, f ledger.Filter) ([]ledger.Lead, error)
	GetLeadByID(ctx context.Context, id string) (ledger.Lead, bool, error)
	PatchLead(ctx context.Context, id string, p ledger.Patch) (ledger.Lead, bool, error)
}

// LeadStore caches ListLeads responses per filter and invalidates the whole
// cache on any write by bumping a generation counter. With a nil Store it is
// a transparent pass-through, so callers never branch on whether Redis is
// configured.
//
// Single-lead reads and writes always go to the source: the edit path must
// see current sheet state, not a snapshot.
type LeadStore struct {
	src   Source
	store Store
	ttl   time.Duration
}

func NewLeadStore(src Source, store Store, ttl time.Duration) *LeadStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LeadStore{src: src, store: store, ttl: ttl}
}

func (c *LeadStore) EnsureReady(ctx context.Context) error {
	return c.src.EnsureReady(ctx)
}

func (c *LeadStore) GetLeadByID(ctx context.Context, id string) (ledger.Lead, bool, error) {
	return c.src.GetLeadByID(ctx, id)
}

func (c *LeadStore) ListLeads(ctx context.Context, f ledger.Filter) ([]ledger.Lead, error) {
	if c.store == nil {
		return c.src.ListLeads(ctx, f)
	}

	key, err := c.listKey(ctx, f)
	if err == nil {
		if raw, ok, gerr := c.store.Get(ctx, key); gerr == nil && ok {
			var leads []ledger.Lead
			if json.Unmarshal([]byte(raw), &leads) == nil {
				return leads, nil
			}
		} else if gerr != nil {
			logger.From(ctx).Warn("lead cache read failed", "err", gerr)
		}
	}

	leads, err2 := c.src.ListLeads(ctx, f)
	if err2 != nil {
		return nil, err2
	}
	if err == nil {
		if raw, merr := json.Marshal(leads); merr == nil {
			if serr := c.store.Set(ctx, key, string(raw), c.ttl); serr != nil {
				logger.From(ctx).Warn("lead cache write failed", "err", serr)
			}
		}
	}
	return leads, nil
}

// PatchLead writes through and invalidates every cached list. Invalidation
// failure is logged and dropped: the TTL bounds the damage.
func (c *LeadStore) PatchLead(ctx context.Context, id string, p ledger.Patch) (ledger.Lead, bool, error) {
	l, ok, err := c.src.PatchLead(ctx, id, p)
	if err == nil && ok && c.store != nil {
		if _, ierr := c.store.Incr(ctx, genKey); ierr != nil {
			logger.From(ctx).Warn("lead cache invalidation failed", "err", ierr)
		}
	}
	return l, ok, err
}

const genKey = "leads:gen"

// listKey embeds the current generation so a single counter bump orphans
// every cached list at once; orphans age out via TTL.
func (c *LeadStore) listKey(ctx context.Context, f ledger.Filter) (string, error) {
	gen, ok, err := c.store.Get(ctx, genKey)
	if err != nil {
		return "", err
	}
	if !ok {
		gen = "0"
	}
	parts := []string{f.Status, f.Query, f.Sort, f.Order}
	return fmt.Sprintf("leads:%s:%s", gen, strings.Join(parts, "|")), nil
}
