package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// rowsAPI and tabsAPI are the narrow seams over the spreadsheet backend.
// Production uses the Google Sheets implementations in sheets.go; tests use
// in-memory fakes.

type rowsAPI interface {
	// Get reads a range; rows may be ragged (trailing empty cells omitted).
	Get(ctx context.Context, rng string) ([][]string, error)
	// Update overwrites a range.
	Update(ctx context.Context, rng string, values [][]string) error
	// BatchUpdate applies several range writes in one call.
	BatchUpdate(ctx context.Context, writes []ValueWrite) error
	// Append adds rows after the last data row of a range.
	Append(ctx context.Context, rng string, values [][]string) error
}

type tabsAPI interface {
	Titles(ctx context.Context) ([]string, error)
	Add(ctx context.Context, titles []string) error
}

// Client is the ledger access layer: the records tab holds leads, the logs
// tab is the append-only audit trail.
type Client struct {
	rows rowsAPI
	tabs tabsAPI

	recordsTab string
	logsTab    string
	layout     layout

	clock func() time.Time

	// ready memoizes a successful bootstrap for the process lifetime.
	// A plain once would also memoize failure; a failed bootstrap must stay
	// retryable, so guard with a mutex and flip the flag only on success.
	mu    sync.Mutex
	ready bool
}

func NewClient(rows rowsAPI, tabs tabsAPI, recordsTab, logsTab string) *Client {
	var lay layout = nativeLayout{}
	if isQueueTab(recordsTab) {
		lay = queueLayout{}
	}
	return &Client{
		rows:       rows,
		tabs:       tabs,
		recordsTab: recordsTab,
		logsTab:    logsTab,
		layout:     lay,
		clock:      time.Now,
	}
}

// EnsureReady creates the records and logs tabs if missing and writes their
// header rows. Idempotent; concurrent and repeated calls are safe. Header
// writes are skipped for the queue layout because that tab belongs to a
// third-party tool.
func (c *Client) EnsureReady(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready {
		return nil
	}

	titles, err := c.tabs.Titles(ctx)
	if err != nil {
		return fmt.Errorf("ledger: list tabs: %w", err)
	}
	existing := make(map[string]struct{}, len(titles))
	for _, t := range titles {
		existing[t] = struct{}{}
	}

	var missing []string
	if _, ok := existing[c.recordsTab]; !ok {
		missing = append(missing, c.recordsTab)
	}
	if _, ok := existing[c.logsTab]; !ok {
		missing = append(missing, c.logsTab)
	}
	if len(missing) > 0 {
		if err := c.tabs.Add(ctx, missing); err != nil {
			return fmt.Errorf("ledger: create tabs: %w", err)
		}
	}

	if !isQueueTab(c.recordsTab) {
		if err := c.ensureHeaders(ctx, c.recordsTab, leadHeaders); err != nil {
			return err
		}
	}
	if err := c.ensureHeaders(ctx, c.logsTab, logHeaders); err != nil {
		return err
	}

	c.ready = true
	return nil
}

func (c *Client) ensureHeaders(ctx context.Context, tab string, headers []string) error {
	rng := fmt.Sprintf("%s!A1:%s1", tabRef(tab), colLetter(len(headers)))
	rows, err := c.rows.Get(ctx, rng)
	if err != nil {
		return fmt.Errorf("ledger: read headers of %s: %w", tab, err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 && rows[0][0] == headers[0] {
		return nil
	}
	if err := c.rows.Update(ctx, rng, [][]string{headers}); err != nil {
		return fmt.Errorf("ledger: write headers of %s: %w", tab, err)
	}
	return nil
}

// ListLeads returns leads matching f, ordered per f. The internal row
// position never leaves this package.
func (c *Client) ListLeads(ctx context.Context, f Filter) ([]Lead, error) {
	rows, err := c.rows.Get(ctx, c.layout.dataRange(c.recordsTab))
	if err != nil {
		return nil, fmt.Errorf("ledger: read leads: %w", err)
	}

	leads := make([]Lead, 0, len(rows))
	for i, row := range rows {
		if l, ok := c.layout.toLead(row, i+2); ok {
			leads = append(leads, l)
		}
	}

	if f.Status != "" && f.Status != "all" {
		kept := leads[:0]
		for _, l := range leads {
			if l.Status == f.Status {
				kept = append(kept, l)
			}
		}
		leads = kept
	}

	if f.Query != "" {
		q := strings.ToLower(f.Query)
		kept := leads[:0]
		for _, l := range leads {
			if strings.Contains(strings.ToLower(l.Name), q) || strings.Contains(l.Phone, q) {
				kept = append(kept, l)
			}
		}
		leads = kept
	}

	field := f.Sort
	if field == "" {
		field = "createdAt"
	}
	asc := f.Order == "asc"
	sort.SliceStable(leads, func(i, j int) bool {
		cmp := strings.Compare(sortValue(leads[i], field), sortValue(leads[j], field))
		if asc {
			return cmp < 0
		}
		return cmp > 0
	})

	for i := range leads {
		leads[i].rowIndex = 0
	}
	return leads, nil
}

// GetLeadByID resolves a lead by identity. Unknown ids are (zero, false, nil),
// not an error.
func (c *Client) GetLeadByID(ctx context.Context, id string) (Lead, bool, error) {
	l, found, err := c.getWithPosition(ctx, id)
	if err != nil || !found {
		return Lead{}, false, err
	}
	l.rowIndex = 0
	return l, true, nil
}

func (c *Client) getWithPosition(ctx context.Context, id string) (Lead, bool, error) {
	rows, err := c.rows.Get(ctx, c.layout.dataRange(c.recordsTab))
	if err != nil {
		return Lead{}, false, fmt.Errorf("ledger: read leads: %w", err)
	}

	// Synthetic queue ids encode the row position directly.
	if _, isQueue := c.layout.(queueLayout); isQueue {
		if target, ok := parseSyntheticID(id); ok {
			for i, row := range rows {
				if i+2 == target {
					l, ok := c.layout.toLead(row, i+2)
					return l, ok, nil
				}
			}
			return Lead{}, false, nil
		}
	}

	idCol := c.layout.idColumn()
	for i, row := range rows {
		if strings.TrimSpace(cell(row, idCol)) == id {
			l, ok := c.layout.toLead(row, i+2)
			return l, ok, nil
		}
	}
	return Lead{}, false, nil
}

// PatchLead applies the provided fields to an existing lead, stamps
// lastUpdatedAt, and writes back. Never creates a row; unknown ids are
// (zero, false, nil).
func (c *Client) PatchLead(ctx context.Context, id string, p Patch) (Lead, bool, error) {
	if p.empty() {
		return c.GetLeadByID(ctx, id)
	}
	l, found, err := c.getWithPosition(ctx, id)
	if err != nil || !found {
		return Lead{}, false, err
	}

	if p.Status != nil {
		l.Status = *p.Status
	}
	if p.Notes != nil {
		l.Notes = *p.Notes
	}
	if p.CalledAt != nil {
		l.CalledAt = *p.CalledAt
	}
	if p.CalledBy != nil {
		l.CalledBy = *p.CalledBy
	}
	l.LastUpdatedAt = c.clock().UTC().Format(time.RFC3339)

	writes := c.layout.writes(c.recordsTab, l, p)
	switch len(writes) {
	case 0:
		// Queue layout with nothing we own changed (e.g. calledAt only).
	case 1:
		if err := c.rows.Update(ctx, writes[0].Range, writes[0].Values); err != nil {
			return Lead{}, false, fmt.Errorf("ledger: update lead %s: %w", id, err)
		}
	default:
		if err := c.rows.BatchUpdate(ctx, writes); err != nil {
			return Lead{}, false, fmt.Errorf("ledger: update lead %s: %w", id, err)
		}
	}

	l.rowIndex = 0
	return l, true, nil
}

// AppendLogRow appends one audit row to the logs tab. Rows are never read
// back or rewritten here.
func (c *Client) AppendLogRow(ctx context.Context, row []string) error {
	rng := fmt.Sprintf("%s!A:%s", tabRef(c.logsTab), colLetter(len(logHeaders)))
	if err := c.rows.Append(ctx, rng, [][]string{row}); err != nil {
		return fmt.Errorf("ledger: append log: %w", err)
	}
	return nil
}
