package cache

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"affiliate-calldesk/internal/ledger"
)

type fakeKV struct {
	data    map[string]string
	getErr  error
	setErr  error
	incrErr error
}

func newFakeKV() *fakeKV { return &fakeKV{data: map[string]string{}} }

func (f *fakeKV) Get(_ context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) Incr(_ context.Context, key string) (int64, error) {
	if f.incrErr != nil {
		return 0, f.incrErr
	}
	n, _ := strconv.ParseInt(f.data[key], 10, 64)
	n++
	f.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

type countingSource struct {
	leads []ledger.Lead
	lists int
}

func (s *countingSource) EnsureReady(context.Context) error { return nil }

func (s *countingSource) ListLeads(context.Context, ledger.Filter) ([]ledger.Lead, error) {
	s.lists++
	out := make([]ledger.Lead, len(s.leads))
	copy(out, s.leads)
	return out, nil
}

func (s *countingSource) GetLeadByID(_ context.Context, id string) (ledger.Lead, bool, error) {
	for _, l := range s.leads {
		if l.ID == id {
			return l, true, nil
		}
	}
	return ledger.Lead{}, false, nil
}

func (s *countingSource) PatchLead(_ context.Context, id string, p ledger.Patch) (ledger.Lead, bool, error) {
	for i, l := range s.leads {
		if l.ID == id {
			if p.Status != nil {
				l.Status = *p.Status
			}
			s.leads[i] = l
			return l, true, nil
		}
	}
	return ledger.Lead{}, false, nil
}

func sampleLeads() []ledger.Lead {
	return []ledger.Lead{
		{ID: "a", Name: "Alice", Phone: "+15551230001", Status: ledger.StatusPending},
		{ID: "b", Name: "Bob", Phone: "+15551230002", Status: ledger.StatusCalled},
	}
}

func TestListLeads_SecondReadServedFromCache(t *testing.T) {
	src := &countingSource{leads: sampleLeads()}
	c := NewLeadStore(src, newFakeKV(), time.Minute)

	first, err := c.ListLeads(context.Background(), ledger.Filter{Status: "all"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	second, err := c.ListLeads(context.Background(), ledger.Filter{Status: "all"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if src.lists != 1 {
		t.Fatalf("expected one source read, got %d", src.lists)
	}
	if len(first) != 2 || len(second) != 2 || second[0].ID != first[0].ID {
		t.Fatalf("cached result diverged: %+v vs %+v", first, second)
	}
}

func TestListLeads_DistinctFiltersCachedSeparately(t *testing.T) {
	src := &countingSource{leads: sampleLeads()}
	c := NewLeadStore(src, newFakeKV(), time.Minute)

	_, _ = c.ListLeads(context.Background(), ledger.Filter{Status: "pending"})
	_, _ = c.ListLeads(context.Background(), ledger.Filter{Status: "called"})
	if src.lists != 2 {
		t.Fatalf("expected two source reads for two filters, got %d", src.lists)
	}
}

func TestPatchLead_InvalidatesCachedLists(t *testing.T) {
	src := &countingSource{leads: sampleLeads()}
	c := NewLeadStore(src, newFakeKV(), time.Minute)

	_, _ = c.ListLeads(context.Background(), ledger.Filter{})
	status := ledger.StatusCalled
	if _, ok, err := c.PatchLead(context.Background(), "a", ledger.Patch{Status: &status}); err != nil || !ok {
		t.Fatalf("patch failed: ok=%v err=%v", ok, err)
	}
	leads, err := c.ListLeads(context.Background(), ledger.Filter{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if src.lists != 2 {
		t.Fatalf("expected re-read after invalidation, got %d source reads", src.lists)
	}
	if leads[0].Status != ledger.StatusCalled {
		t.Fatalf("expected fresh status, got %q", leads[0].Status)
	}
}

func TestListLeads_NilStoreIsPassThrough(t *testing.T) {
	src := &countingSource{leads: sampleLeads()}
	c := NewLeadStore(src, nil, 0)

	for i := 0; i < 3; i++ {
		if _, err := c.ListLeads(context.Background(), ledger.Filter{}); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}
	if src.lists != 3 {
		t.Fatalf("pass-through must hit the source every time, got %d", src.lists)
	}
}

func TestListLeads_CacheFailuresFallThrough(t *testing.T) {
	src := &countingSource{leads: sampleLeads()}
	kv := newFakeKV()
	kv.getErr = errors.New("redis down")
	kv.setErr = errors.New("redis down")
	c := NewLeadStore(src, kv, time.Minute)

	leads, err := c.ListLeads(context.Background(), ledger.Filter{})
	if err != nil {
		t.Fatalf("cache failure must not fail the read: %v", err)
	}
	if len(leads) != 2 {
		t.Fatalf("expected source result, got %+v", leads)
	}
}

func TestPatchLead_InvalidationFailureDoesNotFailWrite(t *testing.T) {
	src := &countingSource{leads: sampleLeads()}
	kv := newFakeKV()
	kv.incrErr = errors.New("redis down")
	c := NewLeadStore(src, kv, time.Minute)

	status := ledger.StatusCalled
	if _, ok, err := c.PatchLead(context.Background(), "a", ledger.Patch{Status: &status}); err != nil || !ok {
		t.Fatalf("write must survive invalidation failure: ok=%v err=%v", ok, err)
	}
}
