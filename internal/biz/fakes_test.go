package biz

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"brightcopy/plan-service/internal/auth"
	"brightcopy/plan-service/internal/constants"

	"github.com/go-kratos/kratos/v2/log"
)

// In-memory fakes for the three repositories, the cache and the passport
// client. They mirror the MySQL semantics closely enough for the usecase
// tests: nil-on-absent assignments, upsert by uid, atomic counter bumps.

type fakePlanRepo struct {
	mu      sync.Mutex
	rows    map[string]*PlanAssignment
	getErr  error
	saveErr map[string]error // per-uid injected failures
	listErr error
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{
		rows:    make(map[string]*PlanAssignment),
		saveErr: make(map[string]error),
	}
}

func clonePlan(a *PlanAssignment) *PlanAssignment {
	if a == nil {
		return nil
	}
	c := *a
	if a.ExpiresAt != nil {
		t := *a.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

func (r *fakePlanRepo) GetAssignment(_ context.Context, uid string) (*PlanAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	return clonePlan(r.rows[uid]), nil
}

func (r *fakePlanRepo) SaveAssignment(_ context.Context, a *PlanAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.saveErr[a.UID]; err != nil {
		return err
	}
	r.rows[a.UID] = clonePlan(a)
	return nil
}

func (r *fakePlanRepo) ListAssignments(_ context.Context, page, pageSize int) ([]*PlanAssignment, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	uids := make([]string, 0, len(r.rows))
	for uid := range r.rows {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	total := len(uids)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	out := make([]*PlanAssignment, 0, end-start)
	for _, uid := range uids[start:end] {
		out = append(out, clonePlan(r.rows[uid]))
	}
	return out, total, nil
}

func (r *fakePlanRepo) ListExpired(_ context.Context, now time.Time) ([]*PlanAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*PlanAssignment
	for _, a := range r.rows {
		if constants.IsPaidTier(a.Tier) && a.ExpiresAt != nil && a.ExpiresAt.Before(now) {
			out = append(out, clonePlan(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out, nil
}

func (r *fakePlanRepo) ListExpiringWithin(_ context.Context, now time.Time, days int) ([]*PlanAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := now.Add(time.Duration(days) * 24 * time.Hour)
	var out []*PlanAssignment
	for _, a := range r.rows {
		if constants.IsPaidTier(a.Tier) && a.ExpiresAt != nil && a.ExpiresAt.Before(cutoff) {
			out = append(out, clonePlan(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out, nil
}

func (r *fakePlanRepo) CountByTier(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, a := range r.rows {
		counts[a.Tier]++
	}
	return counts, nil
}

func (r *fakePlanRepo) CountExpiredPaidByTier(_ context.Context, now time.Time) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, a := range r.rows {
		if constants.IsPaidTier(a.Tier) && a.ExpiresAt != nil && a.ExpiresAt.Before(now) {
			counts[a.Tier]++
		}
	}
	return counts, nil
}

type fakeUsageRepo struct {
	mu     sync.Mutex
	counts map[string]int64 // uid|feature|month
	incErr error
	getErr error
}

func newFakeUsageRepo() *fakeUsageRepo {
	return &fakeUsageRepo{counts: make(map[string]int64)}
}

func usageKey(uid, feature, month string) string {
	return uid + "|" + feature + "|" + month
}

func (r *fakeUsageRepo) Increment(_ context.Context, uid, feature, month string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.incErr != nil {
		return r.incErr
	}
	r.counts[usageKey(uid, feature, month)]++
	return nil
}

func (r *fakeUsageRepo) GetCount(_ context.Context, uid, feature, month string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return 0, r.getErr
	}
	return r.counts[usageKey(uid, feature, month)], nil
}

func (r *fakeUsageRepo) MonthCounts(_ context.Context, uid, month string) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64)
	for key, n := range r.counts {
		parts := strings.SplitN(key, "|", 3)
		if parts[0] == uid && parts[2] == month {
			out[parts[1]] += n
		}
	}
	return out, nil
}

func (r *fakeUsageRepo) CumulativeCounts(_ context.Context, uid string) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64)
	for key, n := range r.counts {
		parts := strings.SplitN(key, "|", 3)
		if parts[0] == uid {
			out[parts[1]] += n
		}
	}
	return out, nil
}

func (r *fakeUsageRepo) TotalsByFeature(_ context.Context, month string) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64)
	for key, n := range r.counts {
		parts := strings.SplitN(key, "|", 3)
		if month == "" || parts[2] == month {
			out[parts[1]] += n
		}
	}
	return out, nil
}

func (r *fakeUsageRepo) TotalsByMonth(_ context.Context, months []string) (map[string]map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[string]bool, len(months))
	for _, m := range months {
		wanted[m] = true
	}
	out := make(map[string]map[string]int64)
	for key, n := range r.counts {
		parts := strings.SplitN(key, "|", 3)
		if !wanted[parts[2]] {
			continue
		}
		if out[parts[2]] == nil {
			out[parts[2]] = make(map[string]int64)
		}
		out[parts[2]][parts[1]] += n
	}
	return out, nil
}

func (r *fakeUsageRepo) TopUsers(_ context.Context, limit int) ([]*UserUsageTotal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	totals := make(map[string]int64)
	for key, n := range r.counts {
		parts := strings.SplitN(key, "|", 3)
		totals[parts[0]] += n
	}
	out := make([]*UserUsageTotal, 0, len(totals))
	for uid, total := range totals {
		out = append(out, &UserUsageTotal{UID: uid, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].UID < out[j].UID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeHistoryRepo struct {
	mu        sync.Mutex
	entries   []*PlanHistoryEntry
	nextID    uint64
	appendErr error
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{nextID: 1}
}

func (r *fakeHistoryRepo) Append(_ context.Context, entry *PlanHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	entry.ID = r.nextID
	r.nextID++
	stored := *entry
	r.entries = append(r.entries, &stored)
	return nil
}

func (r *fakeHistoryRepo) Recent(_ context.Context, limit int) ([]*PlanHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*PlanHistoryEntry, len(r.entries))
	copy(out, r.entries)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ChangedAt.Equal(out[j].ChangedAt) {
			return out[i].ChangedAt.After(out[j].ChangedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeHistoryRepo) ListSince(_ context.Context, since time.Time) ([]*PlanHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*PlanHistoryEntry
	for _, e := range r.entries {
		if !e.ChangedAt.Before(since) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeHistoryRepo) TransitionCounts(_ context.Context) ([]*TransitionCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	grouped := make(map[string]*TransitionCount)
	for _, e := range r.entries {
		key := e.OldTier + ">" + e.NewTier
		if grouped[key] == nil {
			grouped[key] = &TransitionCount{OldTier: e.OldTier, NewTier: e.NewTier}
		}
		grouped[key].Total++
	}
	out := make([]*TransitionCount, 0, len(grouped))
	for _, c := range grouped {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].OldTier+out[i].NewTier < out[j].OldTier+out[j].NewTier
	})
	return out, nil
}

type fakeQuotaCache struct {
	mu          sync.Mutex
	summaries   map[string][]*FeatureUsage
	sets        int
	invalidated []string
}

func newFakeQuotaCache() *fakeQuotaCache {
	return &fakeQuotaCache{summaries: make(map[string][]*FeatureUsage)}
}

func (c *fakeQuotaCache) GetSummary(_ context.Context, uid string) ([]*FeatureUsage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, ok := c.summaries[uid]
	return items, ok
}

func (c *fakeQuotaCache) SetSummary(_ context.Context, uid string, items []*FeatureUsage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summaries[uid] = items
	c.sets++
}

func (c *fakeQuotaCache) Invalidate(_ context.Context, uid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.summaries, uid)
	c.invalidated = append(c.invalidated, uid)
}

type fakePassport struct {
	mu        sync.Mutex
	names     map[string]string
	renameErr error
	active    int64
}

func newFakePassport() *fakePassport {
	return &fakePassport{names: make(map[string]string)}
}

func (p *fakePassport) Rename(_ context.Context, uid, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.renameErr != nil {
		return p.renameErr
	}
	p.names[uid] = name
	return nil
}

func (p *fakePassport) CountActiveUsers(_ context.Context, _ time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active, nil
}

func testLogger() log.Logger {
	return log.NewStdLogger(io.Discard)
}

// adminContext returns a context authenticated as an admin user whose
// assignment is already present in the plan repo.
func adminContext(repo *fakePlanRepo) context.Context {
	ctx := auth.WithUID(context.Background(), "admin-1")
	repo.rows["admin-1"] = &PlanAssignment{UID: "admin-1", Tier: constants.TierAdmin}
	return ctx
}

func userContext(uid string) context.Context {
	return auth.WithUID(context.Background(), uid)
}
