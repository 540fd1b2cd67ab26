package biz

import (
	"context"
	"time"
)

// PlanHistoryEntry is one immutable record of a plan transition. The audit
// trail is ordered by (ChangedAt, ID).
type PlanHistoryEntry struct {
	ID        uint64
	UID       string
	OldTier   string
	NewTier   string
	ChangedBy string // "admin" or "system"
	ChangedAt time.Time
}

// TransitionCount is one cell of the from->to transition matrix.
type TransitionCount struct {
	OldTier string
	NewTier string
	Total   int64
}

// HistoryRepo is the append-only plan transition log.
type HistoryRepo interface {
	Append(ctx context.Context, entry *PlanHistoryEntry) error
	Recent(ctx context.Context, limit int) ([]*PlanHistoryEntry, error)
	ListSince(ctx context.Context, since time.Time) ([]*PlanHistoryEntry, error)
	// TransitionCounts groups entries by (old, new) pair, most frequent
	// first. Grouping happens in the store, not by scanning history here.
	TransitionCounts(ctx context.Context) ([]*TransitionCount, error)
}
