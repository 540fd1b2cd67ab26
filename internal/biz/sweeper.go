package biz

import (
	"context"
	"math"
	"time"

	"brightcopy/plan-service/internal/constants"
	"brightcopy/plan-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
)

// SweepResult reports one sweep pass.
type SweepResult struct {
	Downgraded int `json:"downgraded"`
	Failed     int `json:"failed"`
}

// ExpiryNotice feeds the external reminder notifier: a paid user inside a
// warning window or already past expiry.
type ExpiryNotice struct {
	UID       string    `json:"uid"`
	Tier      string    `json:"tier"`
	ExpiresAt time.Time `json:"expires_at"`
	DaysLeft  int       `json:"days_left"`
}

// SweeperUsecase converts lazily-expired paid subscriptions into physically
// downgraded free rows. Readers never depend on it having run (lazy expiry
// covers them); the sweep keeps stored rows eventually consistent and the
// audit trail complete.
type SweeperUsecase struct {
	planRepo    PlanRepo
	historyRepo HistoryRepo
	cache       QuotaCache
	log         *log.Helper
}

// NewSweeperUsecase creates the sweeper usecase.
func NewSweeperUsecase(planRepo PlanRepo, historyRepo HistoryRepo, cache QuotaCache, logger log.Logger) *SweeperUsecase {
	return &SweeperUsecase{
		planRepo:    planRepo,
		historyRepo: historyRepo,
		cache:       cache,
		log:         log.NewHelper(logger),
	}
}

// Sweep downgrades every paid assignment past its expiry to free, records
// the fall-from tier and appends a system history entry per row. Each row
// is processed independently: one user's write failure is logged and
// skipped, never aborting the batch. Running Sweep twice is safe; the
// second pass finds no expired paid rows.
func (uc *SweeperUsecase) Sweep(ctx context.Context) (*SweepResult, error) {
	now := time.Now().UTC()
	expired, err := uc.planRepo.ListExpired(ctx, now)
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}

	res := &SweepResult{}
	for _, a := range expired {
		oldTier := a.Tier
		a.PreviousTier = oldTier
		a.Tier = constants.TierFree
		a.ExpiresAt = nil
		a.UpdatedAt = now

		if err := uc.planRepo.SaveAssignment(ctx, a); err != nil {
			uc.log.Errorf("Failed to downgrade user %s from %s: %v", a.UID, oldTier, err)
			res.Failed++
			continue
		}

		entry := &PlanHistoryEntry{
			UID:       a.UID,
			OldTier:   oldTier,
			NewTier:   constants.TierFree,
			ChangedBy: constants.ChangedBySystem,
			ChangedAt: now,
		}
		if err := uc.historyRepo.Append(ctx, entry); err != nil {
			uc.log.Errorf("Failed to append downgrade history for user %s: %v", a.UID, err)
		}

		uc.cache.Invalidate(ctx, a.UID)
		res.Downgraded++
	}

	uc.log.Infof("Sweep completed: downgraded=%d failed=%d", res.Downgraded, res.Failed)
	return res, nil
}

// ExpiringWithin returns paid users whose subscription expires within the
// given number of days, including those already past expiry, so the
// external notifier can send reminders.
func (uc *SweeperUsecase) ExpiringWithin(ctx context.Context, days int) ([]*ExpiryNotice, error) {
	if days < 1 || days > 30 {
		days = 7
	}

	now := time.Now().UTC()
	rows, err := uc.planRepo.ListExpiringWithin(ctx, now, days)
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}

	notices := make([]*ExpiryNotice, 0, len(rows))
	for _, a := range rows {
		if a.ExpiresAt == nil {
			// a paid row with no expiry never expires; nothing to warn about
			continue
		}
		notices = append(notices, &ExpiryNotice{
			UID:       a.UID,
			Tier:      a.Tier,
			ExpiresAt: *a.ExpiresAt,
			DaysLeft:  int(math.Ceil(a.ExpiresAt.Sub(now).Hours() / 24)),
		})
	}
	return notices, nil
}
