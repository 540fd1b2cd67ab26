package service

import (
	"context"
	"time"

	"brightcopy/plan-service/internal/auth"
	"brightcopy/plan-service/internal/biz"
	"brightcopy/plan-service/internal/constants"
	"brightcopy/plan-service/internal/errors"

	kerrors "github.com/go-kratos/kratos/v2/errors"
)

// PlanService is the transport-facing facade over the plan/quota usecases.
type PlanService struct {
	quota     *biz.QuotaUsecase
	admin     *biz.AdminUsecase
	sweeper   *biz.SweeperUsecase
	reporting *biz.ReportingUsecase
}

// NewPlanService creates the plan service.
func NewPlanService(
	quota *biz.QuotaUsecase,
	admin *biz.AdminUsecase,
	sweeper *biz.SweeperUsecase,
	reporting *biz.ReportingUsecase,
) *PlanService {
	return &PlanService{
		quota:     quota,
		admin:     admin,
		sweeper:   sweeper,
		reporting: reporting,
	}
}

// TierReply is the caller's effective tier.
type TierReply struct {
	Tier string `json:"tier"`
}

// SummaryReply is the caller's current-month usage per feature.
type SummaryReply struct {
	Tier  string              `json:"tier"`
	Items []*biz.FeatureUsage `json:"items"`
}

// ConsumeReply acknowledges a usage record.
type ConsumeReply struct {
	Recorded bool `json:"recorded"`
}

// SetPlanRequest assigns a tier to a user.
type SetPlanRequest struct {
	Tier string `json:"tier"`
}

// RenameRequest updates a user's display name.
type RenameRequest struct {
	Name string `json:"name"`
}

// PlanReply is a plan assignment shaped for transport.
type PlanReply struct {
	UID          string     `json:"uid"`
	Tier         string     `json:"tier"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	PreviousTier string     `json:"previous_tier,omitempty"`
}

// ListUsersReply is one admin page of users.
type ListUsersReply struct {
	Users    []*biz.UserOverview `json:"users"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
}

// OkReply is a bare acknowledgement.
type OkReply struct {
	Ok bool `json:"ok"`
}

// ActiveUsersReply counts recently active users.
type ActiveUsersReply struct {
	Count int64 `json:"count"`
	Days  int   `json:"days"`
}

func toPlanReply(a *biz.PlanAssignment) *PlanReply {
	return &PlanReply{
		UID:          a.UID,
		Tier:         a.Tier,
		ExpiresAt:    a.ExpiresAt,
		PreviousTier: a.PreviousTier,
	}
}

func callerUID(ctx context.Context) (string, error) {
	uid, ok := auth.UIDFromContext(ctx)
	if !ok {
		return "", errors.NotAuthenticated()
	}
	return uid, nil
}

func validFeature(feature string) error {
	if !constants.IsValidFeature(feature) {
		return kerrors.BadRequest("INVALID_FEATURE", "unknown feature: "+feature)
	}
	return nil
}

// GetEffectiveTier returns the caller's effective tier.
func (s *PlanService) GetEffectiveTier(ctx context.Context) (*TierReply, error) {
	uid, err := callerUID(ctx)
	if err != nil {
		return nil, err
	}
	tier, err := s.quota.GetEffectiveTier(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &TierReply{Tier: tier}, nil
}

// GetSummary returns the caller's usage summary.
func (s *PlanService) GetSummary(ctx context.Context) (*SummaryReply, error) {
	uid, err := callerUID(ctx)
	if err != nil {
		return nil, err
	}
	tier, err := s.quota.GetEffectiveTier(ctx, uid)
	if err != nil {
		return nil, err
	}
	items, err := s.quota.Summary(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &SummaryReply{Tier: tier, Items: items}, nil
}

// CheckAllowed decides whether the caller may invoke a feature once more.
func (s *PlanService) CheckAllowed(ctx context.Context, feature string) (*biz.QuotaDecision, error) {
	uid, err := callerUID(ctx)
	if err != nil {
		return nil, err
	}
	if err := validFeature(feature); err != nil {
		return nil, err
	}
	return s.quota.CheckAllowed(ctx, uid, feature)
}

// Consume records one delivered feature invocation for the caller. It never
// fails once the identity and feature are valid: the metered action already
// succeeded upstream.
func (s *PlanService) Consume(ctx context.Context, feature string) (*ConsumeReply, error) {
	uid, err := callerUID(ctx)
	if err != nil {
		return nil, err
	}
	if err := validFeature(feature); err != nil {
		return nil, err
	}
	s.quota.Increment(ctx, uid, feature)
	return &ConsumeReply{Recorded: true}, nil
}

// SetPlan assigns a tier to a user (admin only).
func (s *PlanService) SetPlan(ctx context.Context, uid string, req *SetPlanRequest) (*PlanReply, error) {
	a, err := s.admin.SetPlan(ctx, uid, req.Tier)
	if err != nil {
		return nil, err
	}
	return toPlanReply(a), nil
}

// Renew extends a user's paid subscription by 30 days (admin only).
func (s *PlanService) Renew(ctx context.Context, uid string) (*PlanReply, error) {
	a, err := s.admin.Renew(ctx, uid)
	if err != nil {
		return nil, err
	}
	return toPlanReply(a), nil
}

// Rename updates a user's display name (admin only).
func (s *PlanService) Rename(ctx context.Context, uid string, req *RenameRequest) (*OkReply, error) {
	if req.Name == "" {
		return nil, kerrors.BadRequest("INVALID_NAME", "name must not be empty")
	}
	if err := s.admin.Rename(ctx, uid, req.Name); err != nil {
		return nil, err
	}
	return &OkReply{Ok: true}, nil
}

// ListUsers returns a page of users with tier and usage (admin only).
func (s *PlanService) ListUsers(ctx context.Context, page, pageSize int) (*ListUsersReply, error) {
	users, total, err := s.admin.ListUsers(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > constants.MaxPageSize {
		pageSize = constants.DefaultPageSize
	}
	return &ListUsersReply{Users: users, Total: total, Page: page, PageSize: pageSize}, nil
}

// Sweep runs one expiry sweep pass. The recurring trigger and its
// authentication live outside this service.
func (s *PlanService) Sweep(ctx context.Context) (*biz.SweepResult, error) {
	return s.sweeper.Sweep(ctx)
}

// ExpiringWithin returns paid users inside an expiry warning window.
func (s *PlanService) ExpiringWithin(ctx context.Context, days int) ([]*biz.ExpiryNotice, error) {
	return s.sweeper.ExpiringWithin(ctx, days)
}

// TierCounts reports users per tier (admin only).
func (s *PlanService) TierCounts(ctx context.Context) (map[string]int64, error) {
	return s.reporting.TierCounts(ctx)
}

// UsageTotals reports cumulative and current-month totals (admin only).
func (s *PlanService) UsageTotals(ctx context.Context) (*biz.UsageTotals, error) {
	return s.reporting.UsageTotals(ctx)
}

// MonthlyTrend reports a trailing usage trend (admin only).
func (s *PlanService) MonthlyTrend(ctx context.Context, months int) ([]*biz.MonthBucket, error) {
	return s.reporting.MonthlyTrend(ctx, months)
}

// TransitionTrend reports monthly upgrade/downgrade counts (admin only).
func (s *PlanService) TransitionTrend(ctx context.Context, months int) ([]*biz.TransitionTrend, error) {
	return s.reporting.TransitionTrend(ctx, months)
}

// TransitionMatrix reports from->to transition counts (admin only).
func (s *PlanService) TransitionMatrix(ctx context.Context) ([]*biz.TransitionCount, error) {
	return s.reporting.TransitionMatrix(ctx)
}

// RecentHistory reports the newest plan transitions (admin only).
func (s *PlanService) RecentHistory(ctx context.Context, limit int) ([]*biz.PlanHistoryEntry, error) {
	return s.reporting.RecentHistory(ctx, limit)
}

// TopUsers reports the heaviest users by cumulative usage (admin only).
func (s *PlanService) TopUsers(ctx context.Context, limit int) ([]*biz.UserUsageTotal, error) {
	return s.reporting.TopUsers(ctx, limit)
}

// ActiveUsers reports users active within the trailing number of days
// (admin only).
func (s *PlanService) ActiveUsers(ctx context.Context, days int) (*ActiveUsersReply, error) {
	if days < 1 || days > 90 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	count, err := s.reporting.ActiveUsers(ctx, since)
	if err != nil {
		return nil, err
	}
	return &ActiveUsersReply{Count: count, Days: days}, nil
}
