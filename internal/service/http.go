package service

import (
	"context"
	"strconv"

	"github.com/go-kratos/kratos/v2/transport/http"
)

// Operation names used by middleware matching and tracing.
const (
	OperationGetTier          = "/plan.v1.Plan/GetEffectiveTier"
	OperationGetSummary       = "/plan.v1.Plan/GetSummary"
	OperationCheckAllowed     = "/plan.v1.Plan/CheckAllowed"
	OperationConsume          = "/plan.v1.Plan/Consume"
	OperationSetPlan          = "/plan.v1.Plan/SetPlan"
	OperationRenew            = "/plan.v1.Plan/Renew"
	OperationRename           = "/plan.v1.Plan/Rename"
	OperationListUsers        = "/plan.v1.Plan/ListUsers"
	OperationSweep            = "/plan.v1.Plan/Sweep"
	OperationExpiring         = "/plan.v1.Plan/ExpiringWithin"
	OperationTierCounts       = "/plan.v1.Plan/TierCounts"
	OperationUsageTotals      = "/plan.v1.Plan/UsageTotals"
	OperationMonthlyTrend     = "/plan.v1.Plan/MonthlyTrend"
	OperationTransitionTrend  = "/plan.v1.Plan/TransitionTrend"
	OperationTransitionMatrix = "/plan.v1.Plan/TransitionMatrix"
	OperationRecentHistory    = "/plan.v1.Plan/RecentHistory"
	OperationTopUsers         = "/plan.v1.Plan/TopUsers"
	OperationActiveUsers      = "/plan.v1.Plan/ActiveUsers"
)

// RegisterPlanHTTPServer mounts the plan service routes.
func RegisterPlanHTTPServer(srv *http.Server, svc *PlanService) {
	r := srv.Route("/")

	// user surface
	r.GET("/v1/tier", svc.handleGetTier)
	r.GET("/v1/quota", svc.handleGetSummary)
	r.GET("/v1/quota/{feature}/check", svc.handleCheckAllowed)
	r.POST("/v1/quota/{feature}/consume", svc.handleConsume)

	// admin surface
	r.PUT("/v1/admin/users/{uid}/plan", svc.handleSetPlan)
	r.POST("/v1/admin/users/{uid}/renew", svc.handleRenew)
	r.PUT("/v1/admin/users/{uid}/name", svc.handleRename)
	r.GET("/v1/admin/users", svc.handleListUsers)

	// reporting surface
	r.GET("/v1/admin/reports/tiers", svc.handleTierCounts)
	r.GET("/v1/admin/reports/usage", svc.handleUsageTotals)
	r.GET("/v1/admin/reports/trend", svc.handleMonthlyTrend)
	r.GET("/v1/admin/reports/transitions", svc.handleTransitionTrend)
	r.GET("/v1/admin/reports/matrix", svc.handleTransitionMatrix)
	r.GET("/v1/admin/reports/history", svc.handleRecentHistory)
	r.GET("/v1/admin/reports/top_users", svc.handleTopUsers)
	r.GET("/v1/admin/reports/active_users", svc.handleActiveUsers)

	// scheduler surface; trigger authentication happens at the gateway
	r.POST("/v1/internal/sweep", svc.handleSweep)
	r.GET("/v1/internal/expiring", svc.handleExpiring)
}

func queryInt(ctx http.Context, key string, def int) int {
	raw := ctx.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func (s *PlanService) handleGetTier(ctx http.Context) error {
	http.SetOperation(ctx, OperationGetTier)
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		return s.GetEffectiveTier(c)
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func (s *PlanService) handleGetSummary(ctx http.Context) error {
	http.SetOperation(ctx, OperationGetSummary)
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		return s.GetSummary(c)
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func (s *PlanService) handleCheckAllowed(ctx http.Context) error {
	feature := ctx.Vars().Get("feature")
	http.SetOperation(ctx, OperationCheckAllowed)
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		return s.CheckAllowed(c, feature)
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func (s *PlanService) handleConsume(ctx http.Context) error {
	feature := ctx.Vars().Get("feature")
	http.SetOperation(ctx, OperationConsume)
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		return s.Consume(c, feature)
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func (s *PlanService) handleSetPlan(ctx http.Context) error {
	uid := ctx.Vars().Get("uid")
	var req SetPlanRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	http.SetOperation(ctx, OperationSetPlan)
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		return s.SetPlan(c, uid, &req)
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func (s *PlanService) handleRenew(ctx http.Context) error {
	uid := ctx.Vars().Get("uid")
	http.SetOperation(ctx, OperationRenew)
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		return s.Renew(c, uid)
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func (s *PlanService) handleRename(ctx http.Context) error {
	uid := ctx.Vars().Get("uid")
	var req RenameRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	http.SetOperation(ctx, OperationRename)
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		return s.Rename(c, uid, &req)
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func (s *PlanService) handleListUsers(ctx http.Context) error {
	page := queryInt(ctx, "page", 1)
	pageSize := queryInt(ctx, "page_size", 0)
	http.SetOperation(ctx, OperationListUsers)
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		return s.ListUsers(c, page, pageSize)
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func (s *PlanService) handleTierCounts(ctx http.Context) error {
	http.SetOperation(ctx, OperationTierCounts)
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		return s.TierCounts(c)
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func (s *PlanService) handleUsageTotals(ctx http.Context) error {
	http.SetOperation(ctx, OperationUsageTotals)
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		return s.UsageTotals(c)
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func (s *PlanService) handleMonthlyTrend(ctx http.Context) error {
	months := queryInt(ctx, "months", 0)
	http.SetOperation(ctx, OperationMonthlyTrend)
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		return s.MonthlyTrend(c, months)
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func (s *PlanService) handleTransitionTrend(ctx http.Context) error {
	months := queryInt(ctx, "months", 0)
	http.SetOperation(ctx, OperationTransitionTrend)
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		return s.TransitionTrend(c, months)
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func (s *PlanService) handleTransitionMatrix(ctx http.Context) error {
	http.SetOperation(ctx, OperationTransitionMatrix)
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		return s.TransitionMatrix(c)
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func (s *PlanService) handleRecentHistory(ctx http.Context) error {
	limit := queryInt(ctx, "limit", 0)
	http.SetOperation(ctx, OperationRecentHistory)
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		return s.RecentHistory(c, limit)
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func (s *PlanService) handleTopUsers(ctx http.Context) error {
	limit := queryInt(ctx, "limit", 0)
	http.SetOperation(ctx, OperationTopUsers)
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		return s.TopUsers(c, limit)
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func (s *PlanService) handleActiveUsers(ctx http.Context) error {
	days := queryInt(ctx, "days", 0)
	http.SetOperation(ctx, OperationActiveUsers)
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		return s.ActiveUsers(c, days)
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func (s *PlanService) handleSweep(ctx http.Context) error {
	http.SetOperation(ctx, OperationSweep)
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		return s.Sweep(c)
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func (s *PlanService) handleExpiring(ctx http.Context) error {
	days := queryInt(ctx, "days", 7)
	http.SetOperation(ctx, OperationExpiring)
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		return s.ExpiringWithin(c, days)
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}
