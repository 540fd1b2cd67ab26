// Package errors defines the error vocabulary of the plan service.
//
// Every error crossing a usecase boundary is a kratos *errors.Error with a
// stable reason string, so transports can map them uniformly and callers can
// match on reason instead of message text.
package errors

import (
	kerrors "github.com/go-kratos/kratos/v2/errors"
)

// Stable reason strings.
const (
	ReasonUnauthorized     = "UNAUTHORIZED"
	ReasonNotAuthenticated = "NOT_AUTHENTICATED"
	ReasonInvalidTier      = "INVALID_TIER"
	ReasonNotEligible      = "NOT_ELIGIBLE"
	ReasonNotFound         = "NOT_FOUND"
	ReasonStoreUnavailable = "STORE_UNAVAILABLE"
)

// Unauthorized is returned when the caller lacks the admin effective tier
// for an administrative operation.
func Unauthorized() *kerrors.Error {
	return kerrors.Forbidden(ReasonUnauthorized, "admin tier required")
}

// NotAuthenticated is returned when no user identity is resolvable for an
// operation that requires one.
func NotAuthenticated() *kerrors.Error {
	return kerrors.Unauthorized(ReasonNotAuthenticated, "authentication required")
}

// InvalidTier is returned when a requested tier is not one of the known
// tiers.
func InvalidTier(tier string) *kerrors.Error {
	return kerrors.BadRequest(ReasonInvalidTier, "unknown plan tier: "+tier)
}

// NotEligible is returned when a renewal is requested for a non-paid tier.
func NotEligible(tier string) *kerrors.Error {
	return kerrors.BadRequest(ReasonNotEligible, "tier is not renewable: "+tier)
}

// NotFound is returned when an operation addresses a user with no
// resolvable identity. A user with a default free plan is not "not found".
func NotFound(uid string) *kerrors.Error {
	return kerrors.NotFound(ReasonNotFound, "unknown user: "+uid)
}

// StoreUnavailable wraps a repository I/O failure. Safe to retry.
func StoreUnavailable(err error) *kerrors.Error {
	e := kerrors.ServiceUnavailable(ReasonStoreUnavailable, "plan store unavailable")
	if err != nil {
		e = e.WithCause(err)
	}
	return e
}

// IsUnauthorized reports whether err carries the UNAUTHORIZED reason.
func IsUnauthorized(err error) bool { return kerrors.Reason(err) == ReasonUnauthorized }

// IsNotAuthenticated reports whether err carries the NOT_AUTHENTICATED reason.
func IsNotAuthenticated(err error) bool { return kerrors.Reason(err) == ReasonNotAuthenticated }

// IsInvalidTier reports whether err carries the INVALID_TIER reason.
func IsInvalidTier(err error) bool { return kerrors.Reason(err) == ReasonInvalidTier }

// IsNotEligible reports whether err carries the NOT_ELIGIBLE reason.
func IsNotEligible(err error) bool { return kerrors.Reason(err) == ReasonNotEligible }

// IsNotFound reports whether err carries the NOT_FOUND reason.
func IsNotFound(err error) bool { return kerrors.Reason(err) == ReasonNotFound }

// IsStoreUnavailable reports whether err carries the STORE_UNAVAILABLE reason.
func IsStoreUnavailable(err error) bool { return kerrors.Reason(err) == ReasonStoreUnavailable }
