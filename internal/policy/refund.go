// Package policy computes cancellation refunds. It is pure: no I/O, no
// clock access, everything derived from the arguments, so the booking state
// machine can consult it and tests can cover every boundary directly.
package policy

import "time"

type Policy string

const (
	PolicyFlexible Policy = "flexible"
	PolicyModerate Policy = "moderate"
	PolicyStrict   Policy = "strict"
)

// Valid reports whether p is one of the known policies.
func (p Policy) Valid() bool {
	switch p {
	case PolicyFlexible, PolicyModerate, PolicyStrict:
		return true
	}
	return false
}

// RefundQuote is the outcome of a refund calculation.
type RefundQuote struct {
	Percent     int
	AmountCents int64
	Eligible    bool
	Reason      string
}

const (
	flexibleCutoff = 24 * time.Hour
	moderateCutoff = 48 * time.Hour
)

// CalculateRefund applies the cancellation rules in order: a booking that has
// already started refunds nothing, strict refunds nothing, flexible refunds
// 100% at 24h or more before start, moderate refunds 50% at 48h or more.
// Cutoffs are inclusive. The amount is truncated, never rounded up, so the
// platform cannot refund more than the policy allows.
func CalculateRefund(p Policy, totalCents int64, start, cancelAt time.Time) RefundQuote {
	if !cancelAt.Before(start) {
		return RefundQuote{Reason: "booking_already_started"}
	}
	if p == PolicyStrict {
		return RefundQuote{Reason: "strict_policy"}
	}

	until := start.Sub(cancelAt)
	var percent int
	switch p {
	case PolicyFlexible:
		if until >= flexibleCutoff {
			percent = 100
		}
	case PolicyModerate:
		if until >= moderateCutoff {
			percent = 50
		}
	}
	if percent == 0 {
		return RefundQuote{Reason: "cutoff_passed"}
	}

	return RefundQuote{
		Percent:     percent,
		AmountCents: totalCents * int64(percent) / 100,
		Eligible:    true,
		Reason:      "within_" + string(p) + "_cutoff",
	}
}
