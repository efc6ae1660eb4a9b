package engine

import (
	dErrors "staywatch/pkg/domain-errors"
)

// RiskTier classifies how close a subject is to breaching the limit.
type RiskTier string

const (
	TierSafe     RiskTier = "safe"
	TierCaution  RiskTier = "caution"
	TierCritical RiskTier = "critical"
)

// IsValid checks if the risk tier is one of the supported enum values.
func (t RiskTier) IsValid() bool {
	switch t {
	case TierSafe, TierCaution, TierCritical:
		return true
	}
	return false
}

// Severity orders tiers: safe < caution < critical.
func (t RiskTier) Severity() int {
	switch t {
	case TierSafe:
		return 0
	case TierCaution:
		return 1
	default:
		return 2
	}
}

func (t RiskTier) String() string {
	return string(t)
}

// Policy holds the compliance rule constants. The 90-in-180 shape is
// fixed; the numbers are configuration so tests and deployments can vary
// them without mutable globals.
type Policy struct {
	// LimitDays is the maximum presence days allowed inside one window.
	LimitDays int `json:"limit_days"`
	// WindowDays is the trailing window length in calendar days.
	WindowDays int `json:"window_days"`
	// SafeThresholdDaysRemaining: at or above this remaining count the
	// subject is safe.
	SafeThresholdDaysRemaining int `json:"safe_threshold_days_remaining"`
	// CautionThresholdDaysRemaining: at or above this (but below safe)
	// the subject is in caution; below it, critical.
	CautionThresholdDaysRemaining int `json:"caution_threshold_days_remaining"`
}

// DefaultPolicy returns the standard 90-in-180 rule with 30/10 risk
// thresholds.
func DefaultPolicy() Policy {
	return Policy{
		LimitDays:                     90,
		WindowDays:                    180,
		SafeThresholdDaysRemaining:    30,
		CautionThresholdDaysRemaining: 10,
	}
}

// Validate fails fast on policies no evaluation can honor.
func (p Policy) Validate() error {
	if p.LimitDays <= 0 {
		return dErrors.Newf(dErrors.CodePrecondition, "limit days must be positive, got %d", p.LimitDays)
	}
	if p.WindowDays <= 0 {
		return dErrors.Newf(dErrors.CodePrecondition, "window days must be positive, got %d", p.WindowDays)
	}
	if p.CautionThresholdDaysRemaining < 0 {
		return dErrors.Newf(dErrors.CodePrecondition, "caution threshold must be non-negative, got %d", p.CautionThresholdDaysRemaining)
	}
	if p.SafeThresholdDaysRemaining < p.CautionThresholdDaysRemaining {
		return dErrors.Newf(dErrors.CodePrecondition, "safe threshold %d is below caution threshold %d",
			p.SafeThresholdDaysRemaining, p.CautionThresholdDaysRemaining)
	}
	return nil
}

// riskFor applies the ordered threshold table to a remaining-day count.
func (p Policy) riskFor(daysRemaining int) RiskTier {
	switch {
	case daysRemaining >= p.SafeThresholdDaysRemaining:
		return TierSafe
	case daysRemaining >= p.CautionThresholdDaysRemaining:
		return TierCaution
	default:
		return TierCritical
	}
}

// WindowResult is the compliance snapshot for one reference date.
// DaysRemaining goes negative on an active violation; callers need the
// overage magnitude, so it is never clamped.
type WindowResult struct {
	ReferenceDate Date     `json:"reference_date"`
	DaysUsed      int      `json:"days_used"`
	DaysRemaining int      `json:"days_remaining"`
	Risk          RiskTier `json:"risk_tier"`
}

// Evaluate computes days used, days remaining, and the risk tier for the
// trailing window ending at ref. Pure function; identical inputs always
// produce identical results.
func Evaluate(set DaySet, ref Date, p Policy) (WindowResult, error) {
	if err := p.Validate(); err != nil {
		return WindowResult{}, err
	}
	used, err := CountWindowDays(set, ref, p.WindowDays)
	if err != nil {
		return WindowResult{}, err
	}
	remaining := p.LimitDays - used
	return WindowResult{
		ReferenceDate: ref,
		DaysUsed:      used,
		DaysRemaining: remaining,
		Risk:          p.riskFor(remaining),
	}, nil
}
