// Package models provides domain models for strategy evaluation.
package models

import (
	"math"
	"time"
)

// OptionType represents the kind of option contract.
type OptionType string

const (
	OptionCall OptionType = "CALL"
	OptionPut  OptionType = "PUT"
)

// OrderSide represents the side of a position.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// Sign returns +1 for long positions and -1 for short positions.
func (s OrderSide) Sign() float64 {
	if s == OrderSideSell {
		return -1
	}
	return 1
}

// OptionLeg represents one constituent of a multi-leg strategy.
// Premium and IV are per share; Premium < 0 means "not supplied" and the
// entry premium is derived from the pricing model (which requires IV > 0).
type OptionLeg struct {
	Type     OptionType `json:"type"`
	Side     OrderSide  `json:"side"`
	Strike   float64    `json:"strike"`
	Quantity int        `json:"quantity"`
	Expiry   time.Time  `json:"expiry"`
	Premium  float64    `json:"premium"` // entry price per share, < 0 if unknown
	IV       float64    `json:"iv"`      // annualized implied volatility, 0 if unknown
}

// NoPremium is the sentinel for a leg whose entry premium was not supplied.
const NoPremium = -1.0

// HasPremium reports whether the leg carries a supplied entry premium.
func (l OptionLeg) HasPremium() bool {
	return l.Premium >= 0
}

// Strategy is an ordered collection of option legs plus market context.
// Leg order matters only for display, never for computation.
type Strategy struct {
	Name      string      `json:"name,omitempty"`
	Symbol    string      `json:"symbol"`
	SpotPrice float64     `json:"spot_price"`
	Legs      []OptionLeg `json:"legs"`
}

// EarliestExpiry returns the earliest leg expiry, or the zero time for an
// empty strategy.
func (s Strategy) EarliestExpiry() time.Time {
	var earliest time.Time
	for _, leg := range s.Legs {
		if earliest.IsZero() || leg.Expiry.Before(earliest) {
			earliest = leg.Expiry
		}
	}
	return earliest
}

// EvalMode selects how per-leg contributions are accounted.
type EvalMode string

const (
	// ModePnL includes the entry cost basis: contribution is value - premium.
	ModePnL EvalMode = "PNL"
	// ModePayoffOnly ignores cost basis: contribution is the raw leg value.
	ModePayoffOnly EvalMode = "PAYOFF"
)

// Distribution is an optional lognormal assumption on the underlying at the
// expiry horizon, enabling win-probability estimation.
type Distribution struct {
	Volatility float64 `json:"volatility"` // annualized
	Drift      float64 `json:"drift"`      // annualized log drift, usually the carry
}

// Scenario holds the parameters of a what-if evaluation.
type Scenario struct {
	PriceGrid    []float64     `json:"price_grid"` // strictly increasing, >= 2 points
	AsOfDate     time.Time     `json:"as_of_date"`
	IVOverride   float64       `json:"iv_override,omitempty"` // uniform override, 0 = none
	Mode         EvalMode      `json:"mode,omitempty"`        // defaults to ModePnL
	Distribution *Distribution `json:"distribution,omitempty"`
}

// Greeks represents aggregate option sensitivities.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// Add returns the component-wise sum of two Greeks records.
func (g Greeks) Add(o Greeks) Greeks {
	return Greeks{
		Delta: g.Delta + o.Delta,
		Gamma: g.Gamma + o.Gamma,
		Theta: g.Theta + o.Theta,
		Vega:  g.Vega + o.Vega,
		Rho:   g.Rho + o.Rho,
	}
}

// Scale returns the Greeks record scaled by k.
func (g Greeks) Scale(k float64) Greeks {
	return Greeks{
		Delta: k * g.Delta,
		Gamma: k * g.Gamma,
		Theta: k * g.Theta,
		Vega:  k * g.Vega,
		Rho:   k * g.Rho,
	}
}

// CurvePoint is one point of a payoff curve.
type CurvePoint struct {
	Price float64 `json:"price"`
	PnL   float64 `json:"pnl"`
}

// PayoffResult is the output of a scenario evaluation. MaxProfit and MaxLoss
// use +Inf / -Inf sentinels for strategies with uncapped tails.
type PayoffResult struct {
	PnLAtExpiry     []CurvePoint `json:"pnl_at_expiry"`
	PnLAtAsOfDate   []CurvePoint `json:"pnl_at_as_of_date"`
	Breakevens      []float64    `json:"breakevens"`
	MaxProfit       float64      `json:"max_profit"`
	MaxLoss         float64      `json:"max_loss"`
	NetPremium      float64      `json:"net_premium"` // positive = credit received
	PortfolioGreeks Greeks       `json:"portfolio_greeks"`
	WinProbability  float64      `json:"win_probability,omitempty"` // NaN if no distribution supplied
}

// HasWinProbability reports whether a distributional assumption was supplied.
func (r *PayoffResult) HasWinProbability() bool {
	return !math.IsNaN(r.WinProbability)
}
