package payoff

import (
	"math"
	"time"

	"options-lab/internal/errors"
	"options-lab/internal/models"
)

// winProbability estimates the probability that the expiry P&L is positive
// under a lognormal terminal distribution: the price axis is cut at the
// break-evens and the lognormal mass of every profitable segment is summed.
func (e *Evaluator) winProbability(s models.Strategy, sc models.Scenario, expiryDate time.Time, breakevens []float64, pnlAt func(float64) (float64, error)) (float64, error) {
	dist := sc.Distribution
	if dist.Volatility <= 0 {
		return 0, errors.NewValidationError("distribution.volatility", dist.Volatility, "must be positive")
	}

	horizon := yearsBetween(sc.AsOfDate, expiryDate)
	if horizon <= 0 {
		// Degenerate horizon: the terminal price is the spot itself.
		pnl, err := pnlAt(s.SpotPrice)
		if err != nil {
			return 0, err
		}
		if pnl > 0 {
			return 1, nil
		}
		return 0, nil
	}

	sd := dist.Volatility * math.Sqrt(horizon)
	mean := math.Log(s.SpotPrice) + (dist.Drift-0.5*dist.Volatility*dist.Volatility)*horizon

	// CDF of the terminal price at p; 0 at the zero floor.
	cdf := func(p float64) float64 {
		if p <= 0 {
			return 0
		}
		return 0.5 * (1 + math.Erf((math.Log(p)-mean)/(sd*math.Sqrt2)))
	}

	// Segment boundaries: [0, b1], [b1, b2], ..., [bn, +inf).
	prob := 0.0
	lower := 0.0
	for i := 0; i <= len(breakevens); i++ {
		var upper, probe float64
		if i < len(breakevens) {
			upper = breakevens[i]
			if lower == 0 {
				probe = upper / 2
			} else {
				probe = (lower + upper) / 2
			}
		} else {
			upper = math.Inf(1)
			if lower == 0 {
				probe = s.SpotPrice // no break-evens at all
			} else {
				probe = lower*1.5 + 1
			}
		}
		if probe <= 0 {
			probe = nearZeroPrice
		}

		pnl, err := pnlAt(probe)
		if err != nil {
			return 0, err
		}
		if pnl > 0 {
			hi := 1.0
			if !math.IsInf(upper, 1) {
				hi = cdf(upper)
			}
			prob += hi - cdf(lower)
		}
		lower = upper
	}

	return prob, nil
}
