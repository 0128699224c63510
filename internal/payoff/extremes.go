package payoff

import (
	"math"

	"options-lab/internal/models"
)

// nearZeroPrice stands in for the p -> 0 boundary of the payoff domain. The
// underlying cannot trade below zero, so the downside extremum is always
// attained at (or before) this boundary.
const nearZeroPrice = 1e-8

// findExtremes computes max profit and max loss from the expiry payoff.
//
// Beyond the outermost strikes the expiry payoff is asymptotically linear:
// above the highest strike every call converges to slope one per share and
// puts to zero, so the net call quantity decides whether the upside is
// uncapped (+Inf max profit for net long calls, -Inf max loss for net short
// calls). The downside is bounded by the zero-price floor and is evaluated
// there exactly. Finite extremes are the extremum over grid points, strike
// plateaus and the two boundaries.
func (e *Evaluator) findExtremes(legs []resolvedLeg, curve []models.CurvePoint, pnlAt func(float64) (float64, error)) (maxProfit, maxLoss float64, err error) {
	if len(legs) == 0 {
		return 0, 0, nil
	}

	netCalls := 0.0
	for _, leg := range legs {
		if leg.Type == models.OptionCall {
			netCalls += leg.Side.Sign() * float64(leg.Quantity)
		}
	}

	candidates := make([]float64, 0, len(curve)+len(legs)+2)
	for _, pt := range curve {
		candidates = append(candidates, pt.PnL)
	}
	// Strikes can sit outside the supplied grid; the kinks there are the
	// interior extremum candidates of the piecewise-linear payoff.
	for _, leg := range legs {
		v, perr := pnlAt(leg.Strike)
		if perr != nil {
			return 0, 0, perr
		}
		candidates = append(candidates, v)
	}
	floor, perr := pnlAt(nearZeroPrice)
	if perr != nil {
		return 0, 0, perr
	}
	candidates = append(candidates, floor)

	maxProfit = math.Inf(-1)
	maxLoss = math.Inf(1)
	for _, c := range candidates {
		maxProfit = math.Max(maxProfit, c)
		maxLoss = math.Min(maxLoss, c)
	}

	if netCalls > 0 {
		maxProfit = math.Inf(1)
	} else if netCalls < 0 {
		maxLoss = math.Inf(-1)
	}
	return maxProfit, maxLoss, nil
}
