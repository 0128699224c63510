// Package payoff implements the multi-leg strategy evaluation engine:
// per-scenario profit/loss curves, aggregate Greeks, break-evens and
// max-profit/max-loss figures.
package payoff

import (
	"math"
	"sort"
	"time"

	"options-lab/internal/errors"
	"options-lab/internal/models"
	"options-lab/internal/pricing"
)

// Config holds the evaluator's knobs. They are passed in explicitly so the
// engine stays side-effect-free and testable.
type Config struct {
	ContractMultiplier float64 // shares per contract
	RiskFreeRate       float64 // annualized
	GridSteps          int     // points in an auto-generated grid
	GridWidth          float64 // auto-grid half-width as a fraction of spot
	PriceEpsilon       float64 // break-even dedupe tolerance
}

// DefaultConfig returns the default evaluator configuration.
func DefaultConfig() Config {
	return Config{
		ContractMultiplier: 100,
		RiskFreeRate:       0.05,
		GridSteps:          121,
		GridWidth:          0.30,
		PriceEpsilon:       0.01,
	}
}

// Evaluator computes payoff models for option strategies. It is pure and
// safe for concurrent use: every call works on its own inputs and returns a
// fresh result.
type Evaluator struct {
	cfg Config
}

// New creates an Evaluator with the given configuration.
func New(cfg Config) *Evaluator {
	if cfg.ContractMultiplier <= 0 {
		cfg.ContractMultiplier = 1
	}
	if cfg.GridSteps < 2 {
		cfg.GridSteps = DefaultConfig().GridSteps
	}
	if cfg.GridWidth <= 0 {
		cfg.GridWidth = DefaultConfig().GridWidth
	}
	if cfg.PriceEpsilon <= 0 {
		cfg.PriceEpsilon = DefaultConfig().PriceEpsilon
	}
	return &Evaluator{cfg: cfg}
}

// AutoGrid generates a strictly increasing price grid centered on spot,
// spanning spot*(1 +- GridWidth).
func (e *Evaluator) AutoGrid(spot float64) []float64 {
	lo := spot * (1 - e.cfg.GridWidth)
	hi := spot * (1 + e.cfg.GridWidth)
	if lo < 0 {
		lo = 0
	}
	step := (hi - lo) / float64(e.cfg.GridSteps-1)
	grid := make([]float64, e.cfg.GridSteps)
	for i := range grid {
		grid[i] = lo + float64(i)*step
	}
	return grid
}

// yearsBetween converts a date interval to year fractions, clamped at zero.
func yearsBetween(from, to time.Time) float64 {
	if !to.After(from) {
		return 0
	}
	return to.Sub(from).Hours() / 24 / 365.25
}

// Evaluate computes the full payoff model for a strategy under a scenario.
//
// The "at expiry" curve is valued at the earliest leg expiry: legs expiring
// then settle to intrinsic value while later-dated legs keep their remaining
// time value. This is the desk convention for the near-term risk of calendar
// and diagonal spreads.
func (e *Evaluator) Evaluate(s models.Strategy, sc models.Scenario) (*models.PayoffResult, error) {
	if err := e.validate(s, sc); err != nil {
		return nil, err
	}

	mode := sc.Mode
	if mode == "" {
		mode = models.ModePnL
	}

	legs, netPremium, err := e.resolvePremiums(s, sc)
	if err != nil {
		return nil, err
	}

	// Expiry-curve valuation date: the earliest leg expiry, or the as-of
	// date itself when it is already past that expiry.
	expiryDate := s.EarliestExpiry()
	if expiryDate.IsZero() || sc.AsOfDate.After(expiryDate) {
		expiryDate = sc.AsOfDate
	}

	atExpiry := make([]models.CurvePoint, len(sc.PriceGrid))
	atAsOf := make([]models.CurvePoint, len(sc.PriceGrid))
	for i, p := range sc.PriceGrid {
		expPnL, err := e.portfolioValue(legs, p, expiryDate, sc.IVOverride, mode)
		if err != nil {
			return nil, err
		}
		curPnL, err := e.portfolioValue(legs, p, sc.AsOfDate, sc.IVOverride, mode)
		if err != nil {
			return nil, err
		}
		atExpiry[i] = models.CurvePoint{Price: p, PnL: expPnL}
		atAsOf[i] = models.CurvePoint{Price: p, PnL: curPnL}
	}

	greeks, err := e.portfolioGreeks(legs, s.SpotPrice, sc.AsOfDate, sc.IVOverride)
	if err != nil {
		return nil, err
	}

	breakevens := e.findBreakevens(atExpiry)

	expiryPnL := func(p float64) (float64, error) {
		return e.portfolioValue(legs, p, expiryDate, sc.IVOverride, mode)
	}
	maxProfit, maxLoss, err := e.findExtremes(legs, atExpiry, expiryPnL)
	if err != nil {
		return nil, err
	}

	winProb := math.NaN()
	if sc.Distribution != nil {
		winProb, err = e.winProbability(s, sc, expiryDate, breakevens, expiryPnL)
		if err != nil {
			return nil, err
		}
	}

	return &models.PayoffResult{
		PnLAtExpiry:     atExpiry,
		PnLAtAsOfDate:   atAsOf,
		Breakevens:      breakevens,
		MaxProfit:       maxProfit,
		MaxLoss:         maxLoss,
		NetPremium:      netPremium,
		PortfolioGreeks: greeks,
		WinProbability:  winProb,
	}, nil
}

func (e *Evaluator) validate(s models.Strategy, sc models.Scenario) error {
	if s.SpotPrice <= 0 {
		return errors.NewValidationError("spotPrice", s.SpotPrice, "must be positive")
	}
	if len(sc.PriceGrid) < 2 {
		return errors.NewValidationError("priceGrid", len(sc.PriceGrid), "needs at least two points")
	}
	for i := 1; i < len(sc.PriceGrid); i++ {
		if sc.PriceGrid[i] <= sc.PriceGrid[i-1] {
			return errors.NewValidationError("priceGrid", sc.PriceGrid[i], "must be strictly increasing")
		}
	}
	for i, leg := range s.Legs {
		if leg.Strike <= 0 {
			return errors.NewValidationError("legs.strike", leg.Strike, "must be positive")
		}
		if leg.Quantity <= 0 {
			return errors.NewValidationError("legs.quantity", leg.Quantity, "must be positive")
		}
		if leg.Type != models.OptionCall && leg.Type != models.OptionPut {
			return errors.NewValidationError("legs.type", leg.Type, "must be CALL or PUT")
		}
		if leg.Side != models.OrderSideBuy && leg.Side != models.OrderSideSell {
			return errors.NewValidationError("legs.side", leg.Side, "must be BUY or SELL")
		}
		if leg.Expiry.IsZero() {
			return errors.NewValidationError("legs.expiry", i, "must be set")
		}
	}
	return nil
}

// resolvedLeg is an OptionLeg with its entry premium pinned down.
type resolvedLeg struct {
	models.OptionLeg
	entryPremium float64
}

// resolvePremiums fills in entry premiums for legs that did not supply one,
// pricing them at spot on the as-of date. It also returns the net premium in
// cash terms (positive = credit received).
func (e *Evaluator) resolvePremiums(s models.Strategy, sc models.Scenario) ([]resolvedLeg, float64, error) {
	legs := make([]resolvedLeg, len(s.Legs))
	netPremium := 0.0
	for i, leg := range s.Legs {
		premium := leg.Premium
		if !leg.HasPremium() {
			tte := yearsBetween(sc.AsOfDate, leg.Expiry)
			if tte <= 0 {
				premium = pricing.Intrinsic(s.SpotPrice, leg.Strike, leg.Type)
			} else {
				iv := legVol(leg, sc.IVOverride)
				if iv <= 0 {
					return nil, 0, errors.Wrapf(errors.ErrInsufficientPricingData,
						"leg %d (%s %s %.2f) has neither premium nor implied volatility", i+1, leg.Side, leg.Type, leg.Strike)
				}
				q, err := pricing.Price(pricing.Input{
					Spot:         s.SpotPrice,
					Strike:       leg.Strike,
					TimeToExpiry: tte,
					Volatility:   iv,
					RiskFreeRate: e.cfg.RiskFreeRate,
					Type:         leg.Type,
				})
				if err != nil {
					return nil, 0, err
				}
				premium = q.Price
			}
		}
		legs[i] = resolvedLeg{OptionLeg: leg, entryPremium: premium}
		// Selling collects premium, buying pays it.
		netPremium += -leg.Side.Sign() * float64(leg.Quantity) * e.cfg.ContractMultiplier * premium
	}
	return legs, netPremium, nil
}

// legVol picks the volatility for a leg, with the scenario override taking
// precedence.
func legVol(leg models.OptionLeg, ivOverride float64) float64 {
	if ivOverride > 0 {
		return ivOverride
	}
	return leg.IV
}

// legValue values a single leg at (price, asOf): model value while unexpired,
// intrinsic at or after expiry.
func (e *Evaluator) legValue(leg resolvedLeg, price float64, asOf time.Time, ivOverride float64) (float64, models.Greeks, error) {
	tte := yearsBetween(asOf, leg.Expiry)
	if tte <= 0 {
		q, err := pricing.Price(pricing.Input{
			Spot:   price,
			Strike: leg.Strike,
			Type:   leg.Type,
		})
		if err != nil {
			return 0, models.Greeks{}, err
		}
		return q.Price, q.Greeks, nil
	}

	iv := legVol(leg.OptionLeg, ivOverride)
	if iv <= 0 {
		return 0, models.Greeks{}, errors.Wrapf(errors.ErrInsufficientPricingData,
			"unexpired leg (%s %s %.2f) has no implied volatility", leg.Side, leg.Type, leg.Strike)
	}
	q, err := pricing.Price(pricing.Input{
		Spot:         price,
		Strike:       leg.Strike,
		TimeToExpiry: tte,
		Volatility:   iv,
		RiskFreeRate: e.cfg.RiskFreeRate,
		Type:         leg.Type,
	})
	if err != nil {
		return 0, models.Greeks{}, err
	}
	return q.Price, q.Greeks, nil
}

// portfolioValue sums the signed per-leg P&L contributions at (price, asOf).
// The fold is associative and order-independent.
func (e *Evaluator) portfolioValue(legs []resolvedLeg, price float64, asOf time.Time, ivOverride float64, mode models.EvalMode) (float64, error) {
	total := 0.0
	for _, leg := range legs {
		value, _, err := e.legValue(leg, price, asOf, ivOverride)
		if err != nil {
			return 0, err
		}
		if mode == models.ModePnL {
			value -= leg.entryPremium
		}
		total += leg.Side.Sign() * float64(leg.Quantity) * e.cfg.ContractMultiplier * value
	}
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return 0, errors.Wrap(errors.ErrNumericalInstability, "portfolio value is not finite")
	}
	return total, nil
}

// portfolioGreeks sums the signed per-leg Greeks at (spot, asOf).
func (e *Evaluator) portfolioGreeks(legs []resolvedLeg, spot float64, asOf time.Time, ivOverride float64) (models.Greeks, error) {
	var total models.Greeks
	for _, leg := range legs {
		_, greeks, err := e.legValue(leg, spot, asOf, ivOverride)
		if err != nil {
			return models.Greeks{}, err
		}
		weight := leg.Side.Sign() * float64(leg.Quantity) * e.cfg.ContractMultiplier
		total = total.Add(greeks.Scale(weight))
	}
	return total, nil
}

// findBreakevens scans adjacent grid points of the expiry curve for zero
// crossings and interpolates the crossing prices. All crossings are
// reported, ascending, deduplicated within PriceEpsilon.
func (e *Evaluator) findBreakevens(curve []models.CurvePoint) []float64 {
	var crossings []float64
	for i := 1; i < len(curve); i++ {
		prev, cur := curve[i-1], curve[i]
		switch {
		case prev.PnL == 0 && cur.PnL == 0:
			// Flat zero segment (degenerate strategy), not a crossing.
		case prev.PnL == 0:
			crossings = append(crossings, prev.Price)
		case cur.PnL == 0 && i == len(curve)-1:
			crossings = append(crossings, cur.Price)
		case prev.PnL*cur.PnL < 0:
			// Linear interpolation between the bracketing grid points.
			t := prev.PnL / (prev.PnL - cur.PnL)
			crossings = append(crossings, prev.Price+t*(cur.Price-prev.Price))
		}
	}

	sort.Float64s(crossings)
	deduped := crossings[:0]
	for _, c := range crossings {
		if len(deduped) == 0 || c-deduped[len(deduped)-1] > e.cfg.PriceEpsilon {
			deduped = append(deduped, c)
		}
	}
	return deduped
}
