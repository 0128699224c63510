// Package pricing implements a closed-form Black-Scholes pricing model for
// European options, including the full set of Greeks and an implied
// volatility solver.
package pricing

import (
	"math"

	"options-lab/internal/errors"
	"options-lab/internal/models"
)

// Input holds the parameters for a single option valuation.
type Input struct {
	Spot         float64
	Strike       float64
	TimeToExpiry float64 // in years
	Volatility   float64 // annualized
	RiskFreeRate float64 // annualized, continuous compounding
	Type         models.OptionType
}

// Quote is the theoretical price of an option along with its Greeks.
// Theta is the raw annualized decay; Vega and Rho are per 1.00 move in
// volatility / rate. Display scaling is the caller's concern.
type Quote struct {
	Price float64
	models.Greeks
}

// normCDF is the cumulative distribution function of the standard normal.
// P(X <= x) = 0.5 * (1 + erf(x / sqrt(2)))
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// normPDF is the density of the standard normal.
func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}

// Intrinsic returns the exercise value of an option at the given spot.
func Intrinsic(spot, strike float64, optType models.OptionType) float64 {
	if optType == models.OptionCall {
		return math.Max(0, spot-strike)
	}
	return math.Max(0, strike-spot)
}

// expiryDelta is the step-function delta of an expired option: +-1 in the
// money, 0 out of the money, +-0.5 exactly at the strike.
func expiryDelta(spot, strike float64, optType models.OptionType) float64 {
	if optType == models.OptionCall {
		switch {
		case spot > strike:
			return 1
		case spot < strike:
			return 0
		default:
			return 0.5
		}
	}
	switch {
	case spot < strike:
		return -1
	case spot > strike:
		return 0
	default:
		return -0.5
	}
}

// Price computes the Black-Scholes theoretical price and Greeks.
//
// Degenerate cases: at or past expiry the quote is the intrinsic value with
// zeroed Greeks except the step-function delta. With zero volatility the
// price is the forward intrinsic value. Any NaN or infinity in the result
// fails with ErrNumericalInstability rather than leaking into downstream
// aggregates.
func Price(in Input) (Quote, error) {
	if in.Spot <= 0 {
		return Quote{}, errors.NewValidationError("spot", in.Spot, "must be positive")
	}
	if in.Strike <= 0 {
		return Quote{}, errors.NewValidationError("strike", in.Strike, "must be positive")
	}
	if in.Type != models.OptionCall && in.Type != models.OptionPut {
		return Quote{}, errors.NewValidationError("type", in.Type, "must be CALL or PUT")
	}

	if in.TimeToExpiry <= 0 {
		return Quote{
			Price: Intrinsic(in.Spot, in.Strike, in.Type),
			Greeks: models.Greeks{
				Delta: expiryDelta(in.Spot, in.Strike, in.Type),
			},
		}, nil
	}

	sqrtT := math.Sqrt(in.TimeToExpiry)
	discount := math.Exp(-in.RiskFreeRate * in.TimeToExpiry)

	if in.Volatility <= 0 {
		// Zero volatility: the forward is deterministic, so the price is the
		// discounted forward intrinsic and delta is the forward step.
		var price float64
		if in.Type == models.OptionCall {
			price = math.Max(0, in.Spot-in.Strike*discount)
		} else {
			price = math.Max(0, in.Strike*discount-in.Spot)
		}
		q := Quote{
			Price: price,
			Greeks: models.Greeks{
				Delta: expiryDelta(in.Spot, in.Strike*discount, in.Type),
			},
		}
		return q, nil
	}

	d1 := (math.Log(in.Spot/in.Strike) + (in.RiskFreeRate+0.5*in.Volatility*in.Volatility)*in.TimeToExpiry) /
		(in.Volatility * sqrtT)
	d2 := d1 - in.Volatility*sqrtT

	var price, delta, theta, rho float64
	if in.Type == models.OptionCall {
		price = in.Spot*normCDF(d1) - in.Strike*discount*normCDF(d2)
		delta = normCDF(d1)
		theta = -(in.Spot*normPDF(d1)*in.Volatility)/(2*sqrtT) -
			in.RiskFreeRate*in.Strike*discount*normCDF(d2)
		rho = in.Strike * in.TimeToExpiry * discount * normCDF(d2)
	} else {
		price = in.Strike*discount*normCDF(-d2) - in.Spot*normCDF(-d1)
		delta = normCDF(d1) - 1
		theta = -(in.Spot*normPDF(d1)*in.Volatility)/(2*sqrtT) +
			in.RiskFreeRate*in.Strike*discount*normCDF(-d2)
		rho = -in.Strike * in.TimeToExpiry * discount * normCDF(-d2)
	}

	gamma := normPDF(d1) / (in.Spot * in.Volatility * sqrtT)
	vega := in.Spot * normPDF(d1) * sqrtT

	q := Quote{
		Price: price,
		Greeks: models.Greeks{
			Delta: delta,
			Gamma: gamma,
			Theta: theta,
			Vega:  vega,
			Rho:   rho,
		},
	}
	if !q.finite() {
		return Quote{}, errors.Wrapf(errors.ErrNumericalInstability,
			"pricing %s K=%.2f S=%.2f T=%.6f vol=%.4f", in.Type, in.Strike, in.Spot, in.TimeToExpiry, in.Volatility)
	}
	return q, nil
}

func (q Quote) finite() bool {
	for _, v := range []float64{q.Price, q.Delta, q.Gamma, q.Theta, q.Vega, q.Rho} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
