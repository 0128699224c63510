package pricing

import (
	"math"

	"options-lab/internal/errors"
)

// Newton-Raphson bounds for the implied volatility search.
const (
	ivMaxIterations = 100
	ivTolerance     = 1e-6
	ivMinVol        = 1e-4
	ivMaxVol        = 10.0
	ivMinVega       = 1e-8
)

// ImpliedVolatility solves for the volatility that reproduces marketPrice
// under the Black-Scholes model, using Newton-Raphson on vega.
func ImpliedVolatility(in Input, marketPrice float64) (float64, error) {
	if marketPrice <= 0 {
		return 0, errors.NewValidationError("marketPrice", marketPrice, "must be positive")
	}
	if in.TimeToExpiry <= 0 {
		return 0, errors.Wrap(errors.ErrInsufficientPricingData, "implied volatility undefined at expiry")
	}

	sigma := 0.5 // initial guess
	for i := 0; i < ivMaxIterations; i++ {
		in.Volatility = sigma
		q, err := Price(in)
		if err != nil {
			return 0, err
		}

		diff := q.Price - marketPrice
		if math.Abs(diff) < ivTolerance {
			return sigma, nil
		}

		if math.Abs(q.Vega) < ivMinVega {
			// Vega has collapsed (deep ITM/OTM or near expiry); accept the
			// current estimate only if it is already close.
			if math.Abs(diff) < ivTolerance*10 {
				return sigma, nil
			}
			return 0, errors.Wrap(errors.ErrNoConvergence, "vega too small for a stable solve")
		}

		sigma -= diff / q.Vega
		if sigma < ivMinVol {
			sigma = ivMinVol
		} else if sigma > ivMaxVol {
			sigma = ivMaxVol
		}
	}

	return 0, errors.Wrapf(errors.ErrNoConvergence, "implied volatility after %d iterations", ivMaxIterations)
}
