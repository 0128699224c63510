// Package catalog builds option strategies from named templates as simple
// strike-offset formulas over the spot price.
package catalog

import (
	"math"
	"time"

	"options-lab/internal/errors"
	"options-lab/internal/models"
)

// Template identifies a named strategy template.
type Template string

const (
	Straddle       Template = "straddle"
	Strangle       Template = "strangle"
	BullCallSpread Template = "bull-call-spread"
	BearPutSpread  Template = "bear-put-spread"
	IronCondor     Template = "iron-condor"
	Butterfly      Template = "butterfly"
	CalendarSpread Template = "calendar-spread"
	RatioSpread    Template = "ratio-spread"
)

// Spec describes a template for display purposes.
type Spec struct {
	Name        Template
	Description string
}

// List returns the available templates in display order.
func List() []Spec {
	return []Spec{
		{Straddle, "Buy ATM Call + Put"},
		{Strangle, "Buy OTM Call + Put"},
		{BullCallSpread, "Buy lower strike Call, Sell higher strike Call"},
		{BearPutSpread, "Buy higher strike Put, Sell lower strike Put"},
		{IronCondor, "Sell OTM Call + Put, Buy further OTM Call + Put"},
		{Butterfly, "Buy 1 lower, Sell 2 ATM, Buy 1 higher Call"},
		{CalendarSpread, "Sell near expiry Call, Buy far expiry Call"},
		{RatioSpread, "Buy 1 ATM Call, Sell 2 OTM Calls"},
	}
}

// Params holds the inputs for template construction. Zero values fall back
// to sensible defaults: quantity 1, wing width 5% of spot, strike step
// derived from spot, far expiry four weeks after the near one.
type Params struct {
	Symbol     string
	Spot       float64
	Expiry     time.Time
	FarExpiry  time.Time // calendar spreads only
	StrikeStep float64   // strikes are rounded to this step
	WingWidth  float64   // OTM offset as a fraction of spot
	IV         float64   // applied to every leg
	Quantity   int
}

// roundToStep rounds a target price to the nearest strike step.
func roundToStep(price, step float64) float64 {
	if step <= 0 {
		return price
	}
	return math.Round(price/step) * step
}

// defaultStrikeStep picks a strike step of roughly 1% of spot, snapped to a
// round figure.
func defaultStrikeStep(spot float64) float64 {
	raw := spot / 100
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	return math.Max(mag, math.Round(raw/mag)*mag)
}

// Build constructs a Strategy from a named template. Legs carry the given
// IV and no premium, so the evaluator derives entry premiums from the
// pricing model.
func Build(t Template, p Params) (models.Strategy, error) {
	if p.Spot <= 0 {
		return models.Strategy{}, errors.NewValidationError("spot", p.Spot, "must be positive")
	}
	if p.Expiry.IsZero() {
		return models.Strategy{}, errors.NewValidationError("expiry", p.Expiry, "must be set")
	}
	if p.Quantity <= 0 {
		p.Quantity = 1
	}
	if p.WingWidth <= 0 {
		p.WingWidth = 0.05
	}
	if p.StrikeStep <= 0 {
		p.StrikeStep = defaultStrikeStep(p.Spot)
	}
	if p.FarExpiry.IsZero() {
		p.FarExpiry = p.Expiry.AddDate(0, 0, 28)
	}

	atm := roundToStep(p.Spot, p.StrikeStep)
	up := roundToStep(p.Spot*(1+p.WingWidth), p.StrikeStep)
	down := roundToStep(p.Spot*(1-p.WingWidth), p.StrikeStep)
	farUp := roundToStep(p.Spot*(1+2*p.WingWidth), p.StrikeStep)
	farDown := roundToStep(p.Spot*(1-2*p.WingWidth), p.StrikeStep)

	leg := func(t models.OptionType, side models.OrderSide, strike float64, qty int, expiry time.Time) models.OptionLeg {
		return models.OptionLeg{
			Type:     t,
			Side:     side,
			Strike:   strike,
			Quantity: qty,
			Expiry:   expiry,
			Premium:  models.NoPremium,
			IV:       p.IV,
		}
	}

	var legs []models.OptionLeg
	switch t {
	case Straddle:
		legs = []models.OptionLeg{
			leg(models.OptionCall, models.OrderSideBuy, atm, p.Quantity, p.Expiry),
			leg(models.OptionPut, models.OrderSideBuy, atm, p.Quantity, p.Expiry),
		}
	case Strangle:
		legs = []models.OptionLeg{
			leg(models.OptionCall, models.OrderSideBuy, up, p.Quantity, p.Expiry),
			leg(models.OptionPut, models.OrderSideBuy, down, p.Quantity, p.Expiry),
		}
	case BullCallSpread:
		legs = []models.OptionLeg{
			leg(models.OptionCall, models.OrderSideBuy, atm, p.Quantity, p.Expiry),
			leg(models.OptionCall, models.OrderSideSell, up, p.Quantity, p.Expiry),
		}
	case BearPutSpread:
		legs = []models.OptionLeg{
			leg(models.OptionPut, models.OrderSideBuy, atm, p.Quantity, p.Expiry),
			leg(models.OptionPut, models.OrderSideSell, down, p.Quantity, p.Expiry),
		}
	case IronCondor:
		legs = []models.OptionLeg{
			leg(models.OptionPut, models.OrderSideSell, down, p.Quantity, p.Expiry),
			leg(models.OptionCall, models.OrderSideSell, up, p.Quantity, p.Expiry),
			leg(models.OptionPut, models.OrderSideBuy, farDown, p.Quantity, p.Expiry),
			leg(models.OptionCall, models.OrderSideBuy, farUp, p.Quantity, p.Expiry),
		}
	case Butterfly:
		legs = []models.OptionLeg{
			leg(models.OptionCall, models.OrderSideBuy, down, p.Quantity, p.Expiry),
			leg(models.OptionCall, models.OrderSideSell, atm, 2*p.Quantity, p.Expiry),
			leg(models.OptionCall, models.OrderSideBuy, up, p.Quantity, p.Expiry),
		}
	case CalendarSpread:
		legs = []models.OptionLeg{
			leg(models.OptionCall, models.OrderSideSell, atm, p.Quantity, p.Expiry),
			leg(models.OptionCall, models.OrderSideBuy, atm, p.Quantity, p.FarExpiry),
		}
	case RatioSpread:
		legs = []models.OptionLeg{
			leg(models.OptionCall, models.OrderSideBuy, atm, p.Quantity, p.Expiry),
			leg(models.OptionCall, models.OrderSideSell, up, 2*p.Quantity, p.Expiry),
		}
	default:
		return models.Strategy{}, errors.Wrapf(errors.ErrUnknownTemplate, "%q", t)
	}

	return models.Strategy{
		Name:      string(t),
		Symbol:    p.Symbol,
		SpotPrice: p.Spot,
		Legs:      legs,
	}, nil
}
