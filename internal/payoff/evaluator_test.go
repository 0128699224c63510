package payoff

import (
	"math"
	"testing"
	"time"

	apperrors "options-lab/internal/errors"
	"options-lab/internal/models"
	"options-lab/internal/pricing"
)

var (
	asOf    = time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	expiry  = asOf.AddDate(0, 0, 30)
	farDate = asOf.AddDate(0, 0, 58)
)

// testEvaluator uses a unit contract multiplier so expected values read in
// per-share terms.
func testEvaluator() *Evaluator {
	return New(Config{
		ContractMultiplier: 1,
		RiskFreeRate:       0.05,
		GridSteps:          121,
		GridWidth:          0.30,
		PriceEpsilon:       0.01,
	})
}

func linearGrid(lo, hi float64, n int) []float64 {
	grid := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range grid {
		grid[i] = lo + float64(i)*step
	}
	return grid
}

func leg(t models.OptionType, side models.OrderSide, strike float64, qty int, premium float64, exp time.Time) models.OptionLeg {
	return models.OptionLeg{
		Type:     t,
		Side:     side,
		Strike:   strike,
		Quantity: qty,
		Expiry:   exp,
		Premium:  premium,
		IV:       0.2,
	}
}

func TestEvaluateLongCallAtExpiry(t *testing.T) {
	e := testEvaluator()
	s := models.Strategy{
		Symbol:    "TEST",
		SpotPrice: 100,
		Legs:      []models.OptionLeg{leg(models.OptionCall, models.OrderSideBuy, 100, 1, 5, expiry)},
	}
	sc := models.Scenario{PriceGrid: linearGrid(50, 150, 101), AsOfDate: asOf}

	result, err := e.Evaluate(s, sc)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	for _, pt := range result.PnLAtExpiry {
		want := math.Max(0, pt.Price-100) - 5
		if math.Abs(pt.PnL-want) > 1e-9 {
			t.Errorf("expiry PnL at %.2f = %.6f, want %.6f", pt.Price, pt.PnL, want)
		}
	}

	if len(result.Breakevens) != 1 || math.Abs(result.Breakevens[0]-105) > 1e-9 {
		t.Errorf("Breakevens = %v, want [105]", result.Breakevens)
	}
	if !math.IsInf(result.MaxProfit, 1) {
		t.Errorf("MaxProfit = %v, want +Inf for a long call", result.MaxProfit)
	}
	if math.Abs(result.MaxLoss-(-5)) > 1e-9 {
		t.Errorf("MaxLoss = %.6f, want -5", result.MaxLoss)
	}
	if math.Abs(result.NetPremium-(-5)) > 1e-9 {
		t.Errorf("NetPremium = %.6f, want -5 (debit)", result.NetPremium)
	}
}

func TestEvaluateStraddleBreakevens(t *testing.T) {
	e := testEvaluator()
	s := models.Strategy{
		Symbol:    "TEST",
		SpotPrice: 100,
		Legs: []models.OptionLeg{
			leg(models.OptionCall, models.OrderSideBuy, 100, 1, 4, expiry),
			leg(models.OptionPut, models.OrderSideBuy, 100, 1, 3, expiry),
		},
	}
	sc := models.Scenario{PriceGrid: linearGrid(50, 150, 101), AsOfDate: asOf}

	result, err := e.Evaluate(s, sc)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if len(result.Breakevens) != 2 {
		t.Fatalf("Breakevens = %v, want two", result.Breakevens)
	}
	if math.Abs(result.Breakevens[0]-93) > 1e-9 || math.Abs(result.Breakevens[1]-107) > 1e-9 {
		t.Errorf("Breakevens = %v, want [93 107]", result.Breakevens)
	}
	if math.Abs(result.MaxLoss-(-7)) > 1e-9 {
		t.Errorf("MaxLoss = %.6f, want -7 at the strike", result.MaxLoss)
	}
	if !math.IsInf(result.MaxProfit, 1) {
		t.Errorf("MaxProfit = %v, want +Inf", result.MaxProfit)
	}
}

func TestEvaluateIronCondorBounded(t *testing.T) {
	e := testEvaluator()
	s := models.Strategy{
		Symbol:    "TEST",
		SpotPrice: 100,
		Legs: []models.OptionLeg{
			leg(models.OptionPut, models.OrderSideSell, 90, 1, 2, expiry),
			leg(models.OptionCall, models.OrderSideSell, 110, 1, 2, expiry),
			leg(models.OptionPut, models.OrderSideBuy, 80, 1, 1, expiry),
			leg(models.OptionCall, models.OrderSideBuy, 120, 1, 1, expiry),
		},
	}
	sc := models.Scenario{PriceGrid: linearGrid(50, 150, 101), AsOfDate: asOf}

	result, err := e.Evaluate(s, sc)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if math.Abs(result.NetPremium-2) > 1e-9 {
		t.Errorf("NetPremium = %.6f, want +2 (credit)", result.NetPremium)
	}
	if math.IsInf(result.MaxProfit, 0) || math.Abs(result.MaxProfit-2) > 1e-9 {
		t.Errorf("MaxProfit = %v, want 2", result.MaxProfit)
	}
	if math.IsInf(result.MaxLoss, 0) || math.Abs(result.MaxLoss-(-8)) > 1e-9 {
		t.Errorf("MaxLoss = %v, want -8", result.MaxLoss)
	}
}

func TestEvaluateEmptyStrategy(t *testing.T) {
	e := testEvaluator()
	s := models.Strategy{Symbol: "TEST", SpotPrice: 100}
	sc := models.Scenario{PriceGrid: linearGrid(70, 130, 61), AsOfDate: asOf}

	result, err := e.Evaluate(s, sc)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	for _, pt := range result.PnLAtExpiry {
		if pt.PnL != 0 {
			t.Errorf("empty strategy PnL at %.2f = %.6f, want 0", pt.Price, pt.PnL)
		}
	}
	if len(result.Breakevens) != 0 {
		t.Errorf("Breakevens = %v, want none for a flat-zero curve", result.Breakevens)
	}
	if result.MaxProfit != 0 || result.MaxLoss != 0 {
		t.Errorf("extremes = (%v, %v), want (0, 0)", result.MaxProfit, result.MaxLoss)
	}
	if result.NetPremium != 0 {
		t.Errorf("NetPremium = %v, want 0", result.NetPremium)
	}
	if result.HasWinProbability() {
		t.Error("HasWinProbability() = true without a distribution")
	}
}

func TestEvaluateGridValidation(t *testing.T) {
	e := testEvaluator()
	s := models.Strategy{
		Symbol:    "TEST",
		SpotPrice: 100,
		Legs:      []models.OptionLeg{leg(models.OptionCall, models.OrderSideBuy, 100, 1, 5, expiry)},
	}

	grids := [][]float64{
		nil,
		{100},
		{90, 110, 110},
		{90, 110, 100},
	}
	for _, grid := range grids {
		_, err := e.Evaluate(s, models.Scenario{PriceGrid: grid, AsOfDate: asOf})
		if !apperrors.Is(err, apperrors.ErrInvalidInput) {
			t.Errorf("grid %v: error = %v, want ErrInvalidInput", grid, err)
		}
	}
}

func TestEvaluateLegValidation(t *testing.T) {
	e := testEvaluator()
	grid := linearGrid(50, 150, 11)

	bad := []models.OptionLeg{
		leg(models.OptionCall, models.OrderSideBuy, -100, 1, 5, expiry),
		leg(models.OptionCall, models.OrderSideBuy, 100, 0, 5, expiry),
		leg("SWAPTION", models.OrderSideBuy, 100, 1, 5, expiry),
		leg(models.OptionCall, "HOLD", 100, 1, 5, expiry),
		leg(models.OptionCall, models.OrderSideBuy, 100, 1, 5, time.Time{}),
	}
	for i, l := range bad {
		s := models.Strategy{Symbol: "TEST", SpotPrice: 100, Legs: []models.OptionLeg{l}}
		_, err := e.Evaluate(s, models.Scenario{PriceGrid: grid, AsOfDate: asOf})
		if !apperrors.Is(err, apperrors.ErrInvalidInput) {
			t.Errorf("leg %d: error = %v, want ErrInvalidInput", i, err)
		}
	}
}

func TestEvaluateMissingPricingData(t *testing.T) {
	e := testEvaluator()
	l := leg(models.OptionCall, models.OrderSideBuy, 100, 1, models.NoPremium, expiry)
	l.IV = 0
	s := models.Strategy{Symbol: "TEST", SpotPrice: 100, Legs: []models.OptionLeg{l}}
	sc := models.Scenario{PriceGrid: linearGrid(50, 150, 11), AsOfDate: asOf}

	_, err := e.Evaluate(s, sc)
	if !apperrors.Is(err, apperrors.ErrInsufficientPricingData) {
		t.Errorf("Evaluate() error = %v, want ErrInsufficientPricingData", err)
	}
}

func TestEvaluateDerivedPremium(t *testing.T) {
	e := testEvaluator()
	l := leg(models.OptionCall, models.OrderSideBuy, 100, 1, models.NoPremium, expiry)
	s := models.Strategy{Symbol: "TEST", SpotPrice: 100, Legs: []models.OptionLeg{l}}
	sc := models.Scenario{PriceGrid: linearGrid(50, 150, 11), AsOfDate: asOf}

	result, err := e.Evaluate(s, sc)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	q, err := pricing.Price(pricing.Input{
		Spot:         100,
		Strike:       100,
		TimeToExpiry: yearsBetween(asOf, expiry),
		Volatility:   0.2,
		RiskFreeRate: 0.05,
		Type:         models.OptionCall,
	})
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	if math.Abs(result.NetPremium-(-q.Price)) > 1e-9 {
		t.Errorf("NetPremium = %.6f, want model debit %.6f", result.NetPremium, -q.Price)
	}
}

func TestEvaluateAsOfPastExpiry(t *testing.T) {
	e := testEvaluator()
	s := models.Strategy{
		Symbol:    "TEST",
		SpotPrice: 100,
		Legs:      []models.OptionLeg{leg(models.OptionCall, models.OrderSideBuy, 100, 1, 5, expiry)},
	}
	sc := models.Scenario{PriceGrid: linearGrid(50, 150, 51), AsOfDate: expiry.AddDate(0, 0, 10)}

	result, err := e.Evaluate(s, sc)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	for i := range result.PnLAtExpiry {
		if result.PnLAtExpiry[i].PnL != result.PnLAtAsOfDate[i].PnL {
			t.Fatalf("settled strategy: curves differ at %.2f: %.6f vs %.6f",
				result.PnLAtExpiry[i].Price, result.PnLAtExpiry[i].PnL, result.PnLAtAsOfDate[i].PnL)
		}
		want := math.Max(0, result.PnLAtExpiry[i].Price-100) - 5
		if math.Abs(result.PnLAtExpiry[i].PnL-want) > 1e-9 {
			t.Errorf("settled PnL at %.2f = %.6f, want %.6f",
				result.PnLAtExpiry[i].Price, result.PnLAtExpiry[i].PnL, want)
		}
	}
}

func TestEvaluateCalendarKeepsFarTimeValue(t *testing.T) {
	e := testEvaluator()
	s := models.Strategy{
		Symbol:    "TEST",
		SpotPrice: 100,
		Legs: []models.OptionLeg{
			leg(models.OptionCall, models.OrderSideSell, 100, 1, 2, expiry),
			leg(models.OptionCall, models.OrderSideBuy, 100, 1, 3, farDate),
		},
	}
	grid := []float64{80, 90, 100, 110, 120}
	sc := models.Scenario{PriceGrid: grid, AsOfDate: asOf}

	result, err := e.Evaluate(s, sc)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	// The expiry curve is valued at the near expiry: the short leg settles to
	// intrinsic while the far leg retains Black-Scholes time value.
	remaining := yearsBetween(expiry, farDate)
	for i, p := range grid {
		farQ, perr := pricing.Price(pricing.Input{
			Spot:         p,
			Strike:       100,
			TimeToExpiry: remaining,
			Volatility:   0.2,
			RiskFreeRate: 0.05,
			Type:         models.OptionCall,
		})
		if perr != nil {
			t.Fatalf("Price() error = %v", perr)
		}
		want := -(math.Max(0, p-100) - 2) + (farQ.Price - 3)
		if math.Abs(result.PnLAtExpiry[i].PnL-want) > 1e-9 {
			t.Errorf("calendar PnL at %.2f = %.6f, want %.6f", p, result.PnLAtExpiry[i].PnL, want)
		}
	}
}

func TestEvaluatePayoffOnlyMode(t *testing.T) {
	e := testEvaluator()
	s := models.Strategy{
		Symbol:    "TEST",
		SpotPrice: 100,
		Legs:      []models.OptionLeg{leg(models.OptionCall, models.OrderSideBuy, 100, 1, 5, expiry)},
	}
	sc := models.Scenario{
		PriceGrid: linearGrid(50, 150, 101),
		AsOfDate:  asOf,
		Mode:      models.ModePayoffOnly,
	}

	result, err := e.Evaluate(s, sc)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	for _, pt := range result.PnLAtExpiry {
		want := math.Max(0, pt.Price-100)
		if math.Abs(pt.PnL-want) > 1e-9 {
			t.Errorf("payoff-only at %.2f = %.6f, want %.6f", pt.Price, pt.PnL, want)
		}
	}
}

func TestEvaluateIVOverride(t *testing.T) {
	e := testEvaluator()
	l := leg(models.OptionCall, models.OrderSideBuy, 100, 1, models.NoPremium, expiry)
	l.IV = 0 // override must carry the pricing
	s := models.Strategy{Symbol: "TEST", SpotPrice: 100, Legs: []models.OptionLeg{l}}
	sc := models.Scenario{PriceGrid: linearGrid(50, 150, 11), AsOfDate: asOf, IVOverride: 0.35}

	result, err := e.Evaluate(s, sc)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if result.NetPremium >= 0 {
		t.Errorf("NetPremium = %.6f, want a debit priced off the override", result.NetPremium)
	}
}

func TestEvaluateWinProbability(t *testing.T) {
	e := testEvaluator()
	s := models.Strategy{
		Symbol:    "TEST",
		SpotPrice: 100,
		Legs: []models.OptionLeg{
			leg(models.OptionCall, models.OrderSideBuy, 100, 1, 4, expiry),
			leg(models.OptionPut, models.OrderSideBuy, 100, 1, 3, expiry),
		},
	}
	sc := models.Scenario{
		PriceGrid:    linearGrid(50, 150, 101),
		AsOfDate:     asOf,
		Distribution: &models.Distribution{Volatility: 0.2, Drift: 0.05},
	}

	result, err := e.Evaluate(s, sc)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !result.HasWinProbability() {
		t.Fatal("HasWinProbability() = false with a distribution supplied")
	}
	if result.WinProbability <= 0 || result.WinProbability >= 1 {
		t.Errorf("WinProbability = %.4f, want in (0, 1) for a long straddle", result.WinProbability)
	}

	// A 30-day straddle needing a 7% move should lose more often than it wins.
	if result.WinProbability > 0.5 {
		t.Errorf("WinProbability = %.4f, want below one half", result.WinProbability)
	}
}

func TestEvaluateWinProbabilityInvalidDistribution(t *testing.T) {
	e := testEvaluator()
	s := models.Strategy{
		Symbol:    "TEST",
		SpotPrice: 100,
		Legs:      []models.OptionLeg{leg(models.OptionCall, models.OrderSideBuy, 100, 1, 5, expiry)},
	}
	sc := models.Scenario{
		PriceGrid:    linearGrid(50, 150, 11),
		AsOfDate:     asOf,
		Distribution: &models.Distribution{Volatility: 0},
	}

	_, err := e.Evaluate(s, sc)
	if !apperrors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("Evaluate() error = %v, want ErrInvalidInput", err)
	}
}

func TestAutoGrid(t *testing.T) {
	e := testEvaluator()
	grid := e.AutoGrid(100)

	if len(grid) != 121 {
		t.Fatalf("len(grid) = %d, want 121", len(grid))
	}
	if math.Abs(grid[0]-70) > 1e-9 || math.Abs(grid[len(grid)-1]-130) > 1e-9 {
		t.Errorf("grid spans [%.2f, %.2f], want [70, 130]", grid[0], grid[len(grid)-1])
	}
	for i := 1; i < len(grid); i++ {
		if grid[i] <= grid[i-1] {
			t.Fatalf("grid not strictly increasing at %d", i)
		}
	}
}

func TestEvaluateShortCallUnlimitedLoss(t *testing.T) {
	e := testEvaluator()
	s := models.Strategy{
		Symbol:    "TEST",
		SpotPrice: 100,
		Legs:      []models.OptionLeg{leg(models.OptionCall, models.OrderSideSell, 100, 1, 5, expiry)},
	}
	sc := models.Scenario{PriceGrid: linearGrid(50, 150, 101), AsOfDate: asOf}

	result, err := e.Evaluate(s, sc)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !math.IsInf(result.MaxLoss, -1) {
		t.Errorf("MaxLoss = %v, want -Inf for a naked short call", result.MaxLoss)
	}
	if math.Abs(result.MaxProfit-5) > 1e-9 {
		t.Errorf("MaxProfit = %.6f, want the 5 credit", result.MaxProfit)
	}
}

func TestEvaluateSyntheticLongStock(t *testing.T) {
	e := testEvaluator()
	s := models.Strategy{
		Symbol:    "TEST",
		SpotPrice: 100,
		Legs: []models.OptionLeg{
			leg(models.OptionCall, models.OrderSideBuy, 100, 1, 4, expiry),
			leg(models.OptionPut, models.OrderSideSell, 100, 1, 4, expiry),
		},
	}
	sc := models.Scenario{PriceGrid: linearGrid(50, 150, 101), AsOfDate: asOf}

	result, err := e.Evaluate(s, sc)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	// Premiums cancel, so the expiry payoff is the forward itself: slope one
	// per share through the strike.
	for _, pt := range result.PnLAtExpiry {
		want := pt.Price - 100
		if math.Abs(pt.PnL-want) > 1e-9 {
			t.Errorf("synthetic stock PnL at %.2f = %.6f, want %.6f", pt.Price, pt.PnL, want)
		}
	}
	if len(result.Breakevens) != 1 || math.Abs(result.Breakevens[0]-100) > 1e-9 {
		t.Errorf("Breakevens = %v, want [100]", result.Breakevens)
	}
}

func TestEvaluateLongPutDownsideBounded(t *testing.T) {
	e := testEvaluator()
	s := models.Strategy{
		Symbol:    "TEST",
		SpotPrice: 100,
		Legs:      []models.OptionLeg{leg(models.OptionPut, models.OrderSideBuy, 100, 1, 4, expiry)},
	}
	sc := models.Scenario{PriceGrid: linearGrid(60, 140, 81), AsOfDate: asOf}

	result, err := e.Evaluate(s, sc)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	// The put's best case is the zero-price floor, outside the grid.
	if math.IsInf(result.MaxProfit, 0) || math.Abs(result.MaxProfit-96) > 1e-6 {
		t.Errorf("MaxProfit = %v, want ~96 at the zero floor", result.MaxProfit)
	}
	if math.Abs(result.MaxLoss-(-4)) > 1e-9 {
		t.Errorf("MaxLoss = %.6f, want -4", result.MaxLoss)
	}
}
