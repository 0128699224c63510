package cli

import (
	"testing"
	"time"

	apperrors "options-lab/internal/errors"
	"options-lab/internal/models"
)

func TestParseLeg(t *testing.T) {
	expiry := time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC)

	leg, err := parseLeg("BUY:CALL:455:2:3.20:0.25", expiry, 0)
	if err != nil {
		t.Fatalf("parseLeg() error = %v", err)
	}
	if leg.Side != models.OrderSideBuy || leg.Type != models.OptionCall {
		t.Errorf("side/type = %s/%s", leg.Side, leg.Type)
	}
	if leg.Strike != 455 || leg.Quantity != 2 {
		t.Errorf("strike/qty = %.2f/%d", leg.Strike, leg.Quantity)
	}
	if !leg.HasPremium() || leg.Premium != 3.20 {
		t.Errorf("premium = %.2f, want 3.20", leg.Premium)
	}
	if leg.IV != 0.25 {
		t.Errorf("iv = %.2f, want 0.25", leg.IV)
	}

	// Lowercase and no premium: model-derived entry with the default IV.
	leg, err = parseLeg("sell:put:440:1", expiry, 0.3)
	if err != nil {
		t.Fatalf("parseLeg() error = %v", err)
	}
	if leg.Side != models.OrderSideSell || leg.Type != models.OptionPut {
		t.Errorf("side/type = %s/%s", leg.Side, leg.Type)
	}
	if leg.HasPremium() {
		t.Error("premium should be left to the pricing model")
	}
	if leg.IV != 0.3 {
		t.Errorf("iv = %.2f, want default 0.3", leg.IV)
	}
}

func TestParseLegErrors(t *testing.T) {
	expiry := time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC)
	specs := []string{
		"BUY:CALL:455",
		"BUY:CALL:455:1:2:3:4",
		"BUY:CALL:abc:1",
		"BUY:CALL:455:x",
		"BUY:CALL:455:1:oops",
	}
	for _, spec := range specs {
		if _, err := parseLeg(spec, expiry, 0); !apperrors.Is(err, apperrors.ErrInvalidInput) {
			t.Errorf("parseLeg(%q) error = %v, want ErrInvalidInput", spec, err)
		}
	}
}

func TestSampleCurve(t *testing.T) {
	curve := make([]models.CurvePoint, 200)
	for i := range curve {
		curve[i] = models.CurvePoint{Price: float64(i), PnL: float64(i) * 2}
	}

	sampled := sampleCurve(curve, 64)
	if len(sampled) != 64 {
		t.Fatalf("len = %d, want 64", len(sampled))
	}
	if sampled[0] != curve[0] || sampled[63] != curve[199] {
		t.Error("sampling must keep the endpoints")
	}

	short := curve[:10]
	if got := sampleCurve(short, 64); len(got) != 10 {
		t.Errorf("short curve resampled: len = %d, want 10", len(got))
	}
}
