package cli

import (
	"math"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"options-lab/internal/logging"
	"options-lab/internal/models"
)

const (
	chartWidth  = 64
	chartHeight = 17
)

func newPayoffCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payoff",
		Short: "Render a payoff diagram",
		Long: `Evaluate a strategy and render its P&L curve as an ASCII chart.

The solid curve (*) shows P&L at expiry; when the evaluation date differs
the dotted curve (.) shows the model P&L as of that date.`,
		Example: `  optlab payoff --template straddle --symbol SPY --spot 450 --expiry 2026-09-18 --iv 0.22
  optlab payoff --symbol SPY --spot 450 --expiry 2026-09-18 \
      --leg BUY:CALL:455:1:3.20 --leg SELL:CALL:465:1:1.10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			strategy, scenario, err := strategyFromFlags(app, cmd)
			if err != nil {
				output.Error("Invalid strategy: %v", err)
				return err
			}

			started := time.Now()
			result, err := app.Evaluator.Evaluate(strategy, scenario)
			if err != nil {
				output.Error("Evaluation failed: %v", err)
				return err
			}
			logging.LogEvaluation(app.Logger, strategy.Symbol, strategy.Name, len(strategy.Legs), time.Since(started))

			if output.IsJSON() {
				return output.JSON(result)
			}

			output.Bold("Payoff Diagram - %s (%s)", strategy.Symbol, strategy.Name)
			output.Printf("  Spot: %s  As of: %s\n\n", FormatPrice(strategy.SpotPrice), FormatDate(scenario.AsOfDate))

			renderChart(output, result)

			output.Println()
			displayAnalysis(output, strategy, result)
			return nil
		},
	}
	addStrategyFlags(cmd)
	return cmd
}

// renderChart draws the expiry curve, overlaying the as-of curve when it
// differs, onto a fixed-size character grid.
func renderChart(output *Output, result *models.PayoffResult) {
	expiry := sampleCurve(result.PnLAtExpiry, chartWidth)
	asOf := sampleCurve(result.PnLAtAsOfDate, chartWidth)
	if len(expiry) == 0 {
		return
	}
	showAsOf := !curvesEqual(expiry, asOf)

	minPnL, maxPnL := curveRange(expiry)
	if showAsOf {
		lo, hi := curveRange(asOf)
		minPnL = math.Min(minPnL, lo)
		maxPnL = math.Max(maxPnL, hi)
	}
	if maxPnL == minPnL {
		maxPnL = minPnL + 1
	}
	// Keep the zero axis visible.
	minPnL = math.Min(minPnL, 0)
	maxPnL = math.Max(maxPnL, 0)

	toRow := func(pnl float64) int {
		frac := (pnl - minPnL) / (maxPnL - minPnL)
		row := int(math.Round(float64(chartHeight-1) * (1 - frac)))
		if row < 0 {
			row = 0
		}
		if row >= chartHeight {
			row = chartHeight - 1
		}
		return row
	}

	grid := make([][]byte, chartHeight)
	for i := range grid {
		grid[i] = []byte(strings.Repeat(" ", chartWidth))
	}

	zeroRow := toRow(0)
	for col := 0; col < chartWidth; col++ {
		grid[zeroRow][col] = '-'
	}
	if showAsOf {
		for col, p := range asOf {
			grid[toRow(p.PnL)][col] = '.'
		}
	}
	for col, p := range expiry {
		grid[toRow(p.PnL)][col] = '*'
	}

	for row := 0; row < chartHeight; row++ {
		label := "          "
		switch row {
		case 0:
			label = alignLabel(FormatPnL(maxPnL))
		case zeroRow:
			label = alignLabel(FormatPnL(0))
		case chartHeight - 1:
			label = alignLabel(FormatPnL(minPnL))
		}
		output.Printf("  %s |%s\n", label, colorRow(output, grid[row], row, zeroRow))
	}

	first := expiry[0].Price
	last := expiry[len(expiry)-1].Price
	mid := expiry[len(expiry)/2].Price
	axis := alignLabel("") + " +" + strings.Repeat("-", chartWidth)
	output.Printf("  %s\n", axis)
	output.Printf("  %s  %-*s%-*s%s\n",
		alignLabel(""),
		chartWidth/2, FormatPrice(first),
		chartWidth/2-len(FormatPrice(mid))/2, FormatPrice(mid),
		FormatPrice(last))
}

func alignLabel(s string) string {
	const width = 10
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

// colorRow colors the curve characters: green above the zero axis, red below.
func colorRow(output *Output, row []byte, rowIdx, zeroRow int) string {
	s := string(row)
	if !strings.ContainsAny(s, "*.") {
		return s
	}
	if rowIdx < zeroRow {
		return output.Green(s)
	}
	if rowIdx > zeroRow {
		return output.Red(s)
	}
	return s
}

// sampleCurve reduces a curve to at most width points, keeping the endpoints.
func sampleCurve(curve []models.CurvePoint, width int) []models.CurvePoint {
	n := len(curve)
	if n == 0 || n <= width {
		return curve
	}
	out := make([]models.CurvePoint, width)
	for i := 0; i < width; i++ {
		idx := i * (n - 1) / (width - 1)
		out[i] = curve[idx]
	}
	return out
}

func curveRange(curve []models.CurvePoint) (float64, float64) {
	lo, hi := curve[0].PnL, curve[0].PnL
	for _, p := range curve[1:] {
		lo = math.Min(lo, p.PnL)
		hi = math.Max(hi, p.PnL)
	}
	return lo, hi
}

func curvesEqual(a, b []models.CurvePoint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i].PnL-b[i].PnL) > 1e-9 {
			return false
		}
	}
	return true
}
