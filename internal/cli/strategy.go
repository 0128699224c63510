package cli

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"options-lab/internal/catalog"
	"options-lab/internal/errors"
	"options-lab/internal/logging"
	"options-lab/internal/models"
)

func newStrategyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strategy",
		Short: "Option strategy builder and evaluator",
		Long: `Build and analyze option strategies.

Strategies come from named templates (straddle, iron-condor, ...) or from
explicit --leg flags in SIDE:TYPE:STRIKE:QTY[:PREMIUM[:IV]] form.`,
	}

	cmd.AddCommand(newStrategyListCmd())
	cmd.AddCommand(newStrategyBuildCmd(app))
	cmd.AddCommand(newStrategyEvalCmd(app))

	return cmd
}

func newStrategyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available strategy templates",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(catalog.List())
				return
			}
			output.Bold("Available Strategy Templates")
			output.Println()
			for _, s := range catalog.List() {
				output.Printf("  %-18s %s\n", output.Cyan(string(s.Name)), s.Description)
			}
		},
	}
}

func newStrategyBuildCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <template>",
		Short: "Build a strategy from a template",
		Example: `  optlab strategy build straddle --symbol SPY --spot 450 --expiry 2026-09-18 --iv 0.22
  optlab strategy build iron-condor --symbol QQQ --spot 380 --expiry 2026-10-16 --iv 0.25 --wing 0.04`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			strategy, err := templateFromFlags(cmd, catalog.Template(args[0]))
			if err != nil {
				output.Error("Build failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(strategy)
			}
			displayLegs(output, strategy)
			return nil
		},
	}
	addStrategyFlags(cmd)
	return cmd
}

func newStrategyEvalCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate a strategy",
		Long: `Evaluate a strategy into payoff curves, break-evens, max profit/loss
and portfolio Greeks.`,
		Example: `  optlab strategy eval --template straddle --symbol SPY --spot 450 --expiry 2026-09-18 --iv 0.22
  optlab strategy eval --symbol SPY --spot 450 --expiry 2026-09-18 \
      --leg BUY:CALL:455:1:3.20 --leg SELL:CALL:465:1:1.10 --win-vol 0.22`,
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

			displayLegs(output, strategy)
			displayAnalysis(output, strategy, result)
			return nil
		},
	}
	addStrategyFlags(cmd)
	return cmd
}

// addStrategyFlags registers the flags shared by build, eval and payoff.
func addStrategyFlags(cmd *cobra.Command) {
	cmd.Flags().String("template", "", "Strategy template name (see 'strategy list')")
	cmd.Flags().StringArray("leg", nil, "Explicit leg SIDE:TYPE:STRIKE:QTY[:PREMIUM[:IV]], repeatable")
	cmd.Flags().String("symbol", "", "Underlying symbol")
	cmd.Flags().Float64("spot", 0, "Underlying spot price")
	cmd.Flags().String("expiry", "", "Expiry date (YYYY-MM-DD)")
	cmd.Flags().String("far-expiry", "", "Far expiry for calendar spreads (YYYY-MM-DD)")
	cmd.Flags().Float64("iv", 0, "Implied volatility applied to all legs")
	cmd.Flags().Float64("wing", 0.05, "Wing width as a fraction of spot")
	cmd.Flags().Float64("strike-step", 0, "Strike rounding step (0 = auto)")
	cmd.Flags().Int("qty", 1, "Contracts per leg")
	cmd.Flags().String("as-of", "", "Evaluation date (YYYY-MM-DD, default today)")
	cmd.Flags().Float64("iv-shift", 0, "Uniform IV override for the scenario")
	cmd.Flags().Bool("payoff-only", false, "Ignore entry cost basis")
	cmd.Flags().Float64("win-vol", 0, "Lognormal volatility for win-probability estimation")
}

func templateFromFlags(cmd *cobra.Command, tmpl catalog.Template) (models.Strategy, error) {
	symbol, _ := cmd.Flags().GetString("symbol")
	spot, _ := cmd.Flags().GetFloat64("spot")
	iv, _ := cmd.Flags().GetFloat64("iv")
	wing, _ := cmd.Flags().GetFloat64("wing")
	step, _ := cmd.Flags().GetFloat64("strike-step")
	qty, _ := cmd.Flags().GetInt("qty")

	expiry, err := parseDateFlag(cmd, "expiry")
	if err != nil {
		return models.Strategy{}, err
	}
	farExpiry, err := parseDateFlag(cmd, "far-expiry")
	if err != nil {
		return models.Strategy{}, err
	}

	return catalog.Build(tmpl, catalog.Params{
		Symbol:     strings.ToUpper(symbol),
		Spot:       spot,
		Expiry:     expiry,
		FarExpiry:  farExpiry,
		StrikeStep: step,
		WingWidth:  wing,
		IV:         iv,
		Quantity:   qty,
	})
}

// strategyFromFlags builds the strategy (template or explicit legs) and the
// scenario from shared flags.
func strategyFromFlags(app *App, cmd *cobra.Command) (models.Strategy, models.Scenario, error) {
	tmplName, _ := cmd.Flags().GetString("template")
	legSpecs, _ := cmd.Flags().GetStringArray("leg")

	var strategy models.Strategy
	var err error
	switch {
	case tmplName != "":
		strategy, err = templateFromFlags(cmd, catalog.Template(tmplName))
		if err != nil {
			return models.Strategy{}, models.Scenario{}, err
		}
	case len(legSpecs) > 0:
		symbol, _ := cmd.Flags().GetString("symbol")
		spot, _ := cmd.Flags().GetFloat64("spot")
		iv, _ := cmd.Flags().GetFloat64("iv")
		expiry, derr := parseDateFlag(cmd, "expiry")
		if derr != nil {
			return models.Strategy{}, models.Scenario{}, derr
		}
		legs := make([]models.OptionLeg, 0, len(legSpecs))
		for _, spec := range legSpecs {
			leg, perr := parseLeg(spec, expiry, iv)
			if perr != nil {
				return models.Strategy{}, models.Scenario{}, perr
			}
			legs = append(legs, leg)
		}
		strategy = models.Strategy{
			Name:      "custom",
			Symbol:    strings.ToUpper(symbol),
			SpotPrice: spot,
			Legs:      legs,
		}
	default:
		return models.Strategy{}, models.Scenario{}, errors.NewValidationError("legs", nil, "supply --template or at least one --leg")
	}

	asOf := time.Now()
	if s, _ := cmd.Flags().GetString("as-of"); s != "" {
		asOf, err = time.Parse("2006-01-02", s)
		if err != nil {
			return models.Strategy{}, models.Scenario{}, errors.NewValidationError("as-of", s, "use YYYY-MM-DD")
		}
	}

	ivShift, _ := cmd.Flags().GetFloat64("iv-shift")
	payoffOnly, _ := cmd.Flags().GetBool("payoff-only")
	winVol, _ := cmd.Flags().GetFloat64("win-vol")

	mode := models.ModePnL
	if payoffOnly {
		mode = models.ModePayoffOnly
	}
	scenario := models.Scenario{
		PriceGrid:  app.Evaluator.AutoGrid(strategy.SpotPrice),
		AsOfDate:   asOf,
		IVOverride: ivShift,
		Mode:       mode,
	}
	if winVol > 0 {
		scenario.Distribution = &models.Distribution{
			Volatility: winVol,
			Drift:      app.Config.Pricing.RiskFreeRate,
		}
	}
	return strategy, scenario, nil
}

func parseDateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	s, _ := cmd.Flags().GetString(name)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, errors.NewValidationError(name, s, "use YYYY-MM-DD")
	}
	return t, nil
}

// parseLeg parses SIDE:TYPE:STRIKE:QTY[:PREMIUM[:IV]].
func parseLeg(spec string, expiry time.Time, defaultIV float64) (models.OptionLeg, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 4 || len(parts) > 6 {
		return models.OptionLeg{}, errors.NewValidationError("leg", spec, "want SIDE:TYPE:STRIKE:QTY[:PREMIUM[:IV]]")
	}

	leg := models.OptionLeg{
		Side:    models.OrderSide(strings.ToUpper(parts[0])),
		Type:    models.OptionType(strings.ToUpper(parts[1])),
		Expiry:  expiry,
		Premium: models.NoPremium,
		IV:      defaultIV,
	}

	strike, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return models.OptionLeg{}, errors.NewValidationError("leg.strike", parts[2], "not a number")
	}
	leg.Strike = strike

	qty, err := strconv.Atoi(parts[3])
	if err != nil {
		return models.OptionLeg{}, errors.NewValidationError("leg.quantity", parts[3], "not an integer")
	}
	leg.Quantity = qty

	if len(parts) >= 5 && parts[4] != "" {
		premium, perr := strconv.ParseFloat(parts[4], 64)
		if perr != nil {
			return models.OptionLeg{}, errors.NewValidationError("leg.premium", parts[4], "not a number")
		}
		leg.Premium = premium
	}
	if len(parts) == 6 && parts[5] != "" {
		iv, perr := strconv.ParseFloat(parts[5], 64)
		if perr != nil {
			return models.OptionLeg{}, errors.NewValidationError("leg.iv", parts[5], "not a number")
		}
		leg.IV = iv
	}
	return leg, nil
}

func displayLegs(output *Output, strategy models.Strategy) {
	title := strategy.Name
	if title == "" {
		title = "strategy"
	}
	output.Bold("%s - %s", strings.ToUpper(title[:1])+title[1:], strategy.Symbol)
	output.Printf("  Spot: %s\n\n", FormatPrice(strategy.SpotPrice))

	output.Bold("Legs")
	for i, leg := range strategy.Legs {
		premium := "model"
		if leg.HasPremium() {
			premium = "@ " + FormatPrice(leg.Premium)
		}
		output.Printf("  %d. %-4s %dx %s %s %s (exp %s)\n",
			i+1, leg.Side, leg.Quantity, FormatPrice(leg.Strike), leg.Type, premium, FormatDate(leg.Expiry))
	}
	output.Println()
}

func displayAnalysis(output *Output, strategy models.Strategy, result *models.PayoffResult) {
	output.Bold("Analysis")

	premiumLabel := "Net Debit:"
	premiumValue := -result.NetPremium
	if result.NetPremium > 0 {
		premiumLabel = "Net Credit:"
		premiumValue = result.NetPremium
	}
	output.Printf("  %-14s %s\n", premiumLabel, FormatCurrency(premiumValue))
	output.Printf("  %-14s %s\n", "Max Profit:", output.Green(FormatPnL(result.MaxProfit)))
	output.Printf("  %-14s %s\n", "Max Loss:", output.Red(FormatPnL(result.MaxLoss)))

	if len(result.Breakevens) == 0 {
		output.Printf("  %-14s %s\n", "Breakevens:", "none")
	} else {
		points := make([]string, len(result.Breakevens))
		for i, b := range result.Breakevens {
			points[i] = FormatPrice(b)
		}
		output.Printf("  %-14s %s\n", "Breakevens:", strings.Join(points, ", "))
	}
	if result.HasWinProbability() {
		output.Printf("  %-14s %.1f%%\n", "Win Prob:", result.WinProbability*100)
	}
	output.Println()

	g := result.PortfolioGreeks
	output.Bold("Portfolio Greeks")
	output.Printf("  Delta: %s  Gamma: %s  Theta/d: %s  Vega/1%%: %s  Rho/1%%: %s\n",
		FormatGreek(g.Delta), FormatGreek(g.Gamma), FormatGreek(g.Theta/365.25),
		FormatGreek(g.Vega/100), FormatGreek(g.Rho/100))
}
