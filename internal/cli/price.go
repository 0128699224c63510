package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"options-lab/internal/errors"
	"options-lab/internal/logging"
	"options-lab/internal/models"
	"options-lab/internal/pricing"
)

func newPriceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a single option",
		Long:  "Compute the Black-Scholes theoretical price and Greeks for one option.",
		Example: `  optlab price --spot 195 --strike 200 --type CALL --days 30 --iv 0.25
  optlab price --spot 195 --strike 190 --type PUT --days 45 --iv 0.30 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			spot, _ := cmd.Flags().GetFloat64("spot")
			strike, _ := cmd.Flags().GetFloat64("strike")
			optType, _ := cmd.Flags().GetString("type")
			days, _ := cmd.Flags().GetFloat64("days")
			iv, _ := cmd.Flags().GetFloat64("iv")
			rate, _ := cmd.Flags().GetFloat64("rate")
			if !cmd.Flags().Changed("rate") {
				rate = app.Config.Pricing.RiskFreeRate
			}

			tte := days / 365.25
			in := pricing.Input{
				Spot:         spot,
				Strike:       strike,
				TimeToExpiry: tte,
				Volatility:   iv,
				RiskFreeRate: rate,
				Type:         models.OptionType(strings.ToUpper(optType)),
			}

			quote, err := pricing.Price(in)
			logging.LogPricing(app.Logger, "", strike, tte, err)
			if err != nil {
				output.Error("Pricing failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(quote)
			}

			output.Bold("Option Price - %s %s", strings.ToUpper(optType), FormatPrice(strike))
			output.Printf("  Spot: %s  DTE: %.1f  IV: %.1f%%  Rate: %.2f%%\n\n",
				FormatPrice(spot), days, iv*100, rate*100)

			output.Printf("  Theoretical: %s\n\n", output.BoldText(FormatPrice(quote.Price)))
			output.Printf("  Delta (Δ):  %s\n", FormatGreek(quote.Delta))
			output.Printf("  Gamma (Γ):  %s\n", FormatGreek(quote.Gamma))
			output.Printf("  Theta (Θ):  %s /day\n", output.Red(FormatGreek(quote.Theta/365.25)))
			output.Printf("  Vega (ν):   %s /1%%\n", FormatGreek(quote.Vega/100))
			output.Printf("  Rho (ρ):    %s /1%%\n", FormatGreek(quote.Rho/100))

			return nil
		},
	}

	cmd.Flags().Float64("spot", 0, "Underlying spot price")
	cmd.Flags().Float64("strike", 0, "Strike price")
	cmd.Flags().String("type", "CALL", "Option type: CALL or PUT")
	cmd.Flags().Float64("days", 30, "Days to expiry")
	cmd.Flags().Float64("iv", 0, "Implied volatility (annualized, e.g. 0.25)")
	cmd.Flags().Float64("rate", 0, "Risk-free rate override")
	cmd.MarkFlagRequired("spot")
	cmd.MarkFlagRequired("strike")
	cmd.MarkFlagRequired("iv")

	return cmd
}

func newGreeksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "greeks",
		Short: "Option Greeks commands",
	}
	cmd.AddCommand(newGreeksCurveCmd(app))
	return cmd
}

// newGreeksCurveCmd computes Greeks across a strike range: a repeated
// application of the pricing model, one strike at a time.
func newGreeksCurveCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Greeks across a strike range",
		Example: `  optlab greeks curve --spot 195 --from 170 --to 220 --step 5 --days 30 --iv 0.25
  optlab greeks curve --spot 450 --from 400 --to 500 --step 10 --type PUT --days 60 --iv 0.2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			spot, _ := cmd.Flags().GetFloat64("spot")
			from, _ := cmd.Flags().GetFloat64("from")
			to, _ := cmd.Flags().GetFloat64("to")
			step, _ := cmd.Flags().GetFloat64("step")
			optType, _ := cmd.Flags().GetString("type")
			days, _ := cmd.Flags().GetFloat64("days")
			iv, _ := cmd.Flags().GetFloat64("iv")

			if step <= 0 || to <= from {
				output.Error("Invalid strike range: need from < to and step > 0")
				return errors.NewValidationError("strikes", from, "need from < to and step > 0")
			}

			type row struct {
				Strike float64       `json:"strike"`
				Price  float64       `json:"price"`
				Greeks models.Greeks `json:"greeks"`
			}
			var rows []row
			for k := from; k <= to+1e-9; k += step {
				quote, err := pricing.Price(pricing.Input{
					Spot:         spot,
					Strike:       k,
					TimeToExpiry: days / 365.25,
					Volatility:   iv,
					RiskFreeRate: app.Config.Pricing.RiskFreeRate,
					Type:         models.OptionType(strings.ToUpper(optType)),
				})
				if err != nil {
					output.Error("Pricing failed at strike %.2f: %v", k, err)
					return err
				}
				rows = append(rows, row{Strike: k, Price: quote.Price, Greeks: quote.Greeks})
			}

			if output.IsJSON() {
				return output.JSON(rows)
			}

			output.Bold("Greeks Curve - %s  Spot %s  %s", strings.ToUpper(optType), FormatPrice(spot), time.Now().Format("02-Jan-2006"))
			output.Println()

			table := NewTable(output, "Strike", "Price", "Delta", "Gamma", "Theta/d", "Vega/1%")
			for _, r := range rows {
				table.AddRow(
					FormatPrice(r.Strike),
					FormatPrice(r.Price),
					FormatGreek(r.Greeks.Delta),
					FormatGreek(r.Greeks.Gamma),
					FormatGreek(r.Greeks.Theta/365.25),
					FormatGreek(r.Greeks.Vega/100),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().Float64("spot", 0, "Underlying spot price")
	cmd.Flags().Float64("from", 0, "Lowest strike")
	cmd.Flags().Float64("to", 0, "Highest strike")
	cmd.Flags().Float64("step", 5, "Strike step")
	cmd.Flags().String("type", "CALL", "Option type: CALL or PUT")
	cmd.Flags().Float64("days", 30, "Days to expiry")
	cmd.Flags().Float64("iv", 0, "Implied volatility (annualized)")
	cmd.MarkFlagRequired("spot")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	cmd.MarkFlagRequired("iv")

	return cmd
}
