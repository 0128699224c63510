// Package cli provides the command-line interface for the strategy lab.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"options-lab/internal/config"
	"options-lab/internal/logging"
	"options-lab/internal/payoff"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-08-25"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Evaluator *payoff.Evaluator
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config:    cfg,
		Logger:    logger,
		Evaluator: payoff.New(cfg.EvaluatorConfig()),
	}

	rootCmd := &cobra.Command{
		Use:   "optlab",
		Short: "Options Lab - option strategy analysis CLI",
		Long: `Options Lab analyzes multi-leg option strategies.

It prices European options with a Black-Scholes model and evaluates
strategies into payoff curves, Greeks, break-evens and max profit/loss.

Use 'optlab help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/options-lab)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newPriceCmd(app))
	rootCmd.AddCommand(newGreeksCmd(app))
	rootCmd.AddCommand(newStrategyCmd(app))
	rootCmd.AddCommand(newPayoffCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Options Lab v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Pricing Configuration")
	output.Printf("  Contract Multiplier: %.0f\n", cfg.Pricing.ContractMultiplier)
	output.Printf("  Risk-Free Rate:      %.2f%%\n", cfg.Pricing.RiskFreeRate*100)
	output.Printf("  Grid Steps:          %d\n", cfg.Pricing.GridSteps)
	output.Printf("  Grid Width:          %.0f%%\n", cfg.Pricing.GridWidth*100)
	output.Printf("  Price Epsilon:       %.4f\n", cfg.Pricing.PriceEpsilon)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:   %s\n", cfg.Logging.Level)
	output.Printf("  Console: %v\n", cfg.Logging.Console)
	output.Printf("  File:    %v\n", cfg.Logging.File)

	return nil
}
