// Package cli provides the command-line interface for the strategy lab.
package cli

import (
	"fmt"
	"time"

	"options-lab/pkg/utils"
)

// FormatPrice formats a price with appropriate decimal places.
func FormatPrice(price float64) string {
	return utils.FormatPrice(price)
}

// FormatCurrency formats an amount as dollars.
func FormatCurrency(amount float64) string {
	return utils.FormatCurrency(amount)
}

// FormatPnL formats P&L with sign and infinity sentinels.
func FormatPnL(pnl float64) string {
	return utils.FormatPnL(pnl)
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	return utils.FormatPercent(value)
}

// FormatDate formats a date.
func FormatDate(t time.Time) string {
	return t.Format("02-Jan-2006")
}

// FormatGreek formats a Greek value with enough precision to be useful for
// small gammas.
func FormatGreek(v float64) string {
	if v != 0 && v > -0.01 && v < 0.01 {
		return fmt.Sprintf("%.5f", v)
	}
	return fmt.Sprintf("%.3f", v)
}
