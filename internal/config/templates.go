package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Options Lab Configuration

[pricing]
# Shares per option contract
contract_multiplier = 100.0
# Annualized risk-free rate (continuous compounding)
risk_free_rate = 0.05
# Number of points in an auto-generated price grid
grid_steps = 121
# Auto-grid half-width as a fraction of spot (0.30 = spot +/- 30%)
grid_width = 0.30
# Break-even deduplication tolerance in price units
price_epsilon = 0.01

[ui]
# Enable colored output
color_enabled = true
# Date format
date_format = "02-Jan-2006"

[logging]
# Log level: debug, info, warn, error
level = "info"
# Log to console
console = true
# Log to rotating file
file = true
`

// createTemplateConfig writes the default config template so the user has
// something to edit.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(configTemplate), 0644)
}
