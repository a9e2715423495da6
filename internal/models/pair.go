package models

// BotConfig is one entry of the YAML `bots` list: one process, one symbol,
// one fixed pair of venues.
type BotConfig struct {
	ID           string           `yaml:"id"`
	Pair         string           `yaml:"pair"`
	DexA         string           `yaml:"dex_a"`
	DexB         string           `yaml:"dex_b"`
	SpreadEntry  float64          `yaml:"spread_entry"`
	SpreadExit   float64          `yaml:"spread_exit"`
	PositionSize float64          `yaml:"position_size"`
	Leverage     float64          `yaml:"leverage"`
	Dashboard    *DashboardConfig `yaml:"dashboard,omitempty"`
}

// DashboardConfig is optional, purely observational, and never gates
// trading decisions.
type DashboardConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Statuses a bot's runtime state machine can report externally.
const (
	PairStatusPaused = "paused"
	PairStatusActive = "active"
)
