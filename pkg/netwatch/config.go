package netwatch

import (
	"github.com/Mojinnn/PBL3-project/internal/app/config"
	"github.com/Mojinnn/PBL3-project/internal/ports"
)

// Config re-exports the root configuration struct so embedding programs can
// build or adjust it in code.
type Config = config.Config

type (
	// Policy carries the merger interval, retry bound and query tail window.
	Policy = ports.Policy
	// StoresConfig names the CSV file behind every store.
	StoresConfig = config.StoresConfig
	// MergerConfig sets the merge interval and retry queue bound.
	MergerConfig = config.MergerConfig
	// QueryConfig configures the dashboard API.
	QueryConfig = config.QueryConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	// TimescaleConfig enables the merged-row mirror.
	TimescaleConfig = config.TimescaleConfig
)

// LoadConfig reads YAML from disk and applies NETWATCH_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return config.Default()
}
