package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Mojinnn/PBL3-project/internal/ports"
)

type Config struct {
	Stores    StoresConfig    `yaml:"stores"`
	Merger    MergerConfig    `yaml:"merger"`
	Query     QueryConfig     `yaml:"query"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Timescale TimescaleConfig `yaml:"timescale"`
}

// StoresConfig names the CSV file behind every store.
type StoresConfig struct {
	Latency string `yaml:"latency"`
	Traffic string `yaml:"traffic"`
	Tshark  string `yaml:"tshark"`
	Merged  string `yaml:"merged"`
}

type MergerConfig struct {
	Interval   time.Duration `yaml:"interval"`
	MaxPending int           `yaml:"max_pending"`
}

type QueryConfig struct {
	Addr string `yaml:"addr"`
	Tail int    `yaml:"tail"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// TimescaleConfig enables the merged-row mirror when ConnString is set.
type TimescaleConfig struct {
	ConnString string `yaml:"conn_string"`
	Table      string `yaml:"table"`
}

// Load reads the YAML file at path, applies NETWATCH_* environment overrides,
// fills defaults and validates. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(newEnv()); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Policy extracts the merger and query thresholds.
func (c *Config) Policy() ports.Policy {
	return ports.Policy{
		Interval:   c.Merger.Interval,
		MaxPending: c.Merger.MaxPending,
		TailWindow: c.Query.Tail,
	}
}

func newEnv() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("netwatch")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func (c *Config) applyEnv(v *viper.Viper) error {
	strs := map[string]*string{
		"stores.latency":        &c.Stores.Latency,
		"stores.traffic":        &c.Stores.Traffic,
		"stores.tshark":         &c.Stores.Tshark,
		"stores.merged":         &c.Stores.Merged,
		"query.addr":            &c.Query.Addr,
		"metrics.addr":          &c.Metrics.Addr,
		"timescale.conn_string": &c.Timescale.ConnString,
		"timescale.table":       &c.Timescale.Table,
	}
	for key, dst := range strs {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	ints := map[string]*int{
		"merger.max_pending": &c.Merger.MaxPending,
		"query.tail":         &c.Query.Tail,
	}
	for key, dst := range ints {
		if !v.IsSet(key) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}

	if v.IsSet("merger.interval") {
		d, err := time.ParseDuration(v.GetString("merger.interval"))
		if err != nil {
			return fmt.Errorf("merger.interval: %w", err)
		}
		c.Merger.Interval = d
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Stores.Latency == "" {
		c.Stores.Latency = "data/ping_probe.csv"
	}
	if c.Stores.Traffic == "" {
		c.Stores.Traffic = "data/traffic_probe.csv"
	}
	if c.Stores.Tshark == "" {
		c.Stores.Tshark = "data/tshark_probe.csv"
	}
	if c.Stores.Merged == "" {
		c.Stores.Merged = "data/merged_summary.csv"
	}
	if c.Merger.Interval == 0 {
		c.Merger.Interval = 60 * time.Second
	}
	if c.Merger.MaxPending == 0 {
		c.Merger.MaxPending = 1_000
	}
	if c.Query.Addr == "" {
		c.Query.Addr = ":3000"
	}
	if c.Query.Tail == 0 {
		c.Query.Tail = 20
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Timescale.Table == "" {
		c.Timescale.Table = "merged_summary"
	}
}

func (c *Config) validate() error {
	if c.Merger.Interval < time.Second {
		return fmt.Errorf("merger.interval must be at least 1s, got %s", c.Merger.Interval)
	}
	if c.Merger.MaxPending < 0 {
		return fmt.Errorf("merger.max_pending must be >= 0")
	}
	if c.Query.Tail < 0 {
		return fmt.Errorf("query.tail must be >= 0")
	}
	paths := map[string]string{}
	for name, p := range map[string]string{
		"latency": c.Stores.Latency,
		"traffic": c.Stores.Traffic,
		"tshark":  c.Stores.Tshark,
		"merged":  c.Stores.Merged,
	} {
		if other, dup := paths[p]; dup {
			return fmt.Errorf("stores.%s and stores.%s share path %s", name, other, p)
		}
		paths[p] = name
	}
	return nil
}
