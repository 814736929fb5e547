package app

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"shovebox/server/internal/sim"
)

// Config is the full server configuration: transport, logging, simulation
// tuning, and the demo arena layout.
type Config struct {
	ListenAddr string      `json:"listenAddr" yaml:"listen_addr"`
	LogSinks   []string    `json:"logSinks" yaml:"log_sinks"`
	LogJSONTo  string      `json:"logJsonTo" yaml:"log_json_to"`
	Sim        sim.Config  `json:"sim" yaml:"sim"`
	Arena      ArenaConfig `json:"arena" yaml:"arena"`
}

// ArenaConfig shapes the demo world built at startup.
type ArenaConfig struct {
	Width   float64 `json:"width" yaml:"width"`
	Height  float64 `json:"height" yaml:"height"`
	Crates  int     `json:"crates" yaml:"crates"`
	Shovers int     `json:"shovers" yaml:"shovers"`
	Coins   int     `json:"coins" yaml:"coins"`
	Seed    int64   `json:"seed" yaml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		ListenAddr: ":8080",
		LogSinks:   []string{"console"},
		Sim:        sim.DefaultConfig(),
		Arena: ArenaConfig{
			Width:   640,
			Height:  480,
			Crates:  12,
			Shovers: 4,
			Coins:   8,
			Seed:    1,
		},
	}
}

// Normalized clamps every section into its valid range.
func (c Config) Normalized() Config {
	def := DefaultConfig()
	if c.ListenAddr == "" {
		c.ListenAddr = def.ListenAddr
	}
	if len(c.LogSinks) == 0 {
		c.LogSinks = def.LogSinks
	}
	c.Sim = c.Sim.Normalized()
	if c.Arena.Width < 128 {
		c.Arena.Width = def.Arena.Width
	}
	if c.Arena.Height < 128 {
		c.Arena.Height = def.Arena.Height
	}
	if c.Arena.Crates < 0 {
		c.Arena.Crates = 0
	}
	if c.Arena.Shovers < 0 {
		c.Arena.Shovers = 0
	}
	if c.Arena.Coins < 0 {
		c.Arena.Coins = 0
	}
	if c.Arena.Seed == 0 {
		c.Arena.Seed = def.Arena.Seed
	}
	return c
}

// LoadConfig reads a YAML config file over the defaults. A missing path
// yields the defaults untouched.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg.applyEnv().Normalized(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg.applyEnv().Normalized(), nil
}

// applyEnv lets deployment scripts override the file without editing it.
func (c Config) applyEnv() Config {
	if addr := os.Getenv("SHOVEBOX_ADDR"); addr != "" {
		c.ListenAddr = addr
	}
	if raw := os.Getenv("SHOVEBOX_TICK_RATE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			c.Sim.TickRate = value
		}
	}
	if raw := os.Getenv("SHOVEBOX_SEED"); raw != "" {
		if value, err := strconv.ParseInt(raw, 10, 64); err == nil {
			c.Arena.Seed = value
		}
	}
	return c
}
