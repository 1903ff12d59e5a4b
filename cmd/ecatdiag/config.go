package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config drives one diagnostic run against a simulated bus.
type Config struct {
	// Adapter is the adapter name the session registers under.
	Adapter string `yaml:"adapter"`

	// ImageSize overrides the process image bound in bytes. Zero keeps the
	// session default.
	ImageSize int `yaml:"image_size"`

	Slaves []SlaveEntry `yaml:"slaves"`
	Cycle  CycleConfig  `yaml:"cycle"`
	Fault  FaultConfig  `yaml:"fault"`
}

type SlaveEntry struct {
	Name        string `yaml:"name"`
	VendorID    uint32 `yaml:"vendor_id"`
	ProductCode uint32 `yaml:"product_code"`

	// Region sizes in bytes; zero means the drive record defaults.
	OutputBytes int `yaml:"output_bytes"`
	InputBytes  int `yaml:"input_bytes"`
}

type CycleConfig struct {
	Count      int `yaml:"count"`
	IntervalMs int `yaml:"interval_ms"`
	TimeoutMs  int `yaml:"timeout_ms"`

	// RecoverTimeoutMs bounds each recovery attempt after a low working
	// counter.
	RecoverTimeoutMs int `yaml:"recover_timeout_ms"`
}

// FaultConfig injects one dropout into the run. A zero DropSlave disables it.
type FaultConfig struct {
	DropSlave      int `yaml:"drop_slave"`
	DropAtCycle    int `yaml:"drop_at_cycle"`
	RestoreAtCycle int `yaml:"restore_at_cycle"`
}

func loadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Adapter == "" {
		c.Adapter = "sim0"
	}
	if c.Cycle.Count == 0 {
		c.Cycle.Count = 100
	}
	if c.Cycle.IntervalMs == 0 {
		c.Cycle.IntervalMs = 10
	}
	if c.Cycle.TimeoutMs == 0 {
		c.Cycle.TimeoutMs = 2
	}
	if c.Cycle.RecoverTimeoutMs == 0 {
		c.Cycle.RecoverTimeoutMs = 500
	}
}

func (c *Config) validate() error {
	if len(c.Slaves) == 0 {
		return errors.New("at least one slave required")
	}
	if c.Cycle.Count < 1 {
		return errors.New("cycle count must be positive")
	}
	if c.Fault.DropSlave != 0 {
		if c.Fault.DropSlave < 1 || c.Fault.DropSlave > len(c.Slaves) {
			return fmt.Errorf("fault drop_slave %d out of range 1..%d", c.Fault.DropSlave, len(c.Slaves))
		}
		if c.Fault.RestoreAtCycle != 0 && c.Fault.RestoreAtCycle <= c.Fault.DropAtCycle {
			return errors.New("fault restore_at_cycle must come after drop_at_cycle")
		}
	}

	return nil
}

func (c *CycleConfig) interval() time.Duration { return time.Duration(c.IntervalMs) * time.Millisecond }
func (c *CycleConfig) timeout() time.Duration  { return time.Duration(c.TimeoutMs) * time.Millisecond }
func (c *CycleConfig) recoverTimeout() time.Duration {
	return time.Duration(c.RecoverTimeoutMs) * time.Millisecond
}
