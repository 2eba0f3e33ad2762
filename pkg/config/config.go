// Package config loads the YAML file shared by the minpile executables.
package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog"

	"minpile/pkg/compiler"
	"minpile/pkg/cpu"
	"minpile/pkg/peripherals"
)

// Config is the on-disk configuration. Every field is optional.
type Config struct {
	// UnknownCalls is "error" or "ignore".
	UnknownCalls string `yaml:"unknown_calls"`
	// Builtins maps extra call names to instruction templates.
	Builtins map[string]string `yaml:"builtins"`
	// MaxSteps bounds emulator runs. Zero uses cpu.DefaultMaxSteps, a
	// negative value removes the bound.
	MaxSteps int `yaml:"max_steps"`
	// Wrap restarts the program after its last instruction.
	Wrap bool `yaml:"wrap"`
	// Messages are the message blocks mounted on the emulator.
	Messages []string `yaml:"messages"`
	// History is how many past flushes each message block keeps. Zero uses
	// peripherals.DefaultHistory, a negative value keeps none.
	History  int    `yaml:"history"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		UnknownCalls: "error",
		Messages:     []string{"message1"},
		LogLevel:     "info",
	}
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := compiler.ParseUnknownCallPolicy(c.UnknownCalls); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	b := compiler.NewBuiltins()
	for _, name := range c.builtinNames() {
		if b.Has(name) {
			return fmt.Errorf("builtin %q would shadow a predefined builtin", name)
		}
		if err := b.RegisterTemplate(name, c.Builtins[name]); err != nil {
			return err
		}
	}
	seen := make(map[string]bool)
	for _, m := range c.Messages {
		if m == "" {
			return fmt.Errorf("empty message block name")
		}
		if seen[m] {
			return fmt.Errorf("message block %q listed twice", m)
		}
		seen[m] = true
	}
	return nil
}

func (c *Config) builtinNames() []string {
	names := make([]string, 0, len(c.Builtins))
	for name := range c.Builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Level returns the zerolog level named by LogLevel, info when unset.
func (c *Config) Level() (zerolog.Level, error) {
	if c.LogLevel == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

// CompilerOptions builds the compiler options this configuration describes.
func (c *Config) CompilerOptions(log *zerolog.Logger) (compiler.Options, error) {
	policy, err := compiler.ParseUnknownCallPolicy(c.UnknownCalls)
	if err != nil {
		return compiler.Options{}, err
	}
	return compiler.Options{
		Logger:       log,
		UnknownCalls: policy,
		Builtins:     c.Builtins,
	}, nil
}

// CPUOptions builds the emulator options this configuration describes.
func (c *Config) CPUOptions() []cpu.Option {
	opts := []cpu.Option{cpu.WithWrap(c.Wrap)}
	switch {
	case c.MaxSteps > 0:
		opts = append(opts, cpu.WithMaxSteps(c.MaxSteps))
	case c.MaxSteps < 0:
		opts = append(opts, cpu.WithMaxSteps(0))
	}
	return opts
}

// MountMessages mounts the configured message blocks on vm.
func (c *Config) MountMessages(vm *cpu.CPU) []*peripherals.MessageBlock {
	blocks := peripherals.Mount(vm, c.Messages...)
	if c.History == 0 {
		return blocks
	}
	limit := c.History
	if limit < 0 {
		limit = 0
	}
	for _, b := range blocks {
		b.SetHistoryLimit(limit)
	}
	return blocks
}
