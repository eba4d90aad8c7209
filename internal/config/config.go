package config

import (
	"fmt"
	"strings"

	"github.com/23skdu/longbow-vfadd/internal/compare"
	"github.com/23skdu/longbow-vfadd/internal/sim"
	"github.com/23skdu/longbow-vfadd/internal/vector"
)

// DefaultRandomCount is the number of random vectors drawn per band.
const DefaultRandomCount = 200

type Config struct {
	Seed        uint64
	RandomCount int
	Modes       []vector.Mode

	// Tolerance applies to random vectors; hand-picked cases are always
	// judged precisely.
	Tolerance vector.Tolerance

	StopOnFailure bool
	TimeoutCycles int
	Latency       int

	LogLevel  string
	LogFormat string

	MetricsAddr string
	ExportPath  string
	ReportPath  string
	ServeAddr   string
}

func (c *Config) Validate() error {
	if c.RandomCount < 0 {
		return fmt.Errorf("invalid random_count: %d (must be non-negative)", c.RandomCount)
	}
	if len(c.Modes) == 0 {
		return fmt.Errorf("invalid modes: none selected (must name at least one)")
	}
	seen := make(map[vector.Mode]bool, len(c.Modes))
	for _, m := range c.Modes {
		if !m.Valid() {
			return fmt.Errorf("invalid mode: %v", m)
		}
		if seen[m] {
			return fmt.Errorf("invalid modes: %v listed twice", m)
		}
		seen[m] = true
	}
	if !c.Tolerance.Valid() {
		return fmt.Errorf("invalid tolerance: %v", c.Tolerance)
	}
	if c.Tolerance == vector.ULPOrRelativeError {
		allowed := compare.DefaultTolerances()
		for _, m := range c.Modes {
			if !allowed[m].AllowCombined {
				return fmt.Errorf("invalid tolerance: %v (not supported for mode %v)", c.Tolerance, m)
			}
		}
	}
	if c.TimeoutCycles <= 0 {
		return fmt.Errorf("invalid timeout_cycles: %d (must be positive)", c.TimeoutCycles)
	}
	if c.Latency < 0 {
		return fmt.Errorf("invalid latency: %d (must be non-negative)", c.Latency)
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log_format: %q (must be console or json)", c.LogFormat)
	}
	return nil
}

// ParseModes reads a comma-separated mode list. "all" selects every mode.
func ParseModes(s string) ([]vector.Mode, error) {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return append([]vector.Mode(nil), vector.Modes...), nil
	}
	var modes []vector.Mode
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		m, err := vector.ParseMode(part)
		if err != nil {
			return nil, err
		}
		modes = append(modes, m)
	}
	return modes, nil
}

// Selected reports whether mode m is enabled.
func (c *Config) Selected(m vector.Mode) bool {
	for _, s := range c.Modes {
		if s == m {
			return true
		}
	}
	return false
}

func Default() Config {
	return Config{
		Seed:          1,
		RandomCount:   DefaultRandomCount,
		Modes:         append([]vector.Mode(nil), vector.Modes...),
		Tolerance:     vector.Precise,
		StopOnFailure: true,
		TimeoutCycles: sim.DefaultTimeoutCycles,
		LogLevel:      "info",
		LogFormat:     "console",
	}
}
