package scheduler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines solver parameters.
type Config struct {
	// TimeoutSeconds bounds the search of one slice.
	TimeoutSeconds float64 `json:"timeout_seconds" yaml:"timeout_seconds"`
	// Seed fixes the order of otherwise equivalent candidates.
	Seed int64 `json:"seed" yaml:"seed"`
	// ShiftHours is the length of the sliding full-shift windows.
	ShiftHours float64 `json:"shift_hours" yaml:"shift_hours"`
	// StepMinutes is the offset between consecutive sliding windows.
	StepMinutes int `json:"step_minutes" yaml:"step_minutes"`
	// MaxNodes stops a slice search after this many nodes; 0 disables it.
	MaxNodes int `json:"max_nodes" yaml:"max_nodes"`
	// MaxLPVariables skips the LP bound for larger slices.
	MaxLPVariables int `json:"max_lp_variables" yaml:"max_lp_variables"`
	// Synonyms extends the built-in skill synonym table.
	Synonyms []Synonym `json:"synonyms" yaml:"synonyms"`
}

// DefaultConfig returns the solver defaults.
func DefaultConfig() Config {
	return Config{
		TimeoutSeconds: 10,
		Seed:           42,
		ShiftHours:     8,
		StepMinutes:    60,
		MaxLPVariables: 400,
	}
}

// SetDefaults fills zero values with defaults.
func (c *Config) SetDefaults() {
	d := DefaultConfig()
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = d.TimeoutSeconds
	}
	if c.ShiftHours == 0 {
		c.ShiftHours = d.ShiftHours
	}
	if c.StepMinutes == 0 {
		c.StepMinutes = d.StepMinutes
	}
	if c.MaxLPVariables == 0 {
		c.MaxLPVariables = d.MaxLPVariables
	}
}

// Validate checks the parameters.
func (c Config) Validate() error {
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative")
	}
	if c.ShiftHours < 0 || c.ShiftHours > 24 {
		return fmt.Errorf("shift_hours out of range: %v", c.ShiftHours)
	}
	if c.StepMinutes < 0 {
		return fmt.Errorf("step_minutes must not be negative")
	}
	for _, s := range c.Synonyms {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Timeout returns the per-slice search budget.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds * float64(time.Second))
}

// LoadConfig loads a Config from a JSON or YAML file.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	var cfg Config
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	default:
		return Config{}, fmt.Errorf("unsupported config format: %s", ext)
	}
	return cfg, err
}

// DecodeConfig reads from r to decode a Config.
func DecodeConfig(r io.Reader, format string) (Config, error) {
	var cfg Config
	switch strings.ToLower(format) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(r)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, err
		}
	case "json":
		dec := json.NewDecoder(r)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported format: %s", format)
	}
	return cfg, nil
}
