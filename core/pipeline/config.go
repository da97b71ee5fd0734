package pipeline

import (
	"fmt"

	"github.com/kilianp07/staffplan/core/triage"
)

// DefaultMaxIterations bounds solve passes per Run or Resume call.
const DefaultMaxIterations = 3

// Config holds the run settings.
type Config struct {
	AutoApprove bool `json:"auto_approve" yaml:"auto_approve"`
	// Budget is merged into the KPIs; nil disables the budget check.
	Budget        *float64      `json:"budget,omitempty" yaml:"budget,omitempty"`
	MaxIterations int           `json:"max_iterations" yaml:"max_iterations"`
	Triage        triage.Config `json:"triage" yaml:"triage"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.MaxIterations == 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	c.Triage.SetDefaults()
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must not be negative")
	}
	if c.Budget != nil && *c.Budget < 0 {
		return fmt.Errorf("budget must not be negative")
	}
	return nil
}
