package config

import "fmt"

// InputConfig locates the dataset of a run.
type InputConfig struct {
	// Dataset is a YAML or JSON file with employees, absences and demand.
	Dataset string `json:"dataset"`
	// Demand optionally overrides the dataset demand.
	Demand string `json:"demand"`
}

// ExportConfig controls where finalized plans are written.
type ExportConfig struct {
	Dir    string `json:"dir"`
	Format string `json:"format"`
}

func (c *ExportConfig) SetDefaults() {
	if c.Format == "" {
		c.Format = "json"
	}
}

func (c ExportConfig) Validate() error {
	if c.Format != "json" && c.Format != "csv" {
		return fmt.Errorf("unknown format %q", c.Format)
	}
	return nil
}

// ReviewConfig controls how paused runs wait for a decision over MQTT.
type ReviewConfig struct {
	// WaitSeconds is how long a paused run waits; 0 disables waiting.
	WaitSeconds int `json:"wait_seconds"`
}

func (c *ReviewConfig) SetDefaults() {
	if c.WaitSeconds < 0 {
		c.WaitSeconds = 0
	}
}
