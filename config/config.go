package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/staffplan/core/metrics"
	"github.com/kilianp07/staffplan/core/pipeline"
	"github.com/kilianp07/staffplan/core/rules"
	"github.com/kilianp07/staffplan/core/scheduler"
	"github.com/kilianp07/staffplan/infra/monitoring"
	"github.com/kilianp07/staffplan/infra/mqtt"
	"github.com/kilianp07/staffplan/infra/runlog"
)

// EnvPrefix marks environment overrides, e.g. SP_PLANNER__AUTO_APPROVE=true.
const EnvPrefix = "SP_"

type Config struct {
	Planner pipeline.Config   `json:"planner"`
	Policy  rules.Policy      `json:"policy"`
	Solver  scheduler.Config  `json:"solver"`
	Input   InputConfig       `json:"input"`
	Export  ExportConfig      `json:"export"`
	Review  ReviewConfig      `json:"review"`
	Metrics metrics.Config    `json:"metrics"`
	MQTT    mqtt.Config       `json:"mqtt"`
	RunLog  runlog.Config     `json:"runlog"`
	Logging LoggingConfig     `json:"logging"`
	Sentry  monitoring.Config `json:"sentry"`
}

// Load reads path (YAML or JSON) and applies SP_ environment overrides. An
// empty path loads defaults and the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	cfg := Config{Policy: rules.DefaultPolicy(), Solver: scheduler.DefaultConfig()}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults completes every section.
func (c *Config) SetDefaults() {
	c.Planner.SetDefaults()
	c.Policy.SetDefaults()
	c.Solver.SetDefaults()
	c.Export.SetDefaults()
	c.Review.SetDefaults()
	c.RunLog.SetDefaults()
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.MQTT.ClientID == "" {
		host, _ := os.Hostname()
		c.MQTT.ClientID = "staffplan-" + host
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"planner", c.Planner.Validate},
		{"policy", c.Policy.Validate},
		{"solver", c.Solver.Validate},
		{"export", c.Export.Validate},
		{"runlog", c.RunLog.Validate},
		{"logging", c.Logging.Validate},
	}
	for _, ch := range checks {
		if err := ch.fn(); err != nil {
			return fmt.Errorf("%s: %w", ch.name, err)
		}
	}
	return nil
}
