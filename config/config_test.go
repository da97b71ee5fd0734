package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `planner:
  auto_approve: true
  budget: 500
  max_iterations: 4
policy:
  max_hours_per_day: 9
  allow_cashier_for_sales: true
solver:
  timeout_seconds: 2
  seed: 7
  synonyms:
    - role: stock
      skill: warehouse
input:
  dataset: "data.yaml"
export:
  dir: "out"
  format: "csv"
review:
  wait_seconds: 30
mqtt:
  broker: "tcp://localhost:1883"
  client_id: "cli"
  topic_prefix: "shop1"
metrics:
  sinks:
    - type: "nop"
  prometheus_addr: ":2112"
runlog:
  backend: "sqlite"
  path: "runs.db"
logging:
  level: "debug"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"auto_approve", cfg.Planner.AutoApprove, true},
		{"budget", cfg.Planner.Budget != nil && *cfg.Planner.Budget == 500, true},
		{"max_iterations", cfg.Planner.MaxIterations, 4},
		{"max_hours_per_day", cfg.Policy.MaxHoursPerDay, 9.0},
		{"max_hours_per_week default", cfg.Policy.MaxHoursPerWeek, 37.5},
		{"allow_cashier_for_sales", cfg.Policy.AllowCashierForSales, true},
		{"timeout", cfg.Solver.TimeoutSeconds, 2.0},
		{"seed", cfg.Solver.Seed, int64(7)},
		{"shift_hours default", cfg.Solver.ShiftHours, 8.0},
		{"synonyms", len(cfg.Solver.Synonyms) == 1 && cfg.Solver.Synonyms[0].Skill == "warehouse", true},
		{"dataset", cfg.Input.Dataset, "data.yaml"},
		{"export", cfg.Export.Format, "csv"},
		{"review", cfg.Review.WaitSeconds, 30},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "cli"},
		{"prefix", cfg.MQTT.Prefix(), "shop1"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"prometheus_addr", cfg.Metrics.PrometheusAddr, ":2112"},
		{"runlog", cfg.RunLog.Backend, "sqlite"},
		{"level", cfg.Logging.Level, "debug"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Planner.MaxIterations != 3 {
		t.Errorf("max_iterations: got %d", cfg.Planner.MaxIterations)
	}
	if cfg.Policy.MaxHoursPerDay != 8 || cfg.Policy.MinRestHours != 11 {
		t.Errorf("unexpected policy %+v", cfg.Policy)
	}
	if cfg.Solver.Seed != 42 {
		t.Errorf("seed: got %d", cfg.Solver.Seed)
	}
	if cfg.Export.Format != "json" || cfg.RunLog.Backend != "jsonl" || cfg.Logging.Level != "info" {
		t.Errorf("unexpected defaults %+v %+v %+v", cfg.Export, cfg.RunLog, cfg.Logging)
	}
	if cfg.Planner.Budget != nil {
		t.Errorf("budget should be unset")
	}
	if cfg.MQTT.Enabled() {
		t.Errorf("mqtt should be disabled without broker")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.json", `{"planner": {"auto_approve": false}, "policy": {"max_hours_per_day": 7}}`)
	t.Setenv("SP_PLANNER__AUTO_APPROVE", "true")
	t.Setenv("SP_POLICY__MAX_HOURS_PER_DAY", "10")
	t.Setenv("SP_LOGGING__LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if !cfg.Planner.AutoApprove {
		t.Errorf("auto_approve not overridden")
	}
	if cfg.Policy.MaxHoursPerDay != 10 {
		t.Errorf("max_hours_per_day: got %v", cfg.Policy.MaxHoursPerDay)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("level: got %s", cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"format":  `export: {format: "xml"}`,
		"policy":  `policy: {max_hours_per_day: 30}`,
		"runlog":  `runlog: {backend: "redis"}`,
		"level":   `logging: {level: "loud"}`,
		"planner": `planner: {max_iterations: -2}`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, "config.yaml", data)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
	if _, err := Load(writeConfig(t, "config.toml", "")); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}
