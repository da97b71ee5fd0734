// Package input loads planning datasets from YAML or JSON files.
package input

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/staffplan/core/logger"
	"github.com/kilianp07/staffplan/core/model"
	"github.com/kilianp07/staffplan/core/pipeline"
)

// SkillList accepts a list of skills or a comma separated string.
type SkillList []string

func splitSkills(s string) SkillList {
	var out SkillList
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (l *SkillList) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		*l = splitSkills(n.Value)
		return nil
	}
	var list []string
	if err := n.Decode(&list); err != nil {
		return err
	}
	*l = list
	return nil
}

func (l *SkillList) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = splitSkills(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*l = list
	return nil
}

type EmployeeDef struct {
	ID           string    `yaml:"id" json:"id"`
	Name         string    `yaml:"name" json:"name"`
	HourlyCost   float64   `yaml:"hourly_cost" json:"hourly_cost"`
	Skills       SkillList `yaml:"skills" json:"skills"`
	MaxHoursWeek float64   `yaml:"max_hours_week" json:"max_hours_week"`
}

func (e EmployeeDef) ToModel() (model.Employee, error) {
	m := model.Employee{
		ID:           strings.TrimSpace(e.ID),
		Name:         e.Name,
		HourlyCost:   e.HourlyCost,
		Skills:       e.Skills,
		MaxHoursWeek: e.MaxHoursWeek,
	}
	return m, m.Validate()
}

type AbsenceDef struct {
	EmployeeID string `yaml:"employee_id" json:"employee_id"`
	Day        string `yaml:"day" json:"day"`
	Time       string `yaml:"time" json:"time"`
	Type       string `yaml:"type" json:"type"`
}

func (a AbsenceDef) ToModel() (model.Absence, error) {
	if strings.TrimSpace(a.EmployeeID) == "" || model.NormalizeDay(a.Day) == "" {
		return model.Absence{}, fmt.Errorf("absence needs employee_id and day")
	}
	tr, err := model.ParseTimeRange(a.Time)
	if err != nil {
		return model.Absence{}, err
	}
	return model.Absence{EmployeeID: strings.TrimSpace(a.EmployeeID), Day: a.Day, Time: tr, Type: a.Type}, nil
}

type DemandDef struct {
	Day  string `yaml:"day" json:"day"`
	Time string `yaml:"time" json:"time"`
	Role string `yaml:"role" json:"role"`
	Qty  int    `yaml:"qty" json:"qty"`
}

func (d DemandDef) ToModel() (model.DemandRequirement, error) {
	tr, err := model.ParseTimeRange(d.Time)
	if err != nil {
		return model.DemandRequirement{}, err
	}
	m := model.DemandRequirement{Day: d.Day, Time: tr, Role: d.Role, Qty: d.Qty}
	return m, m.Validate()
}

// File is the on-disk dataset layout.
type File struct {
	Employees []EmployeeDef `yaml:"employees" json:"employees"`
	Absences  []AbsenceDef  `yaml:"absences" json:"absences"`
	Demand    []DemandDef   `yaml:"demand" json:"demand"`
}

// Decode parses data as YAML or JSON according to ext.
func Decode(data []byte, ext string) (File, error) {
	var f File
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return File{}, err
		}
	case ".json":
		if err := json.Unmarshal(data, &f); err != nil {
			return File{}, err
		}
	default:
		return File{}, fmt.Errorf("unsupported dataset format: %s", ext)
	}
	return f, nil
}

// Dataset converts the file rows, skipping malformed ones with a warning.
func (f File) Dataset(log logger.Logger) pipeline.Dataset {
	if log == nil {
		log = logger.NopLogger{}
	}
	var ds pipeline.Dataset
	for i, e := range f.Employees {
		m, err := e.ToModel()
		if err != nil {
			log.Warnf("employees[%d]: %v", i, err)
			continue
		}
		ds.Employees = append(ds.Employees, m)
	}
	for i, a := range f.Absences {
		m, err := a.ToModel()
		if err != nil {
			log.Warnf("absences[%d]: %v", i, err)
			continue
		}
		ds.Absences = append(ds.Absences, m)
	}
	for i, d := range f.Demand {
		m, err := d.ToModel()
		if err != nil {
			log.Warnf("demand[%d]: %v", i, err)
			continue
		}
		ds.Demand = append(ds.Demand, m)
	}
	return ds
}

// Load reads a dataset file.
func Load(path string, log logger.Logger) (pipeline.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Dataset{}, err
	}
	f, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return pipeline.Dataset{}, fmt.Errorf("%s: %w", path, err)
	}
	return f.Dataset(log), nil
}

// FileIngester reads the dataset from Path on every run.
type FileIngester struct {
	Path string
	Log  logger.Logger
}

// Ingest implements pipeline.Ingester.
func (f FileIngester) Ingest(ctx context.Context) (pipeline.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.Dataset{}, err
	}
	return Load(f.Path, f.Log)
}

// DemandFile resolves demand from a separate file, falling back to the
// uploaded demand and then to Default.
type DemandFile struct {
	Path    string
	Default []model.DemandRequirement
	Log     logger.Logger
}

// Resolve implements pipeline.DemandResolver.
func (d DemandFile) Resolve(ctx context.Context, ds pipeline.Dataset) ([]model.DemandRequirement, error) {
	if d.Path != "" {
		extra, err := Load(d.Path, d.Log)
		if err != nil {
			return nil, err
		}
		if len(extra.Demand) > 0 {
			return extra.Demand, nil
		}
	}
	return pipeline.FallbackDemand{Default: d.Default}.Resolve(ctx, ds)
}
