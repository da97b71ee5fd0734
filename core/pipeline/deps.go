package pipeline

import (
	"context"

	"github.com/kilianp07/staffplan/core/model"
	"github.com/kilianp07/staffplan/core/scheduler"
)

// Dataset is the raw input of a run.
type Dataset struct {
	Employees []model.Employee
	Absences  []model.Absence
	// Demand holds uploaded demand; it may be empty.
	Demand []model.DemandRequirement
}

// Ingester loads the dataset of a run.
type Ingester interface {
	Ingest(ctx context.Context) (Dataset, error)
}

// DemandResolver produces the demand to plan for.
type DemandResolver interface {
	Resolve(ctx context.Context, ds Dataset) ([]model.DemandRequirement, error)
}

// Solver assigns employees to demand.
type Solver interface {
	Solve(ctx context.Context, in scheduler.Input) scheduler.Result
}

// Exporter publishes a finalized plan.
type Exporter interface {
	Export(ctx context.Context, s model.PlanState) error
}

// RunLog stores the state of a run each time it stops.
type RunLog interface {
	Record(ctx context.Context, s model.PlanState) error
}

// StaticIngester serves a fixed dataset.
type StaticIngester struct {
	Data Dataset
}

// Ingest returns copies of the dataset slices.
func (s StaticIngester) Ingest(context.Context) (Dataset, error) {
	return Dataset{
		Employees: append([]model.Employee(nil), s.Data.Employees...),
		Absences:  append([]model.Absence(nil), s.Data.Absences...),
		Demand:    append([]model.DemandRequirement(nil), s.Data.Demand...),
	}, nil
}

// FallbackDemand uses uploaded demand when present and Default otherwise.
type FallbackDemand struct {
	Default []model.DemandRequirement
}

// Resolve implements DemandResolver.
func (f FallbackDemand) Resolve(_ context.Context, ds Dataset) ([]model.DemandRequirement, error) {
	if len(ds.Demand) > 0 {
		return ds.Demand, nil
	}
	return append([]model.DemandRequirement(nil), f.Default...), nil
}
