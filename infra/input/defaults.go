package input

import (
	"github.com/kilianp07/staffplan/core/model"
	"github.com/kilianp07/staffplan/core/pipeline"
)

// DefaultDemand is used when a run supplies no demand.
func DefaultDemand() []model.DemandRequirement {
	return []model.DemandRequirement{
		{Day: "Mon", Time: model.MustParseTimeRange("09:00-13:00"), Role: "cashier", Qty: 2},
		{Day: "Mon", Time: model.MustParseTimeRange("13:00-18:00"), Role: "cashier", Qty: 2},
		{Day: "Mon", Time: model.MustParseTimeRange("09:00-18:00"), Role: "sales", Qty: 1},
	}
}

// SampleDataset is a small roster for dry runs.
func SampleDataset() pipeline.Dataset {
	return pipeline.Dataset{
		Employees: []model.Employee{
			{ID: "E1", Name: "Alice", HourlyCost: 18, Skills: []string{"cashier", "sales"}, MaxHoursWeek: 30},
			{ID: "E2", Name: "Bob", HourlyCost: 20, Skills: []string{"cashier"}, MaxHoursWeek: 20},
			{ID: "E3", Name: "Cora", HourlyCost: 22, Skills: []string{"sales"}, MaxHoursWeek: 35},
		},
	}
}
