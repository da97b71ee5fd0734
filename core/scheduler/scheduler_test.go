package scheduler

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/staffplan/core/model"
)

func strictHard() model.HardConstraints {
	return model.HardConstraints{
		MaxHoursPerDay:    8,
		MaxHoursPerWeek:   37.5,
		MinRestHours:      11,
		RequireSkillMatch: true,
	}
}

func cashiers() []model.Employee {
	return []model.Employee{
		{ID: "e1", Name: "Anna", HourlyCost: 10, Skills: []string{"cashier"}},
		{ID: "e2", Name: "Ben", HourlyCost: 12, Skills: []string{"Cashier"}},
	}
}

func demand(day, tr, role string, qty int) model.DemandRequirement {
	return model.DemandRequirement{Day: day, Time: model.MustParseTimeRange(tr), Role: role, Qty: qty}
}

func run(t *testing.T, in Input) Result {
	t.Helper()
	return New(DefaultConfig(), nil).Solve(context.Background(), in)
}

func totalCost(sol model.Solution) float64 {
	total := 0.0
	for _, a := range sol.Assignments {
		total += a.Cost()
	}
	return total
}

func TestSolveCoversDemandExactly(t *testing.T) {
	res := run(t, Input{
		Employees:   cashiers(),
		Constraints: model.ConstraintSet{Hard: strictHard()},
		Demand:      []model.DemandRequirement{demand("Mon", "09:00-13:00", "cashier", 2)},
	})
	require.Len(t, res.Solution.Assignments, 2)
	for _, a := range res.Solution.Assignments {
		assert.Equal(t, 4.0, a.Hours)
		assert.Equal(t, "09:00-13:00", a.Time.String())
		assert.Equal(t, "cashier", a.Role)
		assert.False(t, a.Fallback)
	}
	assert.InDelta(t, 88.0, totalCost(res.Solution), 1e-9)
	require.Len(t, res.Reports, 1)
	assert.Equal(t, model.SliceOptimal, res.Reports[0].Status)
	assert.Zero(t, res.Reports[0].Shortfall)
	assert.Equal(t, 2.0, res.Reports[0].LowerBound)
}

func TestSolveBestEffortWhenShort(t *testing.T) {
	res := run(t, Input{
		Employees:   cashiers(),
		Constraints: model.ConstraintSet{Hard: strictHard()},
		Demand:      []model.DemandRequirement{demand("Mon", "09:00-13:00", "cashier", 3)},
	})
	assert.Len(t, res.Solution.Assignments, 2)
	require.Len(t, res.Reports, 1)
	assert.Equal(t, model.SliceShort, res.Reports[0].Status)
	assert.Equal(t, 4, res.Reports[0].Shortfall)
}

func TestSolveRespectsAbsence(t *testing.T) {
	res := run(t, Input{
		Employees: cashiers()[:1],
		Absences: []model.Absence{{
			EmployeeID: "e1", Day: "Mon", Time: model.MustParseTimeRange("08:00-18:00"), Type: "vacation",
		}},
		Constraints: model.ConstraintSet{Hard: strictHard()},
		Demand:      []model.DemandRequirement{demand("Mon", "09:00-13:00", "cashier", 1)},
	})
	assert.Empty(t, res.Solution.Assignments)
	require.Len(t, res.Reports, 1)
	assert.Equal(t, model.SliceNoCandidates, res.Reports[0].Status)
	assert.Equal(t, 4, res.Reports[0].Shortfall)
}

func TestSolvePartialAbsenceUsesOtherWindow(t *testing.T) {
	res := run(t, Input{
		Employees: cashiers()[:1],
		Absences: []model.Absence{{
			EmployeeID: "e1", Day: "Mon", Time: model.MustParseTimeRange("09:00-12:00"),
		}},
		Constraints: model.ConstraintSet{Hard: strictHard()},
		Demand: []model.DemandRequirement{
			demand("Mon", "09:00-13:00", "cashier", 1),
			demand("Mon", "13:00-17:00", "cashier", 1),
		},
	})
	require.Len(t, res.Solution.Assignments, 1)
	assert.Equal(t, "13:00-17:00", res.Solution.Assignments[0].Time.String())
	assert.Equal(t, model.SliceShort, res.Reports[0].Status)
	assert.Equal(t, 4, res.Reports[0].Shortfall)
}

func TestSolvePrefersFewerEmployees(t *testing.T) {
	res := run(t, Input{
		Employees:   cashiers(),
		Constraints: model.ConstraintSet{Hard: strictHard()},
		Demand: []model.DemandRequirement{
			demand("Mon", "09:00-13:00", "cashier", 1),
			demand("Mon", "13:00-17:00", "cashier", 1),
		},
	})
	require.Len(t, res.Solution.Assignments, 1)
	a := res.Solution.Assignments[0]
	assert.Equal(t, "e1", a.EmployeeID)
	assert.Equal(t, "09:00-17:00", a.Time.String())
	assert.Equal(t, 8.0, a.Hours)
}

func TestSolveSplitsAtDailyCap(t *testing.T) {
	hard := strictHard()
	hard.MaxHoursPerDay = 4
	res := run(t, Input{
		Employees:   cashiers(),
		Constraints: model.ConstraintSet{Hard: hard},
		Demand:      []model.DemandRequirement{demand("Mon", "09:00-17:00", "cashier", 1)},
	})
	require.Len(t, res.Solution.Assignments, 2)
	assert.Equal(t, "09:00-13:00", res.Solution.Assignments[0].Time.String())
	assert.Equal(t, "13:00-17:00", res.Solution.Assignments[1].Time.String())
	assert.NotEqual(t, res.Solution.Assignments[0].EmployeeID, res.Solution.Assignments[1].EmployeeID)
	for _, a := range res.Solution.Assignments {
		assert.LessOrEqual(t, a.Hours, 4.0)
	}
}

func TestSolveFallbackTiers(t *testing.T) {
	staff := []model.Employee{
		{ID: "cheap", HourlyCost: 5, Skills: []string{"cashier"}},
		{ID: "seller", HourlyCost: 20, Skills: []string{"sales"}},
	}
	hard := strictHard()
	hard.AllowCashierForSales = true
	res := run(t, Input{
		Employees:   staff,
		Constraints: model.ConstraintSet{Hard: hard},
		Demand:      []model.DemandRequirement{demand("Mon", "10:00-14:00", "Sales", 1)},
	})
	require.Len(t, res.Solution.Assignments, 1)
	assert.Equal(t, "seller", res.Solution.Assignments[0].EmployeeID)
	assert.False(t, res.Solution.Assignments[0].Fallback)

	res = run(t, Input{
		Employees:   staff[:1],
		Constraints: model.ConstraintSet{Hard: hard},
		Demand:      []model.DemandRequirement{demand("Mon", "10:00-14:00", "sales", 1)},
	})
	require.Len(t, res.Solution.Assignments, 1)
	assert.True(t, res.Solution.Assignments[0].Fallback)
	assert.Equal(t, 1, res.Reports[0].FallbackUse)

	hard.AllowCashierForSales = false
	res = run(t, Input{
		Employees:   staff[:1],
		Constraints: model.ConstraintSet{Hard: hard},
		Demand:      []model.DemandRequirement{demand("Mon", "10:00-14:00", "sales", 1)},
	})
	assert.Empty(t, res.Solution.Assignments)
	assert.Equal(t, model.SliceNoCandidates, res.Reports[0].Status)
}

func TestSolveNoDoubleBookingAcrossRoles(t *testing.T) {
	res := run(t, Input{
		Employees:   []model.Employee{{ID: "e1", HourlyCost: 10, Skills: []string{"cashier", "sales"}}},
		Constraints: model.ConstraintSet{Hard: strictHard()},
		Demand: []model.DemandRequirement{
			demand("Mon", "09:00-13:00", "sales", 1),
			demand("Mon", "09:00-13:00", "cashier", 1),
		},
	})
	require.Len(t, res.Solution.Assignments, 1)
	assert.Equal(t, "cashier", res.Solution.Assignments[0].Role)
	require.Len(t, res.Reports, 2)
	assert.Equal(t, model.SliceKey{Day: "Mon", Role: "sales"}, res.Reports[1].Key)
	assert.Equal(t, model.SliceNoCandidates, res.Reports[1].Status)
}

func TestSolveEnforcesRestBetweenDays(t *testing.T) {
	res := run(t, Input{
		Employees:   cashiers()[:1],
		Constraints: model.ConstraintSet{Hard: strictHard()},
		Demand: []model.DemandRequirement{
			demand("2025-09-22", "14:00-22:00", "cashier", 1),
			demand("23.09.2025", "06:00-10:00", "cashier", 1),
		},
	})
	require.Len(t, res.Solution.Assignments, 1)
	assert.Equal(t, "2025-09-22", res.Solution.Assignments[0].Day)
	assert.Equal(t, "2025-09-23", res.Reports[1].Key.Day)
	assert.Equal(t, model.SliceNoCandidates, res.Reports[1].Status)
}

func TestSolveEnforcesPersonalWeeklyCap(t *testing.T) {
	emp := cashiers()[:1]
	emp[0].MaxHoursWeek = 6
	res := run(t, Input{
		Employees:   emp,
		Constraints: model.ConstraintSet{Hard: strictHard()},
		Demand: []model.DemandRequirement{
			demand("2025-09-22", "09:00-13:00", "cashier", 1),
			demand("2025-09-23", "09:00-13:00", "cashier", 1),
		},
	})
	assert.Len(t, res.Solution.Assignments, 1)
}

func TestSolveSkipsEmptyAndMalformedDemand(t *testing.T) {
	res := run(t, Input{
		Employees:   cashiers(),
		Constraints: model.ConstraintSet{Hard: strictHard()},
		Demand: []model.DemandRequirement{
			demand("Mon", "09:00-13:00", "cashier", 0),
			demand("Mon", "09:00-13:00", "", 1),
			{Day: "Mon", Time: model.TimeRange{Start: 600, End: 540}, Role: "cashier", Qty: 1},
		},
	})
	assert.Empty(t, res.Solution.Assignments)
	require.Len(t, res.Reports, 1)
	assert.Equal(t, model.SliceEmpty, res.Reports[0].Status)
}

func TestSolveIsDeterministic(t *testing.T) {
	staff := []model.Employee{
		{ID: "a", HourlyCost: 10, Skills: []string{"cashier"}},
		{ID: "b", HourlyCost: 10, Skills: []string{"cashier"}},
		{ID: "c", HourlyCost: 10, Skills: []string{"cashier"}},
		{ID: "d", HourlyCost: 10, Skills: []string{"cashier"}},
	}
	in := Input{
		Employees:   staff,
		Constraints: model.ConstraintSet{Hard: strictHard()},
		Demand: []model.DemandRequirement{
			demand("Mon", "08:00-12:00", "cashier", 2),
			demand("Mon", "12:00-20:00", "cashier", 1),
			demand("Tue", "10:00-14:00", "cashier", 1),
		},
	}
	first := run(t, in)
	for i := 0; i < 3; i++ {
		again := run(t, in)
		assert.Equal(t, first.Solution, again.Solution)
	}
	reversed := in
	reversed.Employees = []model.Employee{staff[3], staff[2], staff[1], staff[0]}
	assert.Equal(t, first.Solution, run(t, reversed).Solution)
}

func TestSolveSurvivesLPFailure(t *testing.T) {
	orig := lpSimplex
	defer func() { lpSimplex = orig }()
	lpSimplex = func([]float64, mat.Matrix, []float64, float64, []int) (float64, []float64, error) {
		return 0, nil, errors.New("boom")
	}
	res := run(t, Input{
		Employees:   cashiers(),
		Constraints: model.ConstraintSet{Hard: strictHard()},
		Demand:      []model.DemandRequirement{demand("Mon", "09:00-13:00", "cashier", 2)},
	})
	assert.Len(t, res.Solution.Assignments, 2)
	assert.Zero(t, res.Reports[0].LowerBound)
}

func TestHeadcountLP(t *testing.T) {
	opt, err := solveHeadcountLP(headcountLP{
		covers: [][]int{{0, 1}, {0}, {1}},
		owner:  []int{0, 1, 2},
		req:    []int{1, 1},
		nCand:  3,
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, opt, 1e-6)
	assert.Equal(t, 1, headcountBound(opt))
	assert.Equal(t, 2, headcountBound(1.5))
	assert.Equal(t, 1, headcountBound(1.0000001))
}

func TestSearchStopsAtNodeLimit(t *testing.T) {
	p := problem{
		req: []int{1, 1},
		candidates: []candidate{
			{tier: TierIdeal, choices: []int{0}, minCost: 100},
			{tier: TierIdeal, choices: []int{1}, minCost: 100},
		},
		choices: []choice{
			{cand: 0, window: 0, covers: []int{0}, cost: 100},
			{cand: 1, window: 1, covers: []int{1}, cost: 100},
		},
	}
	out := solve(context.Background(), p, 0, 1, 0)
	assert.False(t, out.optimal)

	out = solve(context.Background(), p, 0, 0, 0)
	assert.True(t, out.optimal)
	assert.Equal(t, objective{employees: 2, cost: 200}, out.obj)
	assert.Len(t, out.chosen, 2)
}

func TestObjectiveOrdering(t *testing.T) {
	a := objective{shortfall: 0, employees: 3, cost: 1}
	b := objective{shortfall: 1, employees: 1}
	assert.True(t, a.less(b))
	c := objective{employees: 2, fallbacks: 1}
	d := objective{employees: 2, cost: 99999}
	assert.True(t, d.less(c))
	assert.Less(t, d.weighted(), c.weighted())
}

func TestCandidateWindows(t *testing.T) {
	blocks := []model.DemandRequirement{demand("Mon", "06:00-22:00", "cashier", 1)}
	ws := candidateWindows(blocks, hourlyDemand(blocks), DefaultConfig(), 8)
	require.Len(t, ws, 9)
	assert.Equal(t, "06:00-14:00", ws[0].String())
	assert.Equal(t, "14:00-22:00", ws[8].String())

	blocks = []model.DemandRequirement{demand("Mon", "09:00-13:00", "cashier", 1)}
	ws = candidateWindows(blocks, hourlyDemand(blocks), DefaultConfig(), 8)
	require.Len(t, ws, 1)
	assert.Equal(t, "09:00-13:00", ws[0].String())
}

func TestHourlyDemandLastWriteWins(t *testing.T) {
	blocks := []model.DemandRequirement{
		demand("Mon", "09:00-12:00", "cashier", 2),
		demand("Mon", "11:00-13:00", "cashier", 1),
	}
	byHour := hourlyDemand(blocks)
	assert.Equal(t, map[int]int{9: 2, 10: 2, 11: 1, 12: 1}, byHour)
	assert.Equal(t, []int{9, 10, 11, 12}, positiveHours(byHour))
}

func TestLedger(t *testing.T) {
	l := NewLedger(strictHard())
	e := model.Employee{ID: "e1", MaxHoursWeek: 10}
	l.Book("e1", "2025-09-22", model.MustParseTimeRange("09:00-13:00"))
	assert.False(t, l.Allows(e, "2025-09-22", model.MustParseTimeRange("12:00-16:00")))
	assert.True(t, l.Allows(e, "2025-09-22", model.MustParseTimeRange("13:00-17:00")))
	assert.False(t, l.Allows(e, "2025-09-22", model.MustParseTimeRange("13:00-18:00")))
	assert.Equal(t, 4.0, l.DayHours("e1", "2025-09-22"))
	l.Book("e1", "2025-09-23", model.MustParseTimeRange("09:00-13:00"))
	assert.Equal(t, 8.0, l.WeekHours("e1", "2025-09-24"))
	assert.False(t, l.Allows(e, "2025-09-24", model.MustParseTimeRange("09:00-13:00")))
	assert.Equal(t, 10.0, l.WeeklyCap(e))
	assert.Equal(t, 37.5, l.WeeklyCap(model.Employee{ID: "e2"}))
}

func TestSynonymMatch(t *testing.T) {
	tbl := NewSynonymTable(DefaultSynonyms())
	hard := strictHard()
	assert.Equal(t, TierIdeal, tbl.Match([]string{"Kasse"}, "checkout", hard))
	assert.Equal(t, TierIdeal, tbl.Match([]string{"Filialleitung"}, "Store_Manager", hard))
	assert.Equal(t, TierNone, tbl.Match([]string{"assistant manager"}, "store manager", hard))
	hard.AllowAssistantForManager = true
	assert.Equal(t, TierFallback, tbl.Match([]string{"assistant manager"}, "store manager", hard))
	assert.Equal(t, TierNone, tbl.Match([]string{"baker"}, "cashier", hard))
	hard.RequireSkillMatch = false
	assert.Equal(t, TierFallback, tbl.Match([]string{"baker"}, "cashier", hard))
	assert.Equal(t, "fallback", TierFallback.String())
}

func TestCustomSynonyms(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Synonyms = []Synonym{{Role: "bakery", Skill: "baker"}}
	s := New(cfg, nil)
	res := s.Solve(context.Background(), Input{
		Employees:   []model.Employee{{ID: "b1", HourlyCost: 11, Skills: []string{"Baker"}}},
		Constraints: model.ConstraintSet{Hard: strictHard()},
		Demand:      []model.DemandRequirement{demand("Mon", "05:00-09:00", "Bakery", 1)},
	})
	assert.Len(t, res.Solution.Assignments, 1)
	assert.Error(t, Synonym{Role: "x", Skill: "y", Requires: "nope"}.Validate())
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(4000), minorUnits(10, model.MustParseTimeRange("09:00-13:00")))
	assert.Equal(t, int64(1675), minorUnits(13.4, model.MustParseTimeRange("09:00-10:15")))
}

func TestLoadConfig(t *testing.T) {
	data := "timeout_seconds: 2.5\nseed: 7\nsynonyms:\n  - role: bakery\n    skill: baker\n"
	cfg, err := DecodeConfig(bytes.NewBufferString(data), "yaml")
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.TimeoutSeconds)
	assert.Equal(t, int64(7), cfg.Seed)
	require.Len(t, cfg.Synonyms, 1)

	dir := t.TempDir()
	path := filepath.Join(dir, "solver.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"shift_hours": 6, "step_minutes": 30}`), 0o644))
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	cfg.SetDefaults()
	assert.Equal(t, 6.0, cfg.ShiftHours)
	assert.Equal(t, 30, cfg.StepMinutes)
	assert.Equal(t, 10.0, cfg.TimeoutSeconds)
	require.NoError(t, cfg.Validate())

	_, err = DecodeConfig(bytes.NewBufferString("x"), "toml")
	assert.Error(t, err)
	assert.Error(t, Config{ShiftHours: 30}.Validate())
}
