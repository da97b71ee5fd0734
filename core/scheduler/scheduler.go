package scheduler

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kilianp07/staffplan/core/logger"
	"github.com/kilianp07/staffplan/core/model"
)

// ErrNoSolution marks a slice left without any assignment while demand
// was positive.
var ErrNoSolution = errors.New("no assignment for slice")

// Input is the immutable snapshot a run hands to the scheduler.
type Input struct {
	Employees   []model.Employee
	Absences    []model.Absence
	Constraints model.ConstraintSet
	Demand      []model.DemandRequirement
}

// Result holds the solution and one report per slice.
type Result struct {
	Solution model.Solution
	Reports  []model.SliceReport
}

// Scheduler solves demand slices in (day, role) order.
type Scheduler struct {
	cfg      Config
	synonyms SynonymTable
	log      logger.Logger
}

// New creates a Scheduler. A nil logger discards output.
func New(cfg Config, log logger.Logger) *Scheduler {
	cfg.SetDefaults()
	if log == nil {
		log = logger.NopLogger{}
	}
	syns := append(DefaultSynonyms(), cfg.Synonyms...)
	return &Scheduler{cfg: cfg, synonyms: NewSynonymTable(syns), log: log}
}

// Config returns the effective configuration.
func (s *Scheduler) Config() Config { return s.cfg }

// Solve assigns employees to every slice. It never fails: malformed demand
// is skipped and slices that cannot be covered yield fewer or no
// assignments, logged as warnings.
func (s *Scheduler) Solve(ctx context.Context, in Input) Result {
	slices := s.groupDemand(in.Demand)
	keys := make([]model.SliceKey, 0, len(slices))
	for k := range slices {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	blocked := blockedIntervals(in.Absences)
	ledger := NewLedger(in.Constraints.Hard)
	employees := orderEmployees(in.Employees, s.cfg.Seed)

	var res Result
	for _, key := range keys {
		asn, rep := s.solveSlice(ctx, key, slices[key], employees, blocked, in.Constraints.Hard, ledger)
		for _, a := range asn {
			ledger.Book(a.EmployeeID, a.Day, a.Time)
		}
		res.Solution.Assignments = append(res.Solution.Assignments, asn...)
		res.Reports = append(res.Reports, rep)
	}
	return res
}

func (s *Scheduler) groupDemand(demand []model.DemandRequirement) map[model.SliceKey][]model.DemandRequirement {
	out := make(map[model.SliceKey][]model.DemandRequirement)
	for _, d := range demand {
		if err := d.Validate(); err != nil {
			s.log.Warnf("skipping demand row: %v", err)
			continue
		}
		out[d.Key()] = append(out[d.Key()], d)
	}
	return out
}

// blockedIntervals indexes absences by employee and canonical day.
func blockedIntervals(absences []model.Absence) map[string]map[string][]model.TimeRange {
	out := make(map[string]map[string][]model.TimeRange)
	for _, a := range absences {
		day := model.NormalizeDay(a.Day)
		if a.EmployeeID == "" || day == "" || a.Time.Validate() != nil {
			continue
		}
		if out[a.EmployeeID] == nil {
			out[a.EmployeeID] = make(map[string][]model.TimeRange)
		}
		out[a.EmployeeID][day] = append(out[a.EmployeeID][day], a.Time)
	}
	return out
}

// orderEmployees sorts by id, then shuffles with the seed so equivalent
// employees do not always favour the lexically first id. The result only
// depends on the input set and the seed.
func orderEmployees(in []model.Employee, seed int64) []model.Employee {
	out := make([]model.Employee, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, e := range in {
		if e.Validate() != nil || seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	sort.SliceStable(out, func(i, j int) bool { return out[i].HourlyCost < out[j].HourlyCost })
	return out
}

// minorUnits converts the cost of a window into cents.
func minorUnits(rate float64, w model.TimeRange) int64 {
	return decimal.NewFromFloat(rate).
		Mul(decimal.NewFromInt(int64(w.Minutes()))).
		Div(decimal.NewFromInt(60)).
		Mul(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

func available(blocks []model.TimeRange, w model.TimeRange) bool {
	for _, b := range blocks {
		if b.Overlaps(w) {
			return false
		}
	}
	return true
}

//gocyclo:ignore
func (s *Scheduler) solveSlice(ctx context.Context, key model.SliceKey, blocks []model.DemandRequirement, employees []model.Employee, blocked map[string]map[string][]model.TimeRange, hard model.HardConstraints, ledger *Ledger) ([]model.Assignment, model.SliceReport) {
	start := time.Now()
	rep := model.SliceReport{Key: key}
	byHour := hourlyDemand(blocks)
	hours := positiveHours(byHour)
	if len(hours) == 0 {
		rep.Status = model.SliceEmpty
		return nil, rep
	}
	hourIdx := make(map[int]int, len(hours))
	req := make([]int, len(hours))
	for i, h := range hours {
		hourIdx[h] = i
		req[i] = byHour[h]
	}
	windows := candidateWindows(blocks, byHour, s.cfg, hard.MaxHoursPerDay)
	rep.Windows = len(windows)
	windowCovers := make([][]int, len(windows))
	for i, w := range windows {
		for _, h := range w.GridHours() {
			if j, ok := hourIdx[h]; ok {
				windowCovers[i] = append(windowCovers[i], j)
			}
		}
	}

	var p problem
	var people []model.Employee
	for _, e := range employees {
		tier := s.synonyms.Match(e.Skills, key.Role, hard)
		if tier == TierNone {
			continue
		}
		cand := candidate{tier: tier, minCost: -1}
		ci := len(p.candidates)
		for wi, w := range windows {
			if !available(blocked[e.ID][key.Day], w) || !ledger.Allows(e, key.Day, w) {
				continue
			}
			cost := minorUnits(e.HourlyCost, w)
			cand.choices = append(cand.choices, len(p.choices))
			p.choices = append(p.choices, choice{cand: ci, window: wi, covers: windowCovers[wi], cost: cost})
			if cand.minCost < 0 || cost < cand.minCost {
				cand.minCost = cost
			}
		}
		if len(cand.choices) == 0 {
			continue
		}
		p.candidates = append(p.candidates, cand)
		people = append(people, e)
	}
	p.req = req
	rep.Candidates = len(p.candidates)

	total := 0
	for _, q := range req {
		total += q
	}
	if len(p.candidates) == 0 {
		rep.Status = model.SliceNoCandidates
		rep.Shortfall = total
		rep.Elapsed = time.Since(start)
		s.log.Warnf("slice %s: %v, no eligible or available employee", key, ErrNoSolution)
		return nil, rep
	}

	lpBound := s.boundFor(key, p)
	rep.LowerBound = float64(lpBound)

	out := solve(ctx, p, s.cfg.Timeout(), s.cfg.MaxNodes, lpBound)
	rep.Nodes = out.nodes
	rep.TimedOut = out.timedOut
	rep.Shortfall = out.obj.shortfall
	rep.FallbackUse = out.obj.fallbacks

	assignments := make([]model.Assignment, 0, len(out.chosen))
	for _, k := range out.chosen {
		ch := p.choices[k]
		e := people[ch.cand]
		w := windows[ch.window]
		assignments = append(assignments, model.Assignment{
			EmployeeID:  e.ID,
			Role:        key.Role,
			Day:         key.Day,
			Time:        w,
			Hours:       w.Hours(),
			CostPerHour: e.HourlyCost,
			Fallback:    p.candidates[ch.cand].tier == TierFallback,
		})
	}
	sort.Slice(assignments, func(i, j int) bool {
		if assignments[i].Time.Start != assignments[j].Time.Start {
			return assignments[i].Time.Start < assignments[j].Time.Start
		}
		return assignments[i].EmployeeID < assignments[j].EmployeeID
	})
	rep.Assigned = len(assignments)
	rep.Elapsed = time.Since(start)

	switch {
	case out.obj.shortfall > 0:
		rep.Status = model.SliceShort
		if len(assignments) == 0 {
			s.log.Warnf("slice %s: %v, %d person-hours uncovered", key, ErrNoSolution, out.obj.shortfall)
		} else {
			s.log.Warnf("slice %s: %d person-hours uncovered", key, out.obj.shortfall)
		}
	case out.optimal:
		rep.Status = model.SliceOptimal
	default:
		rep.Status = model.SliceFeasible
	}
	s.log.Debugw("slice solved", map[string]any{
		"slice":     key.String(),
		"status":    string(rep.Status),
		"assigned":  rep.Assigned,
		"nodes":     rep.Nodes,
		"objective": out.obj.weighted(),
	})
	return assignments, rep
}

// boundFor solves the LP relaxation of the slice, capping each hour at the
// number of candidates able to reach it. Failures only lose the bound.
func (s *Scheduler) boundFor(key model.SliceKey, p problem) int {
	if len(p.choices) > s.cfg.MaxLPVariables {
		return 0
	}
	reach := make([]map[int]bool, len(p.req))
	for _, ch := range p.choices {
		for _, h := range ch.covers {
			if reach[h] == nil {
				reach[h] = make(map[int]bool)
			}
			reach[h][ch.cand] = true
		}
	}
	capped := make([]int, len(p.req))
	for h, q := range p.req {
		capped[h] = min(q, len(reach[h]))
	}
	lpIn := headcountLP{req: capped, nCand: len(p.candidates)}
	for _, ch := range p.choices {
		lpIn.covers = append(lpIn.covers, ch.covers)
		lpIn.owner = append(lpIn.owner, ch.cand)
	}
	opt, err := solveHeadcountLP(lpIn)
	if err != nil {
		s.log.Debugf("slice %s: lp bound unavailable: %v", key, err)
		return 0
	}
	return headcountBound(opt)
}
