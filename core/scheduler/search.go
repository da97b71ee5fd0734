package scheduler

import (
	"context"
	"sort"
	"time"
)

// Objective weights of the single weighted form reported for a slice. The
// search compares the tiers lexicographically, which is what the weights
// encode as long as a slice costs less than FallbackWeight minor units.
const (
	EmployeeWeight int64 = 100_000_000_000
	FallbackWeight int64 = 100_000_000
)

// objective is compared lexicographically: uncovered person-hours, then
// employees, then fallback matches, then cost in minor units.
type objective struct {
	shortfall int
	employees int
	fallbacks int
	cost      int64
}

func (o objective) less(p objective) bool {
	if o.shortfall != p.shortfall {
		return o.shortfall < p.shortfall
	}
	if o.employees != p.employees {
		return o.employees < p.employees
	}
	if o.fallbacks != p.fallbacks {
		return o.fallbacks < p.fallbacks
	}
	return o.cost < p.cost
}

// weighted folds the employee, fallback and cost tiers into one number.
func (o objective) weighted() int64 {
	return int64(o.employees)*EmployeeWeight + int64(o.fallbacks)*FallbackWeight + o.cost
}

// choice is one (candidate, window) decision variable.
type choice struct {
	cand   int
	window int
	covers []int
	cost   int64
}

type candidate struct {
	tier    Tier
	choices []int
	minCost int64
}

// problem is one slice in index form. Hours are indexes into req.
type problem struct {
	req        []int
	candidates []candidate
	choices    []choice
}

type searchResult struct {
	chosen   []int
	obj      objective
	nodes    int
	optimal  bool
	timedOut bool
}

type search struct {
	p        problem
	deadline time.Time
	ctx      context.Context
	maxNodes int
	lpBound  int
	rootSLB  int

	deficit   []int
	used      []bool
	excluded  []int
	path      []int
	cur       objective
	best      objective
	bestPath  []int
	nodes     int
	stopped   bool
	timedOut  bool
	hourOrder [][]int
}

// solve runs a depth-first branch and bound over hour coverage decisions.
// The empty assignment is the initial incumbent, so a result always exists.
func solve(ctx context.Context, p problem, timeout time.Duration, maxNodes, lpBound int) searchResult {
	s := &search{
		p:        p,
		ctx:      ctx,
		maxNodes: maxNodes,
		lpBound:  lpBound,
		deficit:  append([]int(nil), p.req...),
		used:     make([]bool, len(p.candidates)),
		excluded: make([]int, len(p.choices)),
	}
	if timeout > 0 {
		s.deadline = time.Now().Add(timeout)
	}
	s.hourOrder = make([][]int, len(p.req))
	for k, ch := range p.choices {
		for _, h := range ch.covers {
			s.hourOrder[h] = append(s.hourOrder[h], k)
		}
	}
	for h := range s.hourOrder {
		s.sortChoices(s.hourOrder[h])
	}
	total := 0
	for _, q := range p.req {
		total += q
	}
	s.best = objective{shortfall: total}
	s.rootSLB = s.shortfallBound()
	s.dfs()
	return searchResult{
		chosen:   s.bestPath,
		obj:      s.best,
		nodes:    s.nodes,
		optimal:  !s.stopped,
		timedOut: s.timedOut,
	}
}

// sortChoices orders branches: ideal matches first, then wider windows,
// then cheaper ones; candidate and window index break ties.
func (s *search) sortChoices(ks []int) {
	sort.SliceStable(ks, func(i, j int) bool {
		a, b := s.p.choices[ks[i]], s.p.choices[ks[j]]
		ta, tb := s.p.candidates[a.cand].tier, s.p.candidates[b.cand].tier
		if ta != tb {
			return ta < tb
		}
		if len(a.covers) != len(b.covers) {
			return len(a.covers) > len(b.covers)
		}
		if a.cost != b.cost {
			return a.cost < b.cost
		}
		if a.cand != b.cand {
			return a.cand < b.cand
		}
		return a.window < b.window
	})
}

func (s *search) shouldStop() bool {
	if s.stopped {
		return true
	}
	s.nodes++
	if s.maxNodes > 0 && s.nodes > s.maxNodes {
		s.stopped = true
		return true
	}
	if s.nodes&255 == 0 {
		if !s.deadline.IsZero() && time.Now().After(s.deadline) {
			s.stopped, s.timedOut = true, true
		} else if s.ctx.Err() != nil {
			s.stopped = true
		}
	}
	return s.stopped
}

func (s *search) open(k int) bool {
	return s.excluded[k] == 0 && !s.used[s.p.choices[k].cand]
}

// reachable counts unused candidates holding an open choice covering h.
func (s *search) reachable(h int) int {
	seen := make(map[int]bool)
	for _, k := range s.hourOrder[h] {
		if s.open(k) {
			seen[s.p.choices[k].cand] = true
		}
	}
	return len(seen)
}

// shortfallBound is the person-hours no completion can cover.
func (s *search) shortfallBound() int {
	short := s.cur.shortfall
	for h, d := range s.deficit {
		if d <= 0 {
			continue
		}
		if r := s.reachable(h); d > r {
			short += d - r
		}
	}
	return short
}

func (s *search) lowerBound() objective {
	short := s.cur.shortfall
	extra := 0
	for h, d := range s.deficit {
		if d <= 0 {
			continue
		}
		r := s.reachable(h)
		if d > r {
			short += d - r
		}
		extra = max(extra, min(d, r))
	}
	employees := s.cur.employees + extra
	if short == s.rootSLB && s.lpBound > employees {
		extra += s.lpBound - employees
		employees = s.lpBound
	}
	var cheapest int64 = -1
	for c, cand := range s.p.candidates {
		if s.used[c] {
			continue
		}
		if cheapest < 0 || cand.minCost < cheapest {
			cheapest = cand.minCost
		}
	}
	cost := s.cur.cost
	if cheapest > 0 {
		cost += int64(extra) * cheapest
	}
	return objective{shortfall: short, employees: employees, fallbacks: s.cur.fallbacks, cost: cost}
}

// nextHour picks the open hour with the fewest branches.
func (s *search) nextHour() (int, []int) {
	bestH := -1
	var bestKs []int
	for h, d := range s.deficit {
		if d <= 0 {
			continue
		}
		var ks []int
		for _, k := range s.hourOrder[h] {
			if s.open(k) {
				ks = append(ks, k)
			}
		}
		if bestH < 0 || len(ks) < len(bestKs) {
			bestH, bestKs = h, ks
		}
	}
	return bestH, bestKs
}

func (s *search) take(k int) {
	ch := s.p.choices[k]
	s.used[ch.cand] = true
	for _, h := range ch.covers {
		s.deficit[h]--
	}
	s.cur.employees++
	if s.p.candidates[ch.cand].tier == TierFallback {
		s.cur.fallbacks++
	}
	s.cur.cost += ch.cost
	s.path = append(s.path, k)
}

func (s *search) untake(k int) {
	ch := s.p.choices[k]
	s.used[ch.cand] = false
	for _, h := range ch.covers {
		s.deficit[h]++
	}
	s.cur.employees--
	if s.p.candidates[ch.cand].tier == TierFallback {
		s.cur.fallbacks--
	}
	s.cur.cost -= ch.cost
	s.path = s.path[:len(s.path)-1]
}

func (s *search) dfs() {
	if s.shouldStop() {
		return
	}
	h, ks := s.nextHour()
	if h < 0 {
		if s.cur.less(s.best) {
			s.best = s.cur
			s.bestPath = append([]int(nil), s.path...)
		}
		return
	}
	if !s.lowerBound().less(s.best) {
		return
	}
	var tried []int
	for _, k := range ks {
		s.take(k)
		s.dfs()
		s.untake(k)
		s.excluded[k]++
		tried = append(tried, k)
		if s.stopped {
			break
		}
	}
	if !s.stopped {
		// Leave the rest of hour h uncovered.
		d := s.deficit[h]
		s.deficit[h] = 0
		s.cur.shortfall += d
		s.dfs()
		s.cur.shortfall -= d
		s.deficit[h] = d
	}
	for _, k := range tried {
		s.excluded[k]--
	}
}
