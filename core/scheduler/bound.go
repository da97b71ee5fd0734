package scheduler

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// headcountLP is the LP relaxation of a slice: minimise the number of
// chosen (employee, window) pairs such that each hour j is covered req[j]
// times and each employee takes at most one window.
type headcountLP struct {
	// covers[k] lists the hour indexes covered by pair k.
	covers [][]int
	// owner[k] is the candidate index of pair k.
	owner []int
	req   []int
	nCand int
}

// solveHeadcountLP runs the simplex method and returns the optimal value.
func solveHeadcountLP(p headcountLP) (opt float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lp panic: %v", r)
		}
	}()
	n := len(p.covers)
	if n == 0 {
		return 0, nil
	}
	rows := len(p.req) + p.nCand + n
	g := mat.NewDense(rows, n, nil)
	h := make([]float64, rows)
	r := 0
	for j, q := range p.req {
		for k, hs := range p.covers {
			for _, hj := range hs {
				if hj == j {
					g.Set(r, k, -1)
					break
				}
			}
		}
		h[r] = -float64(q)
		r++
	}
	for c := 0; c < p.nCand; c++ {
		for k, o := range p.owner {
			if o == c {
				g.Set(r, k, 1)
			}
		}
		h[r] = 1
		r++
	}
	for k := 0; k < n; k++ {
		g.Set(r, k, -1)
		r++
	}
	c := make([]float64, n)
	for i := range c {
		c[i] = 1
	}
	cStd, aStd, bStd := lp.Convert(c, g, h, nil, nil)
	opt, _, err = lpSimplex(cStd, aStd, bStd, 1e-9, nil)
	return opt, err
}

// lpSimplex can be replaced in tests to simulate solver failures.
var lpSimplex = lp.Simplex

// headcountBound converts the LP optimum into an integral lower bound on
// the number of employees.
func headcountBound(opt float64) int {
	return int(math.Ceil(opt - 1e-6))
}
