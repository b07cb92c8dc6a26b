// Package anneal implements spec.md §4.4, component D: a simulated
// annealing search over vertex permutations that minimizes the number of
// "runs" of consecutive 1s in a constraint bit-matrix, so that substring
// matches crossing vertex boundaries produce fewer ambiguous branches
// during query.
//
// The cost model, swap-delta arithmetic and iteration loop follow
// original_source's fmd_annealing.c line for line; the three cost
// implementations it keeps semantically equivalent (naive, unrolled,
// compact) are reproduced here as stepCompact, stepUnrolled and stepNaive so
// tests can assert their equivalence directly.
package anneal

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/pangenome/gfmi/constraintset"
	"github.com/pangenome/gfmi/errs"
	"github.com/pangenome/gfmi/graph"
	"github.com/pangenome/gfmi/internal/options"
)

// State holds the full mutable annealing state: the constraint
// bit-matrix (stored column-per-vertex so a row swap is a slice-header
// swap), the current permutation, cached run counts and the best
// solution found so far.
type State struct {
	matrix    [][]byte // matrix[vertexPos] = one row of C constraint bits
	noVert    int
	noConstr  int
	permutation []graph.VID

	blockCounts     []int
	nextBlockCounts []int

	temperature    float64
	coolingFactor  float64
	scalingFactor  float64
	minTemperature float64

	curCost  float64
	curIter  int
	nextCost float64

	bestPermutation []graph.VID
	bestCost        float64

	parallel bool
	rng      *rand.Rand

	seedPermutation []graph.VID
}

// Option configures a State at construction time.
type Option = options.Option[*State]

// WithTemperature sets the initial temperature. Default 1.0.
func WithTemperature(t float64) Option {
	return options.NoError(func(s *State) { s.temperature = t })
}

// WithScalingFactor sets the acceptance-probability scaling factor.
// Default 1.0.
func WithScalingFactor(f float64) Option {
	return options.NoError(func(s *State) { s.scalingFactor = f })
}

// WithCoolingFactor sets the per-iteration temperature decay, which must
// lie in (0,1). Default 0.999999.
func WithCoolingFactor(f float64) Option {
	return options.NoError(func(s *State) { s.coolingFactor = f })
}

// WithMinTemperature sets the temperature floor at which iteration stops.
// Default 1e-6.
func WithMinTemperature(t float64) Option {
	return options.NoError(func(s *State) { s.minTemperature = t })
}

// WithParallelCost enables computing the per-constraint swap delta across
// goroutines, one shard of columns per worker. Per spec.md §5 this must
// not change results: random sampling, accept/reject and the row-pointer
// swap stay single-threaded between parallel regions.
func WithParallelCost(enabled bool) Option {
	return options.NoError(func(s *State) { s.parallel = enabled })
}

// WithRand overrides the random source used for vertex sampling and
// accept/reject decisions. Tests use this for determinism.
func WithRand(r *rand.Rand) Option {
	return options.NoError(func(s *State) { s.rng = r })
}

// WithInitialPermutation seeds the search from perm instead of the
// identity permutation (spec.md §6's `permutation` subcommand `-p` seed
// file). perm must be a bijection over the graph's vertex ids; New
// returns errs.ErrMismatch if it is not.
func WithInitialPermutation(perm []graph.VID) Option {
	return options.NoError(func(s *State) { s.seedPermutation = perm })
}

// New builds annealing state from a graph and its extracted constraint
// sets, one bit-matrix column per constraint, one row per vertex
// position. The initial permutation is the graph's vertex ids in
// insertion order, or the seed given by WithInitialPermutation.
func New(g *graph.Graph, constraints []constraintset.Set, opts ...Option) (*State, error) {
	ids := g.VertexIDs()
	noVert := len(ids)
	noConstr := len(constraints)

	s := &State{
		noVert:          noVert,
		noConstr:        noConstr,
		temperature:     1.0,
		scalingFactor:   1.0,
		coolingFactor:   0.999999,
		minTemperature:  1e-6,
		rng:             rand.New(rand.NewSource(1)),
		permutation:     make([]graph.VID, noVert),
		bestPermutation: make([]graph.VID, noVert),
		blockCounts:     make([]int, noConstr),
		nextBlockCounts: make([]int, noConstr),
	}
	copy(s.permutation, ids)
	copy(s.bestPermutation, ids)

	if err := options.Apply(s, opts...); err != nil {
		return nil, err
	}

	if s.seedPermutation != nil {
		if err := validatePermutation(s.seedPermutation, ids); err != nil {
			return nil, err
		}
		copy(s.permutation, s.seedPermutation)
		copy(s.bestPermutation, s.seedPermutation)
	}

	// vertex position -> index lookup, since constraint sets name vids.
	// Position i holds s.permutation[i], not necessarily ids[i]: a seed
	// permutation reorders which vertex occupies each matrix row.
	posOf := make(map[graph.VID]int, noVert)
	for i, v := range s.permutation {
		posOf[v] = i
	}

	s.matrix = make([][]byte, noVert)
	for i := range s.matrix {
		s.matrix[i] = make([]byte, noConstr)
	}
	for ci, c := range constraints {
		for _, v := range c.Vertices {
			if pos, ok := posOf[v]; ok {
				s.matrix[pos][ci] = 1
			}
		}
	}

	s.curCost = float64(naiveCost(s.matrix, noVert, noConstr, s.blockCounts))
	s.bestCost = s.curCost

	return s, nil
}

// validatePermutation checks that perm is a bijection onto ids.
func validatePermutation(perm, ids []graph.VID) error {
	if len(perm) != len(ids) {
		return fmt.Errorf("%w: seed permutation has %d entries, graph has %d vertices", errs.ErrMismatch, len(perm), len(ids))
	}

	valid := make(map[graph.VID]bool, len(ids))
	for _, v := range ids {
		valid[v] = true
	}

	seen := make(map[graph.VID]bool, len(perm))
	for _, v := range perm {
		if !valid[v] {
			return fmt.Errorf("%w: seed permutation references unknown vid %d", errs.ErrMismatch, v)
		}
		if seen[v] {
			return fmt.Errorf("%w: seed permutation contains vid %d more than once", errs.ErrMismatch, v)
		}
		seen[v] = true
	}

	return nil
}

// naiveCost scans the full matrix column by column, counting runs of
// consecutive 1s, and fills blockCounts with the per-column counts.
func naiveCost(matrix [][]byte, noVert, noConstr int, blockCounts []int) int {
	total := 0
	for c := 0; c < noConstr; c++ {
		inBlock := false
		count := 0
		for v := 0; v < noVert; v++ {
			if matrix[v][c] == 1 {
				if !inBlock {
					count++
					inBlock = true
				}
			} else {
				inBlock = false
			}
		}
		blockCounts[c] = count
		total += count
	}

	return total
}

// CurrentCost returns the cost of the current (accepted) state.
func (s *State) CurrentCost() float64 { return s.curCost }

// BestCost returns the lowest cost observed so far.
func (s *State) BestCost() float64 { return s.bestCost }

// BestPermutation returns a copy of the best permutation found so far:
// bestPermutation[pos] is the original vid now assigned to position pos.
func (s *State) BestPermutation() []graph.VID {
	out := make([]graph.VID, len(s.bestPermutation))
	copy(out, s.bestPermutation)

	return out
}

// Permutation returns a copy of the current (not necessarily best)
// permutation.
func (s *State) Permutation() []graph.VID {
	out := make([]graph.VID, len(s.permutation))
	copy(out, s.permutation)

	return out
}

// Iteration returns the number of completed iterations.
func (s *State) Iteration() int { return s.curIter }

// Temperature returns the current temperature.
func (s *State) Temperature() float64 { return s.temperature }

// HasMore reports whether temperature has not yet cooled below the
// configured floor.
func (s *State) HasMore() bool {
	return s.temperature >= s.minTemperature
}

// stepCompact computes the swap cost for positions v1, v2 using the
// compact O(C) arithmetic form from spec.md §4.4, writing results into
// nextBlockCounts and nextCost. This is the reference implementation.
func (s *State) stepCompact(v1, v2 int) {
	m := s.matrix
	v := s.noVert

	lo := v1
	hi := v2
	if lo > hi {
		lo, hi = hi, lo
	}
	adjacent := hi == lo+1

	compute := func(c int) int {
		if m[v1][c] == m[v2][c] {
			return s.blockCounts[c]
		}
		vs := m[lo][c]
		var a0, a1, a2, a3 int
		if lo > 0 {
			a0 = int(m[lo-1][c])
		}
		if !adjacent {
			a1 = int(m[lo+1][c])
			a2 = int(m[hi-1][c])
		}
		if hi < v-1 {
			a3 = int(m[hi+1][c])
		}
		sign := 1
		if vs == 1 {
			sign = -1
		}
		del := sign * ((a3 + a2) - (a1 + a0))

		return s.blockCounts[c] + del
	}

	if s.parallel {
		s.parallelFill(compute)
	} else {
		total := 0
		for c := 0; c < s.noConstr; c++ {
			nc := compute(c)
			s.nextBlockCounts[c] = nc
			total += nc
		}
		s.nextCost = float64(total)

		return
	}

	total := 0
	for _, nc := range s.nextBlockCounts {
		total += nc
	}
	s.nextCost = float64(total)
}

// parallelFill computes compute(c) for every column across a fixed pool
// of worker goroutines, one contiguous shard of columns each, and writes
// the results into nextBlockCounts. No two workers write the same
// column, so no synchronization beyond the final WaitGroup join is
// needed (spec.md §5).
func (s *State) parallelFill(compute func(int) int) {
	workers := 4
	if s.noConstr < workers {
		workers = s.noConstr
	}
	if workers <= 1 {
		for c := 0; c < s.noConstr; c++ {
			s.nextBlockCounts[c] = compute(c)
		}

		return
	}

	chunk := (s.noConstr + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > s.noConstr {
			hi = s.noConstr
		}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for c := lo; c < hi; c++ {
				s.nextBlockCounts[c] = compute(c)
			}
		}(lo, hi)
	}
	wg.Wait()
}

// stepNaive recomputes the swap cost for positions v1, v2 by swapping
// the rows and rescanning the whole matrix column by column: O(V*C).
// It exists to verify stepCompact's result in tests, not for production
// use.
func (s *State) stepNaive(v1, v2 int) {
	s.swapRows(v1, v2)

	next := make([]int, s.noConstr)
	total := naiveCost(s.matrix, s.noVert, s.noConstr, next)
	s.nextBlockCounts = next
	s.nextCost = float64(total)

	s.swapRows(v1, v2) // undo: this method only measures, never commits
}

// stepUnrolled computes the same O(C) swap delta as stepCompact, but
// case-by-case (adjacent vs general, boundary rows vs interior) instead
// of through the compact arithmetic identity. It exists to verify the
// compact form's correctness in tests.
func (s *State) stepUnrolled(v1, v2 int) {
	m := s.matrix
	v := s.noVert
	next := make([]int, s.noConstr)
	total := 0

	for c := 0; c < s.noConstr; c++ {
		if m[v1][c] == m[v2][c] {
			next[c] = s.blockCounts[c]
			total += next[c]
			continue
		}

		delta := 0
		if v1-v2 == 1 || v2-v1 == 1 {
			u := v1
			if v2 < u {
				u = v2
			}
			u--
			d := v1
			if v2 > d {
				d = v2
			}
			d++
			switch {
			case u == -1:
				if m[u+1][c] == 0 {
					if m[d][c] == 1 {
						delta = 1
					}
				} else if m[d][c] == 1 {
					delta = -1
				}
			case d == v:
				if m[u+1][c] == 0 {
					if m[u][c] == 1 {
						delta = -1
					}
				} else if m[u][c] == 1 {
					delta = 1
				}
			default:
				if m[u+1][c] == 0 {
					if m[u][c] == 1 && m[d][c] == 0 {
						delta = -1
					} else if m[u][c] == 0 && m[d][c] == 1 {
						delta = 1
					}
				} else {
					if m[u][c] == 1 && m[d][c] == 0 {
						delta = 1
					} else if m[u][c] == 0 && m[d][c] == 1 {
						delta = -1
					}
				}
			}
		} else {
			delta += edgeDelta(m, v, v1, c)
			delta += edgeDelta(m, v, v2, c)
		}

		next[c] = s.blockCounts[c] + delta
		total += next[c]
	}

	s.nextBlockCounts = next
	s.nextCost = float64(total)
}

// edgeDelta computes the contribution of flipping row pos (which must
// not be adjacent to its swap partner) to the run count at column c,
// handling the first-row and last-row boundary cases explicitly.
func edgeDelta(m [][]byte, noVert, pos, c int) int {
	switch {
	case pos == 0:
		if m[pos][c] == 0 {
			if m[pos+1][c] == 0 {
				return 1
			}

			return 0
		}
		if m[pos+1][c] == 0 {
			return -1
		}

		return 0
	case pos == noVert-1:
		if m[pos][c] == 0 {
			if m[pos-1][c] == 0 {
				return 1
			}

			return 0
		}
		if m[pos-1][c] == 0 {
			return -1
		}

		return 0
	default:
		if m[pos][c] == 0 {
			if m[pos-1][c] == 1 && m[pos+1][c] == 1 {
				return -1
			}
			if m[pos-1][c] == 0 && m[pos+1][c] == 0 {
				return 1
			}

			return 0
		}
		if m[pos-1][c] == 1 && m[pos+1][c] == 1 {
			return 1
		}
		if m[pos-1][c] == 0 && m[pos+1][c] == 0 {
			return -1
		}

		return 0
	}
}

// swapRows exchanges rows v1 and v2 in the matrix and in the current
// permutation.
func (s *State) swapRows(v1, v2 int) {
	s.matrix[v1], s.matrix[v2] = s.matrix[v2], s.matrix[v1]
	s.permutation[v1], s.permutation[v2] = s.permutation[v2], s.permutation[v1]
}

func (s *State) accept() {
	s.curCost = s.nextCost
	s.blockCounts, s.nextBlockCounts = s.nextBlockCounts, s.blockCounts
}

// Iterate runs one annealing step: propose a random swap, accept or
// reject per the Metropolis criterion, update best-so-far and cool the
// temperature.
func (s *State) Iterate() {
	if s.noVert < 2 {
		s.curIter++
		s.temperature *= s.coolingFactor

		return
	}

	v1 := s.rng.Intn(s.noVert)
	v2 := v1
	for v2 == v1 {
		v2 = s.rng.Intn(s.noVert)
	}

	s.stepCompact(v1, v2)
	s.swapRows(v1, v2)

	acceptProb := 1.0
	if s.nextCost >= s.curCost {
		acceptProb = math.Exp((s.curCost - s.nextCost) / (s.temperature * s.scalingFactor))
	}

	if acceptProb < s.rng.Float64() {
		s.swapRows(v1, v2) // reject: swap back
	} else {
		s.accept()
	}

	if s.curCost < s.bestCost {
		s.bestCost = s.curCost
		copy(s.bestPermutation, s.permutation)
	}

	s.temperature *= s.coolingFactor
	s.curIter++
}

// Run iterates until temperature cools below the configured floor or ctx
// is cancelled/its deadline elapses, whichever comes first. Per spec.md
// §4.4, deadline mode still applies the acceptance rule and maintains
// best-so-far on every completed iteration.
func (s *State) Run(ctx context.Context) {
	for s.HasMore() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		s.Iterate()
	}
}
