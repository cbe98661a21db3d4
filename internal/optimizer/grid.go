package optimizer

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/rxtech-lab/argo-optimizer/internal/types"
	"github.com/rxtech-lab/argo-optimizer/pkg/errors"
)

// ParameterGrid maps a parameter name to the values it may take.
type ParameterGrid map[string][]any

// Names returns the parameter names in sorted order.
func (g ParameterGrid) Names() []string {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Cardinality is the number of combinations in the cartesian product,
// saturated at math.MaxInt. An empty grid has one combination: the
// strategy defaults.
func (g ParameterGrid) Cardinality() int {
	for _, values := range g {
		if len(values) == 0 {
			return 0
		}
	}

	total := 1
	for _, values := range g {
		if total > math.MaxInt/len(values) {
			return math.MaxInt
		}

		total *= len(values)
	}

	return total
}

// At decodes a mixed-radix index into a parameter set. The last sorted name
// varies fastest.
func (g ParameterGrid) At(index int) types.ParameterSet {
	names := g.Names()
	params := make(types.ParameterSet, len(names))

	for i := len(names) - 1; i >= 0; i-- {
		values := g[names[i]]
		params[names[i]] = values[index%len(values)]
		index /= len(values)
	}

	return params
}

// Enumerate returns every distinct combination of the grid. It fails when the
// grid has more than limit combinations, or more than fit in an int.
func (g ParameterGrid) Enumerate(limit int) ([]types.ParameterSet, error) {
	total := g.Cardinality()
	if total == 0 {
		return nil, errors.New(errors.ErrCodeSearchNoCandidates, "parameter grid has a parameter without values")
	}

	if total == math.MaxInt {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "parameter grid has too many combinations to enumerate")
	}

	if limit > 0 && total > limit {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration,
			"parameter grid has %d combinations, more than the limit of %d", total, limit)
	}

	combinations := make([]types.ParameterSet, 0, total)
	for i := range total {
		combinations = append(combinations, g.At(i))
	}

	return dedupe(combinations), nil
}

// Sample draws up to n distinct combinations with a generator seeded by seed.
// The same grid, n and seed always give the same candidates in the same order.
func (g ParameterGrid) Sample(n int, seed uint64, limit int) ([]types.ParameterSet, error) {
	total := g.Cardinality()
	if total == 0 {
		return nil, errors.New(errors.ErrCodeSearchNoCandidates, "parameter grid has a parameter without values")
	}

	if n <= 0 || n >= total {
		return g.Enumerate(limit)
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	seen := make(map[string]struct{}, n)
	samples := make([]types.ParameterSet, 0, n)

	// Index collisions are retried; distinct indexes may still decode to
	// equal sets when a parameter lists the same value twice.
	for attempts := 0; len(samples) < n && attempts < n*32; attempts++ {
		params := g.At(rng.IntN(total))

		key := params.Key()
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		samples = append(samples, params)
	}

	return samples, nil
}

func dedupe(combinations []types.ParameterSet) []types.ParameterSet {
	seen := make(map[string]struct{}, len(combinations))
	out := combinations[:0]

	for _, params := range combinations {
		key := params.Key()
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		out = append(out, params)
	}

	return out
}
