package training

import (
	"context"
	"math/rand/v2"
	"sort"

	"golang.org/x/sync/errgroup"

	"premium-estimator/core/model"
)

// ForestParams controls bagged regression tree fitting
type ForestParams struct {
	Trees    int    `json:"trees" yaml:"trees"`
	MaxDepth int    `json:"max_depth" yaml:"max_depth"`
	MinLeaf  int    `json:"min_leaf" yaml:"min_leaf"`
	Seed     uint64 `json:"seed" yaml:"seed"`
	Workers  int    `json:"workers" yaml:"workers"`
}

// DefaultForestParams returns the parameters used when none are given
func DefaultForestParams() ForestParams {
	return ForestParams{Trees: 50, MaxDepth: 8, MinLeaf: 5, Seed: 42, Workers: 4}
}

func (p ForestParams) withDefaults() ForestParams {
	d := DefaultForestParams()
	if p.Trees <= 0 {
		p.Trees = d.Trees
	}
	if p.MaxDepth <= 0 {
		p.MaxDepth = d.MaxDepth
	}
	if p.MinLeaf <= 0 {
		p.MinLeaf = d.MinLeaf
	}
	if p.Workers <= 0 {
		p.Workers = d.Workers
	}
	return p
}

// FitForest fits bootstrap-sampled regression trees concurrently. Feature
// importances are the total squared-error reduction per feature, normalized
// to sum to one.
func FitForest(ctx context.Context, t *Table, params ForestParams) (*model.Forest, error) {
	if err := checkTable(t); err != nil {
		return nil, err
	}
	params = params.withDefaults()

	trees := make([]model.Tree, params.Trees)
	gains := make([][]float64, params.Trees)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(params.Workers)
	for i := range trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(params.Seed, uint64(i)))
			b := &treeBuilder{table: t, params: params, gain: make([]float64, t.Width())}
			sample := make([]int, t.Len())
			for k := range sample {
				sample[k] = rng.IntN(t.Len())
			}
			b.grow(sample, 0)
			trees[i] = model.Tree{Nodes: b.nodes}
			gains[i] = b.gain
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	importances := make([]float64, t.Width())
	total := 0.0
	for _, tg := range gains {
		for j, v := range tg {
			importances[j] += v
			total += v
		}
	}
	if total > 0 {
		for j := range importances {
			importances[j] /= total
		}
	}

	f := &model.Forest{Features: t.Width(), Trees: trees, Importances: importances}
	return f, f.Validate()
}

type treeBuilder struct {
	table  *Table
	params ForestParams
	nodes  []model.Node
	gain   []float64
}

// grow appends the subtree for idx and returns its root index. Parents are
// appended before their children so child indices always point forward.
func (b *treeBuilder) grow(idx []int, depth int) int {
	at := len(b.nodes)
	b.nodes = append(b.nodes, model.Node{Feature: -1, Value: b.mean(idx)})

	if depth >= b.params.MaxDepth || len(idx) < 2*b.params.MinLeaf {
		return at
	}
	feature, threshold, gain, ok := b.bestSplit(idx)
	if !ok {
		return at
	}

	var left, right []int
	for _, i := range idx {
		if b.table.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return at
	}
	b.gain[feature] += gain

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[at] = model.Node{Feature: feature, Threshold: threshold, Left: l, Right: r, Value: b.nodes[at].Value}
	return at
}

func (b *treeBuilder) mean(idx []int) float64 {
	sum := 0.0
	for _, i := range idx {
		sum += b.table.Y[i]
	}
	return sum / float64(len(idx))
}

// bestSplit scans every feature for the threshold with the largest
// reduction in squared error
func (b *treeBuilder) bestSplit(idx []int) (feature int, threshold, gain float64, ok bool) {
	n := float64(len(idx))
	sum, sq := 0.0, 0.0
	for _, i := range idx {
		y := b.table.Y[i]
		sum += y
		sq += y * y
	}
	parent := sq - sum*sum/n

	sorted := append([]int(nil), idx...)
	for f := 0; f < b.table.Width(); f++ {
		sort.Slice(sorted, func(a, c int) bool {
			return b.table.X[sorted[a]][f] < b.table.X[sorted[c]][f]
		})

		lsum, lsq := 0.0, 0.0
		for k := 0; k < len(sorted)-1; k++ {
			y := b.table.Y[sorted[k]]
			lsum += y
			lsq += y * y

			nl := k + 1
			if nl < b.params.MinLeaf || len(sorted)-nl < b.params.MinLeaf {
				continue
			}
			cur, next := b.table.X[sorted[k]][f], b.table.X[sorted[k+1]][f]
			if cur == next {
				continue
			}
			rsum, rsq := sum-lsum, sq-lsq
			nr := n - float64(nl)
			sse := (lsq - lsum*lsum/float64(nl)) + (rsq - rsum*rsum/nr)
			if g := parent - sse; g > gain+1e-12 {
				feature, threshold, gain, ok = f, (cur+next)/2, g, true
			}
		}
	}
	return feature, threshold, gain, ok
}
