package forest

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

const leafFeature = -1

// Node is one node of a flattened decision tree. Leaves carry Feature == -1.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Samples   int
	// Value is the mean target of a regression leaf.
	Value float64
	// Dist holds the class probabilities of a classification leaf.
	Dist []float64
}

// Leaf reports whether n has no children.
func (n Node) Leaf() bool { return n.Feature == leafFeature }

// Tree is a CART tree stored as a node slice rooted at index 0.
type Tree struct {
	Nodes []Node
}

// leaf walks x down to its leaf. Samples equal to a threshold go left.
func (t Tree) leaf(x []float64) Node {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf() {
			return n
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t Tree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.Leaf() {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

// criterion scores candidate splits for one target type.
type criterion interface {
	// impurity is the per-sample impurity of the node holding idx.
	impurity(idx []int) float64
	// leaf builds the prediction node for idx.
	leaf(idx []int) Node
	// bestSplit scans the samples sorted by feature and returns the threshold
	// that minimises the sample-weighted impurity of both children.
	bestSplit(sorted []int, feature int) (threshold, cost float64, ok bool)
}

// builder grows one tree over a bootstrap sample.
type builder struct {
	x          [][]float64
	crit       criterion
	params     Params
	mtry       int
	rnd        *rand.Rand
	nodes      []Node
	importance []float64
	scratch    []int
}

const pureEpsilon = 1e-12

func (b *builder) grow(idx []int, depth int) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, b.crit.leaf(idx))

	parent := b.crit.impurity(idx)
	if len(idx) < b.params.MinSamplesSplit || parent <= pureEpsilon {
		return id
	}
	if b.params.MaxDepth > 0 && depth >= b.params.MaxDepth {
		return id
	}

	feature, threshold, cost, ok := b.findSplit(idx)
	if !ok {
		return id
	}
	left, right := partition(b.x, idx, feature, threshold)
	b.importance[feature] += float64(len(idx))*parent - cost

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)

	n := &b.nodes[id]
	n.Feature = feature
	n.Threshold = threshold
	n.Left = l
	n.Right = r
	n.Dist = nil
	return id
}

// findSplit evaluates a random subset of mtry features. When none of them
// separates the samples the search continues over the remaining features.
func (b *builder) findSplit(idx []int) (feature int, threshold, cost float64, ok bool) {
	feature = leafFeature
	for i, f := range b.rnd.Perm(len(b.importance)) {
		if i >= b.mtry && ok {
			break
		}
		sorted := b.sortBy(idx, f)
		thr, c, found := b.crit.bestSplit(sorted, f)
		if !found {
			continue
		}
		if !ok || c < cost {
			feature, threshold, cost, ok = f, thr, c, true
		}
	}
	return feature, threshold, cost, ok
}

func (b *builder) sortBy(idx []int, feature int) []int {
	b.scratch = append(b.scratch[:0], idx...)
	x := b.x
	sort.SliceStable(b.scratch, func(i, j int) bool {
		return x[b.scratch[i]][feature] < x[b.scratch[j]][feature]
	})
	return b.scratch
}

func partition(x [][]float64, idx []int, feature int, threshold float64) (left, right []int) {
	left = make([]int, 0, len(idx))
	right = make([]int, 0, len(idx))
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

// midpoint returns a threshold strictly separating lo from hi.
func midpoint(lo, hi float64) float64 {
	m := lo + (hi-lo)/2
	if m >= hi {
		return lo
	}
	return m
}

// bootstrap draws n row indices with replacement.
func bootstrap(n int, rnd *rand.Rand) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rnd.Intn(n)
	}
	return idx
}

// checkMatrix validates a design matrix and returns its column count.
func checkMatrix(x [][]float64, targets int) (int, error) {
	if len(x) == 0 {
		return 0, ErrEmptyDataset
	}
	if targets != len(x) {
		return 0, fmt.Errorf("%w: %d rows but %d targets", ErrShapeMismatch, len(x), targets)
	}
	cols := len(x[0])
	if cols == 0 {
		return 0, fmt.Errorf("%w: rows have no features", ErrShapeMismatch)
	}
	for i, row := range x {
		if len(row) != cols {
			return 0, fmt.Errorf("%w: row %d has %d features, want %d", ErrShapeMismatch, i, len(row), cols)
		}
	}
	return cols, nil
}

// growForest fits params.Trees trees concurrently. Every tree gets its own
// seed drawn up front from params.Seed, so results do not depend on scheduling.
func growForest(ctx context.Context, x [][]float64, params Params, newCriterion func() criterion) ([]Tree, []float64, error) {
	nFeatures := len(x[0])
	seeds := make([]int64, params.Trees)
	master := rand.New(rand.NewSource(params.Seed))
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	trees := make([]Tree, params.Trees)
	importances := make([][]float64, params.Trees)

	workers := params.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for t := range trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rnd := rand.New(rand.NewSource(seeds[t]))
			b := &builder{
				x:          x,
				crit:       newCriterion(),
				params:     params,
				mtry:       params.featuresPerSplit(nFeatures),
				rnd:        rnd,
				importance: make([]float64, nFeatures),
			}
			b.grow(bootstrap(len(x), rnd), 0)
			trees[t] = Tree{Nodes: b.nodes}
			importances[t] = b.importance
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return trees, normalizeImportances(importances, nFeatures), nil
}
