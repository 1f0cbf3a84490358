package forest

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// varianceCriterion splits regression nodes on the sum of squared errors.
type varianceCriterion struct {
	x [][]float64
	y []float64
}

func (c *varianceCriterion) values(idx []int) []float64 {
	ys := make([]float64, len(idx))
	for i, j := range idx {
		ys[i] = c.y[j]
	}
	return ys
}

func (c *varianceCriterion) impurity(idx []int) float64 {
	return stat.PopVariance(c.values(idx), nil)
}

func (c *varianceCriterion) leaf(idx []int) Node {
	return Node{Feature: leafFeature, Samples: len(idx), Value: stat.Mean(c.values(idx), nil)}
}

func (c *varianceCriterion) bestSplit(sorted []int, feature int) (float64, float64, bool) {
	n := len(sorted)
	var sum, sumSq float64
	for _, i := range sorted {
		sum += c.y[i]
		sumSq += c.y[i] * c.y[i]
	}

	var (
		leftSum, leftSq float64
		bestCost        float64
		bestThr         float64
		found           bool
	)
	for k := 0; k < n-1; k++ {
		y := c.y[sorted[k]]
		leftSum += y
		leftSq += y * y

		lo, hi := c.x[sorted[k]][feature], c.x[sorted[k+1]][feature]
		if lo == hi {
			continue
		}
		nl := float64(k + 1)
		nr := float64(n - k - 1)
		rightSum := sum - leftSum
		rightSq := sumSq - leftSq
		cost := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
		if !found || cost < bestCost {
			bestCost, bestThr, found = cost, midpoint(lo, hi), true
		}
	}
	return bestThr, bestCost, found
}

// giniCriterion splits classification nodes on Gini impurity.
type giniCriterion struct {
	x       [][]float64
	y       []int
	classes int
}

func (c *giniCriterion) counts(idx []int) []float64 {
	counts := make([]float64, c.classes)
	for _, i := range idx {
		counts[c.y[i]]++
	}
	return counts
}

func (c *giniCriterion) impurity(idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	counts := c.counts(idx)
	n := float64(len(idx))
	return 1 - floats.Dot(counts, counts)/(n*n)
}

func (c *giniCriterion) leaf(idx []int) Node {
	dist := c.counts(idx)
	if total := floats.Sum(dist); total > 0 {
		floats.Scale(1/total, dist)
	}
	return Node{Feature: leafFeature, Samples: len(idx), Dist: dist}
}

// bestSplit keeps running sums of squared class counts on both sides so each
// candidate costs O(1). The weighted Gini of a side is n - sum(c^2)/n.
func (c *giniCriterion) bestSplit(sorted []int, feature int) (float64, float64, bool) {
	n := len(sorted)
	left := make([]float64, c.classes)
	right := c.counts(sorted)
	leftSq := 0.0
	rightSq := floats.Dot(right, right)

	var (
		bestCost float64
		bestThr  float64
		found    bool
	)
	for k := 0; k < n-1; k++ {
		cls := c.y[sorted[k]]
		leftSq += 2*left[cls] + 1
		left[cls]++
		rightSq -= 2*right[cls] - 1
		right[cls]--

		lo, hi := c.x[sorted[k]][feature], c.x[sorted[k+1]][feature]
		if lo == hi {
			continue
		}
		nl := float64(k + 1)
		nr := float64(n - k - 1)
		cost := (nl - leftSq/nl) + (nr - rightSq/nr)
		if !found || cost < bestCost {
			bestCost, bestThr, found = cost, midpoint(lo, hi), true
		}
	}
	return bestThr, bestCost, found
}

// normalizeImportances scales each tree's impurity decrease to sum to one and
// averages over trees. Trees that never split contribute nothing.
func normalizeImportances(perTree [][]float64, nFeatures int) []float64 {
	out := make([]float64, nFeatures)
	for _, imp := range perTree {
		total := floats.Sum(imp)
		if total <= 0 {
			continue
		}
		floats.AddScaled(out, 1/total, imp)
	}
	if total := floats.Sum(out); total > 0 {
		floats.Scale(1/total, out)
	}
	return out
}
