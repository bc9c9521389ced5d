package model

import "fmt"

// Tree is one fitted decision tree in the flat array layout scikit-learn
// uses: node i splits on Feature[i] at Threshold[i], its children are
// ChildrenLeft[i] and ChildrenRight[i] (-1 for leaves), and Value[i] holds
// the class counts or weights seen at the node.
type Tree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

// Forest averages the leaf class distributions of its trees, as a random
// forest's predict_proba does.
type Forest struct {
	nFeatures int
	nClasses  int
	trees     []Tree
}

// NewForest validates trees against the declared shape.
func NewForest(nFeatures, nClasses int, trees []Tree) (*Forest, error) {
	if len(trees) == 0 {
		return nil, fmt.Errorf("forest has no trees")
	}
	for i := range trees {
		if err := trees[i].validate(nFeatures, nClasses); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return &Forest{nFeatures: nFeatures, nClasses: nClasses, trees: trees}, nil
}

func (t *Tree) validate(nFeatures, nClasses int) error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return fmt.Errorf("empty tree")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return fmt.Errorf("node arrays differ in length")
	}
	for i := 0; i < n; i++ {
		if len(t.Value[i]) != nClasses {
			return fmt.Errorf("node %d: value has %d classes, want %d", i, len(t.Value[i]), nClasses)
		}
		l, r := t.ChildrenLeft[i], t.ChildrenRight[i]
		if l == -1 && r == -1 {
			continue
		}
		// Children always come after their parent, which also rules out cycles.
		if l <= i || l >= n || r <= i || r >= n {
			return fmt.Errorf("node %d: bad children %d/%d", i, l, r)
		}
		if f := t.Feature[i]; f < 0 || f >= nFeatures {
			return fmt.Errorf("node %d: feature index %d out of range", i, f)
		}
	}
	return nil
}

// leaf walks the tree for x. Inputs are compared at float32 precision,
// the precision the splits were learned at.
func (t *Tree) leaf(x []float64) []float64 {
	node := 0
	for t.ChildrenLeft[node] != -1 {
		if float64(float32(x[t.Feature[node]])) <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return t.Value[node]
}

func (f *Forest) PredictProba(x []float64) ([]float64, error) {
	if err := checkWidth(x, f.nFeatures); err != nil {
		return nil, err
	}
	out := make([]float64, f.nClasses)
	for i := range f.trees {
		dist := f.trees[i].leaf(x)
		total := 0.0
		for _, v := range dist {
			total += v
		}
		if total <= 0 {
			return nil, fmt.Errorf("tree %d: empty leaf distribution", i)
		}
		for c, v := range dist {
			out[c] += v / total
		}
	}
	for c := range out {
		out[c] /= float64(len(f.trees))
	}
	return out, nil
}

func (f *Forest) NumFeatures() int { return f.nFeatures }
func (f *Forest) NumClasses() int  { return f.nClasses }

// NumTrees is the ensemble size.
func (f *Forest) NumTrees() int { return len(f.trees) }
