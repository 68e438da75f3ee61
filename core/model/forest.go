package model

import "fmt"

// Node is one regression tree node. Leaves have Feature == -1.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Value     float64 `json:"value"`
}

// IsLeaf reports whether the node is terminal
func (n Node) IsLeaf() bool { return n.Feature < 0 }

// Tree is a flattened regression tree rooted at Nodes[0]
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t Tree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.IsLeaf() {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Forest averages an ensemble of regression trees
type Forest struct {
	Features    int       `json:"features"`
	Trees       []Tree    `json:"trees"`
	Importances []float64 `json:"importances"`
}

// Kind implements Regressor
func (f *Forest) Kind() string { return "forest" }

// NumFeatures implements Regressor
func (f *Forest) NumFeatures() int { return f.Features }

// Predict implements Regressor
func (f *Forest) Predict(x []float64) (float64, error) {
	if err := checkWidth(f, x); err != nil {
		return 0, err
	}
	sum := 0.0
	for _, t := range f.Trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.Trees)), nil
}

// FeatureImportances implements Importancer
func (f *Forest) FeatureImportances() []float64 {
	return append([]float64(nil), f.Importances...)
}

// Validate checks tree structure so Predict cannot index out of range or loop
func (f *Forest) Validate() error {
	if f.Features <= 0 {
		return fmt.Errorf("forest has no features")
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("forest has no trees")
	}
	if len(f.Importances) != f.Features {
		return fmt.Errorf("forest has %d importances for %d features", len(f.Importances), f.Features)
	}
	for ti, t := range f.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.IsLeaf() {
				continue
			}
			if n.Feature >= f.Features {
				return fmt.Errorf("tree %d node %d splits on feature %d", ti, ni, n.Feature)
			}
			// children must point forward, which rules out cycles
			if n.Left <= ni || n.Right <= ni || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d has invalid children", ti, ni)
			}
		}
	}
	return nil
}
