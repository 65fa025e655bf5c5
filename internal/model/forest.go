package model

import "github.com/mikey/phishing-url-filter/internal/features"

// ForestModel is an ensemble of decision trees. Each tree's leaves hold the
// phishing fraction of the training samples that reached them; the forest
// probability is the unweighted mean over trees.
type ForestModel struct {
	Trees []Tree `json:"trees"`
	// Importances is the normalized Gini importance per schema feature,
	// used by the explainability ranker.
	Importances []float64 `json:"importances"`
}

// Tree stores nodes in a flat array; index 0 is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is either an internal split (go Left when value <= Threshold) or a
// leaf carrying a probability.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Leaf      bool    `json:"leaf"`
	Value     float64 `json:"value"`
}

func (f *ForestModel) predict(v features.Vector) float64 {
	sum := 0.0
	for i := range f.Trees {
		sum += f.Trees[i].predict(v)
	}
	return sum / float64(len(f.Trees))
}

func (t *Tree) predict(v features.Vector) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if v[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}
