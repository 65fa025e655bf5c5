package training

import (
	"math"
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"github.com/mikey/phishing-url-filter/internal/features"
	"github.com/mikey/phishing-url-filter/internal/model"
)

// LogisticOptions control the baseline trainer.
type LogisticOptions struct {
	Epochs       int
	LearningRate float64
	L2           float64
}

// DefaultLogisticOptions returns the standard baseline settings.
func DefaultLogisticOptions() LogisticOptions {
	return LogisticOptions{Epochs: 300, LearningRate: 0.1, L2: 0.001}
}

// ForestOptions control the primary trainer.
type ForestOptions struct {
	Trees    int
	MaxDepth int
	MinLeaf  int
	Seed     int64
}

// DefaultForestOptions returns the standard primary settings.
func DefaultForestOptions() ForestOptions {
	return ForestOptions{Trees: 100, MaxDepth: 8, MinLeaf: 2, Seed: 42}
}

// scaling computes the per-feature mean and standard deviation over the
// training set. Near-constant features get scale 1 so standardization never
// divides by zero.
func scaling(train []Example) (baseline, scale []float64) {
	n := features.Len()
	baseline = make([]float64, n)
	scale = make([]float64, n)
	if len(train) == 0 {
		for i := range scale {
			scale[i] = 1
		}
		return baseline, scale
	}

	for _, ex := range train {
		for i, x := range ex.Vector {
			baseline[i] += x
		}
	}
	for i := range baseline {
		baseline[i] /= float64(len(train))
	}
	for _, ex := range train {
		for i, x := range ex.Vector {
			d := x - baseline[i]
			scale[i] += d * d
		}
	}
	for i := range scale {
		scale[i] = math.Sqrt(scale[i] / float64(len(train)))
		if scale[i] < 1e-9 {
			scale[i] = 1
		}
	}
	return baseline, scale
}

// TrainLogistic fits a standardized logistic-regression baseline with batch
// gradient descent.
func TrainLogistic(train []Example, opts LogisticOptions, logger *zap.Logger) *model.Artifact {
	n := features.Len()
	baseline, scale := scaling(train)

	// Standardize once up front.
	z := make([][]float64, len(train))
	for s, ex := range train {
		row := make([]float64, n)
		for i, x := range ex.Vector {
			row[i] = (x - baseline[i]) / scale[i]
		}
		z[s] = row
	}

	weights := make([]float64, n)
	bias := 0.0
	m := float64(len(train))
	grad := make([]float64, n)

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		for i := range grad {
			grad[i] = 0
		}
		gradBias := 0.0
		for s, row := range z {
			p := 1 / (1 + math.Exp(-(bias + dotProduct(weights, row))))
			err := p - float64(train[s].Label)
			for i, x := range row {
				grad[i] += err * x
			}
			gradBias += err
		}
		for i := range weights {
			weights[i] -= opts.LearningRate * (grad[i]/m + opts.L2*weights[i])
		}
		bias -= opts.LearningRate * gradBias / m
	}

	logger.Info("Trained logistic baseline",
		zap.Int("examples", len(train)),
		zap.Int("epochs", opts.Epochs))

	return &model.Artifact{
		Version:      "1",
		Kind:         model.KindLinear,
		FeatureNames: features.Names(),
		Threshold:    0.5,
		Baseline:     baseline,
		Scale:        scale,
		Linear: &model.LinearModel{
			Weights:     weights,
			Bias:        bias,
			Standardize: true,
		},
	}
}

// TrainForest fits the primary random forest: bootstrap sampling per tree,
// Gini splits over a random sqrt-sized feature subset, leaves holding the
// phishing fraction. Deterministic for a fixed seed.
func TrainForest(train []Example, opts ForestOptions, logger *zap.Logger) *model.Artifact {
	n := features.Len()
	baseline, scale := scaling(train)
	rng := rand.New(rand.NewSource(opts.Seed))

	forest := &model.ForestModel{
		Trees:       make([]model.Tree, 0, opts.Trees),
		Importances: make([]float64, n),
	}

	for t := 0; t < opts.Trees; t++ {
		sample := make([]int, len(train))
		for i := range sample {
			sample[i] = rng.Intn(len(train))
		}
		b := &treeBuilder{
			train:       train,
			opts:        opts,
			rng:         rng,
			importances: forest.Importances,
			total:       float64(len(sample)),
		}
		b.build(sample, 0)
		forest.Trees = append(forest.Trees, model.Tree{Nodes: b.nodes})
	}

	normalize(forest.Importances)

	logger.Info("Trained random forest",
		zap.Int("examples", len(train)),
		zap.Int("trees", opts.Trees),
		zap.Int("max_depth", opts.MaxDepth))

	return &model.Artifact{
		Version:      "1",
		Kind:         model.KindForest,
		FeatureNames: features.Names(),
		Threshold:    0.5,
		Baseline:     baseline,
		Scale:        scale,
		Forest:       forest,
	}
}

// TuneThreshold sweeps the decision threshold over a coarse grid on the
// held-out set and binds the best one to the artifact. Ties keep the lowest
// threshold, which favors recall.
func TuneThreshold(a *model.Artifact, test []Example, logger *zap.Logger) (Metrics, error) {
	yTrue := make([]int, len(test))
	probs := make([]float64, len(test))
	for i, ex := range test {
		yTrue[i] = ex.Label
		p, err := a.Predict(ex.Vector)
		if err != nil {
			return Metrics{}, err
		}
		probs[i] = p
	}

	best := -1.0
	bestThreshold := 0.5
	var bestMetrics Metrics
	for th := 0.05; th < 0.951; th += 0.05 {
		yPred := make([]int, len(probs))
		for i, p := range probs {
			if p >= th {
				yPred[i] = 1
			}
		}
		m := Evaluate(yTrue, yPred)
		if score := m.RecallWeightedScore(); score > best {
			best = score
			bestThreshold = th
			bestMetrics = m
		}
	}

	a.Threshold = bestThreshold
	logger.Info("Tuned decision threshold",
		zap.Float64("threshold", bestThreshold),
		zap.Float64("score", best),
		zap.Float64("recall", bestMetrics.Recall),
		zap.Float64("accuracy", bestMetrics.Accuracy))
	return bestMetrics, nil
}

// EvaluateArtifact scores the artifact on a held-out set at its bound
// threshold.
func EvaluateArtifact(a *model.Artifact, test []Example) (Metrics, error) {
	yTrue := make([]int, len(test))
	yPred := make([]int, len(test))
	for i, ex := range test {
		yTrue[i] = ex.Label
		p, err := a.Predict(ex.Vector)
		if err != nil {
			return Metrics{}, err
		}
		if p >= a.Threshold {
			yPred[i] = 1
		}
	}
	return Evaluate(yTrue, yPred), nil
}

// treeBuilder grows one CART tree into a flat node array.
type treeBuilder struct {
	train       []Example
	opts        ForestOptions
	rng         *rand.Rand
	nodes       []model.Node
	importances []float64
	total       float64
}

// build grows a subtree over the given sample indices and returns its node
// index.
func (b *treeBuilder) build(sample []int, depth int) int {
	pos := 0
	for _, s := range sample {
		pos += b.train[s].Label
	}
	frac := float64(pos) / float64(len(sample))

	if depth >= b.opts.MaxDepth || len(sample) < 2*b.opts.MinLeaf || pos == 0 || pos == len(sample) {
		return b.leaf(frac)
	}

	feature, threshold, gain := b.bestSplit(sample, frac)
	if gain <= 0 {
		return b.leaf(frac)
	}

	var left, right []int
	for _, s := range sample {
		if b.train[s].Vector[feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	if len(left) < b.opts.MinLeaf || len(right) < b.opts.MinLeaf {
		return b.leaf(frac)
	}

	b.importances[feature] += float64(len(sample)) / b.total * gain

	idx := len(b.nodes)
	b.nodes = append(b.nodes, model.Node{Feature: feature, Threshold: threshold})
	b.nodes[idx].Left = b.build(left, depth+1)
	b.nodes[idx].Right = b.build(right, depth+1)
	return idx
}

func (b *treeBuilder) leaf(value float64) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, model.Node{Leaf: true, Value: value})
	return idx
}

// bestSplit evaluates candidate thresholds on a random sqrt-sized feature
// subset and returns the split with the largest Gini impurity decrease.
func (b *treeBuilder) bestSplit(sample []int, frac float64) (feature int, threshold, gain float64) {
	parentGini := 2 * frac * (1 - frac)
	feature = -1

	nFeatures := features.Len()
	k := int(math.Ceil(math.Sqrt(float64(nFeatures))))
	perm := b.rng.Perm(nFeatures)

	for _, f := range perm[:k] {
		vals := make([]float64, 0, len(sample))
		seen := map[float64]bool{}
		for _, s := range sample {
			x := b.train[s].Vector[f]
			if !seen[x] {
				seen[x] = true
				vals = append(vals, x)
			}
		}
		if len(vals) < 2 {
			continue
		}
		sort.Float64s(vals)

		for i := 0; i+1 < len(vals); i++ {
			th := (vals[i] + vals[i+1]) / 2
			var nl, pl, nr, pr int
			for _, s := range sample {
				if b.train[s].Vector[f] <= th {
					nl++
					pl += b.train[s].Label
				} else {
					nr++
					pr += b.train[s].Label
				}
			}
			if nl == 0 || nr == 0 {
				continue
			}
			fl := float64(pl) / float64(nl)
			fr := float64(pr) / float64(nr)
			weighted := (float64(nl)*2*fl*(1-fl) + float64(nr)*2*fr*(1-fr)) / float64(len(sample))
			if g := parentGini - weighted; g > gain {
				gain = g
				feature = f
				threshold = th
			}
		}
	}
	return feature, threshold, gain
}

func dotProduct(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func normalize(v []float64) {
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	if sum == 0 {
		return
	}
	for i := range v {
		v[i] /= sum
	}
}
