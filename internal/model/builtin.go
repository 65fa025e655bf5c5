package model

import "github.com/mikey/phishing-url-filter/internal/features"

// Built-in fallback artifacts. They are hand-tuned on the published feature
// schema and let the service classify out of the box before anyone has run
// the trainer. A configured artifact path always wins over these.

// builtinBaseline and builtinScale approximate population statistics over a
// mixed phishing/legitimate URL corpus. Order matches the feature schema.
var builtinBaseline = []float64{
	42, 2, 0.6, 0.72, 0.2, 0.3, 0.04, 0.03, 1.4, 0.05, 4.0,
	1900, 0.05, 0.9, 0.5, 0.3, 0.12,
	0.3, 0.12, 0.05, 0.2, 0.1, 0.3,
}

var builtinScale = []float64{
	26, 1.4, 0.9, 0.45, 0.40, 0.8, 0.2, 0.17, 1.8, 0.07, 0.55,
	2300, 0.3, 0.3, 0.5, 0.46, 0.33,
	0.46, 0.33, 0.22, 0.4, 0.3, 0.8,
}

// BuiltinLinear returns the hand-tuned logistic baseline. Weights apply to
// raw feature values.
func BuiltinLinear() *Artifact {
	return &Artifact{
		Version:      "builtin-1",
		Kind:         KindLinear,
		FeatureNames: features.Names(),
		Threshold:    0.5,
		Baseline:     builtinBaseline,
		Scale:        builtinScale,
		Linear: &LinearModel{
			Bias:        -1.5,
			Standardize: false,
			Weights: []float64{
				0.004, 0.1, 0.3, -1.2, 1.2, 0.5, 1.8, 2.0, 0.15, 1.0, 0.05,
				-0.0005, 0.6, -0.5, -0.2, -0.2, 0.8,
				0.3, 0.9, 0.8, 0.4, 0.5, 0.3,
			},
		},
	}
}

// BuiltinForest returns the hand-tuned primary model: a forest of stumps on
// the strongest phishing signals.
func BuiltinForest() *Artifact {
	stump := func(feature int, threshold, low, high float64) Tree {
		return Tree{Nodes: []Node{
			{Feature: feature, Threshold: threshold, Left: 1, Right: 2},
			{Leaf: true, Value: low},
			{Leaf: true, Value: high},
		}}
	}

	importances := make([]float64, features.Len())
	importances[3] = 0.15  // uses_https
	importances[4] = 0.20  // has_suspicious_keyword
	importances[6] = 0.12  // is_url_shortener
	importances[7] = 0.12  // has_ip_host
	importances[8] = 0.08  // num_special_chars
	importances[10] = 0.08 // url_entropy
	importances[12] = 0.12 // domain_very_new
	importances[18] = 0.13 // has_password_input

	return &Artifact{
		Version:      "builtin-1",
		Kind:         KindForest,
		FeatureNames: features.Names(),
		Threshold:    0.5,
		Baseline:     builtinBaseline,
		Scale:        builtinScale,
		Forest: &ForestModel{
			Importances: importances,
			Trees: []Tree{
				stump(4, 0.5, 0.20, 0.90),  // has_suspicious_keyword
				stump(3, 0.5, 0.70, 0.25),  // uses_https
				stump(6, 0.5, 0.45, 0.95),  // is_url_shortener
				stump(7, 0.5, 0.45, 0.95),  // has_ip_host
				stump(8, 1.5, 0.40, 0.75),  // num_special_chars
				stump(10, 4.2, 0.45, 0.70), // url_entropy
				stump(18, 0.5, 0.45, 0.90), // has_password_input
				stump(12, 0.5, 0.45, 0.90), // domain_very_new
			},
		},
	}
}
