package training

// Metrics summarizes binary classification quality on a held-out set.
type Metrics struct {
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64

	TruePositives  int
	FalsePositives int
	TrueNegatives  int
	FalseNegatives int
}

// Evaluate compares predicted labels against ground truth. Phishing is the
// positive class.
func Evaluate(yTrue, yPred []int) Metrics {
	var m Metrics
	for i := range yTrue {
		switch {
		case yTrue[i] == 1 && yPred[i] == 1:
			m.TruePositives++
		case yTrue[i] == 0 && yPred[i] == 1:
			m.FalsePositives++
		case yTrue[i] == 0 && yPred[i] == 0:
			m.TrueNegatives++
		default:
			m.FalseNegatives++
		}
	}

	total := len(yTrue)
	if total > 0 {
		m.Accuracy = float64(m.TruePositives+m.TrueNegatives) / float64(total)
	}
	if m.TruePositives+m.FalsePositives > 0 {
		m.Precision = float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
	}
	if m.TruePositives+m.FalseNegatives > 0 {
		m.Recall = float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

// RecallWeightedScore emphasizes recall over raw accuracy. A missed
// phishing page costs more than a false alarm.
func (m Metrics) RecallWeightedScore() float64 {
	return 0.4*m.Accuracy + 0.6*m.Recall
}
