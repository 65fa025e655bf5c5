package model

import "math"

// Classification labels.
const (
	LabelPhishing   = "Phishing"
	LabelLegitimate = "Legitimate"
)

// RiskScore maps a probability to the 0-100 integer scale shown to
// analysts: round(p*100), clamped.
func RiskScore(probability float64) int {
	score := int(math.Round(probability * 100))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Label applies the artifact-bound decision threshold. The models are tuned
// for recall, so the threshold is not necessarily 0.5.
func Label(probability, threshold float64) string {
	if probability >= threshold {
		return LabelPhishing
	}
	return LabelLegitimate
}
