package chat

// Confidence weighting. The formula is a contract with the escalation
// thresholds: changing a weight recalibrates every tenant's escalation
// behaviour, so the values live here as named constants and nowhere else.
const (
	WeightRetrievalSimilarity = 0.4
	WeightSourceCoverage      = 0.3
	WeightAnswerCoherence     = 0.3
)

// Score combines retrieval similarity, source coverage, and the model's
// self-assessed coherence into a single confidence value. Inputs are clamped
// to [0,1] before weighting and the sum is clamped again to absorb
// floating-point drift.
func Score(retrievalSimilarity, sourceCoverage, answerCoherence float64) float64 {
	r := clamp01(retrievalSimilarity)
	s := clamp01(sourceCoverage)
	a := clamp01(answerCoherence)
	return clamp01(WeightRetrievalSimilarity*r + WeightSourceCoverage*s + WeightAnswerCoherence*a)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
