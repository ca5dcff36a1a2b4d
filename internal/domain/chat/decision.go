package chat

// Outcome is the action taken on a generated answer once its confidence is
// known.
type Outcome string

const (
	// OutcomeAnswer delivers the generated answer as-is.
	OutcomeAnswer Outcome = "answer"
	// OutcomeEscalate delivers the answer flagged for human follow-up.
	OutcomeEscalate Outcome = "escalate_with_answer"
	// OutcomeRefuse discards the generated answer and returns the refusal
	// message instead.
	OutcomeRefuse Outcome = "refuse"
)

// RefusalMessage is returned verbatim whenever the pipeline refuses, whether
// through low confidence or a degraded upstream. Keeping a single fixed string
// means clients can pattern-match on it.
const RefusalMessage = "I don't have enough information to answer that confidently. Your question has been noted for our support team."

// Thresholds hold the two confidence cut points. Invariant: Refuse < Escalate,
// enforced at config load and again by plan overlays.
type Thresholds struct {
	Refuse   float64
	Escalate float64
}

// Decide maps a confidence value onto an outcome. Boundary values belong to
// the higher band: confidence equal to the escalate threshold answers,
// confidence equal to the refuse threshold escalates.
func Decide(confidence float64, t Thresholds) Outcome {
	switch {
	case confidence < t.Refuse:
		return OutcomeRefuse
	case confidence < t.Escalate:
		return OutcomeEscalate
	default:
		return OutcomeAnswer
	}
}
