package chat

import (
	"strings"
	"unicode"
)

// coverageFloor keeps a grounded-but-paraphrased answer from scoring zero:
// any answer produced against at least one retrieved chunk gets this much
// coverage even when token overlap is empty.
const coverageFloor = 0.2

// SourceCoverage measures how much of the answer is grounded in the assembled
// context, as the fraction of the answer's distinct tokens that also appear in
// the context. It is deterministic: the same answer and context always produce
// the same value. With no context at all the coverage is zero.
func SourceCoverage(answer, contextText string) float64 {
	if strings.TrimSpace(contextText) == "" {
		return 0
	}
	answerTokens := tokenSet(answer)
	if len(answerTokens) == 0 {
		return coverageFloor
	}
	contextTokens := tokenSet(contextText)
	matched := 0
	for tok := range answerTokens {
		if _, ok := contextTokens[tok]; ok {
			matched++
		}
	}
	ratio := float64(matched) / float64(len(answerTokens))
	if ratio < coverageFloor {
		return coverageFloor
	}
	return ratio
}

// tokenSet lowercases and splits on non-alphanumeric runes, dropping tokens
// shorter than three runes so stopwords and punctuation fragments do not
// inflate overlap.
func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, f := range fields {
		if len([]rune(f)) < 3 {
			continue
		}
		set[f] = struct{}{}
	}
	return set
}
