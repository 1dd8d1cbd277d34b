// Package grading holds the pure grade arithmetic shared by the submission
// grading path and the standalone course grade ledger.
package grading

// Letter bounds are inclusive on the lower side.
const (
	LetterA = "A"
	LetterB = "B"
	LetterC = "C"
	LetterD = "D"
	LetterF = "F"
)

// Letter maps a 0-100 score to its letter grade.
func Letter(score float64) string {
	switch {
	case score >= 90:
		return LetterA
	case score >= 80:
		return LetterB
	case score >= 70:
		return LetterC
	case score >= 60:
		return LetterD
	default:
		return LetterF
	}
}

// ApplyLatePenalty reduces a score by a multiplicative percentage penalty,
// clamped at zero. A non-positive penalty leaves the score unchanged.
func ApplyLatePenalty(score, penaltyPct float64) float64 {
	if penaltyPct <= 0 {
		return score
	}
	penalized := score * (1 - penaltyPct/100)
	if penalized < 0 {
		return 0
	}
	return penalized
}

// Percentage converts a raw grade into a percentage of maxPoints. A nil grade
// yields nil rather than zero; a non-positive maxPoints is undefined as well.
func Percentage(grade *float64, maxPoints float64) *float64 {
	if grade == nil || maxPoints <= 0 {
		return nil
	}
	pct := (*grade / maxPoints) * 100
	return &pct
}

// ValidScore reports whether a score lies within the accepted 0-100 range.
func ValidScore(score float64) bool {
	return score >= 0 && score <= 100
}
