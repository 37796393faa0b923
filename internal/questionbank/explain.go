package questionbank

// Explain returns the review explanation for q. Pre-authored explanations
// are returned as-is; otherwise a generic note keyed on the outcome.
func Explain(q Question, wasCorrect bool) string {
	if q.Explanation != "" {
		return q.Explanation
	}
	prefix := "The correct answer is " + q.Correct + ". "
	if wasCorrect {
		return prefix + "Great job! You understood this concept correctly. Keep up the good work!"
	}
	return prefix + "Let's review this concept. The key is to understand the fundamental principle behind this question. Try reviewing the relevant topic in your textbook."
}
