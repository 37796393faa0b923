package grading

import (
	"github.com/mth101/cbt/internal/questionbank"
	"github.com/mth101/cbt/internal/session"
)

// Outcome classifies one reviewed answer.
type Outcome int

const (
	OutcomeUnanswered Outcome = iota
	OutcomeCorrect
	OutcomeWrong
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCorrect:
		return "correct"
	case OutcomeWrong:
		return "wrong"
	default:
		return "unanswered"
	}
}

// ReviewItem is one line of the post-exam answer review.
type ReviewItem struct {
	Position    int
	Question    questionbank.Question
	Chosen      string // empty when unanswered
	Outcome     Outcome
	Explanation string
}

// Review lists every question of sheet with the chosen and correct keys and
// an explanation.
func Review(sheet session.Sheet) []ReviewItem {
	items := make([]ReviewItem, len(sheet.Questions))
	for i, q := range sheet.Questions {
		chosen, answered := sheet.Answers[i]

		outcome := OutcomeUnanswered
		switch {
		case answered && chosen == q.Correct:
			outcome = OutcomeCorrect
		case answered:
			outcome = OutcomeWrong
		}

		items[i] = ReviewItem{
			Position:    i,
			Question:    q,
			Chosen:      chosen,
			Outcome:     outcome,
			Explanation: questionbank.Explain(q, outcome == OutcomeCorrect),
		}
	}
	return items
}
