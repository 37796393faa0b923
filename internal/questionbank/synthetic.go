package questionbank

import (
	"fmt"
	"strconv"

	"github.com/mth101/cbt/internal/stage"
)

// syntheticTopics are cycled across generated questions.
var syntheticTopics = []string{"Arithmetic", "Powers", "Linear Equations", "Sequences"}

// Synthetic builds a deterministic practice corpus with perTier questions in
// each difficulty. It is used for demo runs and as a test fixture.
func Synthetic(perTier int) *Bank {
	pools := make(map[stage.Difficulty][]Question, 3)
	for level, d := range stage.AllDifficulties() {
		pool := make([]Question, 0, perTier)
		for i := 0; i < perTier; i++ {
			pool = append(pool, syntheticQuestion(d, level+1, i))
		}
		pools[d] = pool
	}

	b, err := NewBank(pools)
	if err != nil {
		// Generated questions always satisfy the invariants.
		panic(err)
	}
	return b
}

func syntheticQuestion(d stage.Difficulty, level, i int) Question {
	topic := syntheticTopics[i%len(syntheticTopics)]
	a := level*10 + i
	b := level + i%7 + 1

	var prompt string
	var answer int
	switch topic {
	case "Arithmetic":
		prompt = fmt.Sprintf("What is %d + %d?", a, b)
		answer = a + b
	case "Powers":
		prompt = fmt.Sprintf("What is %d squared?", b)
		answer = b * b
	case "Linear Equations":
		prompt = fmt.Sprintf("Solve for x: x - %d = %d", b, a)
		answer = a + b
	default:
		prompt = fmt.Sprintf("What is the next term: %d, %d, %d, ...?", a, a+b, a+2*b)
		answer = a + 3*b
	}

	// Rotate the correct key so answers are not all "A".
	keys := []string{"A", "B", "C", "D"}
	correctIdx := i % len(keys)
	options := make(map[string]string, len(keys))
	for k, key := range keys {
		options[key] = strconv.Itoa(answer + (k-correctIdx)*level)
	}

	return Question{
		ID:          fmt.Sprintf("%s-%d", d, i+1),
		Topic:       topic,
		Prompt:      prompt,
		Options:     options,
		Correct:     keys[correctIdx],
		Explanation: fmt.Sprintf("The answer is %d.", answer),
	}
}
