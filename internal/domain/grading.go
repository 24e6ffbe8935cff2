package domain

// IsCorrect grades answer against q. Multi-choice answers must equal the key as a
// set: same distinct options, nothing missing and nothing extra. Other types need
// an exact match with the single expected value.
func IsCorrect(q Question, answer Answer, answered bool) bool {
	if !answered || answer.Type != q.Type {
		return false
	}
	if q.Type == AnswerMultiChoice {
		return sameSet(answer.Values, q.CorrectAnswer)
	}
	if len(q.CorrectAnswer) != 1 {
		return false
	}
	return answer.Value == q.CorrectAnswer[0]
}

func sameSet(got, want []string) bool {
	have := toSet(got)
	expected := toSet(want)
	if len(have) != len(expected) {
		return false
	}
	for w := range expected {
		if _, ok := have[w]; !ok {
			return false
		}
	}
	return true
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Score grades every question and returns the number answered correctly.
func Score(questions []Question, answers map[int]Answer) int {
	correct := 0
	for _, q := range questions {
		a, ok := answers[q.ID]
		if IsCorrect(q, a, ok) {
			correct++
		}
	}
	return correct
}

// Percentage returns 100*correct/total, or 0 when there are no questions.
func Percentage(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(100*correct) / float64(total)
}
