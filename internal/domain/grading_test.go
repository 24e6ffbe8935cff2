package domain

import "testing"

func TestMultiChoiceIsSetEquality(t *testing.T) {
	q := Question{ID: 1, Type: AnswerMultiChoice, Options: []string{"A", "B", "C"}, CorrectAnswer: AnswerKey{"B", "A"}}

	cases := []struct {
		name   string
		answer Answer
		want   bool
	}{
		{"same order", MultiChoiceAnswer("B", "A"), true},
		{"other order", MultiChoiceAnswer("A", "B"), true},
		{"missing element", MultiChoiceAnswer("A"), false},
		{"extra element", MultiChoiceAnswer("A", "B", "C"), false},
		{"duplicate instead of missing", MultiChoiceAnswer("A", "A"), false},
		{"wrong type", ChoiceAnswer("A"), false},
		{"repeated option", Answer{Type: AnswerMultiChoice, Values: []string{"A", "B", "A"}}, true},
		{"repeated option missing one", Answer{Type: AnswerMultiChoice, Values: []string{"A", "A"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsCorrect(q, tc.answer, true); got != tc.want {
				t.Fatalf("IsCorrect(%v) = %v, want %v", tc.answer.Values, got, tc.want)
			}
		})
	}
}

func TestSingleValueNeedsExactMatch(t *testing.T) {
	text := Question{ID: 1, Type: AnswerFreeText, CorrectAnswer: AnswerKey{"key"}}
	if !IsCorrect(text, TextAnswer("key"), true) {
		t.Fatalf("expected exact text to match")
	}
	if IsCorrect(text, TextAnswer("Key"), true) {
		t.Fatalf("expected case-sensitive comparison")
	}
	if IsCorrect(text, TextAnswer("key"), false) {
		t.Fatalf("expected unanswered question to be wrong")
	}
}

func TestScoreAndPercentage(t *testing.T) {
	var questions []Question
	answers := map[int]Answer{}
	for id := 1; id <= 5; id++ {
		questions = append(questions, Question{ID: id, Type: AnswerSingleChoice, Options: []string{"yes", "no"}, CorrectAnswer: AnswerKey{"yes"}})
	}
	answers[1] = ChoiceAnswer("yes")
	answers[2] = ChoiceAnswer("yes")
	answers[3] = ChoiceAnswer("yes")
	answers[4] = ChoiceAnswer("no")

	correct := Score(questions, answers)
	if correct != 3 {
		t.Fatalf("expected 3 correct, got %d", correct)
	}
	if p := Percentage(correct, len(questions)); p != 60 {
		t.Fatalf("expected 60%%, got %v", p)
	}
	if p := Percentage(7, 100); p != 7 {
		t.Fatalf("expected exactly 7%%, got %v", p)
	}
	if p := Percentage(1, 3); p != float64(100)/3 {
		t.Fatalf("expected 100/3, got %v", p)
	}
	if p := Percentage(0, 0); p != 0 {
		t.Fatalf("expected 0 for empty quiz, got %v", p)
	}
}

func TestBandFor(t *testing.T) {
	if BandFor(80) != BandHigh || BandFor(79.9) != BandMedium || BandFor(50) != BandMedium || BandFor(49) != BandLow {
		t.Fatalf("unexpected band thresholds")
	}
}
