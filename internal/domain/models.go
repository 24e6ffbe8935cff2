package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DefaultTimeLimitSeconds applies to questions that do not declare their own limit.
const DefaultTimeLimitSeconds = 30

// UserProfile is collected at intake and fixed for the rest of the attempt.
type UserProfile struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required"`
	Technology string `json:"technology" validate:"required"`
}

// Normalized trims surrounding whitespace from every field.
func (p UserProfile) Normalized() UserProfile {
	return UserProfile{
		Name:       strings.TrimSpace(p.Name),
		Email:      strings.TrimSpace(p.Email),
		Technology: strings.TrimSpace(p.Technology),
	}
}

// AnswerType declares how a question is answered.
type AnswerType string

const (
	AnswerFreeText     AnswerType = "free-text"
	AnswerSingleChoice AnswerType = "single-choice"
	AnswerMultiChoice  AnswerType = "multi-choice"
)

// UnmarshalJSON also accepts the html input names used by older catalogs.
func (t *AnswerType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseAnswerType(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML catalogs.
func (t *AnswerType) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := ParseAnswerType(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseAnswerType maps a catalog type name to an AnswerType.
func ParseAnswerType(raw string) (AnswerType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "text", "free-text":
		return AnswerFreeText, nil
	case "radio", "single-choice":
		return AnswerSingleChoice, nil
	case "checkbox", "multi-choice":
		return AnswerMultiChoice, nil
	}
	return "", fmt.Errorf("unknown answer type %q", raw)
}

// AnswerKey holds the expected answer. Single-valued keys hold exactly one element.
// It decodes from either a JSON string or a JSON array of strings.
type AnswerKey []string

func (k *AnswerKey) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*k = nil
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*k = AnswerKey{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("correct answer must be a string or list of strings: %w", err)
	}
	*k = AnswerKey(many)
	return nil
}

func (k *AnswerKey) UnmarshalYAML(unmarshal func(any) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*k = AnswerKey{single}
		return nil
	}
	var many []string
	if err := unmarshal(&many); err != nil {
		return fmt.Errorf("correct answer must be a string or list of strings: %w", err)
	}
	*k = AnswerKey(many)
	return nil
}

// String renders the key the way the result review shows it.
func (k AnswerKey) String() string {
	return strings.Join(k, ", ")
}

// Question is a single catalog entry.
type Question struct {
	ID               int        `json:"id" yaml:"id"`
	Technology       string     `json:"technology" yaml:"technology"`
	Prompt           string     `json:"question" yaml:"question"`
	Type             AnswerType `json:"type" yaml:"type"`
	Options          []string   `json:"options,omitempty" yaml:"options,omitempty"`
	CorrectAnswer    AnswerKey  `json:"correctAnswer" yaml:"correctAnswer"`
	TimeLimitSeconds int        `json:"timerDuration" yaml:"timerDuration"`
}

// HasOption reports whether option is one of the question's choices.
func (q Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// Public strips the answer key so the question can be sent to clients.
func (q Question) Public() QuestionView {
	return QuestionView{
		ID:               q.ID,
		Technology:       q.Technology,
		Prompt:           q.Prompt,
		Type:             q.Type,
		Options:          append([]string(nil), q.Options...),
		TimeLimitSeconds: q.TimeLimitSeconds,
	}
}

// QuestionView is a Question without its answer key.
type QuestionView struct {
	ID               int        `json:"id"`
	Technology       string     `json:"technology"`
	Prompt           string     `json:"question"`
	Type             AnswerType `json:"type"`
	Options          []string   `json:"options,omitempty"`
	TimeLimitSeconds int        `json:"timerDuration"`
}

// Catalog is the static question bank plus the technologies offered at intake.
type Catalog struct {
	Technologies []string   `json:"technologies" yaml:"technologies"`
	Questions    []Question `json:"questions" yaml:"questions"`
}

// ForTechnology returns the questions tagged with technology, in catalog order.
func (c Catalog) ForTechnology(technology string) []Question {
	var subset []Question
	for _, q := range c.Questions {
		if q.Technology == technology {
			subset = append(subset, q)
		}
	}
	return subset
}

// OffersTechnology reports whether technology appears in the intake list.
func (c Catalog) OffersTechnology(technology string) bool {
	for _, t := range c.Technologies {
		if t == technology {
			return true
		}
	}
	return false
}

// Answer is a user's answer to one question. Value is used for free-text and
// single-choice answers, Values for multi-choice answers.
type Answer struct {
	Type   AnswerType `json:"type"`
	Value  string     `json:"value,omitempty"`
	Values []string   `json:"values,omitempty"`
}

func TextAnswer(value string) Answer {
	return Answer{Type: AnswerFreeText, Value: value}
}

func ChoiceAnswer(option string) Answer {
	return Answer{Type: AnswerSingleChoice, Value: option}
}

// MultiChoiceAnswer builds a selection; repeated options are kept once, in first-seen order.
func MultiChoiceAnswer(options ...string) Answer {
	values := make([]string, 0, len(options))
	seen := make(map[string]struct{}, len(options))
	for _, o := range options {
		if _, dup := seen[o]; dup {
			continue
		}
		seen[o] = struct{}{}
		values = append(values, o)
	}
	return Answer{Type: AnswerMultiChoice, Values: values}
}

// IsEmpty reports whether the answer carries nothing worth recording.
func (a Answer) IsEmpty() bool {
	if a.Type == AnswerMultiChoice {
		return len(a.Values) == 0
	}
	return strings.TrimSpace(a.Value) == ""
}

// Toggle returns the multi-choice answer with option added or removed.
func (a Answer) Toggle(option string) Answer {
	next := MultiChoiceAnswer()
	found := false
	for _, v := range a.Values {
		if v == option {
			found = true
			continue
		}
		next.Values = append(next.Values, v)
	}
	if !found {
		next.Values = append(next.Values, option)
	}
	return next
}

func (a Answer) String() string {
	if a.Type == AnswerMultiChoice {
		return strings.Join(a.Values, ", ")
	}
	return a.Value
}

// QuestionStatus is the per-question state shown in the pager.
type QuestionStatus string

const (
	StatusUnanswered QuestionStatus = "unanswered"
	StatusAnswered   QuestionStatus = "answered"
	StatusExpired    QuestionStatus = "expired"
)

// QuizView is a snapshot of an attempt pushed to clients after every change.
type QuizView struct {
	AttemptID        string           `json:"attemptId"`
	Index            int              `json:"index"`
	Total            int              `json:"total"`
	Question         QuestionView     `json:"question"`
	Answer           *Answer          `json:"answer,omitempty"`
	RemainingSeconds int              `json:"remainingSeconds"`
	Expired          bool             `json:"expired"`
	Statuses         []QuestionStatus `json:"statuses"`
	CanSubmit        bool             `json:"canSubmit"`
	Finished         bool             `json:"finished"`
}

// ResultRecord is written once at submission.
type ResultRecord struct {
	UserDetails    UserProfile    `json:"userDetails"`
	Answers        map[int]Answer `json:"answers"`
	TotalQuestions int            `json:"totalQuestions"`
	CorrectAnswers int            `json:"correctAnswers"`
	Percentage     float64        `json:"percentage"`
	SubmittedAt    time.Time      `json:"submittedAt"`
}

// ScoreBand buckets a percentage the way the result page colours it.
type ScoreBand string

const (
	BandHigh   ScoreBand = "high"
	BandMedium ScoreBand = "medium"
	BandLow    ScoreBand = "low"
)

func BandFor(percentage float64) ScoreBand {
	switch {
	case percentage >= 80:
		return BandHigh
	case percentage >= 50:
		return BandMedium
	default:
		return BandLow
	}
}

// ReviewItem pairs a question with the user's answer for the answer review.
type ReviewItem struct {
	QuestionID    int    `json:"questionId"`
	Prompt        string `json:"question"`
	YourAnswer    string `json:"yourAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
	Correct       bool   `json:"correct"`
}

// ResultReview is the result page with answers shown.
type ResultReview struct {
	Result ResultRecord `json:"result"`
	Band   ScoreBand    `json:"band"`
	Items  []ReviewItem `json:"items"`
}
